package gateway

import (
	"context"
	"fmt"
	"time"
)

// MockGateway is a configurable stand-in for local development and tests.
type MockGateway struct {
	shouldSucceed bool
	declineReason string
}

func NewMockGateway(shouldSucceed bool) *MockGateway {
	return &MockGateway{
		shouldSucceed: shouldSucceed,
		declineReason: "insufficient funds",
	}
}

var _ PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	return &InitializeResponse{
		AuthorizationURL: fmt.Sprintf("https://mock-checkout.example.com/pay?ref=%s", req.Reference),
		AccessCode:       fmt.Sprintf("MOCK_%s", req.Reference),
		Reference:        req.Reference,
	}, nil
}

func (m *MockGateway) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	status := "success"
	if !m.shouldSucceed {
		status = "failed"
	}
	now := time.Now().UTC()
	return &TransactionData{
		Status:           status,
		Reference:        reference,
		GatewayReference: fmt.Sprintf("MOCK_%d", now.Unix()),
		AmountMinor:      500000,
		Currency:         "NGN",
		Channel:          "card",
		PaidAt:           &now,
		Authorization: AuthorizationData{
			AuthorizationCode: "AUTH_mock",
			CardType:          "visa",
			Last4:             "4081",
			Reusable:          true,
		},
		Customer: CustomerData{Email: "mock@example.com", CustomerCode: "CUS_mock"},
	}, nil
}

func (m *MockGateway) ChargeAuthorization(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !m.shouldSucceed {
		return &ChargeResult{Success: false, Reason: m.declineReason}, nil
	}
	now := time.Now().UTC()
	return &ChargeResult{
		Success:          true,
		GatewayReference: fmt.Sprintf("MOCK_%d", now.Unix()),
		Channel:          "card",
		PaidAt:           &now,
		Authorization: AuthorizationData{
			AuthorizationCode: req.AuthorizationCode,
			Reusable:          true,
		},
	}, nil
}

func (m *MockGateway) CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanData, error) {
	return &PlanData{
		PlanCode:    fmt.Sprintf("PLN_mock_%d", time.Now().UnixNano()),
		Name:        req.Name,
		AmountMinor: req.AmountMinor,
		Interval:    req.Interval,
	}, nil
}

func (m *MockGateway) UpdatePlan(ctx context.Context, planCode string, req UpdatePlanRequest) error {
	return nil
}

func (m *MockGateway) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*SubscriptionData, error) {
	return &SubscriptionData{
		SubscriptionCode: fmt.Sprintf("SUB_mock_%d", time.Now().UnixNano()),
		EmailToken:       "mock_token",
		Status:           "active",
		CustomerCode:     req.CustomerCode,
		PlanCode:         req.PlanCode,
	}, nil
}

func (m *MockGateway) FetchSubscription(ctx context.Context, subscriptionCode string) (*SubscriptionData, error) {
	return &SubscriptionData{
		SubscriptionCode: subscriptionCode,
		EmailToken:       "mock_token",
		Status:           "active",
		CustomerCode:     "CUS_mock",
	}, nil
}

func (m *MockGateway) DisableSubscription(ctx context.Context, subscriptionCode, emailToken string) error {
	if !m.shouldSucceed {
		return fmt.Errorf("mock gateway: disable rejected for %s", subscriptionCode)
	}
	return nil
}

func (m *MockGateway) EnableSubscription(ctx context.Context, subscriptionCode, emailToken string) error {
	if !m.shouldSucceed {
		return fmt.Errorf("mock gateway: enable rejected for %s", subscriptionCode)
	}
	return nil
}
