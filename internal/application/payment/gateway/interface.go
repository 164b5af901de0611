package gateway

import (
	"context"
	"time"
)

// PaymentGateway abstracts the payment provider. The application layer only
// depends on this interface; the Paystack client lives in infrastructure.
type PaymentGateway interface {
	// InitializeTransaction opens a hosted checkout for the given reference
	// and returns the URL to redirect the customer to.
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)

	// VerifyTransaction fetches the provider's record for our reference.
	VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error)

	// ChargeAuthorization charges a saved card token without customer
	// interaction. A declined charge is a successful call with
	// ChargeResult.Success == false; an error means the charge outcome is
	// unknown and must not be treated as a decline.
	ChargeAuthorization(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// CreatePlan registers a billing plan on the provider.
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanData, error)

	// UpdatePlan renames a provider-side plan. Amount changes are not
	// propagated; provider plans keep their original price.
	UpdatePlan(ctx context.Context, planCode string, req UpdatePlanRequest) error

	// CreateSubscription attaches a saved card authorization to a plan so the
	// provider bills it on the plan's cycle. Checkout normally creates the
	// provider subscription itself when the plan code rides the transaction;
	// this is the explicit path for linking an existing customer.
	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*SubscriptionData, error)

	// FetchSubscription returns the provider-side subscription state,
	// including the email token needed to disable it.
	FetchSubscription(ctx context.Context, subscriptionCode string) (*SubscriptionData, error)

	// DisableSubscription stops the provider from issuing further charges.
	DisableSubscription(ctx context.Context, subscriptionCode, emailToken string) error

	// EnableSubscription resumes provider-side charging.
	EnableSubscription(ctx context.Context, subscriptionCode, emailToken string) error
}

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	Reference   string
	PlanCode    string
	CallbackURL string
	Metadata    map[string]string
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// AuthorizationData is the reusable card token the provider returns with a
// successful charge, plus the masked card details shown to the user.
type AuthorizationData struct {
	AuthorizationCode string
	CardType          string
	Last4             string
	ExpMonth          string
	ExpYear           string
	Bank              string
	Reusable          bool
}

type CustomerData struct {
	Email        string
	CustomerCode string
}

// TransactionData is the provider's view of a single charge.
type TransactionData struct {
	Status           string
	Reference        string
	GatewayReference string
	AmountMinor      int64
	Currency         string
	Channel          string
	GatewayResponse  string
	PaidAt           *time.Time
	Authorization    AuthorizationData
	Customer         CustomerData
	PlanCode         string
	Raw              []byte
}

type ChargeRequest struct {
	Email             string
	AmountMinor       int64
	Currency          string
	AuthorizationCode string
	Reference         string
	Metadata          map[string]string
}

// ChargeResult is the outcome of a charge attempt that reached the provider.
// Declines are data, not errors.
type ChargeResult struct {
	Success          bool
	Reason           string
	GatewayReference string
	Channel          string
	PaidAt           *time.Time
	Authorization    AuthorizationData
	Raw              []byte
}

type CreatePlanRequest struct {
	Name        string
	AmountMinor int64
	Currency    string
	Interval    string
	Description string
}

type UpdatePlanRequest struct {
	Name        string
	Description string
}

type PlanData struct {
	PlanCode    string
	Name        string
	AmountMinor int64
	Interval    string
}

type CreateSubscriptionRequest struct {
	CustomerCode      string
	PlanCode          string
	AuthorizationCode string
	StartDate         *time.Time
}

type SubscriptionData struct {
	SubscriptionCode string
	EmailToken       string
	Status           string
	NextPaymentDate  *time.Time
	CustomerCode     string
	PlanCode         string
	Authorization    AuthorizationData
}
