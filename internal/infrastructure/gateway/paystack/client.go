package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

const (
	defaultBaseURL = "https://api.paystack.co"
	defaultTimeout = 30 * time.Second
	// Maximum response body size (1MB)
	maxResponseSize = 1 << 20
)

// Client calls the Paystack REST API. Amounts cross this boundary in minor
// units (kobo) untouched; no float conversion happens here.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     logger.Interface
}

func NewClient(cfg config.PaystackConfig, log logger.Interface) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("paystack"),
	}
}

var _ gateway.PaymentGateway = (*Client)(nil)

func (c *Client) InitializeTransaction(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResponse, error) {
	body := initializeRequest{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
		Reference:   req.Reference,
		Plan:        req.PlanCode,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}

	var data initializeData
	if err := c.call(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}

	c.logger.Infow("transaction initialized", "reference", data.Reference)
	return &gateway.InitializeResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*gateway.TransactionData, error) {
	if reference == "" {
		return nil, &GatewayError{Message: "verify requires a reference"}
	}

	var data transactionData
	raw, err := c.callRaw(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data)
	if err != nil {
		return nil, err
	}

	return &gateway.TransactionData{
		Status:           data.Status,
		Reference:        data.Reference,
		GatewayReference: fmt.Sprintf("%d", data.ID),
		AmountMinor:      data.Amount,
		Currency:         data.Currency,
		Channel:          data.Channel,
		GatewayResponse:  data.GatewayResponse,
		PaidAt:           data.PaidAt,
		Authorization:    mapAuthorization(data.Authorization),
		Customer: gateway.CustomerData{
			Email:        data.Customer.Email,
			CustomerCode: data.Customer.CustomerCode,
		},
		PlanCode: data.Plan.Code,
		Raw:      raw,
	}, nil
}

func (c *Client) ChargeAuthorization(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	body := chargeAuthorizationRequest{
		Email:             req.Email,
		Amount:            req.AmountMinor,
		Currency:          req.Currency,
		AuthorizationCode: req.AuthorizationCode,
		Reference:         req.Reference,
		Metadata:          req.Metadata,
	}

	var data transactionData
	raw, err := c.callRaw(ctx, http.MethodPost, "/transaction/charge_authorization", body, &data)
	if err != nil {
		return nil, err
	}

	// The provider answers 2xx for declines too; the transaction status
	// inside the body carries the outcome.
	if data.Status != "success" {
		reason := data.GatewayResponse
		if reason == "" {
			reason = data.Status
		}
		c.logger.Warnw("charge declined", "reference", req.Reference, "reason", reason)
		return &gateway.ChargeResult{
			Success:          false,
			Reason:           reason,
			GatewayReference: fmt.Sprintf("%d", data.ID),
			Raw:              raw,
		}, nil
	}

	return &gateway.ChargeResult{
		Success:          true,
		GatewayReference: fmt.Sprintf("%d", data.ID),
		Channel:          data.Channel,
		PaidAt:           data.PaidAt,
		Authorization:    mapAuthorization(data.Authorization),
		Raw:              raw,
	}, nil
}

func (c *Client) CreatePlan(ctx context.Context, req gateway.CreatePlanRequest) (*gateway.PlanData, error) {
	body := createPlanRequest{
		Name:        req.Name,
		Amount:      req.AmountMinor,
		Interval:    req.Interval,
		Currency:    req.Currency,
		Description: req.Description,
	}

	var data planData
	if err := c.call(ctx, http.MethodPost, "/plan", body, &data); err != nil {
		return nil, err
	}

	c.logger.Infow("plan created", "plan_code", data.PlanCode, "name", data.Name)
	return &gateway.PlanData{
		PlanCode:    data.PlanCode,
		Name:        data.Name,
		AmountMinor: data.Amount,
		Interval:    data.Interval,
	}, nil
}

func (c *Client) UpdatePlan(ctx context.Context, planCode string, req gateway.UpdatePlanRequest) error {
	if planCode == "" {
		return &GatewayError{Message: "update plan requires a plan code"}
	}
	body := updatePlanRequest{Name: req.Name, Description: req.Description}
	return c.call(ctx, http.MethodPut, "/plan/"+url.PathEscape(planCode), body, nil)
}

func (c *Client) CreateSubscription(ctx context.Context, req gateway.CreateSubscriptionRequest) (*gateway.SubscriptionData, error) {
	if req.CustomerCode == "" || req.PlanCode == "" {
		return nil, &GatewayError{Message: "create subscription requires a customer and a plan"}
	}

	body := createSubscriptionRequest{
		Customer:      req.CustomerCode,
		Plan:          req.PlanCode,
		Authorization: req.AuthorizationCode,
	}
	if req.StartDate != nil {
		body.StartDate = req.StartDate.UTC().Format(time.RFC3339)
	}

	var data subscriptionData
	if err := c.call(ctx, http.MethodPost, "/subscription", body, &data); err != nil {
		return nil, err
	}

	c.logger.Infow("subscription created", "subscription_code", data.SubscriptionCode, "plan_code", req.PlanCode)
	return &gateway.SubscriptionData{
		SubscriptionCode: data.SubscriptionCode,
		EmailToken:       data.EmailToken,
		Status:           data.Status,
		NextPaymentDate:  data.NextPaymentDate,
		CustomerCode:     data.Customer.CustomerCode,
		PlanCode:         data.Plan.Code,
		Authorization:    mapAuthorization(data.Authorization),
	}, nil
}

func (c *Client) FetchSubscription(ctx context.Context, subscriptionCode string) (*gateway.SubscriptionData, error) {
	if subscriptionCode == "" {
		return nil, &GatewayError{Message: "fetch subscription requires a code"}
	}

	var data subscriptionData
	if err := c.call(ctx, http.MethodGet, "/subscription/"+url.PathEscape(subscriptionCode), nil, &data); err != nil {
		return nil, err
	}

	return &gateway.SubscriptionData{
		SubscriptionCode: data.SubscriptionCode,
		EmailToken:       data.EmailToken,
		Status:           data.Status,
		NextPaymentDate:  data.NextPaymentDate,
		CustomerCode:     data.Customer.CustomerCode,
		PlanCode:         data.Plan.Code,
		Authorization:    mapAuthorization(data.Authorization),
	}, nil
}

func (c *Client) DisableSubscription(ctx context.Context, subscriptionCode, emailToken string) error {
	body := subscriptionToggleRequest{Code: subscriptionCode, Token: emailToken}
	if err := c.call(ctx, http.MethodPost, "/subscription/disable", body, nil); err != nil {
		return err
	}
	c.logger.Infow("subscription disabled", "subscription_code", subscriptionCode)
	return nil
}

func (c *Client) EnableSubscription(ctx context.Context, subscriptionCode, emailToken string) error {
	body := subscriptionToggleRequest{Code: subscriptionCode, Token: emailToken}
	if err := c.call(ctx, http.MethodPost, "/subscription/enable", body, nil); err != nil {
		return err
	}
	c.logger.Infow("subscription enabled", "subscription_code", subscriptionCode)
	return nil
}

// call issues the request and decodes the envelope's data field into out.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.callRaw(ctx, method, path, body, out)
	return err
}

// callRaw is call plus the raw data payload for audit storage.
func (c *Client) callRaw(ctx context.Context, method, path string, body, out interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &GatewayError{Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &GatewayError{Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Message: fmt.Sprintf("%s %s", method, path), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &GatewayError{Message: "read response", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "decode response data", Err: err}
		}
	}
	return env.Data, nil
}

func mapAuthorization(a authorizationData) gateway.AuthorizationData {
	return gateway.AuthorizationData{
		AuthorizationCode: a.AuthorizationCode,
		CardType:          a.CardType,
		Last4:             a.Last4,
		ExpMonth:          a.ExpMonth,
		ExpYear:           a.ExpYear,
		Bank:              a.Bank,
		Reusable:          a.Reusable,
	}
}
