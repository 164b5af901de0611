package paystack

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the wrapper every Paystack response uses.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GatewayError reports a call that did not produce a usable outcome: the
// provider was unreachable, returned a non-2xx status, or sent a malformed
// body. Callers must not read it as a payment decline.
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paystack: %s: %v", e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("paystack: %s (http %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("paystack: %s", e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference,omitempty"`
	Plan        string            `json:"plan,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type chargeAuthorizationRequest struct {
	Email             string            `json:"email"`
	Amount            int64             `json:"amount"`
	Currency          string            `json:"currency,omitempty"`
	AuthorizationCode string            `json:"authorization_code"`
	Reference         string            `json:"reference,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type authorizationData struct {
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Bank              string `json:"bank"`
	Reusable          bool   `json:"reusable"`
}

type customerData struct {
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
}

// transactionData is shared by verify and charge_authorization responses.
// The plan field arrives as a plain code string on some events and as an
// object on others, so it gets custom decoding.
type transactionData struct {
	ID              int64             `json:"id"`
	Status          string            `json:"status"`
	Reference       string            `json:"reference"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Channel         string            `json:"channel"`
	GatewayResponse string            `json:"gateway_response"`
	PaidAt          *time.Time        `json:"paid_at"`
	Authorization   authorizationData `json:"authorization"`
	Customer        customerData      `json:"customer"`
	Plan            planField         `json:"plan"`
}

// planField accepts "PLN_xxx", null, or {"plan_code": "PLN_xxx", ...}.
type planField struct {
	Code string
}

func (p *planField) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &p.Code)
	}
	var obj struct {
		PlanCode string `json:"plan_code"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Code = obj.PlanCode
	return nil
}

type createPlanRequest struct {
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Interval    string `json:"interval"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

type updatePlanRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type planData struct {
	PlanCode string `json:"plan_code"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Interval string `json:"interval"`
}

type createSubscriptionRequest struct {
	Customer      string `json:"customer"`
	Plan          string `json:"plan"`
	Authorization string `json:"authorization,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
}

type subscriptionData struct {
	SubscriptionCode string            `json:"subscription_code"`
	EmailToken       string            `json:"email_token"`
	Status           string            `json:"status"`
	NextPaymentDate  *time.Time        `json:"next_payment_date"`
	Customer         customerData      `json:"customer"`
	Plan             planField         `json:"plan"`
	Authorization    authorizationData `json:"authorization"`
}

type subscriptionToggleRequest struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}
