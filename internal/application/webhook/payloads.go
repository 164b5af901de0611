package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the outer shape of every delivery.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type authorizationPayload struct {
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Bank              string `json:"bank"`
	Reusable          bool   `json:"reusable"`
}

type customerPayload struct {
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
}

type planPayload struct {
	PlanCode string `json:"plan_code"`
	Name     string `json:"name"`
}

// chargePayload backs charge.success.
type chargePayload struct {
	ID              int64                `json:"id"`
	Status          string               `json:"status"`
	Reference       string               `json:"reference"`
	Amount          int64                `json:"amount"`
	Currency        string               `json:"currency"`
	Channel         string               `json:"channel"`
	GatewayResponse string               `json:"gateway_response"`
	PaidAt          *time.Time           `json:"paid_at"`
	Authorization   authorizationPayload `json:"authorization"`
	Customer        customerPayload      `json:"customer"`
	Plan            planPayload          `json:"plan"`
	Metadata        chargeMetadata       `json:"metadata"`
}

// chargeMetadata is what we attached at checkout. The provider echoes it
// back as an object but sends an empty string when nothing was attached.
type chargeMetadata struct {
	SubscriptionSID string
}

func (m *chargeMetadata) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var obj struct {
		SubscriptionSID string `json:"subscription_sid"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	m.SubscriptionSID = obj.SubscriptionSID
	return nil
}

type subscriptionPayload struct {
	SubscriptionCode string               `json:"subscription_code"`
	EmailToken       string               `json:"email_token"`
	Status           string               `json:"status"`
	Amount           int64                `json:"amount"`
	NextPaymentDate  *time.Time           `json:"next_payment_date"`
	Customer         customerPayload      `json:"customer"`
	Plan             planPayload          `json:"plan"`
	Authorization    authorizationPayload `json:"authorization"`
}

// invoicePayload backs invoice.create, invoice.update and
// invoice.payment_failed.
type invoicePayload struct {
	InvoiceCode  string          `json:"invoice_code"`
	Amount       int64           `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	Paid         bool            `json:"paid"`
	PeriodStart  *time.Time      `json:"period_start"`
	PeriodEnd    *time.Time      `json:"period_end"`
	Customer     customerPayload `json:"customer"`
	Subscription struct {
		SubscriptionCode string     `json:"subscription_code"`
		NextPaymentDate  *time.Time `json:"next_payment_date"`
	} `json:"subscription"`
	Transaction struct {
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		Amount    int64      `json:"amount"`
		Currency  string     `json:"currency"`
		PaidAt    *time.Time `json:"paid_at"`
	} `json:"transaction"`
	Authorization authorizationPayload `json:"authorization"`
	Description   string               `json:"description"`
}

// expiringCardPayload is one entry of subscription.expiring_cards, which
// delivers an array.
type expiringCardPayload struct {
	ExpiryDate   string          `json:"expiry_date"`
	Customer     customerPayload `json:"customer"`
	Subscription struct {
		SubscriptionCode string `json:"subscription_code"`
	} `json:"subscription"`
	Card authorizationPayload `json:"card"`
}

// eventKey derives a stable identity for deduplication. Charges key on our
// reference and subscription events on the subscription code. Invoice keys
// also carry the invoice status and paid flag, because the provider delivers
// the same invoice code again as its lifecycle moves from pending to settled
// and the later delivery is new information, not a duplicate. Anything
// without a natural key falls back to a body hash.
func eventKey(eventType string, data json.RawMessage, body []byte) string {
	var probe struct {
		Reference    string `json:"reference"`
		InvoiceCode  string `json:"invoice_code"`
		Status       string `json:"status"`
		Paid         bool   `json:"paid"`
		Code         string `json:"subscription_code"`
		Subscription struct {
			SubscriptionCode string `json:"subscription_code"`
		} `json:"subscription"`
	}
	_ = json.Unmarshal(data, &probe)

	switch {
	case probe.Reference != "":
		return eventType + ":" + probe.Reference
	case probe.InvoiceCode != "":
		return fmt.Sprintf("%s:%s:%s:%v", eventType, probe.InvoiceCode, probe.Status, probe.Paid)
	case probe.Code != "":
		return eventType + ":" + probe.Code
	case probe.Subscription.SubscriptionCode != "":
		return eventType + ":" + probe.Subscription.SubscriptionCode
	}

	sum := sha256.Sum256(body)
	return eventType + ":" + hex.EncodeToString(sum[:16])
}
