package payment

import (
	"fmt"
	"time"

	vo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/id"
)

// PaymentTransaction is one charge attempt against a subscription. The
// ledger is append-only: retries and renewals each create a new transaction,
// and a transaction that reached a final status is never reopened.
type PaymentTransaction struct {
	id             uint
	sid            string
	reference      string
	subscriptionID uint
	userID         uint
	txnType        vo.TransactionType
	status         vo.TransactionStatus
	amount         vo.Money

	gatewayReference string
	channel          string
	failureReason    *string
	rawResponse      []byte
	paidAt           *time.Time

	retryOf *uint

	createdAt time.Time
	updatedAt time.Time
}

// NewPaymentTransaction opens a pending charge attempt. The reference is
// ours, generated here and handed to the gateway so webhook payloads can be
// matched back.
func NewPaymentTransaction(subscriptionID, userID uint, txnType vo.TransactionType, amount vo.Money) (*PaymentTransaction, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("amount must be positive")
	}

	now := biztime.NowUTC()
	sid := id.MustGenerateWithPrefix(id.PrefixTransaction, id.DefaultLength)
	return &PaymentTransaction{
		sid:            sid,
		reference:      sid,
		subscriptionID: subscriptionID,
		userID:         userID,
		txnType:        txnType,
		status:         vo.TxnStatusPending,
		amount:         amount,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// TransactionReconstructParams carries persisted state back into the aggregate.
type TransactionReconstructParams struct {
	ID               uint
	SID              string
	Reference        string
	SubscriptionID   uint
	UserID           uint
	Type             vo.TransactionType
	Status           vo.TransactionStatus
	Amount           vo.Money
	GatewayReference string
	Channel          string
	FailureReason    *string
	RawResponse      []byte
	PaidAt           *time.Time
	RetryOf          *uint
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func ReconstructTransaction(p TransactionReconstructParams) (*PaymentTransaction, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("transaction ID cannot be zero")
	}
	if p.Reference == "" {
		return nil, fmt.Errorf("transaction reference is required")
	}

	return &PaymentTransaction{
		id:               p.ID,
		sid:              p.SID,
		reference:        p.Reference,
		subscriptionID:   p.SubscriptionID,
		userID:           p.UserID,
		txnType:          p.Type,
		status:           p.Status,
		amount:           p.Amount,
		gatewayReference: p.GatewayReference,
		channel:          p.Channel,
		failureReason:    p.FailureReason,
		rawResponse:      p.RawResponse,
		paidAt:           p.PaidAt,
		retryOf:          p.RetryOf,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
	}, nil
}

func (t *PaymentTransaction) ID() uint                   { return t.id }
func (t *PaymentTransaction) SID() string                { return t.sid }
func (t *PaymentTransaction) Reference() string          { return t.reference }
func (t *PaymentTransaction) SubscriptionID() uint       { return t.subscriptionID }
func (t *PaymentTransaction) UserID() uint               { return t.userID }
func (t *PaymentTransaction) Type() vo.TransactionType   { return t.txnType }
func (t *PaymentTransaction) Status() vo.TransactionStatus { return t.status }
func (t *PaymentTransaction) Amount() vo.Money           { return t.amount }
func (t *PaymentTransaction) GatewayReference() string   { return t.gatewayReference }
func (t *PaymentTransaction) Channel() string            { return t.channel }
func (t *PaymentTransaction) FailureReason() *string     { return t.failureReason }
func (t *PaymentTransaction) RawResponse() []byte        { return t.rawResponse }
func (t *PaymentTransaction) PaidAt() *time.Time         { return t.paidAt }
func (t *PaymentTransaction) RetryOf() *uint             { return t.retryOf }
func (t *PaymentTransaction) CreatedAt() time.Time       { return t.createdAt }
func (t *PaymentTransaction) UpdatedAt() time.Time       { return t.updatedAt }

func (t *PaymentTransaction) SetID(txnID uint) error {
	if t.id != 0 {
		return fmt.Errorf("transaction ID is already set")
	}
	if txnID == 0 {
		return fmt.Errorf("transaction ID cannot be zero")
	}
	t.id = txnID
	return nil
}

// SetRetryOf links a retry transaction back to the failed attempt it replays.
// AdoptReference replaces the generated reference with the provider's own,
// used for provider-initiated charges we never handed a reference to. Only a
// pending row may change identity.
func (t *PaymentTransaction) AdoptReference(reference string) error {
	if reference == "" {
		return fmt.Errorf("reference cannot be empty")
	}
	if t.status != vo.TxnStatusPending {
		return ErrTransactionFinal
	}
	t.reference = reference
	t.touch()
	return nil
}

func (t *PaymentTransaction) SetRetryOf(originalID uint) {
	if originalID == 0 {
		return
	}
	t.retryOf = &originalID
	t.touch()
}

// MarkSucceeded closes the transaction as paid. Calling it again with the
// same outcome is a no-op so duplicate webhook deliveries stay harmless.
func (t *PaymentTransaction) MarkSucceeded(gatewayReference, channel string, paidAt time.Time) error {
	if t.status == vo.TxnStatusSuccess {
		return nil
	}
	if t.status.IsFinal() {
		return ErrTransactionFinal
	}

	t.status = vo.TxnStatusSuccess
	if gatewayReference != "" {
		t.gatewayReference = gatewayReference
	}
	t.channel = channel
	t.paidAt = &paidAt
	t.failureReason = nil
	t.touch()
	return nil
}

// MarkFailed closes the transaction as declined.
func (t *PaymentTransaction) MarkFailed(gatewayReference, reason string) error {
	if t.status == vo.TxnStatusFailed {
		return nil
	}
	if t.status.IsFinal() {
		return ErrTransactionFinal
	}

	t.status = vo.TxnStatusFailed
	if gatewayReference != "" {
		t.gatewayReference = gatewayReference
	}
	if reason != "" {
		t.failureReason = &reason
	}
	t.touch()
	return nil
}

// MarkAbandoned closes a pending transaction the customer never completed.
func (t *PaymentTransaction) MarkAbandoned() error {
	if t.status == vo.TxnStatusAbandoned {
		return nil
	}
	if t.status.IsFinal() {
		return ErrTransactionFinal
	}

	t.status = vo.TxnStatusAbandoned
	t.touch()
	return nil
}

// AttachRawResponse stores the gateway's payload for audit. Unlike status,
// this may be written after the transaction is final.
func (t *PaymentTransaction) AttachRawResponse(raw []byte) {
	if len(raw) == 0 {
		return
	}
	t.rawResponse = raw
	t.touch()
}

func (t *PaymentTransaction) touch() {
	t.updatedAt = biztime.NowUTC()
}
