package payment

import (
	"context"

	vo "techhive/internal/domain/payment/valueobjects"
)

// TransactionRepository persists the charge-attempt ledger. Get methods
// return (nil, nil) when no row matches.
type TransactionRepository interface {
	Create(ctx context.Context, txn *PaymentTransaction) error
	Update(ctx context.Context, txn *PaymentTransaction) error
	GetByID(ctx context.Context, id uint) (*PaymentTransaction, error)
	GetByReference(ctx context.Context, reference string) (*PaymentTransaction, error)
	ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit, offset int) ([]*PaymentTransaction, int64, error)
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*PaymentTransaction, int64, error)
	ListByStatus(ctx context.Context, status vo.TransactionStatus, limit int) ([]*PaymentTransaction, error)
}

// WebhookEventRepository persists the webhook audit log.
type WebhookEventRepository interface {
	Create(ctx context.Context, event *WebhookEvent) error
	Update(ctx context.Context, event *WebhookEvent) error
	// GetByEventKey returns (nil, nil) when the event was never seen.
	GetByEventKey(ctx context.Context, eventKey string) (*WebhookEvent, error)
	ListFailed(ctx context.Context, limit int) ([]*WebhookEvent, error)
}
