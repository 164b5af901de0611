package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"techhive/internal/domain/payment"
	vo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/infrastructure/persistence/mappers"
	"techhive/internal/infrastructure/persistence/models"
	"techhive/internal/shared/db"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

var _ payment.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(ctx context.Context, txn *payment.PaymentTransaction) error {
	model := mappers.TransactionToModel(txn)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return txn.SetID(model.ID)
}

// Update writes the outcome columns. The identity and amount of a ledger row
// never change after creation.
func (r *TransactionRepository) Update(ctx context.Context, txn *payment.PaymentTransaction) error {
	model := mappers.TransactionToModel(txn)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.TransactionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"reference":         model.Reference,
			"status":            model.Status,
			"gateway_reference": model.GatewayReference,
			"channel":           model.Channel,
			"failure_reason":    model.FailureReason,
			"raw_response":      model.RawResponse,
			"paid_at":           model.PaidAt,
			"retry_of":          model.RetryOf,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*payment.PaymentTransaction, error) {
	var model models.TransactionModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return mappers.TransactionToDomain(&model)
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*payment.PaymentTransaction, error) {
	var model models.TransactionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("reference = ?", reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}

	return mappers.TransactionToDomain(&model)
}

func (r *TransactionRepository) ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit, offset int) ([]*payment.PaymentTransaction, int64, error) {
	return r.list(ctx, "subscription_id = ?", subscriptionID, limit, offset)
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*payment.PaymentTransaction, int64, error) {
	return r.list(ctx, "user_id = ?", userID, limit, offset)
}

func (r *TransactionRepository) ListByStatus(ctx context.Context, status vo.TransactionStatus, limit int) ([]*payment.PaymentTransaction, error) {
	var txnModels []models.TransactionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", status.String()).
		Order("created_at ASC").
		Limit(limit).
		Find(&txnModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions by status: %w", err)
	}

	return mappers.TransactionsToDomain(txnModels)
}

func (r *TransactionRepository) list(ctx context.Context, cond string, arg interface{}, limit, offset int) ([]*payment.PaymentTransaction, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var total int64
	if err := tx.Model(&models.TransactionModel{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txnModels []models.TransactionModel
	if err := tx.Where(cond, arg).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txnModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	txns, err := mappers.TransactionsToDomain(txnModels)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
