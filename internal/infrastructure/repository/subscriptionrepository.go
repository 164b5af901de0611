package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/infrastructure/persistence/mappers"
	"techhive/internal/infrastructure/persistence/models"
	"techhive/internal/shared/db"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

var _ subscription.SubscriptionRepository = (*SubscriptionRepository)(nil)

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	model := mappers.SubscriptionToModel(sub)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return sub.SetID(model.ID)
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	model := mappers.SubscriptionToModel(sub)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":                     model.Status,
			"paystack_subscription_code": model.PaystackSubscriptionCode,
			"paystack_customer_code":     model.PaystackCustomerCode,
			"authorization_code":         model.AuthorizationCode,
			"card_last4":                 model.CardLast4,
			"card_type":                  model.CardType,
			"card_bank":                  model.CardBank,
			"card_exp_month":             model.CardExpMonth,
			"card_exp_year":              model.CardExpYear,
			"trial_start":                model.TrialStart,
			"trial_end":                  model.TrialEnd,
			"current_period_start":       model.CurrentPeriodStart,
			"current_period_end":         model.CurrentPeriodEnd,
			"next_billing_date":          model.NextBillingDate,
			"auto_renew":                 model.AutoRenew,
			"cancel_at_period_end":       model.CancelAtPeriodEnd,
			"cancelled_at":               model.CancelledAt,
			"cancel_reason":              model.CancelReason,
			"expires_at":                 model.ExpiresAt,
			"payment_failed_at":          model.PaymentFailedAt,
			"retry_count":                model.RetryCount,
			"last_retry_at":              model.LastRetryAt,
			"version":                    model.Version,
			"updated_at":                 model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	return nil
}

// Delete removes a row. Only pending activation rows ever reach here, when a
// fresh checkout replaces an abandoned one.
func (r *SubscriptionRepository) Delete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.SubscriptionModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return mappers.SubscriptionToDomain(&model)
}

func (r *SubscriptionRepository) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	return r.getOne(ctx, "sid = ?", sid)
}

func (r *SubscriptionRepository) GetByReference(ctx context.Context, reference string) (*subscription.Subscription, error) {
	return r.getOne(ctx, "reference = ?", reference)
}

func (r *SubscriptionRepository) GetByPaystackSubscriptionCode(ctx context.Context, code string) (*subscription.Subscription, error) {
	return r.getOne(ctx, "paystack_subscription_code = ?", code)
}

// GetCurrentByUserID returns the newest subscription that still matters for
// the user, skipping terminal expired rows.
func (r *SubscriptionRepository) GetCurrentByUserID(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ? AND status <> ?", userID, vo.StatusExpired.String()).
		Order("id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current subscription: %w", err)
	}

	return mappers.SubscriptionToDomain(&model)
}

// GetCurrentByEmail resolves webhook payloads that only carry the customer
// email. The email is denormalized onto the row for exactly this lookup.
func (r *SubscriptionRepository) GetCurrentByEmail(ctx context.Context, email string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_email = ? AND status <> ?", email, vo.StatusExpired.String()).
		Order("id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription by email: %w", err)
	}

	return mappers.SubscriptionToDomain(&model)
}

func (r *SubscriptionRepository) GetLatestUnlinkedByEmail(ctx context.Context, email string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_email = ? AND paystack_subscription_code IS NULL", email).
		Order("id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get unlinked subscription: %w", err)
	}

	return mappers.SubscriptionToDomain(&model)
}

// HasEverSubscribed reports whether the user ever held a subscription.
// Checkout attempts that never activated do not count as history.
func (r *SubscriptionRepository) HasEverSubscribed(ctx context.Context, userID uint) (bool, error) {
	var count int64

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("user_id = ? AND status <> ?", userID, vo.StatusPendingActivation.String()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	return count > 0, nil
}

// ListDueForRetry returns past-due subscriptions with a saved card, budget
// remaining and no attempt more recent than retryBefore.
func (r *SubscriptionRepository) ListDueForRetry(ctx context.Context, maxRetries int, retryBefore time.Time) ([]*subscription.Subscription, error) {
	var subModels []models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", vo.StatusPastDue.String()).
		Where("authorization_code IS NOT NULL").
		Where("retry_count < ?", maxRetries).
		Where("last_retry_at IS NULL OR last_retry_at <= ?", retryBefore).
		Order("payment_failed_at ASC").
		Find(&subModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list retriable subscriptions: %w", err)
	}

	return mappers.SubscriptionsToDomain(subModels)
}

func (r *SubscriptionRepository) ListTrialsEnding(ctx context.Context, from, to time.Time) ([]*subscription.Subscription, error) {
	var subModels []models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", vo.StatusTrialing.String()).
		Where("trial_end > ? AND trial_end <= ?", from, to).
		Order("trial_end ASC").
		Find(&subModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list ending trials: %w", err)
	}

	return mappers.SubscriptionsToDomain(subModels)
}

// ListLapsed returns every subscription whose access window has run out:
// trials past their end, past-due rows past the grace deadline and cancelled
// rows past the paid period.
func (r *SubscriptionRepository) ListLapsed(ctx context.Context, now time.Time, grace time.Duration) ([]*subscription.Subscription, error) {
	graceDeadline := now.Add(-grace)

	var subModels []models.SubscriptionModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("(status = ? AND trial_end < ?)", vo.StatusTrialing.String(), now).
		Or("(status = ? AND payment_failed_at < ?)", vo.StatusPastDue.String(), graceDeadline).
		Or("(status = ? AND current_period_end < ?)", vo.StatusCancelled.String(), now).
		Order("id ASC").
		Find(&subModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list lapsed subscriptions: %w", err)
	}

	return mappers.SubscriptionsToDomain(subModels)
}

func (r *SubscriptionRepository) CountByPlanID(ctx context.Context, planID uint) (int64, error) {
	var count int64

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("plan_id = ?", planID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count subscriptions by plan: %w", err)
	}

	return count, nil
}

func (r *SubscriptionRepository) ListByUserID(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
	var subModels []models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&subModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return mappers.SubscriptionsToDomain(subModels)
}

func (r *SubscriptionRepository) getOne(ctx context.Context, cond string, arg interface{}) (*subscription.Subscription, error) {
	var model models.SubscriptionModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where(cond, arg).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return mappers.SubscriptionToDomain(&model)
}
