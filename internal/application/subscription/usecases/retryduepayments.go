package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"techhive/internal/domain/subscription"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

// RetryDuePaymentsUseCase drives the automatic retry sweep: every past-due
// subscription with a saved card, remaining retry budget and a cold backoff
// window gets one charge attempt.
type RetryDuePaymentsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	retryPayment     *RetryPaymentUseCase
	billing          config.BillingConfig
	logger           logger.Interface
}

func NewRetryDuePaymentsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	retryPayment *RetryPaymentUseCase,
	billing config.BillingConfig,
	logger logger.Interface,
) *RetryDuePaymentsUseCase {
	return &RetryDuePaymentsUseCase{
		subscriptionRepo: subscriptionRepo,
		retryPayment:     retryPayment,
		billing:          billing,
		logger:           logger,
	}
}

// Execute returns (attempted, recovered).
func (uc *RetryDuePaymentsUseCase) Execute(ctx context.Context) (int, int, error) {
	backoff := time.Duration(uc.billing.RetryBackoffHours) * time.Hour
	cutoff := biztime.NowUTC().Add(-backoff)

	due, err := uc.subscriptionRepo.ListDueForRetry(ctx, uc.billing.MaxAutomaticRetries, cutoff)
	if err != nil {
		uc.logger.Errorw("failed to list subscriptions due for retry", "error", err)
		return 0, 0, fmt.Errorf("failed to list subscriptions due for retry: %w", err)
	}
	if len(due) == 0 {
		return 0, 0, nil
	}

	attempted, recovered := 0, 0
	for _, sub := range due {
		result, err := uc.retryPayment.Execute(ctx, RetryPaymentCommand{
			SubscriptionID: sub.ID(),
			Manual:         false,
		})
		if err != nil {
			if errors.Is(err, subscription.ErrNotRetriable) || errors.Is(err, ErrSubscriptionBusy) {
				uc.logger.Infow("skipping retry", "subscription_sid", sub.SID(), "reason", err)
				continue
			}
			uc.logger.Errorw("retry attempt failed", "error", err, "subscription_sid", sub.SID())
			continue
		}
		attempted++
		if result.Succeeded {
			recovered++
		}
	}

	uc.logger.Infow("retry sweep finished", "due", len(due), "attempted", attempted, "recovered", recovered)
	return attempted, recovered, nil
}
