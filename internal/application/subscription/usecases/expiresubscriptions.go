package usecases

import (
	"context"
	"fmt"
	"time"

	"techhive/internal/domain/subscription"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/config"
	"techhive/internal/shared/goroutine"
	"techhive/internal/shared/logger"
)

// ExpireSubscriptionsUseCase sweeps lapsed subscriptions: unpaid trials past
// their end, past-due rows past the grace deadline, and cancelled rows past
// their paid period. The scheduler runs it periodically.
type ExpireSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	notifier         LifecycleNotifier
	billing          config.BillingConfig
	logger           logger.Interface
}

func NewExpireSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	notifier LifecycleNotifier,
	billing config.BillingConfig,
	logger logger.Interface,
) *ExpireSubscriptionsUseCase {
	return &ExpireSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		notifier:         notifier,
		billing:          billing,
		logger:           logger,
	}
}

// Execute returns the number of subscriptions expired. Individual failures
// are logged and skipped so one bad row cannot stall the sweep.
func (uc *ExpireSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	now := biztime.NowUTC()
	grace := time.Duration(uc.billing.GraceDays) * 24 * time.Hour

	lapsed, err := uc.subscriptionRepo.ListLapsed(ctx, now, grace)
	if err != nil {
		uc.logger.Errorw("failed to list lapsed subscriptions", "error", err)
		return 0, fmt.Errorf("failed to list lapsed subscriptions: %w", err)
	}
	if len(lapsed) == 0 {
		return 0, nil
	}

	expired := 0
	for _, sub := range lapsed {
		if err := sub.MarkExpired(); err != nil {
			uc.logger.Warnw("skipping non-expirable subscription",
				"subscription_sid", sub.SID(),
				"status", sub.Status().String(),
				"error", err,
			)
			continue
		}
		if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
			uc.logger.Errorw("failed to save expiry", "error", err, "subscription_sid", sub.SID())
			continue
		}
		expired++

		uc.logger.Infow("subscription expired", "subscription_sid", sub.SID(), "user_id", sub.UserID())

		planName := ""
		if plan, err := uc.planRepo.GetByID(ctx, sub.PlanID()); err == nil && plan != nil {
			planName = plan.Name()
		}
		n := ExpiryNotification{Email: sub.UserEmail(), PlanName: planName}
		goroutine.SafeGo(uc.logger, "expiry-notification", func() {
			uc.notifier.SubscriptionExpired(context.WithoutCancel(ctx), n)
		})
	}

	uc.logger.Infow("expiry sweep finished", "candidates", len(lapsed), "expired", expired)
	return expired, nil
}
