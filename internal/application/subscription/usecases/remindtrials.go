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

// RemindTrialsUseCase notifies users whose trial ends soon so the first
// charge does not surprise them.
type RemindTrialsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	notifier         LifecycleNotifier
	billing          config.BillingConfig
	logger           logger.Interface
}

func NewRemindTrialsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	notifier LifecycleNotifier,
	billing config.BillingConfig,
	logger logger.Interface,
) *RemindTrialsUseCase {
	return &RemindTrialsUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		notifier:         notifier,
		billing:          billing,
		logger:           logger,
	}
}

// Execute scans the window [reminder horizon - interval, reminder horizon]
// so consecutive runs do not remind the same trial twice.
func (uc *RemindTrialsUseCase) Execute(ctx context.Context, interval time.Duration) (int, error) {
	now := biztime.NowUTC()
	horizon := now.Add(time.Duration(uc.billing.TrialReminderDays) * 24 * time.Hour)
	from := horizon.Add(-interval)

	trials, err := uc.subscriptionRepo.ListTrialsEnding(ctx, from, horizon)
	if err != nil {
		uc.logger.Errorw("failed to list ending trials", "error", err)
		return 0, fmt.Errorf("failed to list ending trials: %w", err)
	}

	for _, sub := range trials {
		if sub.TrialEnd() == nil {
			continue
		}
		planName := ""
		if plan, err := uc.planRepo.GetByID(ctx, sub.PlanID()); err == nil && plan != nil {
			planName = plan.Name()
		}
		n := TrialEndingNotification{
			Email:    sub.UserEmail(),
			PlanName: planName,
			TrialEnd: *sub.TrialEnd(),
			DaysLeft: biztime.DaysUntil(*sub.TrialEnd()),
		}
		goroutine.SafeGo(uc.logger, "trial-ending-notification", func() {
			uc.notifier.TrialEndingSoon(context.WithoutCancel(ctx), n)
		})
	}

	if len(trials) > 0 {
		uc.logger.Infow("trial reminders dispatched", "count", len(trials))
	}
	return len(trials), nil
}
