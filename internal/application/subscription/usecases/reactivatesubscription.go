package usecases

import (
	"context"
	"fmt"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/subscription"
	"techhive/internal/shared/goroutine"
	"techhive/internal/shared/logger"
)

type ReactivateSubscriptionCommand struct {
	UserID uint
}

// ReactivateSubscriptionUseCase undoes a cancellation while the paid period
// still runs. The provider-side subscription is re-enabled first; if that
// fails nothing is persisted. Once the period lapses the row expires and
// the user goes through checkout again instead.
type ReactivateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	gateway          gateway.PaymentGateway
	notifier         LifecycleNotifier
	logger           logger.Interface
}

func NewReactivateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	gw gateway.PaymentGateway,
	notifier LifecycleNotifier,
	logger logger.Interface,
) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		gateway:          gw,
		notifier:         notifier,
		logger:           logger,
	}
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) (*subscription.Subscription, error) {
	sub, err := uc.subscriptionRepo.GetCurrentByUserID(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	if err := sub.Reactivate(); err != nil {
		return nil, err
	}

	if sub.IsLinkedToGateway() {
		code := sub.PaystackSubscriptionCode()
		data, err := uc.gateway.FetchSubscription(ctx, code)
		if err != nil {
			uc.logger.Errorw("failed to fetch gateway subscription for enable", "error", err, "subscription_sid", sub.SID())
			return nil, fmt.Errorf("failed to enable gateway subscription: %w", err)
		}
		if err := uc.gateway.EnableSubscription(ctx, code, data.EmailToken); err != nil {
			uc.logger.Errorw("failed to enable gateway subscription", "error", err, "subscription_sid", sub.SID())
			return nil, fmt.Errorf("failed to enable gateway subscription: %w", err)
		}
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to save reactivation", "error", err, "subscription_sid", sub.SID())
		return nil, fmt.Errorf("failed to save reactivation: %w", err)
	}

	uc.logger.Infow("subscription reactivated", "subscription_sid", sub.SID(), "user_id", cmd.UserID)

	planName := ""
	if plan, err := uc.planRepo.GetByID(ctx, sub.PlanID()); err == nil && plan != nil {
		planName = plan.Name()
	}
	n := ReactivationNotification{
		Email:    sub.UserEmail(),
		PlanName: planName,
	}
	if sub.CurrentPeriodEnd() != nil {
		n.PeriodEnd = *sub.CurrentPeriodEnd()
	}
	goroutine.SafeGo(uc.logger, "reactivation-notification", func() {
		uc.notifier.SubscriptionReactivated(context.WithoutCancel(ctx), n)
	})

	return sub, nil
}
