package usecases

import (
	"context"
	"fmt"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/subscription"
	"techhive/internal/shared/goroutine"
	"techhive/internal/shared/logger"
)

type CancelSubscriptionCommand struct {
	UserID uint
	Reason string
}

// CancelSubscriptionUseCase stops renewal while keeping access for the
// already-paid period. The provider-side subscription is disabled before
// the local row is touched; if the disable call fails nothing is
// persisted and the caller gets the error back.
type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	gateway          gateway.PaymentGateway
	notifier         LifecycleNotifier
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	gw gateway.PaymentGateway,
	notifier LifecycleNotifier,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		gateway:          gw,
		notifier:         notifier,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*subscription.Subscription, error) {
	sub, err := uc.subscriptionRepo.GetCurrentByUserID(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	if err := sub.Cancel(cmd.Reason); err != nil {
		return nil, err
	}

	if sub.IsLinkedToGateway() {
		code := sub.PaystackSubscriptionCode()
		data, err := uc.gateway.FetchSubscription(ctx, code)
		if err != nil {
			uc.logger.Errorw("failed to fetch gateway subscription for disable", "error", err, "subscription_sid", sub.SID())
			return nil, fmt.Errorf("failed to disable gateway subscription: %w", err)
		}
		if err := uc.gateway.DisableSubscription(ctx, code, data.EmailToken); err != nil {
			uc.logger.Errorw("failed to disable gateway subscription", "error", err, "subscription_sid", sub.SID())
			return nil, fmt.Errorf("failed to disable gateway subscription: %w", err)
		}
	}

	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		uc.logger.Errorw("failed to save cancellation", "error", err, "subscription_sid", sub.SID())
		return nil, fmt.Errorf("failed to save cancellation: %w", err)
	}

	uc.logger.Infow("subscription cancelled",
		"subscription_sid", sub.SID(),
		"user_id", cmd.UserID,
		"reason", cmd.Reason,
	)

	planName := ""
	if plan, err := uc.planRepo.GetByID(ctx, sub.PlanID()); err == nil && plan != nil {
		planName = plan.Name()
	}
	n := CancellationNotification{
		Email:    sub.UserEmail(),
		PlanName: planName,
	}
	if sub.CurrentPeriodEnd() != nil {
		n.AccessUntil = *sub.CurrentPeriodEnd()
	}
	goroutine.SafeGo(uc.logger, "cancellation-notification", func() {
		uc.notifier.SubscriptionCancelled(context.WithoutCancel(ctx), n)
	})

	return sub, nil
}
