package usecases

import (
	"context"
	"fmt"
	"time"

	"techhive/internal/domain/subscription"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

// SubscriptionDetails pairs the subscription with its plan plus the derived
// values the billing page renders.
type SubscriptionDetails struct {
	Subscription  *subscription.Subscription
	Plan          *subscription.Plan
	HasAccess     bool
	GraceDeadline *time.Time
}

type GetSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	billing          config.BillingConfig
	logger           logger.Interface
}

func NewGetSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	billing config.BillingConfig,
	logger logger.Interface,
) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		billing:          billing,
		logger:           logger,
	}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, userID uint) (*SubscriptionDetails, error) {
	sub, err := uc.subscriptionRepo.GetCurrentByUserID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_id", sub.PlanID())
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	grace := time.Duration(uc.billing.GraceDays) * 24 * time.Hour
	return &SubscriptionDetails{
		Subscription:  sub,
		Plan:          plan,
		HasAccess:     sub.IsActive(),
		GraceDeadline: sub.GraceDeadline(grace),
	}, nil
}
