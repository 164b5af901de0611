package usecases

import (
	"context"
	"fmt"

	"techhive/internal/domain/subscription"
	"techhive/internal/shared/logger"
)

type DeletePlanCommand struct {
	PlanSID string
}

// DeletePlanUseCase removes a plan that never got subscribers. Plans with
// subscription history are deactivated instead so old rows keep a valid
// foreign key and the reporting story stays intact.
type DeletePlanUseCase struct {
	planRepo         subscription.PlanRepository
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewDeletePlanUseCase(
	planRepo subscription.PlanRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *DeletePlanUseCase {
	return &DeletePlanUseCase{
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *DeletePlanUseCase) Execute(ctx context.Context, cmd DeletePlanCommand) error {
	plan, err := uc.planRepo.GetBySID(ctx, cmd.PlanSID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_sid", cmd.PlanSID)
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return subscription.ErrPlanNotFound
	}

	count, err := uc.subscriptionRepo.CountByPlanID(ctx, plan.ID())
	if err != nil {
		uc.logger.Errorw("failed to count subscriptions", "error", err, "plan_sid", cmd.PlanSID)
		return fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d subscriptions reference it", subscription.ErrPlanInUse, count)
	}

	if err := uc.planRepo.Delete(ctx, plan.ID()); err != nil {
		uc.logger.Errorw("failed to delete plan", "error", err, "plan_sid", cmd.PlanSID)
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	uc.logger.Infow("plan deleted", "plan_sid", cmd.PlanSID)
	return nil
}
