package usecases

import (
	"context"
	"fmt"

	"techhive/internal/domain/subscription"
	"techhive/internal/shared/logger"
)

type ListPlansQuery struct {
	// IncludeInactive is for admin views; readers only see active plans.
	IncludeInactive bool
}

type ListPlansUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewListPlansUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{planRepo: planRepo, logger: logger}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context, q ListPlansQuery) ([]*subscription.Plan, error) {
	plans, err := uc.planRepo.List(ctx, !q.IncludeInactive)
	if err != nil {
		uc.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

type GetPlanUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewGetPlanUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *GetPlanUseCase {
	return &GetPlanUseCase{planRepo: planRepo, logger: logger}
}

func (uc *GetPlanUseCase) Execute(ctx context.Context, planSID string) (*subscription.Plan, error) {
	plan, err := uc.planRepo.GetBySID(ctx, planSID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_sid", planSID)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, subscription.ErrPlanNotFound
	}
	return plan, nil
}
