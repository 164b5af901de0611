package usecases

import (
	"context"
	"fmt"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/logger"
)

type UpdatePlanCommand struct {
	PlanSID     string
	Name        string
	Description string
	Features    []string
	Limits      map[string]interface{}
	// IsActive toggles visibility for new subscribers; nil leaves it alone.
	IsActive *bool
}

// UpdatePlanUseCase edits a plan's presentation. Price and billing cycle are
// immutable; repricing means creating a new plan so existing subscribers
// keep what they signed up for.
type UpdatePlanUseCase struct {
	planRepo subscription.PlanRepository
	gateway  gateway.PaymentGateway
	logger   logger.Interface
}

func NewUpdatePlanUseCase(
	planRepo subscription.PlanRepository,
	gw gateway.PaymentGateway,
	logger logger.Interface,
) *UpdatePlanUseCase {
	return &UpdatePlanUseCase{planRepo: planRepo, gateway: gw, logger: logger}
}

func (uc *UpdatePlanUseCase) Execute(ctx context.Context, cmd UpdatePlanCommand) (*subscription.Plan, error) {
	plan, err := uc.planRepo.GetBySID(ctx, cmd.PlanSID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_sid", cmd.PlanSID)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, subscription.ErrPlanNotFound
	}

	var features *vo.PlanFeatures
	if cmd.Features != nil || cmd.Limits != nil {
		features = vo.NewPlanFeatures(cmd.Features, cmd.Limits)
	} else {
		features = plan.Features()
	}
	if err := plan.Update(cmd.Name, cmd.Description, features); err != nil {
		return nil, err
	}
	if cmd.IsActive != nil {
		if *cmd.IsActive {
			plan.Activate()
		} else {
			plan.Deactivate()
		}
	}

	if err := uc.planRepo.Update(ctx, plan); err != nil {
		uc.logger.Errorw("failed to save plan", "error", err, "plan_sid", plan.SID())
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	if plan.PaystackPlanCode() != "" {
		if err := uc.gateway.UpdatePlan(ctx, plan.PaystackPlanCode(), gateway.UpdatePlanRequest{
			Name:        plan.Name(),
			Description: plan.Description(),
		}); err != nil {
			// Provider rename is cosmetic; local state stays the source of truth.
			uc.logger.Warnw("failed to rename gateway plan", "error", err, "plan_sid", plan.SID())
		}
	}

	uc.logger.Infow("plan updated", "plan_sid", plan.SID())
	return plan, nil
}
