package usecases

import (
	"context"
	"fmt"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/logger"
)

type CreatePlanCommand struct {
	Name         string
	Description  string
	PriceKobo    int64
	Currency     string
	BillingCycle string
	Features     []string
	Limits       map[string]interface{}
}

// CreatePlanUseCase registers a plan locally and on the provider. The
// provider plan code is what links recurring charges back to us, so creation
// fails when the provider call fails rather than leaving a half-wired plan.
type CreatePlanUseCase struct {
	planRepo subscription.PlanRepository
	gateway  gateway.PaymentGateway
	logger   logger.Interface
}

func NewCreatePlanUseCase(
	planRepo subscription.PlanRepository,
	gw gateway.PaymentGateway,
	logger logger.Interface,
) *CreatePlanUseCase {
	return &CreatePlanUseCase{planRepo: planRepo, gateway: gw, logger: logger}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*subscription.Plan, error) {
	cycle, err := vo.NewBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, err
	}

	features := vo.NewPlanFeatures(cmd.Features, cmd.Limits)
	plan, err := subscription.NewPlan(cmd.Name, cmd.Description, cmd.PriceKobo, cmd.Currency, cycle, features)
	if err != nil {
		return nil, err
	}

	created, err := uc.gateway.CreatePlan(ctx, gateway.CreatePlanRequest{
		Name:        plan.Name(),
		AmountMinor: plan.PriceKobo(),
		Currency:    plan.Currency(),
		Interval:    plan.BillingCycle().PaystackInterval(),
		Description: plan.Description(),
	})
	if err != nil {
		uc.logger.Errorw("failed to create gateway plan", "error", err, "name", cmd.Name)
		return nil, fmt.Errorf("failed to create gateway plan: %w", err)
	}
	plan.SetPaystackPlanCode(created.PlanCode)

	if err := uc.planRepo.Create(ctx, plan); err != nil {
		uc.logger.Errorw("failed to save plan", "error", err, "name", cmd.Name)
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	uc.logger.Infow("plan created",
		"plan_sid", plan.SID(),
		"plan_code", created.PlanCode,
		"price_kobo", plan.PriceKobo(),
		"cycle", plan.BillingCycle().String(),
	)
	return plan, nil
}
