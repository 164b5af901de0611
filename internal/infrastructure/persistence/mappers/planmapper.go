package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/infrastructure/persistence/models"
)

func PlanToModel(p *subscription.Plan) (*models.PlanModel, error) {
	model := &models.PlanModel{
		ID:               p.ID(),
		SID:              p.SID(),
		Name:             p.Name(),
		Description:      p.Description(),
		PriceKobo:        p.PriceKobo(),
		Currency:         p.Currency(),
		BillingCycle:     p.BillingCycle().String(),
		PaystackPlanCode: strPtr(p.PaystackPlanCode()),
		IsActive:         p.IsActive(),
		Version:          p.Version(),
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
	}

	if p.Features() != nil {
		raw, err := json.Marshal(p.Features())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plan features: %w", err)
		}
		model.Features = datatypes.JSON(raw)
	}

	return model, nil
}

func PlanToDomain(model *models.PlanModel) (*subscription.Plan, error) {
	if model == nil {
		return nil, nil
	}

	cycle, err := vo.NewBillingCycle(model.BillingCycle)
	if err != nil {
		return nil, fmt.Errorf("invalid billing cycle: %w", err)
	}

	var features *vo.PlanFeatures
	if len(model.Features) > 0 {
		features = &vo.PlanFeatures{}
		if err := json.Unmarshal(model.Features, features); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan features: %w", err)
		}
	}

	return subscription.ReconstructPlan(subscription.PlanReconstructParams{
		ID:               model.ID,
		SID:              model.SID,
		Name:             model.Name,
		Description:      model.Description,
		PriceKobo:        model.PriceKobo,
		Currency:         model.Currency,
		BillingCycle:     cycle,
		PaystackPlanCode: strVal(model.PaystackPlanCode),
		Features:         features,
		IsActive:         model.IsActive,
		Version:          model.Version,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	})
}

func PlansToDomain(planModels []models.PlanModel) ([]*subscription.Plan, error) {
	plans := make([]*subscription.Plan, 0, len(planModels))
	for i := range planModels {
		p, err := PlanToDomain(&planModels[i])
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}
