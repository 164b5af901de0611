package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"techhive/internal/domain/subscription"
	"techhive/internal/infrastructure/persistence/mappers"
	"techhive/internal/infrastructure/persistence/models"
	"techhive/internal/shared/db"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

var _ subscription.PlanRepository = (*PlanRepository)(nil)

func (r *PlanRepository) Create(ctx context.Context, plan *subscription.Plan) error {
	model, err := mappers.PlanToModel(plan)
	if err != nil {
		return err
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return plan.SetID(model.ID)
}

// Update persists the mutable plan columns. Price and billing cycle are
// immutable after creation and deliberately left out.
func (r *PlanRepository) Update(ctx context.Context, plan *subscription.Plan) error {
	model, err := mappers.PlanToModel(plan)
	if err != nil {
		return err
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PlanModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":               model.Name,
			"description":        model.Description,
			"paystack_plan_code": model.PaystackPlanCode,
			"features":           model.Features,
			"is_active":          model.IsActive,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}

	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id uint) error {
	if err := db.GetTxFromContext(ctx, r.db).Delete(&models.PlanModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	var model models.PlanModel

	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return mappers.PlanToDomain(&model)
}

func (r *PlanRepository) GetBySID(ctx context.Context, sid string) (*subscription.Plan, error) {
	var model models.PlanModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("sid = ?", sid).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan by sid: %w", err)
	}

	return mappers.PlanToDomain(&model)
}

func (r *PlanRepository) GetByPaystackPlanCode(ctx context.Context, code string) (*subscription.Plan, error) {
	var model models.PlanModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("paystack_plan_code = ?", code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan by plan code: %w", err)
	}

	return mappers.PlanToDomain(&model)
}

func (r *PlanRepository) List(ctx context.Context, activeOnly bool) ([]*subscription.Plan, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.PlanModel{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var planModels []models.PlanModel
	if err := query.Order("price_kobo ASC").Find(&planModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return mappers.PlansToDomain(planModels)
}
