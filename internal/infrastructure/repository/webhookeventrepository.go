package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"techhive/internal/domain/payment"
	"techhive/internal/infrastructure/persistence/mappers"
	"techhive/internal/infrastructure/persistence/models"
	"techhive/internal/shared/db"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

var _ payment.WebhookEventRepository = (*WebhookEventRepository)(nil)

func (r *WebhookEventRepository) Create(ctx context.Context, event *payment.WebhookEvent) error {
	model := mappers.WebhookEventToModel(event)

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create webhook event: %w", err)
	}

	return event.SetID(model.ID)
}

func (r *WebhookEventRepository) Update(ctx context.Context, event *payment.WebhookEvent) error {
	model := mappers.WebhookEventToModel(event)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.WebhookEventModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"error_message": model.ErrorMessage,
			"processed_at":  model.ProcessedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update webhook event: %w", result.Error)
	}

	return nil
}

func (r *WebhookEventRepository) GetByEventKey(ctx context.Context, key string) (*payment.WebhookEvent, error) {
	var model models.WebhookEventModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("event_key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return mappers.WebhookEventToDomain(&model)
}

func (r *WebhookEventRepository) ListFailed(ctx context.Context, limit int) ([]*payment.WebhookEvent, error) {
	var eventModels []models.WebhookEventModel

	if err := db.GetTxFromContext(ctx, r.db).
		Where("status = ?", string(payment.EventStatusFailed)).
		Order("received_at ASC").
		Limit(limit).
		Find(&eventModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list failed webhook events: %w", err)
	}

	events := make([]*payment.WebhookEvent, 0, len(eventModels))
	for i := range eventModels {
		e, err := mappers.WebhookEventToDomain(&eventModels[i])
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
