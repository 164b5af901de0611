package mappers

import (
	"fmt"

	"gorm.io/datatypes"

	"techhive/internal/domain/payment"
	"techhive/internal/infrastructure/persistence/models"
)

func WebhookEventToModel(e *payment.WebhookEvent) *models.WebhookEventModel {
	model := &models.WebhookEventModel{
		ID:           e.ID(),
		EventKey:     e.EventKey(),
		EventType:    e.EventType(),
		Status:       string(e.Status()),
		ErrorMessage: e.ErrorMessage(),
		ProcessedAt:  e.ProcessedAt(),
		ReceivedAt:   e.ReceivedAt(),
	}
	if len(e.Payload()) > 0 {
		model.Payload = datatypes.JSON(e.Payload())
	}
	return model
}

func WebhookEventToDomain(model *models.WebhookEventModel) (*payment.WebhookEvent, error) {
	if model == nil {
		return nil, nil
	}

	status := payment.WebhookEventStatus(model.Status)
	switch status {
	case payment.EventStatusReceived, payment.EventStatusProcessed, payment.EventStatusFailed, payment.EventStatusSkipped:
	default:
		return nil, fmt.Errorf("invalid webhook event status: %s", model.Status)
	}

	return payment.ReconstructWebhookEvent(payment.WebhookEventReconstructParams{
		ID:           model.ID,
		EventType:    model.EventType,
		EventKey:     model.EventKey,
		Payload:      []byte(model.Payload),
		Status:       status,
		ErrorMessage: model.ErrorMessage,
		ProcessedAt:  model.ProcessedAt,
		ReceivedAt:   model.ReceivedAt,
	})
}
