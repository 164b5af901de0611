package models

import (
	"time"

	"gorm.io/datatypes"

	"techhive/internal/shared/constants"
)

// WebhookEventModel stores every delivery the webhook endpoint accepted,
// keyed for deduplication. Failed rows stay queryable for manual follow-up.
type WebhookEventModel struct {
	ID           uint   `gorm:"primarykey"`
	EventKey     string `gorm:"uniqueIndex;not null;size:128"`
	EventType    string `gorm:"not null;size:64;index"`
	Payload      datatypes.JSON
	Status       string  `gorm:"not null;size:20;index"`
	ErrorMessage *string `gorm:"size:1000"`
	ProcessedAt  *time.Time
	ReceivedAt   time.Time `gorm:"not null"`
}

func (WebhookEventModel) TableName() string {
	return constants.TableWebhookEvents
}
