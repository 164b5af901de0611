package migrations

import (
	"gorm.io/gorm"

	"techhive/internal/infrastructure/persistence/models"
)

// MigrateBillingTables creates or updates the billing schema in place.
// Development and tests use it directly; production runs versioned scripts.
func MigrateBillingTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PlanModel{},
		&models.SubscriptionModel{},
		&models.TransactionModel{},
		&models.WebhookEventModel{},
	)
}
