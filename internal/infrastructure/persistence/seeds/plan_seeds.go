package seeds

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"techhive/internal/infrastructure/persistence/models"
	"techhive/internal/shared/id"
)

// SeedPlans seeds the plans table with the default subscription tiers.
// Existing rows are matched by name so reseeding is safe.
func SeedPlans(db *gorm.DB) error {
	plans := []models.PlanModel{
		{
			SID:          id.MustGenerateWithPrefix(id.PrefixPlan, id.DefaultLength),
			Name:         "Basic",
			Description:  "Full access to premium articles",
			PriceKobo:    150000,
			Currency:     "NGN",
			BillingCycle: "monthly",
			Features:     datatypes.JSON(`{"features":["premium_posts"],"limits":{"saved_articles":50}}`),
			IsActive:     true,
		},
		{
			SID:          id.MustGenerateWithPrefix(id.PrefixPlan, id.DefaultLength),
			Name:         "Pro",
			Description:  "Premium articles plus the weekly deep-dive newsletter",
			PriceKobo:    350000,
			Currency:     "NGN",
			BillingCycle: "monthly",
			Features:     datatypes.JSON(`{"features":["premium_posts","newsletter","comments"],"limits":{"saved_articles":500}}`),
			IsActive:     true,
		},
		{
			SID:          id.MustGenerateWithPrefix(id.PrefixPlan, id.DefaultLength),
			Name:         "Pro Annual",
			Description:  "Everything in Pro, billed once a year",
			PriceKobo:    3500000,
			Currency:     "NGN",
			BillingCycle: "yearly",
			Features:     datatypes.JSON(`{"features":["premium_posts","newsletter","comments"],"limits":{"saved_articles":500}}`),
			IsActive:     true,
		},
	}

	for _, plan := range plans {
		if err := db.FirstOrCreate(&plan, models.PlanModel{
			Name: plan.Name,
		}).Error; err != nil {
			return err
		}
	}

	return nil
}
