package models

import (
	"time"

	"gorm.io/gorm"

	"techhive/internal/shared/constants"
)

// SubscriptionModel is the persistence shape of a subscription. The gateway
// identity columns stay NULL until the provider's subscription.create webhook
// links the row, and the card columns are denormalized from the charge
// authorization for display and retry eligibility checks.
type SubscriptionModel struct {
	ID                       uint   `gorm:"primarykey"`
	SID                      string `gorm:"uniqueIndex;not null;size:50"`
	Reference                string `gorm:"uniqueIndex;not null;size:64"`
	UserID                   uint   `gorm:"not null;index:idx_user_subscription"`
	UserEmail                string `gorm:"not null;size:255;index"`
	PlanID                   uint   `gorm:"not null;index:idx_plan_subscription"`
	Status                   string `gorm:"not null;size:20;index:idx_status"`
	PaystackSubscriptionCode *string `gorm:"size:64;index"`
	PaystackCustomerCode     *string `gorm:"size:64"`
	AuthorizationCode        *string `gorm:"size:64"`
	CardLast4                string  `gorm:"size:4"`
	CardType                 string  `gorm:"size:20"`
	CardBank                 string  `gorm:"size:100"`
	CardExpMonth             string  `gorm:"size:2"`
	CardExpYear              string  `gorm:"size:4"`
	TrialStart               *time.Time
	TrialEnd                 *time.Time `gorm:"index"`
	CurrentPeriodStart       *time.Time
	CurrentPeriodEnd         *time.Time `gorm:"index"`
	NextBillingDate          *time.Time `gorm:"index"`
	AutoRenew                bool       `gorm:"not null;default:true"`
	CancelAtPeriodEnd        bool       `gorm:"not null;default:false"`
	CancelledAt              *time.Time
	CancelReason             *string `gorm:"size:500"`
	ExpiresAt                *time.Time
	PaymentFailedAt          *time.Time `gorm:"index"`
	RetryCount               int        `gorm:"not null;default:0"`
	LastRetryAt              *time.Time
	Version                  int `gorm:"not null;default:1"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
	DeletedAt                gorm.DeletedAt `gorm:"index"`
}

func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
