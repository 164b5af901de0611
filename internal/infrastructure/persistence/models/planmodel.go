package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"techhive/internal/shared/constants"
)

// PlanModel is the persistence shape of a billing plan. Price and cycle are
// written once at creation and never updated afterwards.
type PlanModel struct {
	ID               uint   `gorm:"primarykey"`
	SID              string `gorm:"uniqueIndex;not null;size:50"`
	Name             string `gorm:"not null;size:100"`
	Description      string `gorm:"size:500"`
	PriceKobo        int64  `gorm:"not null"`
	Currency         string `gorm:"not null;size:10;default:'NGN'"`
	BillingCycle     string `gorm:"not null;size:20"`
	PaystackPlanCode *string `gorm:"size:64;index"`
	Features         datatypes.JSON
	IsActive         bool `gorm:"not null;default:true;index"`
	Version          int  `gorm:"not null;default:1"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (PlanModel) TableName() string {
	return constants.TablePlans
}

func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}
