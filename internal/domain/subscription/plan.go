package subscription

import (
	"fmt"
	"time"

	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/id"
)

// Plan is a billable subscription tier. Price is stored in minor units
// (kobo); the gateway never sees decimals.
type Plan struct {
	id               uint
	sid              string
	name             string
	description      string
	priceKobo        int64
	currency         string
	billingCycle     vo.BillingCycle
	paystackPlanCode string
	features         *vo.PlanFeatures
	isActive         bool
	version          int
	createdAt        time.Time
	updatedAt        time.Time
}

func NewPlan(name, description string, priceKobo int64, currency string, cycle vo.BillingCycle, features *vo.PlanFeatures) (*Plan, error) {
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if priceKobo <= 0 {
		return nil, fmt.Errorf("plan price must be positive")
	}
	if !cycle.IsValid() {
		return nil, fmt.Errorf("invalid billing cycle: %s", cycle)
	}
	if currency == "" {
		currency = "NGN"
	}
	if features == nil {
		features = vo.NewPlanFeatures(nil, nil)
	}

	now := biztime.NowUTC()
	return &Plan{
		sid:          id.MustGenerateWithPrefix(id.PrefixPlan, id.DefaultLength),
		name:         name,
		description:  description,
		priceKobo:    priceKobo,
		currency:     currency,
		billingCycle: cycle,
		features:     features,
		isActive:     true,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// PlanReconstructParams carries persisted state back into the aggregate.
type PlanReconstructParams struct {
	ID               uint
	SID              string
	Name             string
	Description      string
	PriceKobo        int64
	Currency         string
	BillingCycle     vo.BillingCycle
	PaystackPlanCode string
	Features         *vo.PlanFeatures
	IsActive         bool
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func ReconstructPlan(p PlanReconstructParams) (*Plan, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	if !p.BillingCycle.IsValid() {
		return nil, fmt.Errorf("invalid billing cycle: %s", p.BillingCycle)
	}
	if p.Features == nil {
		p.Features = vo.NewPlanFeatures(nil, nil)
	}

	return &Plan{
		id:               p.ID,
		sid:              p.SID,
		name:             p.Name,
		description:      p.Description,
		priceKobo:        p.PriceKobo,
		currency:         p.Currency,
		billingCycle:     p.BillingCycle,
		paystackPlanCode: p.PaystackPlanCode,
		features:         p.Features,
		isActive:         p.IsActive,
		version:          p.Version,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
	}, nil
}

func (p *Plan) ID() uint                 { return p.id }
func (p *Plan) SID() string              { return p.sid }
func (p *Plan) Name() string             { return p.name }
func (p *Plan) Description() string      { return p.description }
func (p *Plan) PriceKobo() int64         { return p.priceKobo }
func (p *Plan) Currency() string         { return p.currency }
func (p *Plan) BillingCycle() vo.BillingCycle { return p.billingCycle }
func (p *Plan) PaystackPlanCode() string { return p.paystackPlanCode }
func (p *Plan) Features() *vo.PlanFeatures { return p.features }
func (p *Plan) IsActive() bool           { return p.isActive }
func (p *Plan) Version() int             { return p.version }
func (p *Plan) CreatedAt() time.Time     { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time     { return p.updatedAt }

// PriceNaira returns the display price in major units.
func (p *Plan) PriceNaira() float64 {
	return float64(p.priceKobo) / 100.0
}

// SetID sets the plan ID after persistence (repository use only).
func (p *Plan) SetID(planID uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if planID == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = planID
	return nil
}

// SetPaystackPlanCode records the gateway-side plan code after a sync.
func (p *Plan) SetPaystackPlanCode(code string) {
	if code == "" || p.paystackPlanCode == code {
		return
	}
	p.paystackPlanCode = code
	p.updatedAt = biztime.NowUTC()
	p.version++
}

// Update changes the mutable presentation fields. Price and cycle are fixed
// once subscriptions may reference the plan; a price change is a new plan.
func (p *Plan) Update(name, description string, features *vo.PlanFeatures) error {
	if name == "" {
		return fmt.Errorf("plan name is required")
	}
	p.name = name
	p.description = description
	if features != nil {
		p.features = features
	}
	p.updatedAt = biztime.NowUTC()
	p.version++
	return nil
}

func (p *Plan) Activate() {
	if p.isActive {
		return
	}
	p.isActive = true
	p.updatedAt = biztime.NowUTC()
	p.version++
}

func (p *Plan) Deactivate() {
	if !p.isActive {
		return
	}
	p.isActive = false
	p.updatedAt = biztime.NowUTC()
	p.version++
}
