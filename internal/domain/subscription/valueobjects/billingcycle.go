package valueobjects

import (
	"fmt"
	"strings"
	"time"
)

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

func NewBillingCycle(value string) (BillingCycle, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "monthly":
		return CycleMonthly, nil
	case "yearly", "annually":
		return CycleYearly, nil
	default:
		return "", fmt.Errorf("invalid billing cycle: %s", value)
	}
}

func (b BillingCycle) String() string {
	return string(b)
}

func (b BillingCycle) IsValid() bool {
	return b == CycleMonthly || b == CycleYearly
}

// PeriodEnd returns the end of a billing period starting at start.
func (b BillingCycle) PeriodEnd(start time.Time) time.Time {
	if b == CycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// PaystackInterval maps the cycle to the gateway's plan interval name.
func (b BillingCycle) PaystackInterval() string {
	if b == CycleYearly {
		return "annually"
	}
	return "monthly"
}
