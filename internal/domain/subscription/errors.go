package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrPlanNotFound            = errors.New("plan not found")
	ErrPlanInactive            = errors.New("plan is not active")
	ErrPlanInUse               = errors.New("plan has existing subscriptions and cannot be deleted")
	ErrNotEligible             = errors.New("user is not eligible")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrPeriodExpired           = errors.New("subscription period has expired")
	ErrNotRetriable            = errors.New("payment cannot be retried")
)

// ErrInvalidState builds a status-specific transition rejection so callers
// can tell the user exactly why the action is not allowed.
func ErrInvalidState(action string, status string) error {
	return fmt.Errorf("%w: cannot %s a subscription with status %q", ErrInvalidStatusTransition, action, status)
}

// ErrTrialUsed reports a second trial attempt by a user with prior history.
func ErrTrialUsed() error {
	return fmt.Errorf("%w: free trial has already been used", ErrNotEligible)
}

// ErrAlreadySubscribed reports a subscribe attempt over a live subscription.
func ErrAlreadySubscribed() error {
	return fmt.Errorf("%w: an active subscription already exists", ErrNotEligible)
}
