package usecases

import (
	"context"
	"time"
)

// SubscriptionLocker serializes payment processing per subscription.
// Webhook deliveries, scheduler retries and manual retries can race on the
// same row; only one of them may run the state machine at a time.
type SubscriptionLocker interface {
	// TryLock acquires the lock for the key or reports that another worker
	// holds it. The returned release function is safe to call once.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// LifecycleNotifier delivers user-facing notifications for subscription
// events. Implementations must be safe for concurrent use; callers fire
// these in background goroutines and never block payment processing on
// delivery.
type LifecycleNotifier interface {
	TrialStarted(ctx context.Context, n TrialStartedNotification)
	TrialEndingSoon(ctx context.Context, n TrialEndingNotification)
	PaymentSucceeded(ctx context.Context, n PaymentNotification)
	PaymentFailed(ctx context.Context, n PaymentFailedNotification)
	SubscriptionCancelled(ctx context.Context, n CancellationNotification)
	SubscriptionReactivated(ctx context.Context, n ReactivationNotification)
	SubscriptionExpired(ctx context.Context, n ExpiryNotification)
	UpcomingCharge(ctx context.Context, n UpcomingChargeNotification)
	CardExpiring(ctx context.Context, n CardExpiringNotification)
}

type TrialStartedNotification struct {
	Email    string
	PlanName string
	TrialEnd time.Time
}

type TrialEndingNotification struct {
	Email    string
	PlanName string
	TrialEnd time.Time
	DaysLeft int
}

type PaymentNotification struct {
	Email       string
	PlanName    string
	AmountMinor int64
	Currency    string
	PeriodEnd   time.Time
}

type PaymentFailedNotification struct {
	Email         string
	PlanName      string
	Reason        string
	GraceDeadline time.Time
	AttemptsLeft  int
}

type CancellationNotification struct {
	Email       string
	PlanName    string
	AccessUntil time.Time
}

type ReactivationNotification struct {
	Email     string
	PlanName  string
	PeriodEnd time.Time
}

type ExpiryNotification struct {
	Email    string
	PlanName string
}

type UpcomingChargeNotification struct {
	Email       string
	AmountMinor int64
	Currency    string
	ChargeDate  time.Time
}

type CardExpiringNotification struct {
	Email    string
	Last4    string
	ExpMonth string
	ExpYear  string
}
