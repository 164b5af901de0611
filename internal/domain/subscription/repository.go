package subscription

import (
	"context"
	"time"
)

// PlanRepository persists plans. Get methods return (nil, nil) when no row
// matches so callers can distinguish absence from infrastructure failure.
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
	GetBySID(ctx context.Context, sid string) (*Plan, error)
	GetByPaystackPlanCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context, activeOnly bool) ([]*Plan, error)
}

// SubscriptionRepository persists subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	Update(ctx context.Context, sub *Subscription) error
	// Delete removes a row that never activated; live subscriptions are
	// expired, never deleted.
	Delete(ctx context.Context, id uint) error

	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	GetByReference(ctx context.Context, reference string) (*Subscription, error)
	GetByPaystackSubscriptionCode(ctx context.Context, code string) (*Subscription, error)

	// GetCurrentByUserID returns the user's newest non-expired subscription,
	// or (nil, nil) when the user has none.
	GetCurrentByUserID(ctx context.Context, userID uint) (*Subscription, error)

	// GetCurrentByEmail returns the newest non-expired subscription for the
	// email, or (nil, nil). Charge webhooks that carry only the customer
	// email resolve through here.
	GetCurrentByEmail(ctx context.Context, email string) (*Subscription, error)

	// GetLatestUnlinkedByEmail returns the newest subscription for the email
	// that has no provider subscription code yet. Webhook linkage for
	// subscription.create resolves through here.
	GetLatestUnlinkedByEmail(ctx context.Context, email string) (*Subscription, error)

	// HasEverSubscribed reports whether the user has held any subscription,
	// including expired ones. Trial eligibility depends on it.
	HasEverSubscribed(ctx context.Context, userID uint) (bool, error)

	// ListDueForRetry returns past-due subscriptions with a saved
	// authorization whose retry budget is not exhausted and whose last
	// attempt is older than the backoff cutoff.
	ListDueForRetry(ctx context.Context, maxRetries int, retryBefore time.Time) ([]*Subscription, error)

	// ListTrialsEnding returns trialing subscriptions whose trial end falls
	// inside the window. The reminder scheduler sizes the window to its own
	// interval so each trial is picked up once.
	ListTrialsEnding(ctx context.Context, from, to time.Time) ([]*Subscription, error)

	// ListLapsed returns subscriptions whose access should end: trials past
	// their end without payment, past-due rows past the grace deadline, and
	// cancelled rows past their paid period.
	ListLapsed(ctx context.Context, now time.Time, grace time.Duration) ([]*Subscription, error)

	CountByPlanID(ctx context.Context, planID uint) (int64, error)
	ListByUserID(ctx context.Context, userID uint) ([]*Subscription, error)
}
