package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/id"
)

// DefaultGracePeriod is how long a past-due subscription keeps premium access
// after the first failed charge before it is expired.
const DefaultGracePeriod = 10 * 24 * time.Hour

// Subscription is the aggregate root for a user's paid (or trialing)
// relationship with a plan. Status only changes through the transition
// methods below; every transition carries side effects the rest of the
// system depends on, so direct field writes are never exposed.
type Subscription struct {
	id        uint
	sid       string
	reference string
	userID    uint
	userEmail string
	planID    uint
	status    vo.SubscriptionStatus

	paystackSubscriptionCode string
	paystackCustomerCode     string
	authorizationCode        string
	card                     vo.Card

	trialStart         *time.Time
	trialEnd           *time.Time
	currentPeriodStart *time.Time
	currentPeriodEnd   *time.Time
	nextBillingDate    *time.Time

	autoRenew         bool
	cancelAtPeriodEnd bool
	cancelledAt       *time.Time
	cancelReason      *string
	expiresAt         *time.Time

	paymentFailedAt *time.Time
	retryCount      int
	lastRetryAt     *time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// NewTrialSubscription creates a trialing subscription. Eligibility (first
// subscription ever for the user) is checked by the use case against the
// repository; the aggregate only shapes the trial window.
func NewTrialSubscription(userID uint, userEmail string, planID uint, trialDays int) (*Subscription, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if userEmail == "" {
		return nil, fmt.Errorf("user email is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if trialDays <= 0 {
		return nil, fmt.Errorf("trial days must be positive")
	}

	now := biztime.NowUTC()
	trialEnd := now.Add(time.Duration(trialDays) * 24 * time.Hour)

	s := newSubscription(userID, userEmail, planID)
	s.status = vo.StatusTrialing
	s.trialStart = &now
	s.trialEnd = &trialEnd
	s.nextBillingDate = &trialEnd
	return s, nil
}

// NewPendingSubscription creates a paid subscription awaiting its first
// charge confirmation. No access is granted and no billing period exists
// until the gateway confirms payment.
func NewPendingSubscription(userID uint, userEmail string, planID uint) (*Subscription, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if userEmail == "" {
		return nil, fmt.Errorf("user email is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}

	s := newSubscription(userID, userEmail, planID)
	s.status = vo.StatusPendingActivation
	return s, nil
}

func newSubscription(userID uint, userEmail string, planID uint) *Subscription {
	now := biztime.NowUTC()
	return &Subscription{
		sid:       id.MustGenerateWithPrefix(id.PrefixSubscription, id.DefaultLength),
		reference: uuid.NewString(),
		userID:    userID,
		userEmail: userEmail,
		planID:    planID,
		autoRenew: true,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
}

// SubscriptionReconstructParams carries persisted state back into the aggregate.
type SubscriptionReconstructParams struct {
	ID                       uint
	SID                      string
	Reference                string
	UserID                   uint
	UserEmail                string
	PlanID                   uint
	Status                   vo.SubscriptionStatus
	PaystackSubscriptionCode string
	PaystackCustomerCode     string
	AuthorizationCode        string
	Card                     vo.Card
	TrialStart               *time.Time
	TrialEnd                 *time.Time
	CurrentPeriodStart       *time.Time
	CurrentPeriodEnd         *time.Time
	NextBillingDate          *time.Time
	AutoRenew                bool
	CancelAtPeriodEnd        bool
	CancelledAt              *time.Time
	CancelReason             *string
	ExpiresAt                *time.Time
	PaymentFailedAt          *time.Time
	RetryCount               int
	LastRetryAt              *time.Time
	Version                  int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func ReconstructSubscription(p SubscriptionReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.UserID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}

	return &Subscription{
		id:                       p.ID,
		sid:                      p.SID,
		reference:                p.Reference,
		userID:                   p.UserID,
		userEmail:                p.UserEmail,
		planID:                   p.PlanID,
		status:                   p.Status,
		paystackSubscriptionCode: p.PaystackSubscriptionCode,
		paystackCustomerCode:     p.PaystackCustomerCode,
		authorizationCode:        p.AuthorizationCode,
		card:                     p.Card,
		trialStart:               p.TrialStart,
		trialEnd:                 p.TrialEnd,
		currentPeriodStart:       p.CurrentPeriodStart,
		currentPeriodEnd:         p.CurrentPeriodEnd,
		nextBillingDate:          p.NextBillingDate,
		autoRenew:                p.AutoRenew,
		cancelAtPeriodEnd:        p.CancelAtPeriodEnd,
		cancelledAt:              p.CancelledAt,
		cancelReason:             p.CancelReason,
		expiresAt:                p.ExpiresAt,
		paymentFailedAt:          p.PaymentFailedAt,
		retryCount:               p.RetryCount,
		lastRetryAt:              p.LastRetryAt,
		version:                  p.Version,
		createdAt:                p.CreatedAt,
		updatedAt:                p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() uint                        { return s.id }
func (s *Subscription) SID() string                     { return s.sid }
func (s *Subscription) Reference() string               { return s.reference }
func (s *Subscription) UserID() uint                    { return s.userID }
func (s *Subscription) UserEmail() string               { return s.userEmail }
func (s *Subscription) PlanID() uint                    { return s.planID }
func (s *Subscription) Status() vo.SubscriptionStatus   { return s.status }
func (s *Subscription) PaystackSubscriptionCode() string { return s.paystackSubscriptionCode }
func (s *Subscription) PaystackCustomerCode() string    { return s.paystackCustomerCode }
func (s *Subscription) AuthorizationCode() string       { return s.authorizationCode }
func (s *Subscription) Card() vo.Card                   { return s.card }
func (s *Subscription) TrialStart() *time.Time          { return s.trialStart }
func (s *Subscription) TrialEnd() *time.Time            { return s.trialEnd }
func (s *Subscription) CurrentPeriodStart() *time.Time  { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() *time.Time    { return s.currentPeriodEnd }
func (s *Subscription) NextBillingDate() *time.Time     { return s.nextBillingDate }
func (s *Subscription) AutoRenew() bool                 { return s.autoRenew }
func (s *Subscription) CancelAtPeriodEnd() bool         { return s.cancelAtPeriodEnd }
func (s *Subscription) CancelledAt() *time.Time         { return s.cancelledAt }
func (s *Subscription) CancelReason() *string           { return s.cancelReason }
func (s *Subscription) ExpiresAt() *time.Time           { return s.expiresAt }
func (s *Subscription) PaymentFailedAt() *time.Time     { return s.paymentFailedAt }
func (s *Subscription) RetryCount() int                 { return s.retryCount }
func (s *Subscription) LastRetryAt() *time.Time         { return s.lastRetryAt }
func (s *Subscription) Version() int                    { return s.version }
func (s *Subscription) CreatedAt() time.Time            { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time            { return s.updatedAt }

// SetID sets the subscription ID after persistence (repository use only).
func (s *Subscription) SetID(subID uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if subID == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = subID
	return nil
}

// IsActive is the access-control rule: trialing, active and past-due (mid
// grace period) subscriptions grant access, and a cancelled subscription
// keeps access until its paid period runs out.
func (s *Subscription) IsActive() bool {
	if s.status.GrantsAccess() {
		return true
	}
	if s.status == vo.StatusCancelled && s.currentPeriodEnd != nil {
		return biztime.NowUTC().Before(*s.currentPeriodEnd)
	}
	return false
}

// HasSavedAuthorization reports whether a saved card token exists to charge.
func (s *Subscription) HasSavedAuthorization() bool {
	return s.authorizationCode != ""
}

// IsLinkedToGateway reports whether the provider-side subscription exists.
func (s *Subscription) IsLinkedToGateway() bool {
	return s.paystackSubscriptionCode != ""
}

// GraceDeadline returns when the grace period after a failed payment ends,
// or nil when no failure is outstanding.
func (s *Subscription) GraceDeadline(grace time.Duration) *time.Time {
	if s.paymentFailedAt == nil {
		return nil
	}
	deadline := s.paymentFailedAt.Add(grace)
	return &deadline
}

// InGracePeriod reports whether a past-due subscription is still within its
// failure grace window.
func (s *Subscription) InGracePeriod(grace time.Duration) bool {
	deadline := s.GraceDeadline(grace)
	if deadline == nil {
		return false
	}
	return s.status == vo.StatusPastDue && biztime.NowUTC().Before(*deadline)
}

// Activate moves the subscription to active with the given billing period.
// It is the single landing point for every successful payment: first charge,
// renewal, retry and reconciliation all route through here. Retry state is
// always cleared.
func (s *Subscription) Activate(periodStart, periodEnd, nextBilling time.Time) error {
	if periodEnd.Before(periodStart) {
		return fmt.Errorf("period end must be after period start")
	}

	// A renewal lands while already active; that's a period roll, not a
	// status change.
	if s.status != vo.StatusActive && !s.status.CanTransitionTo(vo.StatusActive) {
		return ErrInvalidState("activate", s.status.String())
	}

	s.status = vo.StatusActive
	s.currentPeriodStart = &periodStart
	s.currentPeriodEnd = &periodEnd
	s.nextBillingDate = &nextBilling
	s.paymentFailedAt = nil
	s.retryCount = 0
	s.lastRetryAt = nil
	s.touch()
	return nil
}

// MarkPastDue records a failed charge. The grace clock starts on the first
// failure only; duplicate failure notifications for the same episode must
// not restart it.
func (s *Subscription) MarkPastDue() error {
	if s.status == vo.StatusPastDue {
		if s.paymentFailedAt == nil {
			now := biztime.NowUTC()
			s.paymentFailedAt = &now
			s.touch()
		}
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusPastDue) {
		return ErrInvalidState("mark past due", s.status.String())
	}

	s.status = vo.StatusPastDue
	if s.paymentFailedAt == nil {
		now := biztime.NowUTC()
		s.paymentFailedAt = &now
	}
	s.touch()
	return nil
}

// RecordRetryAttempt notes a charge retry. Only automatic retries consume
// the retry budget; user-triggered retries are free.
func (s *Subscription) RecordRetryAttempt(manual bool) {
	now := biztime.NowUTC()
	s.lastRetryAt = &now
	if !manual {
		s.retryCount++
	}
	s.touch()
}

// Cancel performs a deferred cancellation: renewal stops but premium access
// persists until the end of the already-paid period.
func (s *Subscription) Cancel(reason string) error {
	if !s.status.IsCancellable() {
		return ErrInvalidState("cancel", s.status.String())
	}

	now := biztime.NowUTC()
	s.status = vo.StatusCancelled
	s.cancelledAt = &now
	s.autoRenew = false
	s.cancelAtPeriodEnd = true
	if reason != "" {
		s.cancelReason = &reason
	}
	s.touch()
	return nil
}

// Reactivate undoes a cancellation while the paid period is still running.
// A lapsed subscription cannot come back; the user must start a new one.
func (s *Subscription) Reactivate() error {
	if s.status != vo.StatusCancelled {
		return ErrInvalidState("reactivate", s.status.String())
	}
	if s.currentPeriodEnd == nil || biztime.NowUTC().After(*s.currentPeriodEnd) {
		return ErrPeriodExpired
	}

	s.status = vo.StatusActive
	s.cancelledAt = nil
	s.cancelReason = nil
	s.cancelAtPeriodEnd = false
	s.autoRenew = true
	s.touch()
	return nil
}

// DisableAutoRenew stops future renewals without changing status. The
// provider announces this with subscription.not_renew; access runs out at
// the period end like a deferred cancellation.
func (s *Subscription) DisableAutoRenew() {
	if !s.autoRenew && s.cancelAtPeriodEnd {
		return
	}
	s.autoRenew = false
	s.cancelAtPeriodEnd = true
	s.touch()
}

// MarkExpired is the terminal transition.
func (s *Subscription) MarkExpired() error {
	if s.status == vo.StatusExpired {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusExpired) {
		return ErrInvalidState("expire", s.status.String())
	}

	now := biztime.NowUTC()
	s.status = vo.StatusExpired
	s.expiresAt = &now
	s.autoRenew = false
	s.touch()
	return nil
}

// AttachGatewayIdentity links the provider-side subscription, customer and
// card authorization to this row. Fired by the synchronous verify flow or by
// the subscription.create webhook, whichever lands first.
func (s *Subscription) AttachGatewayIdentity(subscriptionCode, customerCode, authorizationCode string, card vo.Card) {
	if subscriptionCode != "" {
		s.paystackSubscriptionCode = subscriptionCode
	}
	if customerCode != "" {
		s.paystackCustomerCode = customerCode
	}
	if authorizationCode != "" {
		s.authorizationCode = authorizationCode
	}
	if !card.IsZero() {
		s.card = card
	}
	s.touch()
}

// RotateAuthorization swaps the saved card token in place, typically after
// the user updates their card on the provider-hosted page.
func (s *Subscription) RotateAuthorization(authorizationCode string, card vo.Card) {
	if authorizationCode == "" || authorizationCode == s.authorizationCode {
		return
	}
	s.authorizationCode = authorizationCode
	if !card.IsZero() {
		s.card = card
	}
	s.touch()
}

func (s *Subscription) touch() {
	s.updatedAt = biztime.NowUTC()
	s.version++
}
