package valueobjects

type SubscriptionStatus string

const (
	// StatusPendingActivation is the window between "paid subscription row
	// created" and the webhook confirming the first charge. Nothing is
	// billed yet and the user has no access.
	StatusPendingActivation SubscriptionStatus = "pending_activation"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCancelled         SubscriptionStatus = "cancelled"
	StatusExpired           SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// GrantsAccess reports whether the status alone grants premium access.
// Cancelled subscriptions may still grant access until the paid period ends;
// that check needs the period dates and lives on the aggregate.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == StatusTrialing || s == StatusActive || s == StatusPastDue
}

// IsCancellable reports whether a cancellation request is legal from this status.
func (s SubscriptionStatus) IsCancellable() bool {
	return s == StatusActive || s == StatusTrialing || s == StatusPastDue
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusPendingActivation: {StatusActive, StatusExpired},
		StatusTrialing:          {StatusActive, StatusPastDue, StatusCancelled, StatusExpired},
		StatusActive:            {StatusPastDue, StatusCancelled, StatusExpired},
		StatusPastDue:           {StatusActive, StatusCancelled, StatusExpired},
		StatusCancelled:         {StatusActive, StatusExpired},
		// A late renewal charge can revive an expired subscription; the
		// provider keeps charging until told otherwise.
		StatusExpired: {StatusActive},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusPendingActivation: true,
	StatusTrialing:          true,
	StatusActive:            true,
	StatusPastDue:           true,
	StatusCancelled:         true,
	StatusExpired:           true,
}
