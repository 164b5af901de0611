package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/id"
)

// --- helpers ---

func newTrialSub(t *testing.T) *Subscription {
	t.Helper()
	sub, err := NewTrialSubscription(1, "user@example.com", 1, 14)
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func newPendingSub(t *testing.T) *Subscription {
	t.Helper()
	sub, err := NewPendingSubscription(1, "user@example.com", 1)
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func newActiveSub(t *testing.T) *Subscription {
	t.Helper()
	sub := newPendingSub(t)
	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)
	require.NoError(t, sub.Activate(start, end, end))
	return sub
}

func newPastDueSub(t *testing.T) *Subscription {
	t.Helper()
	sub := newActiveSub(t)
	require.NoError(t, sub.MarkPastDue())
	return sub
}

// reconstructSub builds a Subscription with sensible defaults for the given
// status and period window.
func reconstructSub(t *testing.T, status vo.SubscriptionStatus, periodStart, periodEnd *time.Time) *Subscription {
	t.Helper()
	now := time.Now().UTC()
	sub, err := ReconstructSubscription(SubscriptionReconstructParams{
		ID:                 1,
		SID:                "sub_test123",
		Reference:          "00000000-0000-0000-0000-000000000001",
		UserID:             10,
		UserEmail:          "user@example.com",
		PlanID:             100,
		Status:             status,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		AutoRenew:          true,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	require.NoError(t, err)
	return sub
}

// =====================================================================
// TestNewTrialSubscription_*
// =====================================================================

func TestNewTrialSubscription_ValidInput(t *testing.T) {
	sub, err := NewTrialSubscription(1, "user@example.com", 2, 14)

	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.NotEmpty(t, sub.SID(), "SID should be generated")
	assert.True(t, id.HasPrefix(sub.SID(), id.PrefixSubscription))
	assert.NotEmpty(t, sub.Reference())
	assert.Equal(t, vo.StatusTrialing, sub.Status())
	assert.True(t, sub.AutoRenew())

	require.NotNil(t, sub.TrialStart())
	require.NotNil(t, sub.TrialEnd())
	require.NotNil(t, sub.NextBillingDate())
	assert.Equal(t, *sub.TrialEnd(), *sub.NextBillingDate())
	assert.WithinDuration(t, sub.TrialStart().Add(14*24*time.Hour), *sub.TrialEnd(), time.Second)
}

func TestNewTrialSubscription_ZeroUserID(t *testing.T) {
	sub, err := NewTrialSubscription(0, "user@example.com", 1, 14)
	assert.Error(t, err)
	assert.Nil(t, sub)
}

func TestNewTrialSubscription_EmptyEmail(t *testing.T) {
	sub, err := NewTrialSubscription(1, "", 1, 14)
	assert.Error(t, err)
	assert.Nil(t, sub)
}

func TestNewTrialSubscription_ZeroTrialDays(t *testing.T) {
	sub, err := NewTrialSubscription(1, "user@example.com", 1, 0)
	assert.Error(t, err)
	assert.Nil(t, sub)
}

// =====================================================================
// TestNewPendingSubscription_*
// =====================================================================

func TestNewPendingSubscription_ValidInput(t *testing.T) {
	sub, err := NewPendingSubscription(1, "user@example.com", 2)

	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, vo.StatusPendingActivation, sub.Status())
	assert.Nil(t, sub.CurrentPeriodStart())
	assert.Nil(t, sub.CurrentPeriodEnd())
	assert.False(t, sub.IsActive(), "pending activation must not grant access")
}

func TestNewPendingSubscription_ZeroPlanID(t *testing.T) {
	sub, err := NewPendingSubscription(1, "user@example.com", 0)
	assert.Error(t, err)
	assert.Nil(t, sub)
}

// =====================================================================
// TestSubscription_Activate_*
// =====================================================================

func TestSubscription_Activate_FromPendingActivation(t *testing.T) {
	sub := newPendingSub(t)
	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)

	err := sub.Activate(start, end, end)

	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, start, *sub.CurrentPeriodStart())
	assert.Equal(t, end, *sub.CurrentPeriodEnd())
	assert.Equal(t, end, *sub.NextBillingDate())
}

func TestSubscription_Activate_FromTrialing(t *testing.T) {
	sub := newTrialSub(t)
	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)

	require.NoError(t, sub.Activate(start, end, end))
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestSubscription_Activate_RenewalRollsPeriod(t *testing.T) {
	sub := newActiveSub(t)
	oldEnd := *sub.CurrentPeriodEnd()
	newEnd := oldEnd.AddDate(0, 1, 0)

	err := sub.Activate(oldEnd, newEnd, newEnd)

	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, newEnd, *sub.CurrentPeriodEnd())
}

func TestSubscription_Activate_FromPastDueClearsRetryState(t *testing.T) {
	sub := newPastDueSub(t)
	sub.RecordRetryAttempt(false)
	sub.RecordRetryAttempt(false)
	require.Equal(t, 2, sub.RetryCount())
	require.NotNil(t, sub.PaymentFailedAt())

	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)
	err := sub.Activate(start, end, end)

	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Zero(t, sub.RetryCount())
	assert.Nil(t, sub.PaymentFailedAt())
	assert.Nil(t, sub.LastRetryAt())
}

func TestSubscription_Activate_FromExpired(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.MarkExpired())

	start := time.Now().UTC()
	end := start.AddDate(0, 1, 0)
	err := sub.Activate(start, end, end)

	require.NoError(t, err, "a late renewal payment revives an expired subscription")
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestSubscription_Activate_PeriodEndBeforeStart(t *testing.T) {
	sub := newPendingSub(t)
	start := time.Now().UTC()

	err := sub.Activate(start, start.Add(-time.Hour), start)

	assert.Error(t, err)
	assert.Equal(t, vo.StatusPendingActivation, sub.Status())
}

// =====================================================================
// TestSubscription_MarkPastDue_*
// =====================================================================

func TestSubscription_MarkPastDue_FromActive(t *testing.T) {
	sub := newActiveSub(t)

	err := sub.MarkPastDue()

	require.NoError(t, err)
	assert.Equal(t, vo.StatusPastDue, sub.Status())
	require.NotNil(t, sub.PaymentFailedAt())
	assert.True(t, sub.IsActive(), "grace period keeps access on")
}

func TestSubscription_MarkPastDue_FromTrialing(t *testing.T) {
	sub := newTrialSub(t)
	require.NoError(t, sub.MarkPastDue())
	assert.Equal(t, vo.StatusPastDue, sub.Status())
}

func TestSubscription_MarkPastDue_IdempotentKeepsGraceClock(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.MarkPastDue())
	first := *sub.PaymentFailedAt()

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, sub.MarkPastDue())

	assert.Equal(t, first, *sub.PaymentFailedAt(), "duplicate failure must not restart the grace clock")
}

func TestSubscription_MarkPastDue_FromPendingActivation(t *testing.T) {
	sub := newPendingSub(t)
	err := sub.MarkPastDue()
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubscription_MarkPastDue_FromExpired(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.MarkExpired())

	err := sub.MarkPastDue()
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

// =====================================================================
// TestSubscription_RecordRetryAttempt_*
// =====================================================================

func TestSubscription_RecordRetryAttempt_AutomaticConsumesBudget(t *testing.T) {
	sub := newPastDueSub(t)

	sub.RecordRetryAttempt(false)
	sub.RecordRetryAttempt(false)
	sub.RecordRetryAttempt(false)

	assert.Equal(t, 3, sub.RetryCount())
	assert.NotNil(t, sub.LastRetryAt())
}

func TestSubscription_RecordRetryAttempt_ManualDoesNotConsumeBudget(t *testing.T) {
	sub := newPastDueSub(t)

	sub.RecordRetryAttempt(true)
	sub.RecordRetryAttempt(true)

	assert.Zero(t, sub.RetryCount())
	assert.NotNil(t, sub.LastRetryAt())
}

// =====================================================================
// TestSubscription_Cancel_*
// =====================================================================

func TestSubscription_Cancel_FromActive(t *testing.T) {
	sub := newActiveSub(t)

	err := sub.Cancel("too expensive")

	require.NoError(t, err)
	assert.Equal(t, vo.StatusCancelled, sub.Status())
	assert.False(t, sub.AutoRenew())
	assert.True(t, sub.CancelAtPeriodEnd())
	require.NotNil(t, sub.CancelledAt())
	require.NotNil(t, sub.CancelReason())
	assert.Equal(t, "too expensive", *sub.CancelReason())
}

func TestSubscription_Cancel_KeepsAccessUntilPeriodEnd(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.Cancel(""))

	assert.True(t, sub.IsActive(), "cancellation is deferred to period end")
}

func TestSubscription_Cancel_FromTrialing(t *testing.T) {
	sub := newTrialSub(t)
	require.NoError(t, sub.Cancel("changed my mind"))
	assert.Equal(t, vo.StatusCancelled, sub.Status())
}

func TestSubscription_Cancel_FromPastDue(t *testing.T) {
	sub := newPastDueSub(t)
	require.NoError(t, sub.Cancel(""))
	assert.Equal(t, vo.StatusCancelled, sub.Status())
}

func TestSubscription_Cancel_EmptyReason(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.Cancel(""))
	assert.Nil(t, sub.CancelReason())
}

func TestSubscription_Cancel_FromCancelled(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.Cancel("first"))

	err := sub.Cancel("second")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubscription_Cancel_FromExpired(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.MarkExpired())

	err := sub.Cancel("")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestSubscription_Cancel_FromPendingActivation(t *testing.T) {
	sub := newPendingSub(t)
	err := sub.Cancel("")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

// =====================================================================
// TestSubscription_Reactivate_*
// =====================================================================

func TestSubscription_Reactivate_WithinPaidPeriod(t *testing.T) {
	sub := newActiveSub(t)
	require.NoError(t, sub.Cancel("oops"))

	err := sub.Reactivate()

	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.True(t, sub.AutoRenew())
	assert.False(t, sub.CancelAtPeriodEnd())
	assert.Nil(t, sub.CancelledAt())
	assert.Nil(t, sub.CancelReason())
}

func TestSubscription_Reactivate_AfterPeriodEnd(t *testing.T) {
	past := time.Now().UTC().AddDate(0, -2, 0)
	end := past.AddDate(0, 1, 0)
	sub := reconstructSub(t, vo.StatusCancelled, &past, &end)

	err := sub.Reactivate()

	assert.ErrorIs(t, err, ErrPeriodExpired)
	assert.Equal(t, vo.StatusCancelled, sub.Status())
}

func TestSubscription_Reactivate_FromActive(t *testing.T) {
	sub := newActiveSub(t)
	err := sub.Reactivate()
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

// =====================================================================
// TestSubscription_MarkExpired_*
// =====================================================================

func TestSubscription_MarkExpired_FromPastDue(t *testing.T) {
	sub := newPastDueSub(t)

	err := sub.MarkExpired()

	require.NoError(t, err)
	assert.Equal(t, vo.StatusExpired, sub.Status())
	assert.False(t, sub.AutoRenew())
	require.NotNil(t, sub.ExpiresAt())
	assert.False(t, sub.IsActive())
}

func TestSubscription_MarkExpired_Idempotent(t *testing.T) {
	sub := newPastDueSub(t)
	require.NoError(t, sub.MarkExpired())
	first := *sub.ExpiresAt()

	require.NoError(t, sub.MarkExpired())
	assert.Equal(t, first, *sub.ExpiresAt())
}

func TestSubscription_MarkExpired_FromTrialing(t *testing.T) {
	sub := newTrialSub(t)
	require.NoError(t, sub.MarkExpired())
	assert.Equal(t, vo.StatusExpired, sub.Status())
}

// =====================================================================
// TestSubscription_GatewayIdentity_*
// =====================================================================

func TestSubscription_AttachGatewayIdentity(t *testing.T) {
	sub := newPendingSub(t)
	card := vo.Card{Last4: "4081", CardType: "visa", Bank: "TEST BANK", ExpMonth: "12", ExpYear: "2030"}

	sub.AttachGatewayIdentity("SUB_abc", "CUS_def", "AUTH_ghi", card)

	assert.Equal(t, "SUB_abc", sub.PaystackSubscriptionCode())
	assert.Equal(t, "CUS_def", sub.PaystackCustomerCode())
	assert.Equal(t, "AUTH_ghi", sub.AuthorizationCode())
	assert.Equal(t, "4081", sub.Card().Last4)
	assert.True(t, sub.HasSavedAuthorization())
	assert.True(t, sub.IsLinkedToGateway())
}

func TestSubscription_AttachGatewayIdentity_EmptyValuesPreserved(t *testing.T) {
	sub := newPendingSub(t)
	sub.AttachGatewayIdentity("SUB_abc", "CUS_def", "AUTH_ghi", vo.Card{Last4: "4081"})

	sub.AttachGatewayIdentity("", "", "", vo.Card{})

	assert.Equal(t, "SUB_abc", sub.PaystackSubscriptionCode())
	assert.Equal(t, "AUTH_ghi", sub.AuthorizationCode())
	assert.Equal(t, "4081", sub.Card().Last4)
}

func TestSubscription_RotateAuthorization(t *testing.T) {
	sub := newPendingSub(t)
	sub.AttachGatewayIdentity("SUB_abc", "CUS_def", "AUTH_old", vo.Card{Last4: "4081"})

	sub.RotateAuthorization("AUTH_new", vo.Card{Last4: "1111", CardType: "mastercard"})

	assert.Equal(t, "AUTH_new", sub.AuthorizationCode())
	assert.Equal(t, "1111", sub.Card().Last4)
}

func TestSubscription_RotateAuthorization_SameCodeIsNoOp(t *testing.T) {
	sub := newPendingSub(t)
	sub.AttachGatewayIdentity("", "", "AUTH_old", vo.Card{Last4: "4081"})
	version := sub.Version()

	sub.RotateAuthorization("AUTH_old", vo.Card{Last4: "9999"})

	assert.Equal(t, "4081", sub.Card().Last4)
	assert.Equal(t, version, sub.Version())
}

// =====================================================================
// TestSubscription_GracePeriod_*
// =====================================================================

func TestSubscription_InGracePeriod(t *testing.T) {
	sub := newPastDueSub(t)

	assert.True(t, sub.InGracePeriod(DefaultGracePeriod))

	deadline := sub.GraceDeadline(DefaultGracePeriod)
	require.NotNil(t, deadline)
	assert.Equal(t, sub.PaymentFailedAt().Add(DefaultGracePeriod), *deadline)
}

func TestSubscription_InGracePeriod_NoFailure(t *testing.T) {
	sub := newActiveSub(t)
	assert.False(t, sub.InGracePeriod(DefaultGracePeriod))
	assert.Nil(t, sub.GraceDeadline(DefaultGracePeriod))
}

// =====================================================================
// TestSubscription_SetID_*
// =====================================================================

func TestSubscription_SetID_Success(t *testing.T) {
	sub := newPendingSub(t)
	require.NoError(t, sub.SetID(42))
	assert.Equal(t, uint(42), sub.ID())
}

func TestSubscription_SetID_AlreadySet(t *testing.T) {
	sub := newPendingSub(t)
	require.NoError(t, sub.SetID(42))
	assert.Error(t, sub.SetID(43))
}

func TestSubscription_SetID_Zero(t *testing.T) {
	sub := newPendingSub(t)
	assert.Error(t, sub.SetID(0))
}

// =====================================================================
// TestReconstructSubscription_*
// =====================================================================

func TestReconstructSubscription_InvalidStatus(t *testing.T) {
	now := time.Now().UTC()
	_, err := ReconstructSubscription(SubscriptionReconstructParams{
		ID:        1,
		UserID:    10,
		PlanID:    100,
		Status:    "suspended",
		CreatedAt: now,
		UpdatedAt: now,
	})
	assert.Error(t, err)
}

func TestReconstructSubscription_ZeroID(t *testing.T) {
	_, err := ReconstructSubscription(SubscriptionReconstructParams{
		UserID: 10,
		Status: vo.StatusActive,
	})
	assert.Error(t, err)
}
