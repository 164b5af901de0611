package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techhive/internal/application/payment/gateway"
	paymentvo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

func (h *harness) startTrial() *StartTrialUseCase {
	return NewStartTrialUseCase(h.subRepo, h.planRepo, h.txnRepo, h.notifier, h.billing, logger.NewLogger())
}

func (h *harness) createSubscription(gw gateway.PaymentGateway) *CreateSubscriptionUseCase {
	cfg := config.PaystackConfig{CallbackURL: "https://techhive.example.com/billing/verify"}
	return NewCreateSubscriptionUseCase(h.subRepo, h.planRepo, h.txnRepo, gw, cfg, logger.NewLogger())
}

func (h *harness) retryPayment(gw gateway.PaymentGateway) *RetryPaymentUseCase {
	return NewRetryPaymentUseCase(h.subRepo, h.planRepo, h.txnRepo, gw, h.processor(), h.billing, logger.NewLogger())
}

// =====================================================================
// StartTrial
// =====================================================================

func TestStartTrial_FirstSubscriptionEver(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)

	sub, err := h.startTrial().Execute(context.Background(), StartTrialCommand{
		UserID:    1,
		UserEmail: "reader@example.com",
		PlanSID:   plan.SID(),
	})

	require.NoError(t, err)
	assert.Equal(t, vo.StatusTrialing, sub.Status())
	assert.True(t, sub.IsActive())

	txns, _, err := h.txnRepo.ListBySubscriptionID(context.Background(), sub.ID(), 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1, "the trial books one audit ledger row")
	assert.Equal(t, paymentvo.TxnStatusSuccess, txns[0].Status())
	assert.Equal(t, int64(500000), txns[0].Amount().Amount(), "audit row carries the plan price")

	waitForNotifications(t, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return len(h.notifier.trialStarted) == 1
	})
}

func TestStartTrial_SecondTrialRejected(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	uc := h.startTrial()

	first, err := uc.Execute(context.Background(), StartTrialCommand{UserID: 1, UserEmail: "reader@example.com", PlanSID: plan.SID()})
	require.NoError(t, err)
	require.NoError(t, first.MarkExpired())
	require.NoError(t, h.subRepo.Update(context.Background(), first))

	_, err = uc.Execute(context.Background(), StartTrialCommand{UserID: 1, UserEmail: "reader@example.com", PlanSID: plan.SID()})

	assert.ErrorIs(t, err, subscription.ErrNotEligible, "trial history persists across expiry")
}

func TestStartTrial_ActiveSubscriptionRejected(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	h.seedActiveSub(t, plan.ID())

	_, err := h.startTrial().Execute(context.Background(), StartTrialCommand{UserID: 1, UserEmail: "reader@example.com", PlanSID: plan.SID()})

	assert.ErrorIs(t, err, subscription.ErrNotEligible)
}

func TestStartTrial_InactivePlanRejected(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	plan.Deactivate()
	require.NoError(t, h.planRepo.Update(context.Background(), plan))

	_, err := h.startTrial().Execute(context.Background(), StartTrialCommand{UserID: 1, UserEmail: "reader@example.com", PlanSID: plan.SID()})

	assert.ErrorIs(t, err, subscription.ErrPlanInactive)
}

// =====================================================================
// CreateSubscription
// =====================================================================

func TestCreateSubscription_OpensCheckout(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)

	result, err := h.createSubscription(gateway.NewMockGateway(true)).Execute(context.Background(), CreateSubscriptionCommand{
		UserID:    1,
		UserEmail: "reader@example.com",
		PlanSID:   plan.SID(),
	})

	require.NoError(t, err)
	assert.Equal(t, vo.StatusPendingActivation, result.Subscription.Status())
	assert.NotEmpty(t, result.CheckoutURL)
	assert.NotEmpty(t, result.Reference)

	txn, _ := h.txnRepo.GetByReference(context.Background(), result.Reference)
	require.NotNil(t, txn)
	assert.Equal(t, paymentvo.TxnStatusPending, txn.Status())
	assert.Equal(t, paymentvo.TxnTypeSubscription, txn.Type())
}

func TestCreateSubscription_ReactivationAfterHistory(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	old := h.seedActiveSub(t, plan.ID())
	require.NoError(t, old.MarkExpired())
	require.NoError(t, h.subRepo.Update(context.Background(), old))

	result, err := h.createSubscription(gateway.NewMockGateway(true)).Execute(context.Background(), CreateSubscriptionCommand{
		UserID:    1,
		UserEmail: "reader@example.com",
		PlanSID:   plan.SID(),
	})

	require.NoError(t, err)
	txn, _ := h.txnRepo.GetByReference(context.Background(), result.Reference)
	assert.Equal(t, paymentvo.TxnTypeReactivation, txn.Type())
}

func TestCreateSubscription_ReplacesAbandonedCheckout(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	stale := h.seedPendingSub(t, plan.ID())

	result, err := h.createSubscription(gateway.NewMockGateway(true)).Execute(context.Background(), CreateSubscriptionCommand{
		UserID:    1,
		UserEmail: "reader@example.com",
		PlanSID:   plan.SID(),
	})

	require.NoError(t, err)
	assert.NotEqual(t, stale.ID(), result.Subscription.ID())
	gone, _ := h.subRepo.GetByID(context.Background(), stale.ID())
	assert.Nil(t, gone)
}

func TestCreateSubscription_ActiveSubscriptionRejected(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	h.seedActiveSub(t, plan.ID())

	_, err := h.createSubscription(gateway.NewMockGateway(true)).Execute(context.Background(), CreateSubscriptionCommand{
		UserID:    1,
		UserEmail: "reader@example.com",
		PlanSID:   plan.SID(),
	})

	assert.ErrorIs(t, err, subscription.ErrNotEligible)
}

// =====================================================================
// VerifyActivation
// =====================================================================

func (h *harness) verifyActivation(gw gateway.PaymentGateway) *VerifyActivationUseCase {
	return NewVerifyActivationUseCase(h.subRepo, h.txnRepo, gw, h.processor(), logger.NewLogger())
}

func TestVerifyActivation_DeclinedRemovesPendingSubscription(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := h.seedPendingSub(t, plan.ID())
	txn := h.seedPendingTxn(t, sub)

	result, err := h.verifyActivation(gateway.NewMockGateway(false)).Execute(context.Background(), VerifyActivationCommand{
		Reference: txn.Reference(),
		UserID:    1,
	})

	require.NoError(t, err)
	assert.False(t, result.Activated)

	gone, _ := h.subRepo.GetByID(context.Background(), sub.ID())
	assert.Nil(t, gone, "a declined first charge leaves no subscription row")

	stored, _ := h.txnRepo.GetByID(context.Background(), txn.ID())
	assert.Equal(t, paymentvo.TxnStatusFailed, stored.Status())

	has, err := h.subRepo.HasEverSubscribed(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, has, "a declined checkout keeps trial eligibility")
}

// =====================================================================
// RetryPayment
// =====================================================================

func seedPastDueSub(t *testing.T, h *harness, planID uint) *subscription.Subscription {
	t.Helper()
	sub := h.seedActiveSub(t, planID)
	require.NoError(t, sub.MarkPastDue())
	require.NoError(t, h.subRepo.Update(context.Background(), sub))
	return sub
}

func TestRetryPayment_SuccessRecoversSubscription(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := seedPastDueSub(t, h, plan.ID())

	result, err := h.retryPayment(gateway.NewMockGateway(true)).Execute(context.Background(), RetryPaymentCommand{
		SubscriptionID: sub.ID(),
		Manual:         false,
	})

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, vo.StatusActive, result.Subscription.Status())
	assert.Zero(t, result.Subscription.RetryCount(), "recovery resets the retry budget")
}

func TestRetryPayment_DeclineKeepsPastDueAndConsumesBudget(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := seedPastDueSub(t, h, plan.ID())
	failed := h.seedPendingTxn(t, sub)
	require.NoError(t, failed.MarkFailed("", "insufficient funds"))
	require.NoError(t, h.txnRepo.Update(context.Background(), failed))

	result, err := h.retryPayment(gateway.NewMockGateway(false)).Execute(context.Background(), RetryPaymentCommand{
		SubscriptionID: sub.ID(),
		Manual:         false,
	})

	require.NoError(t, err)
	assert.False(t, result.Succeeded)
	assert.Equal(t, "insufficient funds", result.Reason)
	assert.Equal(t, vo.StatusPastDue, result.Subscription.Status())
	assert.Equal(t, 1, result.Subscription.RetryCount())

	txns, _, err := h.txnRepo.ListBySubscriptionID(context.Background(), sub.ID(), 10, 0)
	require.NoError(t, err)
	retry := txns[0]
	assert.Equal(t, paymentvo.TxnTypeRetry, retry.Type())
	require.NotNil(t, retry.RetryOf(), "the retry row links the attempt it replays")
	assert.Equal(t, failed.ID(), *retry.RetryOf())
}

func TestRetryPayment_ManualDoesNotConsumeBudget(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := seedPastDueSub(t, h, plan.ID())

	result, err := h.retryPayment(gateway.NewMockGateway(false)).Execute(context.Background(), RetryPaymentCommand{
		SubscriptionID: sub.ID(),
		Manual:         true,
		UserID:         1,
	})

	require.NoError(t, err)
	assert.Zero(t, result.Subscription.RetryCount())
}

func TestRetryPayment_BudgetExhausted(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := seedPastDueSub(t, h, plan.ID())
	sub.RecordRetryAttempt(false)
	sub.RecordRetryAttempt(false)
	sub.RecordRetryAttempt(false)
	require.NoError(t, h.subRepo.Update(context.Background(), sub))

	_, err := h.retryPayment(gateway.NewMockGateway(true)).Execute(context.Background(), RetryPaymentCommand{
		SubscriptionID: sub.ID(),
		Manual:         false,
	})

	assert.ErrorIs(t, err, subscription.ErrNotRetriable)
}

func TestRetryPayment_ManualBypassesBudget(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := seedPastDueSub(t, h, plan.ID())
	sub.RecordRetryAttempt(false)
	sub.RecordRetryAttempt(false)
	sub.RecordRetryAttempt(false)
	require.NoError(t, h.subRepo.Update(context.Background(), sub))

	result, err := h.retryPayment(gateway.NewMockGateway(true)).Execute(context.Background(), RetryPaymentCommand{
		SubscriptionID: sub.ID(),
		Manual:         true,
		UserID:         1,
	})

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
}

func TestRetryPayment_NotPastDue(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := h.seedActiveSub(t, plan.ID())

	_, err := h.retryPayment(gateway.NewMockGateway(true)).Execute(context.Background(), RetryPaymentCommand{
		SubscriptionID: sub.ID(),
	})

	assert.ErrorIs(t, err, subscription.ErrNotRetriable)
}

// =====================================================================
// Cancel / Reactivate
// =====================================================================

func TestCancelSubscription_KeepsAccessUntilPeriodEnd(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	h.seedActiveSub(t, plan.ID())

	uc := NewCancelSubscriptionUseCase(h.subRepo, h.planRepo, gateway.NewMockGateway(true), h.notifier, logger.NewLogger())
	sub, err := uc.Execute(context.Background(), CancelSubscriptionCommand{UserID: 1, Reason: "too busy to read"})

	require.NoError(t, err)
	assert.Equal(t, vo.StatusCancelled, sub.Status())
	assert.True(t, sub.IsActive())
	assert.False(t, sub.AutoRenew())

	waitForNotifications(t, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return len(h.notifier.cancelled) == 1
	})
}

func TestCancelSubscription_GatewayDisableFailureReturnsError(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	h.seedActiveSub(t, plan.ID())

	uc := NewCancelSubscriptionUseCase(h.subRepo, h.planRepo, gateway.NewMockGateway(false), h.notifier, logger.NewLogger())
	sub, err := uc.Execute(context.Background(), CancelSubscriptionCommand{UserID: 1, Reason: "too busy to read"})

	require.Error(t, err)
	assert.Nil(t, sub)

	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	assert.Empty(t, h.notifier.cancelled)
}

func TestReactivateSubscription_WithinPeriod(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)
	sub := h.seedActiveSub(t, plan.ID())
	require.NoError(t, sub.Cancel("oops"))
	require.NoError(t, h.subRepo.Update(context.Background(), sub))

	uc := NewReactivateSubscriptionUseCase(h.subRepo, h.planRepo, gateway.NewMockGateway(true), h.notifier, logger.NewLogger())
	got, err := uc.Execute(context.Background(), ReactivateSubscriptionCommand{UserID: 1})

	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, got.Status())
	assert.True(t, got.AutoRenew())

	waitForNotifications(t, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return len(h.notifier.reactivated) == 1
	})
}

// =====================================================================
// Expiry sweep
// =====================================================================

func TestExpireSubscriptions_SweepsAllLapsedKinds(t *testing.T) {
	h := newHarness()
	plan := h.seedPlan(t)

	// Trial past its end.
	trial, err := subscription.NewTrialSubscription(2, "trial@example.com", plan.ID(), 14)
	require.NoError(t, err)
	require.NoError(t, h.subRepo.Create(context.Background(), trial))

	// Past due beyond the grace window.
	pastDue := h.seedActiveSub(t, plan.ID())
	require.NoError(t, pastDue.MarkPastDue())
	require.NoError(t, h.subRepo.Update(context.Background(), pastDue))

	// Cancelled with the paid period over.
	past := time.Now().UTC().AddDate(0, -2, 0)
	end := past.AddDate(0, 1, 0)
	cancelledAt := end.AddDate(0, 0, -5)
	reason := "done"
	cancelled, err := subscription.ReconstructSubscription(subscription.SubscriptionReconstructParams{
		ID: 99, SID: "sub_cancelled", UserID: 3, UserEmail: "gone@example.com", PlanID: plan.ID(),
		Status: vo.StatusCancelled, CurrentPeriodStart: &past, CurrentPeriodEnd: &end,
		CancelledAt: &cancelledAt, CancelReason: &reason,
		Version: 1, CreatedAt: past, UpdatedAt: past,
	})
	require.NoError(t, err)
	require.NoError(t, h.subRepo.Update(context.Background(), cancelled))

	// Roll the clock past both the trial end and the grace deadline.
	restore := biztime.Now
	future := time.Now().UTC().AddDate(0, 0, 40)
	biztime.Now = func() time.Time { return future }
	defer func() { biztime.Now = restore }()

	uc := NewExpireSubscriptionsUseCase(h.subRepo, h.planRepo, h.notifier, h.billing, logger.NewLogger())
	expired, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, expired)

	for _, id := range []uint{trial.ID(), pastDue.ID(), cancelled.ID()} {
		stored, _ := h.subRepo.GetByID(context.Background(), id)
		assert.Equal(t, vo.StatusExpired, stored.Status(), "subscription %d", id)
	}
}
