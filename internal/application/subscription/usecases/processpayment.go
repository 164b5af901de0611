package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/payment"
	paymentvo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/config"
	"techhive/internal/shared/goroutine"
	"techhive/internal/shared/logger"
)

// ErrSubscriptionBusy means another worker holds the subscription's payment
// lock. Callers should let the delivery be retried rather than wait.
var ErrSubscriptionBusy = errors.New("subscription is being processed by another worker")

const paymentLockTTL = 30 * time.Second

// TransactionRunner runs a function inside a database transaction.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SuccessfulPayment carries a confirmed charge into the state machine.
// Reference is our transaction reference when the charge originated here;
// renewals initiated by the provider arrive with an unknown reference and
// get a fresh ledger row.
type SuccessfulPayment struct {
	SubscriptionID   uint
	Reference        string
	GatewayReference string
	Channel          string
	AmountMinor      int64
	Currency         string
	PaidAt           *time.Time
	NextPaymentDate  *time.Time
	Authorization    gateway.AuthorizationData
	CustomerCode     string
	SubscriptionCode string
	Raw              []byte
}

// FailedPayment carries a declined charge into the state machine.
type FailedPayment struct {
	SubscriptionID   uint
	Reference        string
	GatewayReference string
	Reason           string
	AmountMinor      int64
	Currency         string
	Raw              []byte
}

// PaymentProcessor is the single landing point for charge outcomes. The
// synchronous verify flow, the webhook reconciler and the retry scheduler
// all feed it, so its operations are idempotent and serialized per
// subscription.
type PaymentProcessor struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	transactionRepo  payment.TransactionRepository
	txRunner         TransactionRunner
	locker           SubscriptionLocker
	notifier         LifecycleNotifier
	billing          config.BillingConfig
	logger           logger.Interface
}

func NewPaymentProcessor(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	transactionRepo payment.TransactionRepository,
	txRunner TransactionRunner,
	locker SubscriptionLocker,
	notifier LifecycleNotifier,
	billing config.BillingConfig,
	logger logger.Interface,
) *PaymentProcessor {
	return &PaymentProcessor{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		transactionRepo:  transactionRepo,
		txRunner:         txRunner,
		locker:           locker,
		notifier:         notifier,
		billing:          billing,
		logger:           logger,
	}
}

// ProcessSuccess applies a confirmed charge: the ledger row is closed as
// paid and the subscription activates or rolls its billing period.
// Reprocessing the same charge is a no-op.
func (p *PaymentProcessor) ProcessSuccess(ctx context.Context, in SuccessfulPayment) error {
	release, acquired, err := p.locker.TryLock(ctx, paymentLockKey(in.SubscriptionID), paymentLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	if !acquired {
		return ErrSubscriptionBusy
	}
	defer release()

	var notification *PaymentNotification

	err = p.txRunner.RunInTransaction(ctx, func(ctx context.Context) error {
		sub, err := p.subscriptionRepo.GetByID(ctx, in.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		if sub == nil {
			return subscription.ErrSubscriptionNotFound
		}

		plan, err := p.planRepo.GetByID(ctx, sub.PlanID())
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}

		txn, created, err := p.resolveSuccessTransaction(ctx, sub, in)
		if err != nil {
			return err
		}
		if txn.Status() == paymentvo.TxnStatusSuccess && !created {
			p.logger.Infow("charge already processed", "reference", txn.Reference(), "subscription_sid", sub.SID())
			return nil
		}

		paidAt := biztime.NowUTC()
		if in.PaidAt != nil {
			paidAt = in.PaidAt.UTC()
		}
		if err := txn.MarkSucceeded(in.GatewayReference, in.Channel, paidAt); err != nil {
			return fmt.Errorf("failed to close transaction: %w", err)
		}
		txn.AttachRawResponse(in.Raw)
		if err := p.transactionRepo.Update(ctx, txn); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		periodStart := paidAt
		periodEnd := p.resolvePeriodEnd(sub, periodStart, in.NextPaymentDate)
		if err := sub.Activate(periodStart, periodEnd, periodEnd); err != nil {
			return fmt.Errorf("failed to activate subscription: %w", err)
		}

		sub.AttachGatewayIdentity(in.SubscriptionCode, in.CustomerCode, in.Authorization.AuthorizationCode, cardFromAuthorization(in.Authorization))

		if err := p.subscriptionRepo.Update(ctx, sub); err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}

		p.logger.Infow("payment processed",
			"subscription_sid", sub.SID(),
			"reference", txn.Reference(),
			"amount_minor", txn.Amount().Amount(),
			"period_end", periodEnd,
		)

		planName := ""
		if plan != nil {
			planName = plan.Name()
		}
		notification = &PaymentNotification{
			Email:       sub.UserEmail(),
			PlanName:    planName,
			AmountMinor: txn.Amount().Amount(),
			Currency:    txn.Amount().Currency(),
			PeriodEnd:   periodEnd,
		}
		return nil
	})
	if err != nil {
		return err
	}

	if notification != nil {
		n := *notification
		goroutine.SafeGo(p.logger, "payment-succeeded-notification", func() {
			p.notifier.PaymentSucceeded(context.WithoutCancel(ctx), n)
		})
	}
	return nil
}

// ProcessFailure applies a declined charge. A subscription that never
// activated stays pending; anything with access moves to past due and the
// grace clock starts on the first failure of the episode.
func (p *PaymentProcessor) ProcessFailure(ctx context.Context, in FailedPayment) error {
	release, acquired, err := p.locker.TryLock(ctx, paymentLockKey(in.SubscriptionID), paymentLockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	if !acquired {
		return ErrSubscriptionBusy
	}
	defer release()

	var notification *PaymentFailedNotification

	err = p.txRunner.RunInTransaction(ctx, func(ctx context.Context) error {
		sub, err := p.subscriptionRepo.GetByID(ctx, in.SubscriptionID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		if sub == nil {
			return subscription.ErrSubscriptionNotFound
		}

		txn, err := p.resolveFailureTransaction(ctx, sub, in)
		if err != nil {
			return err
		}
		if err := txn.MarkFailed(in.GatewayReference, in.Reason); err != nil {
			if errors.Is(err, payment.ErrTransactionFinal) {
				p.logger.Infow("failure already recorded", "reference", txn.Reference(), "subscription_sid", sub.SID())
				return nil
			}
			return fmt.Errorf("failed to close transaction: %w", err)
		}
		txn.AttachRawResponse(in.Raw)
		if err := p.transactionRepo.Update(ctx, txn); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		// A first charge that never succeeded leaves nothing to suspend; the
		// user simply retries checkout.
		if sub.Status() == vo.StatusPendingActivation {
			p.logger.Infow("initial charge failed", "subscription_sid", sub.SID(), "reason", in.Reason)
			return nil
		}

		if err := sub.MarkPastDue(); err != nil {
			p.logger.Warnw("failure received in non-suspendable status",
				"subscription_sid", sub.SID(),
				"status", sub.Status().String(),
				"reason", in.Reason,
			)
			return nil
		}
		if err := p.subscriptionRepo.Update(ctx, sub); err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}

		p.logger.Warnw("payment failed",
			"subscription_sid", sub.SID(),
			"reference", txn.Reference(),
			"reason", in.Reason,
			"retry_count", sub.RetryCount(),
		)

		planName := ""
		if plan, err := p.planRepo.GetByID(ctx, sub.PlanID()); err == nil && plan != nil {
			planName = plan.Name()
		}
		grace := time.Duration(p.billing.GraceDays) * 24 * time.Hour
		deadline := sub.GraceDeadline(grace)
		notification = &PaymentFailedNotification{
			Email:        sub.UserEmail(),
			PlanName:     planName,
			Reason:       in.Reason,
			AttemptsLeft: p.billing.MaxAutomaticRetries - sub.RetryCount(),
		}
		if deadline != nil {
			notification.GraceDeadline = *deadline
		}
		return nil
	})
	if err != nil {
		return err
	}

	if notification != nil {
		n := *notification
		goroutine.SafeGo(p.logger, "payment-failed-notification", func() {
			p.notifier.PaymentFailed(context.WithoutCancel(ctx), n)
		})
	}
	return nil
}

// resolveSuccessTransaction finds the ledger row for the charge or opens one
// for provider-initiated renewals we never asked for.
func (p *PaymentProcessor) resolveSuccessTransaction(ctx context.Context, sub *subscription.Subscription, in SuccessfulPayment) (*payment.PaymentTransaction, bool, error) {
	if in.Reference != "" {
		txn, err := p.transactionRepo.GetByReference(ctx, in.Reference)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get transaction: %w", err)
		}
		if txn != nil {
			return txn, false, nil
		}
	}

	amount, err := paymentvo.NewMoney(in.AmountMinor, in.Currency)
	if err != nil {
		return nil, false, fmt.Errorf("invalid charge amount: %w", err)
	}
	txn, err := payment.NewPaymentTransaction(sub.ID(), sub.UserID(), paymentvo.TxnTypeRenewal, amount)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create transaction: %w", err)
	}
	if in.Reference != "" {
		// Keep the provider's reference so redeliveries land on this row.
		_ = txn.AdoptReference(in.Reference)
	}
	if err := p.transactionRepo.Create(ctx, txn); err != nil {
		return nil, false, fmt.Errorf("failed to save transaction: %w", err)
	}
	return txn, true, nil
}

func (p *PaymentProcessor) resolveFailureTransaction(ctx context.Context, sub *subscription.Subscription, in FailedPayment) (*payment.PaymentTransaction, error) {
	if in.Reference != "" {
		txn, err := p.transactionRepo.GetByReference(ctx, in.Reference)
		if err != nil {
			return nil, fmt.Errorf("failed to get transaction: %w", err)
		}
		if txn != nil {
			return txn, nil
		}
	}

	amountMinor := in.AmountMinor
	if amountMinor <= 0 {
		// Failure payloads do not always carry the amount; fall back to the
		// plan price so the ledger row is still meaningful.
		if plan, err := p.planRepo.GetByID(ctx, sub.PlanID()); err == nil && plan != nil {
			amountMinor = plan.PriceKobo()
		}
	}
	amount, err := paymentvo.NewMoney(amountMinor, in.Currency)
	if err != nil || amount.IsZero() {
		amount = paymentvo.MustNewMoney(1, paymentvo.CurrencyNGN)
	}
	txn, err := payment.NewPaymentTransaction(sub.ID(), sub.UserID(), paymentvo.TxnTypeRenewal, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if in.Reference != "" {
		_ = txn.AdoptReference(in.Reference)
	}
	if err := p.transactionRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}
	return txn, nil
}

// resolvePeriodEnd takes the provider's own next payment date verbatim.
// Without one the period gets a fixed window rather than a guess from the
// plan cycle; the warning makes those rows findable for correction.
func (p *PaymentProcessor) resolvePeriodEnd(sub *subscription.Subscription, start time.Time, nextPaymentDate *time.Time) time.Time {
	if nextPaymentDate != nil && nextPaymentDate.After(start) {
		return nextPaymentDate.UTC()
	}

	fallbackDays := p.billing.FallbackPeriodDays
	if fallbackDays <= 0 {
		fallbackDays = 30
	}
	p.logger.Warnw("billing_period_fallback",
		"subscription_sid", sub.SID(),
		"fallback_days", fallbackDays,
	)
	return start.AddDate(0, 0, fallbackDays)
}

func paymentLockKey(subscriptionID uint) string {
	return fmt.Sprintf("billing:lock:sub:%d", subscriptionID)
}

func cardFromAuthorization(a gateway.AuthorizationData) vo.Card {
	return vo.Card{
		Last4:    a.Last4,
		CardType: a.CardType,
		Bank:     a.Bank,
		ExpMonth: a.ExpMonth,
		ExpYear:  a.ExpYear,
	}
}
