package usecases

import (
	"context"
	"fmt"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/payment"
	paymentvo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

type RetryPaymentCommand struct {
	SubscriptionID uint
	// Manual marks a user-triggered retry, which does not consume the
	// automatic retry budget.
	Manual bool
	// UserID guards ownership on manual retries; zero skips the check.
	UserID uint
}

type RetryPaymentResult struct {
	Subscription *subscription.Subscription
	Succeeded    bool
	Reason       string
}

// RetryPaymentUseCase re-charges a past-due subscription's saved card. The
// scheduler drives automatic retries; the billing page drives manual ones.
type RetryPaymentUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	transactionRepo  payment.TransactionRepository
	gateway          gateway.PaymentGateway
	processor        *PaymentProcessor
	billing          config.BillingConfig
	logger           logger.Interface
}

func NewRetryPaymentUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	transactionRepo payment.TransactionRepository,
	gw gateway.PaymentGateway,
	processor *PaymentProcessor,
	billing config.BillingConfig,
	logger logger.Interface,
) *RetryPaymentUseCase {
	return &RetryPaymentUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		transactionRepo:  transactionRepo,
		gateway:          gw,
		processor:        processor,
		billing:          billing,
		logger:           logger,
	}
}

func (uc *RetryPaymentUseCase) Execute(ctx context.Context, cmd RetryPaymentCommand) (*RetryPaymentResult, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "error", err, "subscription_id", cmd.SubscriptionID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if cmd.UserID != 0 && sub.UserID() != cmd.UserID {
		return nil, subscription.ErrSubscriptionNotFound
	}

	if sub.Status() != vo.StatusPastDue {
		return nil, fmt.Errorf("%w: subscription status is %s", subscription.ErrNotRetriable, sub.Status())
	}
	if !sub.HasSavedAuthorization() {
		return nil, fmt.Errorf("%w: no saved payment authorization", subscription.ErrNotRetriable)
	}
	if !cmd.Manual && sub.RetryCount() >= uc.billing.MaxAutomaticRetries {
		return nil, fmt.Errorf("%w: automatic retry budget exhausted", subscription.ErrNotRetriable)
	}

	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, subscription.ErrPlanNotFound
	}

	amount, err := paymentvo.NewMoney(plan.PriceKobo(), plan.Currency())
	if err != nil {
		return nil, fmt.Errorf("invalid plan price: %w", err)
	}
	txnType := paymentvo.TxnTypeRetry
	if cmd.Manual {
		txnType = paymentvo.TxnTypeManualRetry
	}
	txn, err := payment.NewPaymentTransaction(sub.ID(), sub.UserID(), txnType, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// The retry row points back at the failed attempt it replays, so the
	// ledger shows which charge each retry belongs to.
	if prior, _, err := uc.transactionRepo.ListBySubscriptionID(ctx, sub.ID(), 20, 0); err == nil {
		for _, t := range prior {
			if t.Status() == paymentvo.TxnStatusFailed {
				txn.SetRetryOf(t.ID())
				break
			}
		}
	}

	if err := uc.transactionRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	// The attempt is recorded before the charge so a crash mid-call still
	// counts against the budget instead of hammering the customer's card.
	sub.RecordRetryAttempt(cmd.Manual)
	if err := uc.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to record retry attempt: %w", err)
	}

	result, err := uc.gateway.ChargeAuthorization(ctx, gateway.ChargeRequest{
		Email:             sub.UserEmail(),
		AmountMinor:       plan.PriceKobo(),
		Currency:          plan.Currency(),
		AuthorizationCode: sub.AuthorizationCode(),
		Reference:         txn.Reference(),
		Metadata: map[string]string{
			"subscription_sid": sub.SID(),
		},
	})
	if err != nil {
		// The outcome is unknown; leave the row pending for the webhook or
		// the next verify to settle.
		uc.logger.Errorw("charge attempt did not complete", "error", err, "reference", txn.Reference())
		return nil, fmt.Errorf("charge attempt did not complete: %w", err)
	}

	if !result.Success {
		if err := uc.processor.ProcessFailure(ctx, FailedPayment{
			SubscriptionID:   sub.ID(),
			Reference:        txn.Reference(),
			GatewayReference: result.GatewayReference,
			Reason:           result.Reason,
			AmountMinor:      plan.PriceKobo(),
			Currency:         plan.Currency(),
			Raw:              result.Raw,
		}); err != nil {
			return nil, err
		}
		refreshed, err := uc.subscriptionRepo.GetByID(ctx, sub.ID())
		if err != nil || refreshed == nil {
			refreshed = sub
		}
		return &RetryPaymentResult{Subscription: refreshed, Succeeded: false, Reason: result.Reason}, nil
	}

	if err := uc.processor.ProcessSuccess(ctx, SuccessfulPayment{
		SubscriptionID:   sub.ID(),
		Reference:        txn.Reference(),
		GatewayReference: result.GatewayReference,
		Channel:          result.Channel,
		AmountMinor:      plan.PriceKobo(),
		Currency:         plan.Currency(),
		PaidAt:           result.PaidAt,
		Authorization:    result.Authorization,
		Raw:              result.Raw,
	}); err != nil {
		return nil, err
	}

	refreshed, err := uc.subscriptionRepo.GetByID(ctx, sub.ID())
	if err != nil || refreshed == nil {
		refreshed = sub
	}
	return &RetryPaymentResult{Subscription: refreshed, Succeeded: true}, nil
}
