package usecases

import (
	"context"
	"fmt"

	"techhive/internal/domain/payment"
	paymentvo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/domain/subscription"
	"techhive/internal/shared/biztime"
	"techhive/internal/shared/config"
	"techhive/internal/shared/goroutine"
	"techhive/internal/shared/logger"
)

type StartTrialCommand struct {
	UserID    uint
	UserEmail string
	PlanSID   string
}

type StartTrialUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	transactionRepo  payment.TransactionRepository
	notifier         LifecycleNotifier
	billing          config.BillingConfig
	logger           logger.Interface
}

func NewStartTrialUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	transactionRepo payment.TransactionRepository,
	notifier LifecycleNotifier,
	billing config.BillingConfig,
	logger logger.Interface,
) *StartTrialUseCase {
	return &StartTrialUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		transactionRepo:  transactionRepo,
		notifier:         notifier,
		billing:          billing,
		logger:           logger,
	}
}

// Execute starts a free trial. The trial is a one-per-user-forever offer:
// any prior subscription, even an expired one, makes the user ineligible.
func (uc *StartTrialUseCase) Execute(ctx context.Context, cmd StartTrialCommand) (*subscription.Subscription, error) {
	plan, err := uc.planRepo.GetBySID(ctx, cmd.PlanSID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "error", err, "plan_sid", cmd.PlanSID)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, subscription.ErrPlanNotFound
	}
	if !plan.IsActive() {
		return nil, subscription.ErrPlanInactive
	}

	current, err := uc.subscriptionRepo.GetCurrentByUserID(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to check current subscription", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to check current subscription: %w", err)
	}
	if current != nil && current.IsActive() {
		return nil, subscription.ErrAlreadySubscribed()
	}

	hasHistory, err := uc.subscriptionRepo.HasEverSubscribed(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to check subscription history", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to check subscription history: %w", err)
	}
	if hasHistory {
		return nil, subscription.ErrTrialUsed()
	}

	sub, err := subscription.NewTrialSubscription(cmd.UserID, cmd.UserEmail, plan.ID(), uc.billing.TrialDays)
	if err != nil {
		return nil, fmt.Errorf("failed to create trial subscription: %w", err)
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		uc.logger.Errorw("failed to save trial subscription", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to save trial subscription: %w", err)
	}

	// The trial books a SUCCESS ledger row at the plan price without a
	// charge, so billing history shows what the trial was worth.
	amount, err := paymentvo.NewMoney(plan.PriceKobo(), plan.Currency())
	if err != nil {
		return nil, fmt.Errorf("invalid plan price: %w", err)
	}
	txn, err := payment.NewPaymentTransaction(sub.ID(), cmd.UserID, paymentvo.TxnTypeSubscription, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create trial transaction: %w", err)
	}
	if err := txn.MarkSucceeded("", "", biztime.NowUTC()); err != nil {
		return nil, fmt.Errorf("failed to close trial transaction: %w", err)
	}
	if err := uc.transactionRepo.Create(ctx, txn); err != nil {
		uc.logger.Errorw("failed to save trial transaction", "error", err, "subscription_sid", sub.SID())
		return nil, fmt.Errorf("failed to save trial transaction: %w", err)
	}

	uc.logger.Infow("trial started",
		"subscription_sid", sub.SID(),
		"user_id", cmd.UserID,
		"plan_sid", plan.SID(),
		"trial_end", sub.TrialEnd(),
	)

	trialEnd := *sub.TrialEnd()
	email := sub.UserEmail()
	planName := plan.Name()
	goroutine.SafeGo(uc.logger, "trial-started-notification", func() {
		uc.notifier.TrialStarted(context.WithoutCancel(ctx), TrialStartedNotification{
			Email:    email,
			PlanName: planName,
			TrialEnd: trialEnd,
		})
	})

	return sub, nil
}
