package usecases

import (
	"context"
	"fmt"
	"strconv"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/payment"
	paymentvo "techhive/internal/domain/payment/valueobjects"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

type CreateSubscriptionCommand struct {
	UserID    uint
	UserEmail string
	PlanSID   string
}

type CreateSubscriptionResult struct {
	Subscription *subscription.Subscription
	CheckoutURL  string
	Reference    string
}

// CreateSubscriptionUseCase opens a paid subscription checkout. The
// subscription row is created in pending activation and only becomes active
// when the gateway confirms the first charge, via the callback verify or the
// webhook, whichever arrives first.
type CreateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	transactionRepo  payment.TransactionRepository
	gateway          gateway.PaymentGateway
	paystackCfg      config.PaystackConfig
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	transactionRepo payment.TransactionRepository,
	gw gateway.PaymentGateway,
	paystackCfg config.PaystackConfig,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		transactionRepo:  transactionRepo,
		gateway:          gw,
		paystackCfg:      paystackCfg,
		logger:           logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*CreateSubscriptionResult, error) {
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
	if current != nil {
		if current.Status() == vo.StatusPendingActivation {
			// An abandoned checkout; replace it with a fresh attempt.
			if err := uc.subscriptionRepo.Delete(ctx, current.ID()); err != nil {
				uc.logger.Errorw("failed to remove stale pending subscription", "error", err, "subscription_sid", current.SID())
				return nil, fmt.Errorf("failed to remove stale pending subscription: %w", err)
			}
			uc.logger.Infow("stale pending subscription replaced", "subscription_sid", current.SID(), "user_id", cmd.UserID)
		} else if current.IsActive() {
			return nil, subscription.ErrAlreadySubscribed()
		}
	}

	if err := uc.ensureGatewayPlan(ctx, plan); err != nil {
		return nil, err
	}

	hasHistory, err := uc.subscriptionRepo.HasEverSubscribed(ctx, cmd.UserID)
	if err != nil {
		uc.logger.Errorw("failed to check subscription history", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to check subscription history: %w", err)
	}

	sub, err := subscription.NewPendingSubscription(cmd.UserID, cmd.UserEmail, plan.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		uc.logger.Errorw("failed to save subscription", "error", err, "user_id", cmd.UserID)
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	txnType := paymentvo.TxnTypeSubscription
	if hasHistory {
		txnType = paymentvo.TxnTypeReactivation
	}
	amount, err := paymentvo.NewMoney(plan.PriceKobo(), plan.Currency())
	if err != nil {
		return nil, fmt.Errorf("invalid plan price: %w", err)
	}
	txn, err := payment.NewPaymentTransaction(sub.ID(), cmd.UserID, txnType, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := uc.transactionRepo.Create(ctx, txn); err != nil {
		uc.logger.Errorw("failed to save transaction", "error", err, "subscription_sid", sub.SID())
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	init, err := uc.gateway.InitializeTransaction(ctx, gateway.InitializeRequest{
		Email:       cmd.UserEmail,
		AmountMinor: plan.PriceKobo(),
		Currency:    plan.Currency(),
		Reference:   txn.Reference(),
		PlanCode:    plan.PaystackPlanCode(),
		CallbackURL: uc.paystackCfg.CallbackURL,
		Metadata: map[string]string{
			"subscription_sid": sub.SID(),
			"user_id":          strconv.FormatUint(uint64(cmd.UserID), 10),
		},
	})
	if err != nil {
		uc.logger.Errorw("failed to initialize checkout", "error", err, "subscription_sid", sub.SID())
		return nil, fmt.Errorf("failed to initialize checkout: %w", err)
	}

	uc.logger.Infow("checkout initialized",
		"subscription_sid", sub.SID(),
		"plan_sid", plan.SID(),
		"reference", txn.Reference(),
	)

	return &CreateSubscriptionResult{
		Subscription: sub,
		CheckoutURL:  init.AuthorizationURL,
		Reference:    txn.Reference(),
	}, nil
}

// ensureGatewayPlan provisions the provider-side plan on first use.
func (uc *CreateSubscriptionUseCase) ensureGatewayPlan(ctx context.Context, plan *subscription.Plan) error {
	if plan.PaystackPlanCode() != "" {
		return nil
	}

	created, err := uc.gateway.CreatePlan(ctx, gateway.CreatePlanRequest{
		Name:        plan.Name(),
		AmountMinor: plan.PriceKobo(),
		Currency:    plan.Currency(),
		Interval:    plan.BillingCycle().PaystackInterval(),
		Description: plan.Description(),
	})
	if err != nil {
		uc.logger.Errorw("failed to create gateway plan", "error", err, "plan_sid", plan.SID())
		return fmt.Errorf("failed to create gateway plan: %w", err)
	}

	plan.SetPaystackPlanCode(created.PlanCode)
	if err := uc.planRepo.Update(ctx, plan); err != nil {
		uc.logger.Errorw("failed to save gateway plan code", "error", err, "plan_sid", plan.SID())
		return fmt.Errorf("failed to save gateway plan code: %w", err)
	}

	uc.logger.Infow("gateway plan provisioned", "plan_sid", plan.SID(), "plan_code", created.PlanCode)
	return nil
}
