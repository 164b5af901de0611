package usecases

import (
	"context"
	"fmt"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/domain/payment"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	apperrors "techhive/internal/shared/errors"
	"techhive/internal/shared/logger"
)

type VerifyActivationCommand struct {
	Reference string
	UserID    uint
}

type VerifyActivationResult struct {
	Subscription *subscription.Subscription
	Activated    bool
	// Reason is the gateway's decline message when Activated is false.
	Reason string
}

// VerifyActivationUseCase is the synchronous callback path after checkout:
// the customer lands back on our callback URL and we confirm the charge with
// the provider instead of trusting query parameters. The webhook may have
// already processed the same charge; both paths are idempotent.
type VerifyActivationUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	transactionRepo  payment.TransactionRepository
	gateway          gateway.PaymentGateway
	processor        *PaymentProcessor
	logger           logger.Interface
}

func NewVerifyActivationUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	transactionRepo payment.TransactionRepository,
	gw gateway.PaymentGateway,
	processor *PaymentProcessor,
	logger logger.Interface,
) *VerifyActivationUseCase {
	return &VerifyActivationUseCase{
		subscriptionRepo: subscriptionRepo,
		transactionRepo:  transactionRepo,
		gateway:          gw,
		processor:        processor,
		logger:           logger,
	}
}

func (uc *VerifyActivationUseCase) Execute(ctx context.Context, cmd VerifyActivationCommand) (*VerifyActivationResult, error) {
	txn, err := uc.transactionRepo.GetByReference(ctx, cmd.Reference)
	if err != nil {
		uc.logger.Errorw("failed to get transaction", "error", err, "reference", cmd.Reference)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, payment.ErrTransactionNotFound
	}
	if cmd.UserID != 0 && txn.UserID() != cmd.UserID {
		return nil, apperrors.NewForbiddenError("transaction does not belong to this user")
	}

	data, err := uc.gateway.VerifyTransaction(ctx, cmd.Reference)
	if err != nil {
		uc.logger.Errorw("failed to verify transaction", "error", err, "reference", cmd.Reference)
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}

	declined := false
	switch data.Status {
	case "success":
		err = uc.processor.ProcessSuccess(ctx, SuccessfulPayment{
			SubscriptionID:   txn.SubscriptionID(),
			Reference:        cmd.Reference,
			GatewayReference: data.GatewayReference,
			Channel:          data.Channel,
			AmountMinor:      data.AmountMinor,
			Currency:         data.Currency,
			PaidAt:           data.PaidAt,
			Authorization:    data.Authorization,
			CustomerCode:     data.Customer.CustomerCode,
			Raw:              data.Raw,
		})
		if err != nil {
			return nil, err
		}
	case "abandoned", "pending", "ongoing":
		// Checkout not completed; nothing to apply yet.
		uc.logger.Infow("verification found incomplete charge", "reference", cmd.Reference, "status", data.Status)
	default:
		declined = true
		err = uc.processor.ProcessFailure(ctx, FailedPayment{
			SubscriptionID:   txn.SubscriptionID(),
			Reference:        cmd.Reference,
			GatewayReference: data.GatewayReference,
			Reason:           data.GatewayResponse,
			AmountMinor:      data.AmountMinor,
			Currency:         data.Currency,
			Raw:              data.Raw,
		})
		if err != nil {
			return nil, err
		}
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, txn.SubscriptionID())
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, subscription.ErrSubscriptionNotFound
	}

	// A declined first charge leaves nothing worth keeping: removing the
	// pending row keeps the user's history clean, so a failed checkout
	// attempt does not cost them their trial or relabel future checkouts.
	if declined && sub.Status() == vo.StatusPendingActivation {
		if err := uc.subscriptionRepo.Delete(ctx, sub.ID()); err != nil {
			return nil, fmt.Errorf("failed to remove declined subscription: %w", err)
		}
		uc.logger.Infow("declined checkout removed",
			"subscription_sid", sub.SID(),
			"reference", cmd.Reference,
		)
	}

	result := &VerifyActivationResult{Subscription: sub}
	if data.Status == "success" {
		result.Activated = true
	} else {
		result.Reason = data.GatewayResponse
	}
	return result, nil
}
