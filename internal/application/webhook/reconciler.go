package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"techhive/internal/application/payment/gateway"
	"techhive/internal/application/subscription/usecases"
	"techhive/internal/domain/payment"
	"techhive/internal/domain/subscription"
	vo "techhive/internal/domain/subscription/valueobjects"
	"techhive/internal/shared/goroutine"
	"techhive/internal/shared/logger"
)

// ErrMalformedPayload means the body is not a webhook envelope we can read.
// The HTTP layer answers 400; the provider will not fix the payload by
// redelivering it.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Reconciler turns verified webhook deliveries into state changes. Every
// delivery is persisted before handling, duplicates are detected by event
// key, and business rejections are recorded without asking the provider to
// redeliver.
type Reconciler struct {
	eventRepo        payment.WebhookEventRepository
	transactionRepo  payment.TransactionRepository
	subscriptionRepo subscription.SubscriptionRepository
	processor        *usecases.PaymentProcessor
	notifier         usecases.LifecycleNotifier
	logger           logger.Interface
}

func NewReconciler(
	eventRepo payment.WebhookEventRepository,
	transactionRepo payment.TransactionRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	processor *usecases.PaymentProcessor,
	notifier usecases.LifecycleNotifier,
	logger logger.Interface,
) *Reconciler {
	return &Reconciler{
		eventRepo:        eventRepo,
		transactionRepo:  transactionRepo,
		subscriptionRepo: subscriptionRepo,
		processor:        processor,
		notifier:         notifier,
		logger:           logger,
	}
}

// Process handles one delivery whose signature has already been verified.
// A nil return means the provider should consider the delivery settled,
// including business rejections we recorded as failed. A non-nil return
// asks for redelivery.
func (r *Reconciler) Process(ctx context.Context, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Event == "" {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	key := eventKey(env.Event, env.Data, body)

	existing, err := r.eventRepo.GetByEventKey(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check event history: %w", err)
	}
	if existing != nil && existing.IsProcessed() {
		r.logger.Infow("duplicate webhook delivery ignored", "event", env.Event, "event_key", key)
		return nil
	}

	event := existing
	if event == nil {
		event, err = payment.NewWebhookEvent(env.Event, key, body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if err := r.eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to record webhook event: %w", err)
		}
	}

	eventType, known := ParseEventType(env.Event)
	if !known {
		r.logger.Infow("unhandled webhook event type", "event", env.Event)
		event.MarkSkipped()
		if err := r.eventRepo.Update(ctx, event); err != nil {
			return fmt.Errorf("failed to update webhook event: %w", err)
		}
		return nil
	}

	r.logger.Infow("processing webhook event", "event", env.Event, "event_key", key)

	handleErr := r.dispatch(ctx, eventType, env.Data)
	switch {
	case handleErr == nil:
		event.MarkProcessed()
	case isBusinessRejection(handleErr):
		// The state machine said no; redelivery would say no again. The
		// failed row is the audit trail for manual follow-up.
		r.logger.Warnw("webhook event rejected",
			"event", env.Event,
			"event_key", key,
			"reason", handleErr,
		)
		event.MarkFailed(handleErr.Error())
	default:
		event.MarkFailed(handleErr.Error())
		if err := r.eventRepo.Update(ctx, event); err != nil {
			r.logger.Errorw("failed to update webhook event", "error", err, "event_key", key)
		}
		return handleErr
	}

	if err := r.eventRepo.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to update webhook event: %w", err)
	}
	return nil
}

func (r *Reconciler) dispatch(ctx context.Context, eventType EventType, data json.RawMessage) error {
	switch eventType {
	case EventChargeSuccess:
		return r.handleChargeSuccess(ctx, data)
	case EventInvoiceCreate:
		return r.handleInvoiceCreate(ctx, data)
	case EventInvoiceUpdate:
		return r.handleInvoiceUpdate(ctx, data)
	case EventInvoicePaymentFailed:
		return r.handleInvoicePaymentFailed(ctx, data)
	case EventSubscriptionCreate:
		return r.handleSubscriptionCreate(ctx, data)
	case EventSubscriptionDisable:
		return r.handleSubscriptionDisable(ctx, data)
	case EventSubscriptionNotRenew:
		return r.handleSubscriptionNotRenew(ctx, data)
	case EventExpiringCards:
		return r.handleExpiringCards(ctx, data)
	}
	return fmt.Errorf("no handler for event type %s", eventType)
}

func (r *Reconciler) handleChargeSuccess(ctx context.Context, data json.RawMessage) error {
	var p chargePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: charge.success: %v", ErrMalformedPayload, err)
	}

	sub, err := r.resolveForCharge(ctx, p)
	if err != nil {
		return err
	}

	raw, _ := json.Marshal(p)
	return r.processor.ProcessSuccess(ctx, usecases.SuccessfulPayment{
		SubscriptionID:   sub.ID(),
		Reference:        p.Reference,
		GatewayReference: fmt.Sprintf("%d", p.ID),
		Channel:          p.Channel,
		AmountMinor:      p.Amount,
		Currency:         p.Currency,
		PaidAt:           p.PaidAt,
		Authorization: gateway.AuthorizationData{
			AuthorizationCode: p.Authorization.AuthorizationCode,
			CardType:          p.Authorization.CardType,
			Last4:             p.Authorization.Last4,
			ExpMonth:          p.Authorization.ExpMonth,
			ExpYear:           p.Authorization.ExpYear,
			Bank:              p.Authorization.Bank,
			Reusable:          p.Authorization.Reusable,
		},
		CustomerCode: p.Customer.CustomerCode,
		Raw:          raw,
	})
}

func (r *Reconciler) handleInvoiceCreate(ctx context.Context, data json.RawMessage) error {
	var p invoicePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: invoice.create: %v", ErrMalformedPayload, err)
	}

	// An upcoming renewal announcement; the charge outcome arrives later.
	r.logger.Infow("renewal invoice created",
		"invoice_code", p.InvoiceCode,
		"subscription_code", p.Subscription.SubscriptionCode,
		"amount_minor", p.Amount,
	)

	if p.Paid {
		return nil
	}
	sub, err := r.subscriptionRepo.GetByPaystackSubscriptionCode(ctx, p.Subscription.SubscriptionCode)
	if err != nil {
		return fmt.Errorf("failed to resolve subscription for invoice: %w", err)
	}
	if sub == nil {
		r.logger.Warnw("invoice for unknown subscription", "subscription_code", p.Subscription.SubscriptionCode)
		return nil
	}

	n := usecases.UpcomingChargeNotification{
		Email:       sub.UserEmail(),
		AmountMinor: p.Amount,
		Currency:    p.Currency,
	}
	if p.Subscription.NextPaymentDate != nil {
		n.ChargeDate = *p.Subscription.NextPaymentDate
	}
	goroutine.SafeGo(r.logger, "upcoming-charge-notification", func() {
		r.notifier.UpcomingCharge(context.WithoutCancel(ctx), n)
	})
	return nil
}

func (r *Reconciler) handleInvoiceUpdate(ctx context.Context, data json.RawMessage) error {
	var p invoicePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: invoice.update: %v", ErrMalformedPayload, err)
	}

	// The settled state of a billing-period invoice. A paid invoice confirms
	// the renewal charge, a failed one is a renewal decline we must mirror,
	// and a still-pending invoice carries no outcome yet.
	paid := p.Paid && p.Transaction.Status == "success"
	failed := p.Status == "failed" || p.Transaction.Status == "failed"
	if !paid && !failed {
		r.logger.Infow("invoice updated without final charge outcome",
			"invoice_code", p.InvoiceCode,
			"status", p.Status,
		)
		return nil
	}

	sub, err := r.resolveBySubscriptionCode(ctx, p.Subscription.SubscriptionCode)
	if err != nil {
		return err
	}

	if code := p.Authorization.AuthorizationCode; code != "" && code != sub.AuthorizationCode() {
		sub.RotateAuthorization(code, vo.Card{
			Last4:    p.Authorization.Last4,
			CardType: p.Authorization.CardType,
			Bank:     p.Authorization.Bank,
			ExpMonth: p.Authorization.ExpMonth,
			ExpYear:  p.Authorization.ExpYear,
		})
		if err := r.subscriptionRepo.Update(ctx, sub); err != nil {
			return fmt.Errorf("failed to save rotated authorization: %w", err)
		}
		r.logger.Infow("card authorization rotated", "subscription_sid", sub.SID())
	}

	raw, _ := json.Marshal(p)

	if failed {
		if sub.Status() != vo.StatusPastDue {
			r.logger.Warnw("local state disagrees with failed invoice",
				"subscription_sid", sub.SID(),
				"status", sub.Status().String(),
				"invoice_code", p.InvoiceCode,
			)
		}
		reason := p.Description
		if reason == "" {
			reason = "renewal invoice failed"
		}
		return r.processor.ProcessFailure(ctx, usecases.FailedPayment{
			SubscriptionID: sub.ID(),
			Reference:      p.Transaction.Reference,
			Reason:         reason,
			AmountMinor:    p.Amount,
			Currency:       p.Currency,
			Raw:            raw,
		})
	}

	if sub.Status() != vo.StatusActive {
		r.logger.Warnw("local state disagrees with paid invoice",
			"subscription_sid", sub.SID(),
			"status", sub.Status().String(),
			"invoice_code", p.InvoiceCode,
		)
	}

	amount := p.Transaction.Amount
	if amount == 0 {
		amount = p.Amount
	}
	currency := p.Transaction.Currency
	if currency == "" {
		currency = p.Currency
	}
	return r.processor.ProcessSuccess(ctx, usecases.SuccessfulPayment{
		SubscriptionID:  sub.ID(),
		Reference:       p.Transaction.Reference,
		Channel:         "card",
		AmountMinor:     amount,
		Currency:        currency,
		PaidAt:          p.Transaction.PaidAt,
		NextPaymentDate: p.Subscription.NextPaymentDate,
		Raw:             raw,
	})
}

func (r *Reconciler) handleInvoicePaymentFailed(ctx context.Context, data json.RawMessage) error {
	var p invoicePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: invoice.payment_failed: %v", ErrMalformedPayload, err)
	}

	sub, err := r.resolveBySubscriptionCode(ctx, p.Subscription.SubscriptionCode)
	if err != nil {
		return err
	}

	reason := p.Description
	if reason == "" {
		reason = "renewal charge failed"
	}
	raw, _ := json.Marshal(p)
	return r.processor.ProcessFailure(ctx, usecases.FailedPayment{
		SubscriptionID: sub.ID(),
		Reference:      p.Transaction.Reference,
		Reason:         reason,
		AmountMinor:    p.Amount,
		Currency:       p.Currency,
		Raw:            raw,
	})
}

// handleSubscriptionCreate links the provider-side subscription to the local
// row. The provider does not echo our metadata here, so the newest unlinked
// subscription for the customer's email is the match.
func (r *Reconciler) handleSubscriptionCreate(ctx context.Context, data json.RawMessage) error {
	var p subscriptionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: subscription.create: %v", ErrMalformedPayload, err)
	}

	existing, err := r.subscriptionRepo.GetByPaystackSubscriptionCode(ctx, p.SubscriptionCode)
	if err != nil {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}
	if existing != nil {
		r.logger.Infow("subscription already linked", "subscription_code", p.SubscriptionCode)
		return nil
	}

	sub, err := r.subscriptionRepo.GetLatestUnlinkedByEmail(ctx, p.Customer.Email)
	if err != nil {
		return fmt.Errorf("failed to find subscription for linkage: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("%w: no unlinked subscription for %s", subscription.ErrSubscriptionNotFound, p.Customer.Email)
	}

	sub.AttachGatewayIdentity(p.SubscriptionCode, p.Customer.CustomerCode, p.Authorization.AuthorizationCode, vo.Card{
		Last4:    p.Authorization.Last4,
		CardType: p.Authorization.CardType,
		Bank:     p.Authorization.Bank,
		ExpMonth: p.Authorization.ExpMonth,
		ExpYear:  p.Authorization.ExpYear,
	})
	if err := r.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription linkage: %w", err)
	}

	r.logger.Infow("subscription linked to provider",
		"subscription_sid", sub.SID(),
		"subscription_code", p.SubscriptionCode,
	)
	return nil
}

func (r *Reconciler) handleSubscriptionDisable(ctx context.Context, data json.RawMessage) error {
	var p subscriptionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: subscription.disable: %v", ErrMalformedPayload, err)
	}

	sub, err := r.resolveBySubscriptionCode(ctx, p.SubscriptionCode)
	if err != nil {
		return err
	}

	if sub.Status() == vo.StatusExpired {
		return nil
	}

	// Disable is the provider's terminal signal: the subscription is done,
	// not merely switched off for the next cycle.
	if err := sub.MarkExpired(); err != nil {
		// Statuses that cannot expire still must stop renewing.
		sub.DisableAutoRenew()
	}
	if err := r.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	r.logger.Infow("subscription expired by provider", "subscription_sid", sub.SID())
	return nil
}

func (r *Reconciler) handleSubscriptionNotRenew(ctx context.Context, data json.RawMessage) error {
	var p subscriptionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: subscription.not_renew: %v", ErrMalformedPayload, err)
	}

	sub, err := r.resolveBySubscriptionCode(ctx, p.SubscriptionCode)
	if err != nil {
		return err
	}

	switch sub.Status() {
	case vo.StatusCancelled, vo.StatusExpired:
		return nil
	}

	// Not-renew means access continues to the period end but no further
	// charge is coming, which is a cancellation on our side.
	if err := sub.Cancel("renewal stopped on provider"); err != nil {
		// Statuses that cannot cancel still must stop renewing.
		sub.DisableAutoRenew()
	}
	if err := r.subscriptionRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	r.logger.Infow("subscription cancelled by provider", "subscription_sid", sub.SID())
	return nil
}

func (r *Reconciler) handleExpiringCards(ctx context.Context, data json.RawMessage) error {
	var entries []expiringCardPayload
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: subscription.expiring_cards: %v", ErrMalformedPayload, err)
	}

	for _, entry := range entries {
		n := usecases.CardExpiringNotification{
			Email:    entry.Customer.Email,
			Last4:    entry.Card.Last4,
			ExpMonth: entry.Card.ExpMonth,
			ExpYear:  entry.Card.ExpYear,
		}
		goroutine.SafeGo(r.logger, "card-expiring-notification", func() {
			r.notifier.CardExpiring(context.WithoutCancel(ctx), n)
		})
	}

	r.logger.Infow("expiring card notices dispatched", "count", len(entries))
	return nil
}

// resolveForCharge maps a charge back to a subscription: our transaction
// reference first, then the checkout metadata, then the customer email.
func (r *Reconciler) resolveForCharge(ctx context.Context, p chargePayload) (*subscription.Subscription, error) {
	if p.Reference != "" {
		txn, err := r.transactionRepo.GetByReference(ctx, p.Reference)
		if err != nil {
			return nil, fmt.Errorf("failed to look up transaction: %w", err)
		}
		if txn != nil {
			sub, err := r.subscriptionRepo.GetByID(ctx, txn.SubscriptionID())
			if err != nil {
				return nil, fmt.Errorf("failed to get subscription: %w", err)
			}
			if sub != nil {
				return sub, nil
			}
		}
	}

	if p.Metadata.SubscriptionSID != "" {
		sub, err := r.subscriptionRepo.GetBySID(ctx, p.Metadata.SubscriptionSID)
		if err != nil {
			return nil, fmt.Errorf("failed to get subscription: %w", err)
		}
		if sub != nil {
			return sub, nil
		}
	}

	if p.Customer.Email != "" {
		sub, err := r.subscriptionRepo.GetCurrentByEmail(ctx, p.Customer.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to get subscription by email: %w", err)
		}
		if sub != nil {
			return sub, nil
		}
	}

	return nil, fmt.Errorf("%w: no subscription matches charge %s", subscription.ErrSubscriptionNotFound, p.Reference)
}

func (r *Reconciler) resolveBySubscriptionCode(ctx context.Context, code string) (*subscription.Subscription, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: payload carries no subscription code", subscription.ErrSubscriptionNotFound)
	}
	sub, err := r.subscriptionRepo.GetByPaystackSubscriptionCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: no subscription for code %s", subscription.ErrSubscriptionNotFound, code)
	}
	return sub, nil
}

// isBusinessRejection separates outcomes the state machine refused from
// infrastructure faults worth a redelivery.
func isBusinessRejection(err error) bool {
	return errors.Is(err, subscription.ErrSubscriptionNotFound) ||
		errors.Is(err, subscription.ErrInvalidStatusTransition) ||
		errors.Is(err, payment.ErrTransactionFinal) ||
		errors.Is(err, ErrMalformedPayload)
}
