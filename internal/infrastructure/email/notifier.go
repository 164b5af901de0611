package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"techhive/internal/application/subscription/usecases"
	"techhive/internal/shared/config"
	"techhive/internal/shared/logger"
)

// SMTPNotifier delivers lifecycle emails. Callers fire it from detached
// goroutines, so every method swallows delivery errors after logging them;
// billing state must never depend on the mail server.
type SMTPNotifier struct {
	cfg    config.EmailConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

func NewSMTPNotifier(cfg config.EmailConfig, log logger.Interface) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		logger: log.Named("email"),
	}
}

var _ usecases.LifecycleNotifier = (*SMTPNotifier)(nil)

func (n *SMTPNotifier) TrialStarted(ctx context.Context, v usecases.TrialStartedNotification) {
	subject := "Your free trial has started"
	body := fmt.Sprintf(`Hi,

Your free trial of the %s plan is now active. You have full access until %s.

Add a payment method before then to keep reading without interruption.

The Tech Hive team`, v.PlanName, v.TrialEnd.Format("January 2, 2006"))
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) TrialEndingSoon(ctx context.Context, v usecases.TrialEndingNotification) {
	subject := fmt.Sprintf("Your trial ends in %d days", v.DaysLeft)
	body := fmt.Sprintf(`Hi,

Your free trial of the %s plan ends on %s.

Subscribe now to keep your access.

The Tech Hive team`, v.PlanName, v.TrialEnd.Format("January 2, 2006"))
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) PaymentSucceeded(ctx context.Context, v usecases.PaymentNotification) {
	subject := "Payment received"
	body := fmt.Sprintf(`Hi,

We received your payment of %s %.2f for the %s plan.

Your subscription is active until %s.

The Tech Hive team`, v.Currency, float64(v.AmountMinor)/100, v.PlanName, v.PeriodEnd.Format("January 2, 2006"))
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) PaymentFailed(ctx context.Context, v usecases.PaymentFailedNotification) {
	subject := "Payment failed"
	body := fmt.Sprintf(`Hi,

We could not charge your card for the %s plan: %s.

We will retry automatically (%d attempts left). Your access continues until %s; after that the subscription expires.

You can also update your card and retry from your billing page.

The Tech Hive team`, v.PlanName, v.Reason, v.AttemptsLeft, v.GraceDeadline.Format("January 2, 2006"))
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) SubscriptionCancelled(ctx context.Context, v usecases.CancellationNotification) {
	subject := "Subscription cancelled"
	body := fmt.Sprintf(`Hi,

Your %s subscription has been cancelled. You keep full access until %s.

Changed your mind? You can reactivate any time before then.

The Tech Hive team`, v.PlanName, v.AccessUntil.Format("January 2, 2006"))
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) SubscriptionReactivated(ctx context.Context, v usecases.ReactivationNotification) {
	subject := "Welcome back"
	body := fmt.Sprintf(`Hi,

Your %s subscription is active again. It renews automatically after %s.

The Tech Hive team`, v.PlanName, v.PeriodEnd.Format("January 2, 2006"))
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) SubscriptionExpired(ctx context.Context, v usecases.ExpiryNotification) {
	subject := "Your subscription has expired"
	body := fmt.Sprintf(`Hi,

Your %s subscription has expired and premium access has ended.

Subscribe again any time to pick up where you left off.

The Tech Hive team`, v.PlanName)
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) UpcomingCharge(ctx context.Context, v usecases.UpcomingChargeNotification) {
	subject := "Upcoming renewal charge"
	body := fmt.Sprintf(`Hi,

Your subscription renews on %s. We will charge %s %.2f to your saved card.

No action is needed if your payment details are up to date.

The Tech Hive team`, v.ChargeDate.Format("January 2, 2006"), v.Currency, float64(v.AmountMinor)/100)
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) CardExpiring(ctx context.Context, v usecases.CardExpiringNotification) {
	subject := "Your card is expiring soon"
	body := fmt.Sprintf(`Hi,

The card ending in %s on your subscription expires %s/%s.

Update your payment method to avoid a failed renewal.

The Tech Hive team`, v.Last4, v.ExpMonth, v.ExpYear)
	n.send(v.Email, subject, body)
}

func (n *SMTPNotifier) send(to, subject, body string) {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.cfg.FromAddress, n.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		n.logger.Errorw("failed to send email", "to", to, "subject", subject, "error", err)
		return
	}
	n.logger.Infow("email sent", "to", to, "subject", subject)
}

// NoopNotifier is used when SMTP is not configured, for local development.
type NoopNotifier struct {
	logger logger.Interface
}

func NewNoopNotifier(log logger.Interface) *NoopNotifier {
	return &NoopNotifier{logger: log.Named("email")}
}

var _ usecases.LifecycleNotifier = (*NoopNotifier)(nil)

func (n *NoopNotifier) TrialStarted(ctx context.Context, v usecases.TrialStartedNotification) {
	n.logger.Infow("skipping trial started email", "to", v.Email)
}

func (n *NoopNotifier) TrialEndingSoon(ctx context.Context, v usecases.TrialEndingNotification) {
	n.logger.Infow("skipping trial reminder email", "to", v.Email)
}

func (n *NoopNotifier) PaymentSucceeded(ctx context.Context, v usecases.PaymentNotification) {
	n.logger.Infow("skipping payment receipt email", "to", v.Email)
}

func (n *NoopNotifier) PaymentFailed(ctx context.Context, v usecases.PaymentFailedNotification) {
	n.logger.Infow("skipping payment failure email", "to", v.Email)
}

func (n *NoopNotifier) SubscriptionCancelled(ctx context.Context, v usecases.CancellationNotification) {
	n.logger.Infow("skipping cancellation email", "to", v.Email)
}

func (n *NoopNotifier) SubscriptionReactivated(ctx context.Context, v usecases.ReactivationNotification) {
	n.logger.Infow("skipping reactivation email", "to", v.Email)
}

func (n *NoopNotifier) SubscriptionExpired(ctx context.Context, v usecases.ExpiryNotification) {
	n.logger.Infow("skipping expiry email", "to", v.Email)
}

func (n *NoopNotifier) UpcomingCharge(ctx context.Context, v usecases.UpcomingChargeNotification) {
	n.logger.Infow("skipping upcoming charge email", "to", v.Email)
}

func (n *NoopNotifier) CardExpiring(ctx context.Context, v usecases.CardExpiringNotification) {
	n.logger.Infow("skipping card expiry email", "to", v.Email)
}
