package webhook

// EventType enumerates the provider events the platform acts on. The enum
// is closed: anything else is logged, stored and skipped, never guessed at.
type EventType string

const (
	EventChargeSuccess        EventType = "charge.success"
	EventInvoiceCreate        EventType = "invoice.create"
	EventInvoiceUpdate        EventType = "invoice.update"
	EventInvoicePaymentFailed EventType = "invoice.payment_failed"
	EventSubscriptionCreate   EventType = "subscription.create"
	EventSubscriptionDisable  EventType = "subscription.disable"
	EventSubscriptionNotRenew EventType = "subscription.not_renew"
	EventExpiringCards        EventType = "subscription.expiring_cards"
)

// ParseEventType reports whether the raw event name is one we handle.
func ParseEventType(raw string) (EventType, bool) {
	et := EventType(raw)
	switch et {
	case EventChargeSuccess,
		EventInvoiceCreate,
		EventInvoiceUpdate,
		EventInvoicePaymentFailed,
		EventSubscriptionCreate,
		EventSubscriptionDisable,
		EventSubscriptionNotRenew,
		EventExpiringCards:
		return et, true
	}
	return "", false
}

func (e EventType) String() string { return string(e) }
