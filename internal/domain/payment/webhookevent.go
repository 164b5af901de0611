package payment

import (
	"fmt"
	"time"

	"techhive/internal/shared/biztime"
)

// WebhookEventStatus is the processing state of a received webhook event.
type WebhookEventStatus string

const (
	EventStatusReceived  WebhookEventStatus = "received"
	EventStatusProcessed WebhookEventStatus = "processed"
	EventStatusFailed    WebhookEventStatus = "failed"
	EventStatusSkipped   WebhookEventStatus = "skipped"
)

// WebhookEvent is the audit row for one webhook delivery. Every event with a
// valid signature is persisted before any business handling, including event
// types we do not act on, so replays can be deduplicated and failures
// replayed by hand.
type WebhookEvent struct {
	id        uint
	eventType string
	// eventKey is the provider-derived identity of the event, used for
	// deduplication across redeliveries.
	eventKey     string
	payload      []byte
	status       WebhookEventStatus
	errorMessage *string
	processedAt  *time.Time
	receivedAt   time.Time
}

func NewWebhookEvent(eventType, eventKey string, payload []byte) (*WebhookEvent, error) {
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}
	if eventKey == "" {
		return nil, fmt.Errorf("event key is required")
	}

	return &WebhookEvent{
		eventType:  eventType,
		eventKey:   eventKey,
		payload:    payload,
		status:     EventStatusReceived,
		receivedAt: biztime.NowUTC(),
	}, nil
}

// WebhookEventReconstructParams carries persisted state back into the aggregate.
type WebhookEventReconstructParams struct {
	ID           uint
	EventType    string
	EventKey     string
	Payload      []byte
	Status       WebhookEventStatus
	ErrorMessage *string
	ProcessedAt  *time.Time
	ReceivedAt   time.Time
}

func ReconstructWebhookEvent(p WebhookEventReconstructParams) (*WebhookEvent, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("webhook event ID cannot be zero")
	}
	return &WebhookEvent{
		id:           p.ID,
		eventType:    p.EventType,
		eventKey:     p.EventKey,
		payload:      p.Payload,
		status:       p.Status,
		errorMessage: p.ErrorMessage,
		processedAt:  p.ProcessedAt,
		receivedAt:   p.ReceivedAt,
	}, nil
}

func (e *WebhookEvent) ID() uint                   { return e.id }
func (e *WebhookEvent) EventType() string          { return e.eventType }
func (e *WebhookEvent) EventKey() string           { return e.eventKey }
func (e *WebhookEvent) Payload() []byte            { return e.payload }
func (e *WebhookEvent) Status() WebhookEventStatus { return e.status }
func (e *WebhookEvent) ErrorMessage() *string      { return e.errorMessage }
func (e *WebhookEvent) ProcessedAt() *time.Time    { return e.processedAt }
func (e *WebhookEvent) ReceivedAt() time.Time      { return e.receivedAt }

func (e *WebhookEvent) SetID(eventID uint) error {
	if e.id != 0 {
		return fmt.Errorf("webhook event ID is already set")
	}
	if eventID == 0 {
		return fmt.Errorf("webhook event ID cannot be zero")
	}
	e.id = eventID
	return nil
}

// IsProcessed reports whether the event already ran to completion. A failed
// event is not processed; redelivery gets another chance at it.
func (e *WebhookEvent) IsProcessed() bool {
	return e.status == EventStatusProcessed
}

func (e *WebhookEvent) MarkProcessed() {
	now := biztime.NowUTC()
	e.status = EventStatusProcessed
	e.processedAt = &now
	e.errorMessage = nil
}

func (e *WebhookEvent) MarkFailed(reason string) {
	now := biztime.NowUTC()
	e.status = EventStatusFailed
	e.processedAt = &now
	if reason != "" {
		e.errorMessage = &reason
	}
}

// MarkSkipped records an event type the platform receives but does not act on.
func (e *WebhookEvent) MarkSkipped() {
	now := biztime.NowUTC()
	e.status = EventStatusSkipped
	e.processedAt = &now
}
