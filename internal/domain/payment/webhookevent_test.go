package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReceivedEvent(t *testing.T) *WebhookEvent {
	t.Helper()
	event, err := NewWebhookEvent("charge.success", "charge.success:PS_REF_123", []byte(`{"event":"charge.success"}`))
	require.NoError(t, err)
	return event
}

func TestNewWebhookEvent_ValidInput(t *testing.T) {
	event := newReceivedEvent(t)

	assert.Equal(t, "charge.success", event.EventType())
	assert.Equal(t, "charge.success:PS_REF_123", event.EventKey())
	assert.Equal(t, EventStatusReceived, event.Status())
	assert.False(t, event.IsProcessed())
	assert.Nil(t, event.ProcessedAt())
}

func TestNewWebhookEvent_EmptyEventKey(t *testing.T) {
	_, err := NewWebhookEvent("charge.success", "", nil)
	assert.Error(t, err)
}

func TestWebhookEvent_MarkProcessed(t *testing.T) {
	event := newReceivedEvent(t)

	event.MarkProcessed()

	assert.True(t, event.IsProcessed())
	assert.NotNil(t, event.ProcessedAt())
	assert.Nil(t, event.ErrorMessage())
}

func TestWebhookEvent_MarkFailed(t *testing.T) {
	event := newReceivedEvent(t)

	event.MarkFailed("no subscription matches customer CUS_xyz")

	assert.Equal(t, EventStatusFailed, event.Status())
	assert.False(t, event.IsProcessed(), "failed events stay eligible for redelivery")
	require.NotNil(t, event.ErrorMessage())
	assert.Contains(t, *event.ErrorMessage(), "CUS_xyz")
}

func TestWebhookEvent_MarkFailedThenProcessed(t *testing.T) {
	event := newReceivedEvent(t)
	event.MarkFailed("transient")

	event.MarkProcessed()

	assert.True(t, event.IsProcessed())
	assert.Nil(t, event.ErrorMessage())
}

func TestWebhookEvent_MarkSkipped(t *testing.T) {
	event, err := NewWebhookEvent("transfer.success", "transfer.success:ref", nil)
	require.NoError(t, err)

	event.MarkSkipped()

	assert.Equal(t, EventStatusSkipped, event.Status())
	assert.NotNil(t, event.ProcessedAt())
}
