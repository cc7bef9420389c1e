package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]string{"cart_id": "abc"}

	event, err := NewEvent("cart.updated", "cart-123", "cart", "cart-service", payload)
	require.NoError(t, err)

	_, err = uuid.Parse(event.EventID)
	assert.NoError(t, err, "event ID should be a valid UUID")
	assert.Equal(t, "cart.updated", event.EventType)
	assert.Equal(t, "cart-123", event.AggregateID)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, "cart-service", event.Source)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Second)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(event.Data, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEventUnserializablePayload(t *testing.T) {
	_, err := NewEvent("cart.updated", "cart-123", "cart", "cart-service", func() {})
	assert.Error(t, err)
}

func TestEventWithCorrelationID(t *testing.T) {
	event, err := NewEvent("cart.updated", "cart-123", "cart", "cart-service", nil)
	require.NoError(t, err)

	event.WithCorrelationID("corr-1")

	data, err := event.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "corr-1", decoded["correlation_id"])
}
