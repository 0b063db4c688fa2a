package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingProducer struct {
	messages []kafka.Message
	err      error
}

func (p *capturingProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msgs...)
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDispatch(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	producer := &capturingProducer{}
	d := NewDispatcher(log, producer)

	event := Event{
		ID:          7,
		AggregateID: "order-1",
		Topic:       "order-notifications",
		Type:        "Created",
		Payload:     []byte(`{"order_id":"order-1"}`),
		Traceparent: "00-abc-def-01",
	}
	require.NoError(t, d.Dispatch(context.Background(), event))

	require.Len(t, producer.messages, 1)
	msg := producer.messages[0]
	assert.Equal(t, "order-notifications", msg.Topic)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(msg.Value))
	assert.Equal(t, "Created", header(msg, "event_type"))
	assert.Equal(t, "00-abc-def-01", header(msg, "traceparent"))
}

func TestDispatchOmitsEmptyTraceparent(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	producer := &capturingProducer{}
	d := NewDispatcher(log, producer)

	require.NoError(t, d.Dispatch(context.Background(), Event{Topic: "stock-updates", AggregateID: "prod-1"}))

	require.Len(t, producer.messages, 1)
	for _, h := range producer.messages[0].Headers {
		assert.NotEqual(t, "traceparent", h.Key)
	}
}

func TestDispatchPropagatesProducerError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	producer := &capturingProducer{err: errors.New("broker unreachable")}
	d := NewDispatcher(log, producer)

	err := d.Dispatch(context.Background(), Event{Topic: "order-notifications"})
	assert.Error(t, err)
}
