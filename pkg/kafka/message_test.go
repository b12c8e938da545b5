package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder_Build(t *testing.T) {
	ts := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	msg, err := NewMessage().
		WithKey("car-7").
		WithValue(map[string]any{"rentalId": "1736512345123"}).
		WithEventType("rental.created").
		WithCorrelationID("req-1").
		WithSource("carrental").
		WithTimestamp(ts).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "car-7", msg.Key)
	assert.Equal(t, "rental.created", msg.GetEventType())
	assert.Equal(t, "req-1", msg.GetCorrelationID())
	assert.Equal(t, ts.Format(time.RFC3339), msg.Headers[HeaderTimestamp])
	_, err = uuid.Parse(msg.GetEventID())
	assert.NoError(t, err)

	var payload map[string]string
	require.NoError(t, msg.DecodeValue(&payload))
	assert.Equal(t, "1736512345123", payload["rentalId"])
}

func TestMessageBuilder_EncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.Error(t, err)
}

func TestProducer_Validation(t *testing.T) {
	_, err := NewProducer(ProducerConfig{Topic: "rental-events"}, nil)
	assert.Error(t, err)

	_, err = NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "rental-events"}, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("{}")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}), ErrProducerClosed)
}

func TestProducer_MiddlewareOrder(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "rental-events"}, nil)
	require.NoError(t, err)
	defer p.Close()

	var order []string
	stop := func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "second:"+msg.Topic)
		return nil
	}
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "first")
		return next(ctx, msg)
	})
	p.Use(stop)

	require.NoError(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}))
	assert.Equal(t, []string{"first", "second:rental-events"}, order)
}
