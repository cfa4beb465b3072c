package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_school/pkg/config"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublish_KeysByUserAndEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{w: w}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), TopicPayment, Event{
		Type:       PaymentCompleted,
		UserID:     "u-1",
		OccurredAt: at,
		Payload:    map[string]any{"payment_id": 7},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicPayment, msg.Topic)
	assert.Equal(t, "u-1", string(msg.Key))
	assert.Equal(t, PaymentCompleted, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, PaymentCompleted, decoded.Type)
	assert.True(t, at.Equal(decoded.OccurredAt))
}

func TestPublish_StampsMissingTime(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, (&KafkaPublisher{w: w}).Publish(context.Background(), TopicCart, Event{Type: CartCleared, UserID: "u"}))

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestPublish_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &recordingWriter{err: boom}}

	err := p.Publish(context.Background(), TopicOrder, Event{Type: OrderCreated, UserID: "u"})
	assert.ErrorIs(t, err, boom)
}

func TestKafkaPublisher_Integration(t *testing.T) {
	brokers := config.CSV(os.Getenv("KAFKA_TEST_BROKERS"))
	if len(brokers) == 0 {
		t.Skip("KAFKA_TEST_BROKERS not set")
	}

	p := NewKafkaPublisher(brokers)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, TopicCart, Event{Type: CartCleared, UserID: "integration"}))
}
