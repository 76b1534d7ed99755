package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "condobook/internal/app/outbox"
	"condobook/internal/infra/outbox"
	"condobook/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func record(id string) appoutbox.EventRecord {
	return appoutbox.EventRecord{
		ID:         id,
		Name:       "calendar.item_requested",
		Payload:    []byte(`{"item_id":"i-1"}`),
		OccurredAt: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
		Aggregate:  "i-1",
		Headers:    map[string]string{"traceparent": "00-abc-01"},
	}
}

func TestWorkerPublishesCloudEvent(t *testing.T) {
	ctx := context.Background()
	box := memory.NewOutbox()
	require.NoError(t, box.Add(ctx, record("e-1")))
	producer := &fakeProducer{}
	w := &outbox.Worker{Relay: box, Producer: producer, TopicPrefix: "condo."}

	claimed, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	require.True(t, claimed)
	require.Len(t, producer.sent, 1)

	msg := producer.sent[0]
	assert.Equal(t, "condo.calendar.events.v1", msg.topic)
	assert.Equal(t, "i-1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])
	assert.Equal(t, "00-abc-01", msg.headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "calendar.item_requested.v1", evt["type"])
	assert.Equal(t, "app://condobook", evt["source"])
	assert.Equal(t, "e-1", evt["id"])
	assert.Equal(t, map[string]any{"item_id": "i-1"}, evt["data"])

	assert.Empty(t, box.Records())
	claimed, err = w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestWorkerSchedulesRetryOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	box := memory.NewOutbox()
	require.NoError(t, box.Add(ctx, record("e-1")))
	producer := &fakeProducer{err: errors.New("broker down")}
	w := &outbox.Worker{Relay: box, Producer: producer, Backoff: []time.Duration{time.Hour}}

	claimed, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.Len(t, box.Records(), 1)

	// the record waits for its backoff before it can be claimed again
	claimed, err = w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestWorkerRetriesImmediatelyWithZeroBackoff(t *testing.T) {
	ctx := context.Background()
	box := memory.NewOutbox()
	require.NoError(t, box.Add(ctx, record("e-1")))
	producer := &fakeProducer{err: errors.New("broker down")}
	w := &outbox.Worker{Relay: box, Producer: producer, Backoff: []time.Duration{0}}

	_, err := w.ProcessOnce(ctx)
	require.NoError(t, err)

	producer.err = nil
	claimed, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	require.True(t, claimed)
	require.Len(t, producer.sent, 1)
	assert.Empty(t, box.Records())
}

func TestWorkerMarksUndecodablePayloadFailed(t *testing.T) {
	ctx := context.Background()
	box := memory.NewOutbox()
	rec := record("e-bad")
	rec.Payload = []byte("not json")
	require.NoError(t, box.Add(ctx, rec))
	producer := &fakeProducer{}
	w := &outbox.Worker{Relay: box, Producer: producer, Backoff: []time.Duration{time.Hour}}

	claimed, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Empty(t, producer.sent)
	assert.Len(t, box.Records(), 1)
}

func TestWorkerRequiresDependencies(t *testing.T) {
	err := (&outbox.Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, outbox.ErrWorkerNotConfigured)
}
