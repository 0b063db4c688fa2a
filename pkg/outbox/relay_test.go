package outbox

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	events []Event
	sent   []int64
	failed map[int64]string
	done   chan struct{}
}

func newFakeStore(events ...Event) *fakeStore {
	return &fakeStore{events: events, failed: make(map[int64]string), done: make(chan struct{})}
}

func (s *fakeStore) LockBatch(_ context.Context, _ string, _ int, _ time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	close(s.done)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = errMsg
	return nil
}

func TestRelayDrainsPendingEvents(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeStore(
		Event{ID: 1, Topic: "order-notifications", AggregateID: "order-1"},
		Event{ID: 2, Topic: "stock-updates", AggregateID: "prod-1"},
	)
	producer := &capturingProducer{}
	relay := NewRelay(log, store, NewDispatcher(log, producer), "relay-test")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- relay.Run(ctx) }()

	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay never marked the batch sent")
	}
	cancel()
	require.NoError(t, <-errCh)

	assert.ElementsMatch(t, []int64{1, 2}, store.sent)
	assert.Len(t, producer.messages, 2)
	assert.Empty(t, store.failed)
}
