package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "schemematch/pkg/platform/audit"
	"schemematch/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Subject: "pm-kisan",
		Action:  string(audit.EventFieldsMapped),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "pm-kisan")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventFieldsMapped), events[0].Action)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_DerivesCategoryFromAction(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Subject: "catalog",
		Action:  string(audit.EventCatalogRefreshed),
	}))

	events, err := pub.List(context.Background(), "catalog")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Subject: "catalog",
		Action:  string(audit.EventCatalogRefreshed),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		events, err := pub.List(context.Background(), "catalog")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			Subject: "awas",
			Action:  string(audit.EventEligibilityEvaluated),
		})
		require.NoError(t, err)
	}

	pub.Close()
	pub.Close()

	events, err := store.ListBySubject(context.Background(), "awas")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Subject: "awas", Action: string(audit.EventGapsExplained)})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "awas", Action: string(audit.EventDocumentsListed)}))
	after := time.Now()

	events, err := pub.List(context.Background(), "awas")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Subject:   "awas",
		Action:    string(audit.EventMappingValidated),
		Timestamp: customTime,
	}))

	events, err := pub.List(context.Background(), "awas")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_ContextCancellation(t *testing.T) {
	blocking := &blockingStore{release: make(chan struct{})}
	pub := NewPublisher(blocking, WithAsyncBuffer(1))
	defer pub.Close()
	defer close(blocking.release)

	// The worker holds the first event; the second fills the buffer.
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "a"}))
	require.Eventually(t, blocking.started, time.Second, 5*time.Millisecond)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: "b"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pub.Emit(ctx, audit.Event{Action: "c"})
	assert.ErrorIs(t, err, context.Canceled)

	err = pub.Emit(context.Background(), audit.Event{Action: "d"})
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestPublisher_MultipleEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actions := []audit.AuditEvent{audit.EventEligibilityEvaluated, audit.EventFieldsMapped, audit.EventMappingValidated}
	for _, action := range actions {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "awas", Action: string(action)}))
	}

	result, err := pub.List(context.Background(), "awas")
	require.NoError(t, err)
	require.Len(t, result, 3)
	for i, action := range actions {
		assert.Equal(t, string(action), result[i].Action)
	}

	recent, err := store.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, string(audit.EventMappingValidated), recent[1].Action)
}

type blockingStore struct {
	mu      sync.Mutex
	begun   bool
	release chan struct{}
}

func (s *blockingStore) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begun
}

func (s *blockingStore) Append(_ context.Context, _ audit.Event) error {
	s.mu.Lock()
	s.begun = true
	s.mu.Unlock()
	<-s.release
	return nil
}

func (s *blockingStore) ListBySubject(context.Context, string) ([]audit.Event, error) {
	return nil, nil
}

func (s *blockingStore) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, nil
}
