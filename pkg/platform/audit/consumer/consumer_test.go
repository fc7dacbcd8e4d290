package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "schemematch/pkg/platform/audit"
	"schemematch/pkg/platform/audit/store/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeFetcher struct {
	batches []kgo.Fetches
	cancel  context.CancelFunc
	commits int
}

func (f *fakeFetcher) PollFetches(context.Context) kgo.Fetches {
	if len(f.batches) == 0 {
		f.cancel()
		return nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next
}

func (f *fakeFetcher) CommitUncommittedOffsets(context.Context) error {
	f.commits++
	return nil
}

type failingStore struct {
	audit.Store
	err error
}

func (s failingStore) Append(context.Context, audit.Event) error { return s.err }

func record(t *testing.T, e audit.Event, offset int64) *kgo.Record {
	t.Helper()
	value, err := json.Marshal(e)
	require.NoError(t, err)
	return &kgo.Record{
		Topic:  "scheme.audit",
		Key:    []byte(e.Subject),
		Value:  value,
		Offset: offset,
		Headers: []kgo.RecordHeader{
			{Key: HeaderCategory, Value: []byte(audit.AuditEvent(e.Action).Category())},
		},
	}
}

func batch(records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "scheme.audit",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
	}}}}
}

func TestConsumer_PersistsAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewInMemoryStore()
	ts := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{cancel: cancel, batches: []kgo.Fetches{
		batch(
			record(t, audit.Event{Subject: "catalog", Action: string(audit.EventCatalogRefreshed), Decision: "postgres", CatalogVersion: 3, Timestamp: ts}, 0),
			record(t, audit.Event{Subject: "awas", Action: string(audit.EventFieldsMapped), Timestamp: ts}, 1),
		),
	}}

	err := New(fetcher, NewStoreRouter(store, discard), discard).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.commits)

	catalogEvents, err := store.ListBySubject(context.Background(), "catalog")
	require.NoError(t, err)
	require.Len(t, catalogEvents, 1)
	assert.Equal(t, audit.CategorySecurity, catalogEvents[0].Category)
	assert.Equal(t, uint64(3), catalogEvents[0].CatalogVersion)
	assert.Equal(t, ts, catalogEvents[0].Timestamp)

	ops, err := store.ListBySubject(context.Background(), "awas")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, audit.CategoryOperations, ops[0].Category)
}

func TestConsumer_SecurityStoreFailureStopsBeforeCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storeErr := errors.New("db down")
	fetcher := &fakeFetcher{cancel: cancel, batches: []kgo.Fetches{
		batch(record(t, audit.Event{Subject: "catalog", Action: string(audit.EventCatalogRefreshFailed)}, 7)),
	}}

	err := New(fetcher, NewStoreRouter(failingStore{err: storeErr}, discard), discard).Run(ctx)
	require.ErrorIs(t, err, storeErr)
	assert.Zero(t, fetcher.commits)
}

func TestOpsHandler_BestEffort(t *testing.T) {
	h := NewOpsHandler(failingStore{err: errors.New("db down")}, discard)

	msg := &Message{Value: []byte(`{"subject":"awas","action":"gaps_explained"}`)}
	assert.NoError(t, h.Handle(context.Background(), msg))
	assert.NoError(t, h.Handle(context.Background(), &Message{Value: []byte("{")}))
}

func TestSecurityHandler_DropsMalformed(t *testing.T) {
	store := memory.NewInMemoryStore()
	h := NewSecurityHandler(store, discard)

	assert.NoError(t, h.Handle(context.Background(), &Message{Value: []byte("not json")}))
	assert.NoError(t, h.Handle(context.Background(), &Message{Key: []byte("catalog"), Value: []byte(`{"subject":"catalog"}`)}))

	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSecurityHandler_SubjectFromKey(t *testing.T) {
	store := memory.NewInMemoryStore()
	h := NewSecurityHandler(store, discard)

	msg := &Message{Key: []byte("/admin/catalog/refresh"), Value: []byte(`{"action":"admin_access_denied","actor_id":"intern"}`)}
	require.NoError(t, h.Handle(context.Background(), msg))

	events, err := store.ListBySubject(context.Background(), "/admin/catalog/refresh")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "intern", events[0].ActorID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestRouter(t *testing.T) {
	var got []string
	handlerFor := func(name string) Handler {
		return handlerFunc(func(context.Context, *Message) error {
			got = append(got, name)
			return nil
		})
	}

	r := NewRouter(discard, nil)
	r.Register(audit.CategorySecurity, handlerFor("security"))

	require.NoError(t, r.Handle(context.Background(), &Message{Headers: map[string]string{HeaderCategory: "security"}}))
	require.NoError(t, r.Handle(context.Background(), &Message{Headers: map[string]string{HeaderCategory: "operations"}}))
	assert.Equal(t, []string{"security"}, got)

	withFallback := NewRouter(discard, handlerFor("fallback"))
	require.NoError(t, withFallback.Handle(context.Background(), &Message{}))
	assert.Equal(t, []string{"security", "fallback"}, got)
}

type handlerFunc func(context.Context, *Message) error

func (f handlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }
