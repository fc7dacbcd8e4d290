package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "schemematch/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestPublisher_Emit(t *testing.T) {
	fake := &fakeProducer{}
	pub := New(fake, "")

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		Timestamp:      at,
		Subject:        "pm-kisan",
		Action:         string(audit.EventFieldsMapped),
		Decision:       "incomplete",
		CatalogVersion: 7,
	})
	require.NoError(t, err)
	require.Len(t, fake.records, 1)

	rec := fake.records[0]
	assert.Equal(t, DefaultTopic, rec.Topic)
	assert.Equal(t, []byte("pm-kisan"), rec.Key)
	assert.Equal(t, at, rec.Timestamp)

	var got audit.Event
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, audit.CategoryOperations, got.Category)
	assert.Equal(t, "incomplete", got.Decision)
	assert.Equal(t, uint64(7), got.CatalogVersion)
}

func TestPublisher_EmitError(t *testing.T) {
	fake := &fakeProducer{err: errors.New("broker down")}
	pub := New(fake, "audit")

	err := pub.Emit(context.Background(), audit.Event{Subject: "catalog", Action: string(audit.EventCatalogRefreshed)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, "audit", fake.records[0].Topic)
}
