//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "schemematch/pkg/platform/audit"
	"schemematch/pkg/platform/audit/publishers/kafka"
	"schemematch/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	client   *kgo.Client
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	client, err := kafka.NewClient([]string{s.redpanda.Broker})
	s.Require().NoError(err)
	s.client = client
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *KafkaPublisherSuite) TestEnsureTopicIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(kafka.EnsureTopic(ctx, s.client, "audit-idempotent", 1, 1))
	s.NoError(kafka.EnsureTopic(ctx, s.client, "audit-idempotent", 1, 1))
}

func (s *KafkaPublisherSuite) TestEmitIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "audit-roundtrip"
	s.Require().NoError(kafka.EnsureTopic(ctx, s.client, topic, 1, 1))

	pub := kafka.New(s.client, topic)
	s.Require().NoError(pub.Emit(ctx, audit.Event{
		Subject:        "awas",
		Action:         string(audit.EventFieldsMapped),
		Decision:       "incomplete",
		CatalogVersion: 3,
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) == 0 {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for audit record")
		records = append(records, fetches.Records()...)
	}

	record := records[0]
	s.Equal("awas", string(record.Key))

	var got audit.Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(string(audit.EventFieldsMapped), got.Action)
	s.Equal(audit.CategoryOperations, got.Category)
	s.Equal("incomplete", got.Decision)
	s.Equal(uint64(3), got.CatalogVersion)
	s.False(got.Timestamp.IsZero())
}
