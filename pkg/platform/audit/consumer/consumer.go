// Package consumer drains the audit topic written by the Kafka publisher into
// a durable audit.Store.
//
// Records are routed by their category header. Security events are strict:
// a store failure stops the batch so the record is redelivered. Operations
// events are best-effort and always committed.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultGroup is the consumer group used when none is configured.
const DefaultGroup = "scheme-audit-sink"

// Message is one record handed to a Handler.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
}

// Handler processes one message. A non-nil error stops the consumer before the
// current batch is committed.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// Consumer polls a group-managed client and commits after each fully handled batch.
type Consumer struct {
	client  fetcher
	handler Handler
	logger  *slog.Logger
}

// New returns a consumer. client is usually a *kgo.Client from NewClient.
func New(client fetcher, handler Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, handler: handler, logger: logger}
}

// NewClient joins group and consumes topic from the earliest uncommitted offset.
// Offsets are committed explicitly by Run.
func NewClient(brokers []string, topic, group string) (*kgo.Client, error) {
	if group == "" {
		group = DefaultGroup
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return client, nil
}

// Run consumes until ctx is done. It returns nil on cancellation and the
// handler's error otherwise.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.logger.WarnContext(ctx, "audit fetch failed", "topic", topic, "partition", partition, "error", err)
			}
		})

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.handler.Handle(ctx, toMessage(r))
		})
		if handleErr != nil {
			return fmt.Errorf("handle audit record: %w", handleErr)
		}
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "audit offset commit failed", "error", err)
		}
	}
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{Topic: r.Topic, Key: r.Key, Value: r.Value, Headers: headers, Offset: r.Offset}
}
