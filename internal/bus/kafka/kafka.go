// Package kafka carries forwarded events over a Kafka topic, for
// deployments where ingest and pipeline should survive process restarts
// between dedup and processing.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/warden/internal/bus"
)

const writeTimeout = 5 * time.Second

// Producer publishes forwarded events, keyed by incident key.
type Producer struct {
	writer *kgo.Writer
}

// NewProducer creates a Kafka-backed forwarder.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kgo.Writer{
			Addr:         kgo.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kgo.LeastBytes{},
			RequiredAcks: kgo.RequireOne,
		},
	}
}

// Forward publishes the event. A bounded timeout keeps ingest from hanging
// when the brokers are down; the caller surfaces the error for redelivery.
func (p *Producer) Forward(ctx context.Context, fwd *bus.ForwardedEvent) error {
	b, err := json.Marshal(fwd)
	if err != nil {
		return fmt.Errorf("kafka: marshal forwarded event: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(fwd.IncidentKey),
		Value: b,
		Time:  fwd.ProcessedAt,
	}); err != nil {
		return fmt.Errorf("kafka: write message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer reads forwarded events and hands them to the pipeline.
type Consumer struct {
	reader *kgo.Reader
	logger log.Logger
}

// NewConsumer creates a consumer-group reader for the forwarded topic.
func NewConsumer(brokers []string, topic, groupID string, logger log.Logger) *Consumer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Consumer{
		reader: kgo.NewReader(kgo.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
			// manual commit after processing gives at-least-once
			CommitInterval: 0,
		}),
		logger: logger,
	}
}

// Run consumes until ctx is cancelled. Each message is committed only after
// the handler returns, so a crash mid-incident leads to redelivery, which
// the dedup window absorbs.
func (c *Consumer) Run(ctx context.Context, h bus.Handler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka: fetch: %w", err)
		}

		var fwd bus.ForwardedEvent
		if err := json.Unmarshal(m.Value, &fwd); err != nil || fwd.IncidentKey == "" {
			if err == nil {
				err = errors.New("missing incident key")
			}
			// poison message: commit so we don't re-read it forever
			c.logger.Error(ctx, err, "dropping malformed forwarded event",
				"offset", m.Offset,
				"partition", m.Partition,
			)
			_ = c.reader.CommitMessages(ctx, m)
			continue
		}

		h(ctx, &fwd)

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error(ctx, err, "commit failed, message may be redelivered",
				"incident_key", fwd.IncidentKey,
				"offset", m.Offset,
			)
		}
	}
}

// Close shuts down the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
