package logstream

import (
	"context"
	"fmt"

	kafka "github.com/segmentio/kafka-go"
)

// Consumer pulls binary frames from a topic within a consumer group, with
// auto-commit enabled and offset policy "latest" (new group members start
// from the tail, not a replay from the beginning), per spec.md §4.D.
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer builds a Consumer joining groupID on topic, reading from
// brokers.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
		}),
	}
}

// Next blocks until the next message is available or ctx is cancelled.
// Offsets are committed automatically by the underlying reader as part of
// its normal fetch/commit cycle — there is no explicit CommitMessages call,
// matching the spec's "auto-commit enabled" contract.
func (c *Consumer) Next(ctx context.Context) ([]byte, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("logstream: read: %w", err)
	}
	return msg.Value, nil
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
