// Package logstream implements the durable log producer and consumer:
// fire-and-forget publish of opaque binary frames to a named topic, and
// at-least-once consumer-group pull with auto-commit, per spec.md §4.C/D.
package logstream

import (
	"context"
	"fmt"

	kafka "github.com/segmentio/kafka-go"
)

// Producer publishes opaque byte values to a single topic. No key, no
// headers, no partitioning contract beyond what the broker assigns.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a Producer for the given brokers and topic.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish fire-and-forgets value onto the topic.
func (p *Producer) Publish(ctx context.Context, value []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: value}); err != nil {
		return fmt.Errorf("logstream: publish: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
