// Package publish fans generated signals out to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wonny/signalengine/internal/contracts"
)

// EventSignalGenerated is the event type of every published message
const EventSignalGenerated = "SIGNAL_GENERATED"

// SignalEvent is the message value
type SignalEvent struct {
	EventType string           `json:"event_type"`
	Signal    contracts.Signal `json:"signal"`
	Timestamp time.Time        `json:"timestamp"`
}

// MessageWriter is the part of kafka.Writer the producer uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes signal events keyed by symbol
type Producer struct {
	writer MessageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a Kafka producer for topic. Keys hash to partitions so
// every event for a symbol stays in order.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	return NewProducerWithWriter(writer, topic)
}

// NewProducerWithWriter wraps an existing writer
func NewProducerWithWriter(writer MessageWriter, topic string) *Producer {
	return &Producer{writer: writer, topic: topic, now: time.Now}
}

// Publish writes one event per signal in a single batch
func (p *Producer) Publish(ctx context.Context, signals []contracts.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	now := p.now()
	msgs := make([]kafka.Message, 0, len(signals))
	for _, s := range signals {
		data, err := json.Marshal(SignalEvent{
			EventType: EventSignalGenerated,
			Signal:    s,
			Timestamp: now,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(s.Symbol),
			Value: data,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write messages to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Nop drops every signal, used when Kafka is disabled
type Nop struct{}

// Publish does nothing
func (Nop) Publish(context.Context, []contracts.Signal) error { return nil }

var (
	_ contracts.SignalPublisher = (*Producer)(nil)
	_ contracts.SignalPublisher = Nop{}
)
