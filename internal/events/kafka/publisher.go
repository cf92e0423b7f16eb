// Package kafka bridges the in-process event bus onto a Kafka topic so
// downstream consumers can react to ledger derivations and score
// snapshots without polling the API.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	segmentio "github.com/segmentio/kafka-go"

	"github.com/quillbooks/quill/internal/events"
)

// Publisher mirrors bus events to a Kafka topic. Publish failures are
// logged and dropped: the event stream is a side channel, never a
// reason to fail a derivation.
type Publisher struct {
	writer *segmentio.Writer
	log    zerolog.Logger
}

// NewPublisher creates a publisher for the given brokers and topic
func NewPublisher(brokers []string, topic string, log zerolog.Logger) *Publisher {
	return &Publisher{
		writer: &segmentio.Writer{
			Addr:         segmentio.TCP(brokers...),
			Topic:        topic,
			Balancer:     &segmentio.LeastBytes{},
			WriteTimeout: 10 * time.Second,
		},
		log: log.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Attach subscribes the publisher to every event type on the bus
func (p *Publisher) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(event *events.Event) {
		p.publish(event)
	})
}

func (p *Publisher) publish(event *events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to marshal event")
		return
	}

	err = p.writer.WriteMessages(context.Background(), segmentio.Message{
		Key:   []byte(event.Type),
		Value: data,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("Failed to publish event to Kafka")
	}
}

// Close flushes and closes the underlying writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
