package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// KafkaPublisher produces JSON envelopes to a Kafka topic, keyed by vehicle.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher connects a producer to the comma separated brokers.
func NewKafkaPublisher(brokers, topic string) (*KafkaPublisher, error) {
	if strings.TrimSpace(brokers) == "" {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return &KafkaPublisher{producer: p, topic: topic}, nil
}

// Publish produces one message and waits for its delivery report.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload any) error {
	env := NewEnvelope(key, payload)
	value, err := env.Encode()
	if err != nil {
		return err
	}

	delivery := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
		Headers:        []kafka.Header{{Key: "event-id", Value: []byte(env.ID)}},
	}, delivery)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	}
}

// Close flushes outstanding messages for up to five seconds and closes the producer.
func (p *KafkaPublisher) Close() error {
	p.producer.Flush(5000)
	p.producer.Close()
	return nil
}
