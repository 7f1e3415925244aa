package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vralytics/portfolio-service/internal/models"
)

// Producer publishes net-worth events for downstream analytics consumers
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer for the given topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

// PublishNetWorthRecorded publishes an event after a net-worth observation
// is written. Messages are keyed by user so per-user ordering is preserved.
func (p *Producer) PublishNetWorthRecorded(ctx context.Context, obs *models.NetWorthObservation) error {
	event := models.NetWorthEvent{
		EventType: "NETWORTH_RECORDED",
		Source:    "portfolio-service",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      *obs,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal net worth event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(obs.UserID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish net worth event: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
