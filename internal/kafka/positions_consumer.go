package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/vralytics/portfolio-service/internal/models"
)

// PositionsRepository defines the database operations the consumer needs
type PositionsRepository interface {
	ReplaceUserPositions(userID string, positions []*models.Position) error
	UpsertBalance(userID string, vCash decimal.Decimal) error
}

// PositionsConsumer handles position snapshot events from the
// trade-execution service
type PositionsConsumer struct {
	reader *kafka.Reader
	repo   PositionsRepository
}

// NewPositionsConsumer creates a new Kafka consumer for position events
func NewPositionsConsumer(brokers []string, topic, groupID string, repo PositionsRepository) *PositionsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-positions", // Separate consumer group for positions
		MinBytes:       10e3,                   // 10KB
		MaxBytes:       10e6,                   // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset, // Only read new messages (not historical)
		CommitInterval: time.Second,
	})

	return &PositionsConsumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages from Kafka
func (c *PositionsConsumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka positions consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Positions consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("Error reading positions message: %v", err)
				continue
			}

			if err := c.processMessage(msg); err != nil {
				log.Printf("Error processing positions message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *PositionsConsumer) processMessage(msg kafka.Message) error {
	log.Printf("Received positions message from partition %d offset %d",
		msg.Partition, msg.Offset)

	var event models.PositionsEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal positions event: %w", err)
	}

	// Only process POSITIONS_SNAPSHOT events
	if event.EventType != "POSITIONS_SNAPSHOT" {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}

	userID := event.Data.UserID
	if userID == "" {
		return fmt.Errorf("positions snapshot missing user_id")
	}

	log.Printf("Processing positions snapshot for user %s: %d positions, v_cash=%s",
		userID, len(event.Data.Positions), event.Data.VCash)

	// Convert event data to Position models
	positions := make([]*models.Position, 0, len(event.Data.Positions))
	for _, pd := range event.Data.Positions {
		position, err := convertPositionData(userID, pd)
		if err != nil {
			log.Printf("Warning: failed to convert position %s: %v", pd.Symbol, err)
			continue
		}
		positions = append(positions, position)
	}

	// Replace the user's positions in the database
	if err := c.repo.ReplaceUserPositions(userID, positions); err != nil {
		return fmt.Errorf("failed to replace positions for %s: %w", userID, err)
	}

	// Update the user's cash balance when the snapshot carries one
	if event.Data.VCash != "" {
		vCash, err := decimal.NewFromString(event.Data.VCash)
		if err != nil {
			log.Printf("Warning: invalid v_cash %q for user %s: %v", event.Data.VCash, userID, err)
		} else if err := c.repo.UpsertBalance(userID, vCash); err != nil {
			return fmt.Errorf("failed to update balance for %s: %w", userID, err)
		}
	}

	log.Printf("Successfully updated %d positions for user %s", len(positions), userID)
	return nil
}

// convertPositionData converts Kafka position data to a Position model
func convertPositionData(userID string, pd models.PositionData) (*models.Position, error) {
	quantity, err := decimal.NewFromString(pd.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %s: %w", pd.Quantity, err)
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("negative quantity %s", pd.Quantity)
	}

	avgBuyPrice, err := decimal.NewFromString(pd.AverageBuyPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid average_buy_price %s: %w", pd.AverageBuyPrice, err)
	}

	return &models.Position{
		UserID:      userID,
		Symbol:      strings.ToUpper(pd.Symbol),
		Quantity:    quantity,
		AvgBuyPrice: avgBuyPrice,
	}, nil
}

// Close closes the Kafka consumer
func (c *PositionsConsumer) Close() error {
	return c.reader.Close()
}
