package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kendall-kelly/tailor-orders-api/models"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventStatusChanged = "order.status_changed"
	EventPaymentAdded  = "order.payment_added"
	EventOrderDeleted  = "order.deleted"
)

// OrderEvent is published after an order mutation has committed
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    uint               `json:"order_id"`
	Token      string             `json:"token"`
	Status     models.OrderStatus `json:"status"`
	Amount     decimal.Decimal    `json:"amount"`
	Balance    decimal.Decimal    `json:"balance"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// EventPublisher delivers order events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// KafkaPublisher writes order events to a Kafka topic keyed by order
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &KafkaPublisher{writer: writer}
}

// Publish writes one event
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%d", event.OrderID)),
		Value: payload,
		Time:  event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events; used when no brokers are configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// RecordingPublisher keeps published events in memory (for testing)
type RecordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
	Err    error
}

func (r *RecordingPublisher) Publish(_ context.Context, event OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far
func (r *RecordingPublisher) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OrderEvent(nil), r.events...)
}

// publishBestEffort never fails the caller; the mutation it reports has already committed
func publishBestEffort(ctx context.Context, publisher EventPublisher, event OrderEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		utils.GetLogger().Warn("failed to publish order event",
			zap.String("type", event.Type),
			zap.Uint("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
