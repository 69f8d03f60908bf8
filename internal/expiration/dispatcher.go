package expiration

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/shopworks/order-service/pkg/tracing"
)

// Dispatcher publishes expiration events. The payload is the bare order id
// string, keyed by order id so all events for one order share a partition.
type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

func (d *Dispatcher) Publish(ctx context.Context, orderID uuid.UUID) error {
	id := orderID.String()
	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(id),
		Value:   []byte(id),
		Headers: tracing.InjectKafkaHeaders(ctx, nil),
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("expiration publish failed", "order_id", id, "err", err)
		return err
	}
	d.log.Info("expiration event published", "order_id", id)
	return nil
}
