package expiration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopworks/order-service/pkg/tracing"
)

// Expirer drives the expire transition for one order.
type Expirer interface {
	ExpireOrder(ctx context.Context, orderID uuid.UUID) error
}

// MessageReader is the slice of kafka.Reader the consumer needs. Fetch and
// commit are split so a message is only committed after the business logic
// ran (or the payload was dead-lettered).
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Deduper suppresses duplicate deliveries.
type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
}

// Consumer receives expiration events at-least-once. Any message that cannot
// be processed (malformed payload, unknown order, exhausted retries) is
// forwarded raw to the dead-letter topic and the original message committed,
// trading automatic reprocessing for freedom from redelivery loops.
type Consumer struct {
	log      *slog.Logger
	reader   MessageReader
	expirer  Expirer
	dlq      Producer
	dlqTopic string
	dedup    Deduper
	tracer   trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group, dlqTopic string, expirer Expirer, dlq Producer, dedup Deduper) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:      log,
		reader:   r,
		expirer:  expirer,
		dlq:      dlq,
		dlqTopic: dlqTopic,
		dedup:    dedup,
		tracer:   otel.Tracer("expiration-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.log.Info("expiration consumer stopping")
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	key := c.dedup.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.dedup.Seen(ctx, key)
	if err != nil {
		// Leave the message uncommitted so the broker redelivers it.
		c.log.Error("idempotency check failed", "err", err)
		return
	}
	if seen {
		c.log.Info("duplicate expiration event skipped", "key", key)
		_ = c.reader.CommitMessages(ctx, msg)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderExpiration")
	defer span.End()

	payload := string(msg.Value)
	orderID, err := uuid.Parse(payload)
	if err != nil {
		c.log.Error("malformed expiration payload", "payload", payload, "err", err)
		c.deadLetter(msgCtx, msg.Value)
		_ = c.reader.CommitMessages(ctx, msg)
		return
	}

	if err := c.expirer.ExpireOrder(msgCtx, orderID); err != nil {
		c.log.Error("expire order failed", "order_id", orderID, "err", err)
		c.deadLetter(msgCtx, msg.Value)
	}
	_ = c.reader.CommitMessages(ctx, msg)
}

func (c *Consumer) deadLetter(ctx context.Context, payload []byte) {
	msg := kafka.Message{
		Topic: c.dlqTopic,
		Value: payload,
	}
	if err := c.dlq.WriteMessages(ctx, msg); err != nil {
		c.log.Error("dead-letter publish failed", "err", err)
	}
}
