// Package expiration implements the durable order-expiration pipeline: a
// task row written with the order acts as an outbox record, a periodic
// scheduler publishes due tasks to Kafka, and a consumer drives the expire
// transition with dead-letter fallback.
package expiration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskSent    TaskStatus = "SENT"
	TaskFailed  TaskStatus = "FAILED"
)

// Task is the durable record that an order must be expired at
// ExpirationTime. Tasks are never deleted; SENT and FAILED rows remain as an
// audit trail.
type Task struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ExpirationTime time.Time
	Status         TaskStatus
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
}

func NewTask(orderID uuid.UUID, expirationTime time.Time) *Task {
	return &Task{
		ID:             uuid.New(),
		OrderID:        orderID,
		ExpirationTime: expirationTime,
		Status:         TaskPending,
		CreatedAt:      time.Now().UTC(),
	}
}

// Store is the persistence boundary for tasks. Due returns PENDING tasks
// past their expiration time, plus FAILED ones whose retry count is still
// below maxRetry.
type Store interface {
	Due(ctx context.Context, now time.Time, maxRetry int) ([]Task, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// Publisher sends the expiration signal for one order to the broker.
type Publisher interface {
	Publish(ctx context.Context, orderID uuid.UUID) error
}

// Producer is the slice of kafka.Writer the dispatcher needs.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}
