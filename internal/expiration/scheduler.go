package expiration

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopworks/order-service/pkg/clock"
)

// Scheduler periodically sweeps the task store and publishes every due task.
// Each task is handled in isolation: a publish failure marks that task
// FAILED and moves on, it never aborts the batch. FAILED tasks are re-picked
// on later sweeps until their retry count reaches maxRetry; beyond that they
// stay FAILED for manual intervention.
type Scheduler struct {
	log      *slog.Logger
	store    Store
	pub      Publisher
	clock    clock.Clock
	interval time.Duration
	maxRetry int
}

func NewScheduler(log *slog.Logger, store Store, pub Publisher, clk clock.Clock, interval time.Duration, maxRetry int) *Scheduler {
	return &Scheduler{
		log:      log,
		store:    store,
		pub:      pub,
		clock:    clk,
		interval: interval,
		maxRetry: maxRetry,
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiration scheduler stopping")
			return nil
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep publishes every currently due task and records the outcome per task.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()
	tasks, err := s.store.Due(ctx, now, s.maxRetry)
	if err != nil {
		s.log.Error("expiration sweep query failed", "err", err)
		return
	}

	for _, task := range tasks {
		if err := s.pub.Publish(ctx, task.OrderID); err != nil {
			if markErr := s.store.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
				s.log.Error("mark task failed errored", "task_id", task.ID, "err", markErr)
			}
			continue
		}
		if err := s.store.MarkSent(ctx, task.ID); err != nil {
			s.log.Error("mark task sent errored", "task_id", task.ID, "err", err)
		}
	}
}
