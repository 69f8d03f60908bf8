package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopworks/order-service/internal/expiration"
)

type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log, pool: pool}
}

func (s *Store) Due(ctx context.Context, now time.Time, maxRetry int) ([]expiration.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, expiration_time, status, retry_count, last_error, created_at
		FROM expiration_tasks
		WHERE expiration_time <= $1
		  AND (status = 'PENDING' OR (status = 'FAILED' AND retry_count < $2))
		ORDER BY expiration_time`, now, maxRetry)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []expiration.Task
	for rows.Next() {
		var t expiration.Task
		if err := rows.Scan(&t.ID, &t.OrderID, &t.ExpirationTime, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE expiration_tasks SET status='SENT' WHERE id=$1`, id)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE expiration_tasks
		SET status='FAILED', retry_count=retry_count+1, last_error=$2
		WHERE id=$1`, id, errMsg)
	return err
}
