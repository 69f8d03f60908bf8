package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalog "github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/internal/expiration"
	"github.com/shopworks/order-service/internal/order/domain"
	"github.com/shopworks/order-service/pkg/database"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, status, created_at, paid_at, version
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Status, &o.CreatedAt, &o.PaidAt, &o.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, quantity
		FROM order_lines WHERE order_id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Quantity); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, line)
	}
	return &o, rows.Err()
}

// CreateWithReservation commits the stock decrement, the order with its
// lines, and the pending expiration task in one transaction. A stale product
// version rolls everything back with database.ErrConflict.
func (r *Repository) CreateWithReservation(ctx context.Context, o *domain.Order, products []*catalog.Product, task *expiration.Task) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := updateProducts(ctx, tx, products); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, status, created_at, paid_at, version)
		VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.Status, o.CreatedAt, o.PaidAt, o.Version)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, line := range o.Lines {
		batch.Queue(`INSERT INTO order_lines (id, order_id, product_id, quantity)
			VALUES ($1,$2,$3,$4)`,
			line.ID, line.OrderID, line.ProductID, line.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO expiration_tasks (id, order_id, expiration_time, status, retry_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		task.ID, task.OrderID, task.ExpirationTime, task.Status, task.RetryCount, task.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Save persists a status transition and any released products as one
// version-checked transaction.
func (r *Repository) Save(ctx context.Context, o *domain.Order, products []*catalog.Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders SET status=$2, paid_at=$3, version=version+1
		WHERE id=$1 AND version=$4`,
		o.ID, o.Status, o.PaidAt, o.Version)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return database.ErrConflict
	}

	if err := updateProducts(ctx, tx, products); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.Version++
	return nil
}

func updateProducts(ctx context.Context, tx pgx.Tx, products []*catalog.Product) error {
	for _, p := range products {
		ct, err := tx.Exec(ctx, `UPDATE products
			SET stock_quantity=$2, version=version+1
			WHERE id=$1 AND version=$3`,
			p.ID, p.StockQuantity, p.Version)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return database.ErrConflict
		}
	}
	return nil
}
