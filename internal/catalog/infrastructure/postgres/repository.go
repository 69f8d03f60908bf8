package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/pkg/database"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO products (id, name, price_cents, stock_quantity, version)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Name, p.PriceCents, p.StockQuantity, p.Version)
	return mapPgError(err, p.Name)
}

func (r *Repository) CreateAll(ctx context.Context, ps []*domain.Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for _, p := range ps {
		batch.Queue(`INSERT INTO products (id, name, price_cents, stock_quantity, version)
			VALUES ($1,$2,$3,$4,$5)`,
			p.ID, p.Name, p.PriceCents, p.StockQuantity, p.Version)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err, "")
	}
	return tx.Commit(ctx)
}

func (r *Repository) Update(ctx context.Context, p *domain.Product) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products
		SET name=$2, price_cents=$3, stock_quantity=$4, version=version+1
		WHERE id=$1 AND version=$5`,
		p.ID, p.Name, p.PriceCents, p.StockQuantity, p.Version)
	if err != nil {
		return mapPgError(err, p.Name)
	}
	if ct.RowsAffected() == 0 {
		return database.ErrConflict
	}
	p.Version++
	return nil
}

func (r *Repository) UpdateAll(ctx context.Context, ps []*domain.Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, p := range ps {
		ct, err := tx.Exec(ctx, `UPDATE products
			SET name=$2, price_cents=$3, stock_quantity=$4, version=version+1
			WHERE id=$1 AND version=$5`,
			p.ID, p.Name, p.PriceCents, p.StockQuantity, p.Version)
		if err != nil {
			return mapPgError(err, p.Name)
		}
		if ct.RowsAffected() == 0 {
			return database.ErrConflict
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	for _, p := range ps {
		p.Version++
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return mapPgError(err, "")
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteAll(ctx context.Context, ids []uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = ANY($1)`, ids)
	return mapPgError(err, "")
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, price_cents, stock_quantity, version
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.StockQuantity, &p.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns the products that exist, keyed by id, in one snapshot
// read. Missing ids are simply absent from the map.
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price_cents, stock_quantity, version
		FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.StockQuantity, &p.Version); err != nil {
			return nil, err
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price_cents, stock_quantity, version
		FROM products ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.StockQuantity, &p.Version); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *Repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE name=$1)`, name).Scan(&exists)
	return exists, err
}

func (r *Repository) NamesInUse(ctx context.Context, names []string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM products WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func mapPgError(err error, name string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &domain.DuplicateNameError{Name: name}
		case pgForeignKeyViolation:
			return domain.ErrProductInUse
		}
	}
	return err
}
