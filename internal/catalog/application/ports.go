package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/shopworks/order-service/internal/catalog/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	CreateAll(ctx context.Context, ps []*domain.Product) error
	// Update, UpdateAll and Delete perform version-checked writes and return
	// database.ErrConflict when a row changed since it was read. UpdateAll is
	// a single transaction; one stale row rolls back the whole batch.
	Update(ctx context.Context, p *domain.Product) error
	UpdateAll(ctx context.Context, ps []*domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context, ids []uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	NamesInUse(ctx context.Context, names []string) ([]string, error)
}
