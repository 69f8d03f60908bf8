package application

import (
	"context"

	"github.com/google/uuid"

	catalog "github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/internal/expiration"
	"github.com/shopworks/order-service/internal/order/domain"
)

// OrderRepository persists orders and their stock side effects. Both write
// methods are single transactions with version checks on every touched row;
// any version mismatch surfaces as database.ErrConflict with nothing
// applied.
type OrderRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// CreateWithReservation writes the updated products, the new order with
	// its lines, and the pending expiration task as one atomic unit.
	CreateWithReservation(ctx context.Context, o *domain.Order, products []*catalog.Product, task *expiration.Task) error
	// Save persists a status transition together with any released
	// products.
	Save(ctx context.Context, o *domain.Order, products []*catalog.Product) error
}

// ProductReader is the snapshot read the coordinator validates against.
type ProductReader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
}
