package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/pkg/database"
)

type Service struct {
	log  *slog.Logger
	repo ProductRepository
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo}
}

type CreateProductInput struct {
	Name          string
	PriceCents    int64
	StockQuantity int
}

type UpdateProductInput struct {
	ID            uuid.UUID
	Name          *string
	PriceCents    *int64
	StockQuantity *int
}

func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	p, err := domain.NewProduct(in.Name, in.PriceCents, in.StockQuantity)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByName(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.DuplicateNameError{Name: p.Name}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// CreateProducts creates a batch atomically. Duplicate names within the batch
// or against existing products reject the whole batch.
func (s *Service) CreateProducts(ctx context.Context, ins []CreateProductInput) ([]*domain.Product, error) {
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.Name)
	}
	if err := s.checkNames(ctx, names); err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(ins))
	for _, in := range ins {
		p, err := domain.NewProduct(in.Name, in.PriceCents, in.StockQuantity)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := s.repo.CreateAll(ctx, products); err != nil {
		return nil, err
	}
	s.log.Info("products created", "count", len(products))
	return products, nil
}

func (s *Service) UpdateProduct(ctx context.Context, in UpdateProductInput) (*domain.Product, error) {
	p, err := s.repo.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && *in.Name != p.Name {
		exists, err := s.repo.ExistsByName(ctx, *in.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &domain.DuplicateNameError{Name: *in.Name}
		}
		p.Name = *in.Name
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, &domain.ValidationError{Msg: "product price must not be negative"}
		}
		p.PriceCents = *in.PriceCents
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return nil, &domain.ValidationError{Msg: "stock quantity must not be negative"}
		}
		p.StockQuantity = *in.StockQuantity
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product updated", "product_id", p.ID)
	return p, nil
}

// UpdateProducts applies a batch of partial updates atomically. Duplicate ids
// within the batch, an unknown id, or a name collision reject the whole batch
// with nothing applied.
func (s *Service) UpdateProducts(ctx context.Context, ins []UpdateProductInput) ([]*domain.Product, error) {
	seen := make(map[uuid.UUID]struct{}, len(ins))
	ids := make([]uuid.UUID, 0, len(ins))
	for _, in := range ins {
		if _, dup := seen[in.ID]; dup {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("duplicate product id in batch: %s", in.ID)}
		}
		seen[in.ID] = struct{}{}
		ids = append(ids, in.ID)
	}
	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("product %s: %w", id, database.ErrNotFound)
		}
	}

	var renames []string
	updated := make([]*domain.Product, 0, len(ins))
	for _, in := range ins {
		p := found[in.ID]
		if in.Name != nil && *in.Name != p.Name {
			renames = append(renames, *in.Name)
			p.Name = *in.Name
		}
		if in.PriceCents != nil {
			if *in.PriceCents < 0 {
				return nil, &domain.ValidationError{Msg: "product price must not be negative"}
			}
			p.PriceCents = *in.PriceCents
		}
		if in.StockQuantity != nil {
			if *in.StockQuantity < 0 {
				return nil, &domain.ValidationError{Msg: "stock quantity must not be negative"}
			}
			p.StockQuantity = *in.StockQuantity
		}
		updated = append(updated, p)
	}
	if len(renames) > 0 {
		if err := s.checkNames(ctx, renames); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateAll(ctx, updated); err != nil {
		return nil, err
	}
	s.log.Info("products updated", "count", len(updated))
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id)
	return nil
}

func (s *Service) DeleteProducts(ctx context.Context, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return &domain.ValidationError{Msg: fmt.Sprintf("duplicate product id in batch: %s", id)}
		}
		seen[id] = struct{}{}
	}
	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("product %s: %w", id, database.ErrNotFound)
		}
	}
	if err := s.repo.DeleteAll(ctx, ids); err != nil {
		return err
	}
	s.log.Info("products deleted", "count", len(ids))
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) checkNames(ctx context.Context, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return &domain.DuplicateNameError{Name: n}
		}
		seen[n] = struct{}{}
	}
	taken, err := s.repo.NamesInUse(ctx, names)
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return &domain.DuplicateNameError{Name: taken[0]}
	}
	return nil
}
