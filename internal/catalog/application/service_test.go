package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/pkg/database"
)

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]domain.Product)}
}

func (m *memProductRepo) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.Name == p.Name {
			return &domain.DuplicateNameError{Name: p.Name}
		}
	}
	m.products[p.ID] = *p
	return nil
}

func (m *memProductRepo) CreateAll(ctx context.Context, ps []*domain.Product) error {
	for _, p := range ps {
		if err := m.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *memProductRepo) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, database.ErrNotFound)
	}
	if stored.Version != p.Version {
		return database.ErrConflict
	}
	cp := *p
	cp.Version++
	m.products[p.ID] = cp
	p.Version++
	return nil
}

func (m *memProductRepo) UpdateAll(_ context.Context, ps []*domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range ps {
		stored, ok := m.products[p.ID]
		if !ok {
			return fmt.Errorf("product %s: %w", p.ID, database.ErrNotFound)
		}
		if stored.Version != p.Version {
			return database.ErrConflict
		}
	}
	for _, p := range ps {
		cp := *p
		cp.Version++
		m.products[p.ID] = cp
		p.Version++
	}
	return nil
}

func (m *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, database.ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *memProductRepo) DeleteAll(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.products, id)
	}
	return nil
}

func (m *memProductRepo) Get(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, database.ErrNotFound)
	}
	cp := p
	return &cp, nil
}

func (m *memProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*domain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memProductRepo) List(_ context.Context, limit, offset int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memProductRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memProductRepo) NamesInUse(_ context.Context, names []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range names {
		for _, p := range m.products {
			if p.Name == n {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

func newTestService() (*Service, *memProductRepo) {
	repo := newMemProductRepo()
	return NewService(slog.New(slog.DiscardHandler), repo), repo
}

func TestCreateProduct_RejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, CreateProductInput{Name: "widget", PriceCents: 100, StockQuantity: 5}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "widget", PriceCents: 200, StockQuantity: 1})
	var dup *domain.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if dup.Name != "widget" {
		t.Errorf("expected offending name reported, got %q", dup.Name)
	}
}

func TestCreateProduct_RejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []CreateProductInput{
		{Name: "", PriceCents: 100, StockQuantity: 1},
		{Name: "neg-price", PriceCents: -1, StockQuantity: 1},
		{Name: "neg-stock", PriceCents: 100, StockQuantity: -1},
	}
	for _, in := range cases {
		var validationErr *domain.ValidationError
		if _, err := svc.CreateProduct(ctx, in); !errors.As(err, &validationErr) {
			t.Errorf("input %+v: expected validation error, got %v", in, err)
		}
	}
}

func TestCreateProducts_RejectsDuplicateWithinBatch(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.CreateProducts(ctx, []CreateProductInput{
		{Name: "a", PriceCents: 1, StockQuantity: 1},
		{Name: "a", PriceCents: 2, StockQuantity: 2},
	})
	var dup *domain.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if len(repo.products) != 0 {
		t.Errorf("nothing must be created on batch rejection")
	}
}

func TestCreateProducts_RejectsNameTakenInStore(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, CreateProductInput{Name: "taken", PriceCents: 1, StockQuantity: 1}); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	_, err := svc.CreateProducts(ctx, []CreateProductInput{
		{Name: "fresh", PriceCents: 1, StockQuantity: 1},
		{Name: "taken", PriceCents: 1, StockQuantity: 1},
	})
	var dup *domain.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
}

func TestUpdateProduct_PartialFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "gadget", PriceCents: 500, StockQuantity: 3})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newPrice := int64(750)
	updated, err := svc.UpdateProduct(ctx, UpdateProductInput{ID: p.ID, PriceCents: &newPrice})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.PriceCents != 750 {
		t.Errorf("expected price updated, got %d", updated.PriceCents)
	}
	if updated.Name != "gadget" || updated.StockQuantity != 3 {
		t.Errorf("untouched fields must be preserved, got %+v", updated)
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	svc, _ := newTestService()
	name := "ghost"
	_, err := svc.UpdateProduct(context.Background(), UpdateProductInput{ID: uuid.New(), Name: &name})
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestUpdateProducts_AppliesBatch(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p1, err := svc.CreateProduct(ctx, CreateProductInput{Name: "mouse", PriceCents: 100, StockQuantity: 5})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	p2, err := svc.CreateProduct(ctx, CreateProductInput{Name: "pad", PriceCents: 50, StockQuantity: 20})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newPrice := int64(120)
	newStock := 15
	updated, err := svc.UpdateProducts(ctx, []UpdateProductInput{
		{ID: p1.ID, PriceCents: &newPrice},
		{ID: p2.ID, StockQuantity: &newStock},
	})
	if err != nil {
		t.Fatalf("batch update failed: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated products, got %d", len(updated))
	}
	if got := repo.products[p1.ID]; got.PriceCents != 120 || got.Name != "mouse" {
		t.Errorf("expected price updated and name preserved, got %+v", got)
	}
	if got := repo.products[p2.ID]; got.StockQuantity != 15 || got.PriceCents != 50 {
		t.Errorf("expected stock updated and price preserved, got %+v", got)
	}
}

func TestUpdateProducts_RejectsDuplicateIDs(t *testing.T) {
	svc, _ := newTestService()
	id := uuid.New()
	name := "twice"
	_, err := svc.UpdateProducts(context.Background(), []UpdateProductInput{
		{ID: id, Name: &name},
		{ID: id, Name: &name},
	})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected validation error for duplicate ids, got %v", err)
	}
}

func TestUpdateProducts_AllOrNothingOnMissing(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "intact", PriceCents: 100, StockQuantity: 5})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newPrice := int64(999)
	_, err = svc.UpdateProducts(ctx, []UpdateProductInput{
		{ID: p.ID, PriceCents: &newPrice},
		{ID: uuid.New(), PriceCents: &newPrice},
	})
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if got := repo.products[p.ID]; got.PriceCents != 100 {
		t.Errorf("existing product must be untouched on batch rejection, got %+v", got)
	}
}

func TestUpdateProducts_RejectsNameCollision(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p1, err := svc.CreateProduct(ctx, CreateProductInput{Name: "first", PriceCents: 1, StockQuantity: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.CreateProduct(ctx, CreateProductInput{Name: "second", PriceCents: 1, StockQuantity: 1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	taken := "second"
	_, err = svc.UpdateProducts(ctx, []UpdateProductInput{{ID: p1.ID, Name: &taken}})
	var dup *domain.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
}

func TestDeleteProducts_RejectsDuplicateIDs(t *testing.T) {
	svc, _ := newTestService()
	id := uuid.New()
	err := svc.DeleteProducts(context.Background(), []uuid.UUID{id, id})
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected validation error for duplicate ids, got %v", err)
	}
}

func TestDeleteProducts_AllOrNothingOnMissing(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateProductInput{Name: "keep", PriceCents: 1, StockQuantity: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = svc.DeleteProducts(ctx, []uuid.UUID{p.ID, uuid.New()})
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, ok := repo.products[p.ID]; !ok {
		t.Error("existing product must survive a rejected batch delete")
	}
}
