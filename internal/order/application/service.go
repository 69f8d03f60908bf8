package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalog "github.com/shopworks/order-service/internal/catalog/domain"
	"github.com/shopworks/order-service/internal/expiration"
	"github.com/shopworks/order-service/internal/order/domain"
	"github.com/shopworks/order-service/pkg/clock"
	"github.com/shopworks/order-service/pkg/database"
	"github.com/shopworks/order-service/pkg/retry"
)

// OrderItem is one requested (product, quantity) pair. The same product may
// appear in several items; requested quantities are summed against a single
// fetched instance.
type OrderItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type Service struct {
	log      *slog.Logger
	orders   OrderRepository
	products ProductReader
	clock    clock.Clock
	retry    retry.Policy
	window   time.Duration
}

func NewService(log *slog.Logger, orders OrderRepository, products ProductReader, clk clock.Clock, window time.Duration) *Service {
	return &Service{
		log:      log,
		orders:   orders,
		products: products,
		clock:    clk,
		retry:    retry.Default(log),
		window:   window,
	}
}

// CreateOrder validates and reserves stock for every item, then persists the
// order, its lines, the decremented products and the pending expiration task
// atomically. All violations are collected before failing; a conflict at
// persist time re-runs the whole unit against fresh state.
func (s *Service) CreateOrder(ctx context.Context, items []OrderItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, &catalog.ValidationError{Msg: "order must contain at least one item"}
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, &catalog.ValidationError{Msg: fmt.Sprintf("quantity for product %s must be at least 1", item.ProductID)}
		}
	}

	var created *domain.Order
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		o, err := s.createOnce(ctx, items)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order created", "order_id", created.ID, "lines", len(created.Lines))
	return created, nil
}

func (s *Service) createOnce(ctx context.Context, items []OrderItem) (*domain.Order, error) {
	ids := uniqueProductIDs(items)
	productMap, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	required := make(map[uuid.UUID]int, len(ids))
	for _, item := range items {
		required[item.ProductID] += item.Quantity
	}

	var violations []domain.Violation
	for _, id := range ids {
		p, ok := productMap[id]
		if !ok {
			violations = append(violations, domain.ProductNotFound{ProductID: id})
			continue
		}
		if p.StockQuantity < required[id] {
			violations = append(violations, domain.InsufficientStock{
				ProductID: id,
				Name:      p.Name,
				Requested: required[id],
				Available: p.StockQuantity,
			})
		}
	}
	if len(violations) > 0 {
		return nil, &domain.StockError{Violations: violations}
	}

	now := s.clock.Now()
	order := domain.NewOrder(now)
	for _, item := range items {
		order.AddLine(item.ProductID, item.Quantity)
	}

	reserved := make([]*catalog.Product, 0, len(ids))
	for _, id := range ids {
		p := productMap[id]
		p.StockQuantity -= required[id]
		reserved = append(reserved, p)
	}

	task := expiration.NewTask(order.ID, now.Add(s.window))
	if err := s.orders.CreateWithReservation(ctx, order, reserved, task); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// PayOrder marks a CREATED order as PAID. Stock stays reserved.
func (s *Service) PayOrder(ctx context.Context, id uuid.UUID) error {
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := o.Pay(s.clock.Now()); err != nil {
			return err
		}
		return s.orders.Save(ctx, o, nil)
	})
	if err != nil {
		return err
	}
	s.log.Info("order paid", "order_id", id)
	return nil
}

// CancelOrder moves a CREATED order to CANCELLED and releases its stock.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID) error {
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		released, err := s.releaseStock(ctx, o)
		if err != nil {
			return err
		}
		return s.orders.Save(ctx, o, released)
	})
	if err != nil {
		return err
	}
	s.log.Info("order cancelled and stock released", "order_id", id)
	return nil
}

// ExpireOrder moves a CREATED order to EXPIRED and releases its stock. An
// order already in a terminal state is skipped without error: the expiration
// event was simply too late.
func (s *Service) ExpireOrder(ctx context.Context, id uuid.UUID) error {
	return s.retry.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, id)
		if err != nil {
			return err
		}
		if !o.Expire() {
			s.log.Info("order already processed, skipping expiration", "order_id", id, "status", o.Status)
			return nil
		}
		released, err := s.releaseStock(ctx, o)
		if err != nil {
			return err
		}
		if err := s.orders.Save(ctx, o, released); err != nil {
			return err
		}
		s.log.Info("order expired and stock released", "order_id", id)
		return nil
	})
}

// releaseStock restores, per line, exactly the quantity reserved at creation
// time.
func (s *Service) releaseStock(ctx context.Context, o *domain.Order) ([]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(o.Lines))
	for _, line := range o.Lines {
		ids = append(ids, line.ProductID)
	}
	productMap, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	released := make([]*catalog.Product, 0, len(productMap))
	seen := make(map[uuid.UUID]bool, len(productMap))
	for _, line := range o.Lines {
		p, ok := productMap[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, database.ErrNotFound)
		}
		p.StockQuantity += line.Quantity
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			released = append(released, p)
		}
	}
	return released, nil
}

func uniqueProductIDs(items []OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
