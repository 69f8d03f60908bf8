package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Product is the inventory unit. StockQuantity only changes through
// reservation and release on the order side; it never goes below zero.
// Version backs the optimistic concurrency check on every write.
type Product struct {
	ID            uuid.UUID
	Name          string
	PriceCents    int64
	StockQuantity int
	Version       int64
}

func NewProduct(name string, priceCents int64, stockQuantity int) (*Product, error) {
	if name == "" {
		return nil, &ValidationError{Msg: "product name must not be empty"}
	}
	if priceCents < 0 {
		return nil, &ValidationError{Msg: "product price must not be negative"}
	}
	if stockQuantity < 0 {
		return nil, &ValidationError{Msg: "stock quantity must not be negative"}
	}
	return &Product{
		ID:            uuid.New(),
		Name:          name,
		PriceCents:    priceCents,
		StockQuantity: stockQuantity,
		Version:       1,
	}, nil
}

// ErrProductInUse reports a delete attempt on a product still referenced by
// order lines.
var ErrProductInUse = errors.New("product is referenced by existing orders")

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("product already exists with name: %s", e.Name)
}
