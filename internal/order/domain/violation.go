package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Violation is one reason an order cannot be created. All violations are
// collected before the reservation fails; nothing is mutated on failure.
type Violation interface {
	Message() string
}

type ProductNotFound struct {
	ProductID uuid.UUID
}

func (v ProductNotFound) Message() string {
	return fmt.Sprintf("product not found with id: %s", v.ProductID)
}

type InsufficientStock struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (v InsufficientStock) Message() string {
	return fmt.Sprintf("insufficient stock for product: %s (requested %d, available %d)",
		v.Name, v.Requested, v.Available)
}

// StockError aggregates every violation of one create attempt.
type StockError struct {
	Violations []Violation
}

func (e *StockError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message())
	}
	return strings.Join(msgs, "; ")
}
