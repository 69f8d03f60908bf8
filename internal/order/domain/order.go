package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Order holds reserved stock while in CREATED. Every other status is
// terminal; exactly one terminal transition wins, enforced by the version
// check at persist time.
type Order struct {
	ID        uuid.UUID
	Status    Status
	CreatedAt time.Time
	PaidAt    *time.Time
	Lines     []OrderLine
	Version   int64
}

// OrderLine records the original reservation of one request item. It is
// never mutated after creation so a release can always restore stock
// exactly.
type OrderLine struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

func NewOrder(now time.Time) *Order {
	return &Order{
		ID:        uuid.New(),
		Status:    StatusCreated,
		CreatedAt: now,
		Version:   1,
	}
}

func (o *Order) AddLine(productID uuid.UUID, quantity int) {
	o.Lines = append(o.Lines, OrderLine{
		ID:        uuid.New(),
		OrderID:   o.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// Pay moves CREATED to PAID and stamps PaidAt. Reserved stock stays held.
func (o *Order) Pay(now time.Time) error {
	if o.Status != StatusCreated {
		return &StateError{Action: "paid", Status: o.Status}
	}
	o.Status = StatusPaid
	o.PaidAt = &now
	return nil
}

// Cancel moves CREATED to CANCELLED. The caller releases the stock.
func (o *Order) Cancel() error {
	if o.Status != StatusCreated {
		return &StateError{Action: "cancelled", Status: o.Status}
	}
	o.Status = StatusCancelled
	return nil
}

// Expire moves CREATED to EXPIRED and reports whether the transition
// applied. A non-CREATED order is not an error: expiration events are
// delayed and may lose the race against Pay or Cancel.
func (o *Order) Expire() bool {
	if o.Status != StatusCreated {
		return false
	}
	o.Status = StatusExpired
	return true
}

// StateError rejects a terminal transition attempted on an order that is no
// longer CREATED.
type StateError struct {
	Action string
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("only %s orders can be %s, current status is %s", StatusCreated, e.Action, e.Status)
}
