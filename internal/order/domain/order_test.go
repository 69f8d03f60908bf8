package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPay_OnlyFromCreated(t *testing.T) {
	now := time.Now().UTC()
	o := NewOrder(now)

	if err := o.Pay(now); err != nil {
		t.Fatalf("Pay on CREATED failed: %v", err)
	}
	if o.Status != StatusPaid {
		t.Errorf("expected PAID, got %s", o.Status)
	}
	if o.PaidAt == nil || !o.PaidAt.Equal(now) {
		t.Errorf("expected PaidAt set to %v, got %v", now, o.PaidAt)
	}

	err := o.Pay(now)
	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if stateErr.Action != "paid" {
		t.Errorf("error must name the attempted action, got %q", stateErr.Action)
	}
}

func TestCancel_OnlyFromCreated(t *testing.T) {
	o := NewOrder(time.Now().UTC())
	if err := o.Cancel(); err != nil {
		t.Fatalf("Cancel on CREATED failed: %v", err)
	}
	if o.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", o.Status)
	}
	if err := o.Cancel(); err == nil {
		t.Error("expected error on second cancel")
	}
}

func TestExpire_NoOpOnTerminalStates(t *testing.T) {
	o := NewOrder(time.Now().UTC())
	if !o.Expire() {
		t.Fatal("Expire on CREATED must apply")
	}
	if o.Status != StatusExpired {
		t.Errorf("expected EXPIRED, got %s", o.Status)
	}
	if o.Expire() {
		t.Error("Expire on EXPIRED must be a no-op")
	}

	paid := NewOrder(time.Now().UTC())
	_ = paid.Pay(time.Now().UTC())
	if paid.Expire() {
		t.Error("Expire on PAID must be a no-op")
	}
	if paid.Status != StatusPaid {
		t.Errorf("status must remain PAID, got %s", paid.Status)
	}
}

func TestStockError_RendersAllViolations(t *testing.T) {
	missing := uuid.New()
	err := &StockError{Violations: []Violation{
		ProductNotFound{ProductID: missing},
		InsufficientStock{ProductID: uuid.New(), Name: "widget", Requested: 5, Available: 2},
	}}

	msg := err.Error()
	if !strings.Contains(msg, missing.String()) {
		t.Errorf("expected missing product id in %q", msg)
	}
	if !strings.Contains(msg, "widget") {
		t.Errorf("expected product name in %q", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("expected violations joined with semicolons in %q", msg)
	}
}
