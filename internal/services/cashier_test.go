package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
)

func TestCashierCreateOrder(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	// Minimum-order policy must not apply at the register.
	svc := NewCashierService(store, pricing.NewPricer(0.10, 100_000), testLogger())

	order, err := svc.CreateOrder(context.Background(), CashierOrderInput{
		Items:     testCart(),
		Source:    "kiosk",
		GuestName: "Sam",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != db.StatusCashierPending {
		t.Fatalf("status = %s, want CASHIER_PENDING", order.Status)
	}
	if order.PaymentMethod != "cashier" {
		t.Fatalf("payment method = %q, want cashier", order.PaymentMethod)
	}
	if order.Paid {
		t.Fatal("cashier order must not be marked paid")
	}
	if order.TotalCents != 1540 {
		t.Fatalf("total = %d, want 1540", order.TotalCents)
	}
	if _, err := store.GetByConfirmationID(context.Background(), order.ConfirmationID); err != nil {
		t.Fatalf("order was not persisted: %v", err)
	}
}

func TestCashierConvertOrder(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	seedAwaiting(t, store, "conf-1", "cs_1")
	svc := NewCashierService(store, pricing.NewPricer(0.10, 0), testLogger())

	order, err := svc.ConvertOrder(context.Background(), "conf-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != db.StatusCashierPending || order.PaymentMethod != "cashier" {
		t.Fatalf("order not converted: %+v", order)
	}
	if len(store.orders) != 1 {
		t.Fatalf("conversion must not create a second row, have %d", len(store.orders))
	}

	// A second call is a no-op, not a failure.
	again, err := svc.ConvertOrder(context.Background(), "conf-1")
	if err != nil {
		t.Fatalf("repeat conversion errored: %v", err)
	}
	if again.Status != db.StatusCashierPending {
		t.Fatalf("unexpected status after repeat: %s", again.Status)
	}
}

func TestCashierConvertOrder_PaidOrderRejected(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	seedAwaiting(t, store, "conf-1", "cs_1")
	store.orders["conf-1"].Status = db.StatusPaid
	store.orders["conf-1"].Paid = true
	svc := NewCashierService(store, pricing.NewPricer(0.10, 0), testLogger())

	_, err := svc.ConvertOrder(context.Background(), "conf-1")
	if !errors.Is(err, ErrOrderNotConvertible) {
		t.Fatalf("expected ErrOrderNotConvertible, got %v", err)
	}
	if store.orders["conf-1"].Status != db.StatusPaid {
		t.Fatal("paid order must not regress")
	}
}

func TestCashierConvertOrder_UnknownOrder(t *testing.T) {
	t.Parallel()

	svc := NewCashierService(newFakeOrderStore(), pricing.NewPricer(0.10, 0), testLogger())
	_, err := svc.ConvertOrder(context.Background(), "no-such-order")
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestCashierCreateOrder_EmptyCart(t *testing.T) {
	t.Parallel()

	svc := NewCashierService(newFakeOrderStore(), pricing.NewPricer(0.10, 0), testLogger())
	_, err := svc.CreateOrder(context.Background(), CashierOrderInput{})
	if !errors.Is(err, pricing.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}
