package services

import (
	"context"
	"testing"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
)

func TestResolve_FindsOrderByConfirmationID(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	seedAwaiting(t, store, "conf-1", "cs_1")
	store.orders["conf-1"].Status = db.StatusPaid
	store.orders["conf-1"].Paid = true
	svc := NewStatusService(store, &fakePaymentClient{}, testLogger())

	result, err := svc.Resolve(context.Background(), "conf-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found || !result.Paid || result.Status != db.StatusPaid {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Order == nil || result.Order.ConfirmationID != "conf-1" {
		t.Fatalf("order details missing: %+v", result)
	}
}

func TestResolve_FindsOrderBySessionID(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	seedAwaiting(t, store, "conf-1", "cs_1")
	svc := NewStatusService(store, &fakePaymentClient{}, testLogger())

	result, err := svc.Resolve(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found || result.Status != db.StatusAwaitingPayment {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResolve_SessionFallbackBeatsWebhookLag(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	client := &fakePaymentClient{
		retrievedSession: &stripeapi.CheckoutSession{
			ID:            "cs_late",
			PaymentStatus: stripeapi.CheckoutSessionPaymentStatusPaid,
		},
	}
	svc := NewStatusService(store, client, testLogger())

	result, err := svc.Resolve(context.Background(), "cs_late")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Fatal("no stored order should be reported")
	}
	if !result.Paid || result.Status != db.StatusPaid {
		t.Fatalf("processor-paid session not reflected: %+v", result)
	}
}

func TestResolve_UnknownIdentifierIsPending(t *testing.T) {
	t.Parallel()

	svc := NewStatusService(newFakeOrderStore(), &fakePaymentClient{}, testLogger())

	result, err := svc.Resolve(context.Background(), "no-such-order")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found || result.Paid || result.Status != db.StatusAwaitingPayment {
		t.Fatalf("unknown id should resolve to pending: %+v", result)
	}
}

func TestResolve_BlankIdentifierIsAnError(t *testing.T) {
	t.Parallel()

	svc := NewStatusService(newFakeOrderStore(), &fakePaymentClient{}, testLogger())
	if _, err := svc.Resolve(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank identifier")
	}
}
