package services

import (
	"context"
	"errors"
	"testing"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
)

func seedPaid(t *testing.T, store *fakeOrderStore, confirmationID, paymentIntentID string) {
	t.Helper()
	order := &db.Order{
		ConfirmationID:  confirmationID,
		Status:          db.StatusPaid,
		Paid:            true,
		TotalCents:      1540,
		PaymentIntentID: paymentIntentID,
	}
	if err := store.Create(context.Background(), order); err != nil {
		t.Fatal(err)
	}
}

func TestProcessRefund_RefundsAndRecords(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	seedPaid(t, store, "conf-1", "pi_1")
	client := &fakePaymentClient{
		refund: &stripeapi.Refund{ID: "re_1", Status: stripeapi.RefundStatusSucceeded},
	}
	svc := NewRefundService(store, client, testLogger())

	result, err := svc.ProcessRefund(context.Background(), RefundInput{PaymentIntentID: "pi_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RefundID != "re_1" || !result.Matched {
		t.Fatalf("unexpected result: %+v", result)
	}

	order, _ := store.GetByConfirmationID(context.Background(), "conf-1")
	if order.Status != db.StatusRefunded || order.RefundID != "re_1" {
		t.Fatalf("refund was not recorded: %+v", order)
	}
	if order.RefundDate.IsZero() {
		t.Fatal("refund date was not set")
	}
}

func TestProcessRefund_SecondRefundIsRejected(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	seedPaid(t, store, "conf-1", "pi_1")
	client := &fakePaymentClient{
		refund: &stripeapi.Refund{ID: "re_1", Status: stripeapi.RefundStatusSucceeded},
	}
	svc := NewRefundService(store, client, testLogger())

	if _, err := svc.ProcessRefund(context.Background(), RefundInput{PaymentIntentID: "pi_1"}); err != nil {
		t.Fatalf("first refund failed: %v", err)
	}
	if _, err := svc.ProcessRefund(context.Background(), RefundInput{PaymentIntentID: "pi_1"}); err == nil {
		t.Fatal("second refund should be rejected")
	}
	if client.refundCalls != 1 {
		t.Fatalf("processor refund called %d times, want 1", client.refundCalls)
	}
}

func TestProcessRefund_UnmatchedOrderStillSucceeds(t *testing.T) {
	t.Parallel()

	client := &fakePaymentClient{
		refund: &stripeapi.Refund{ID: "re_1", Status: stripeapi.RefundStatusSucceeded},
	}
	svc := NewRefundService(newFakeOrderStore(), client, testLogger())

	result, err := svc.ProcessRefund(context.Background(), RefundInput{PaymentIntentID: "pi_ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Matched {
		t.Fatal("no order should have matched")
	}
}

func TestProcessRefund_ProcessorFailure(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	seedPaid(t, store, "conf-1", "pi_1")
	client := &fakePaymentClient{refundErr: errors.New("processor down")}
	svc := NewRefundService(store, client, testLogger())

	if _, err := svc.ProcessRefund(context.Background(), RefundInput{PaymentIntentID: "pi_1"}); err == nil {
		t.Fatal("expected error when the processor refuses the refund")
	}

	order, _ := store.GetByConfirmationID(context.Background(), "conf-1")
	if order.Status != db.StatusPaid {
		t.Fatalf("order must stay PAID after a failed refund, got %s", order.Status)
	}
}
