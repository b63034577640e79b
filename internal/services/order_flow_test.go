package services

import (
	"context"
	"fmt"
	"testing"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
)

// One order carried through the whole happy path: session creation,
// the completion event from the processor, and the kiosk's status poll.
func TestOrderLifecycle_CheckoutToPaidPoll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeOrderStore()
	client := &fakePaymentClient{
		createdSession: &stripeapi.CheckoutSession{
			ID:  "cs_reuben",
			URL: "https://pay.example.com/cs_reuben",
		},
	}
	checkout := NewCheckoutService(store, client, pricing.NewPricer(0.10, 0), "https://alscarryout.com", testLogger())
	payments := NewPaymentService(store, client, testLogger())
	status := NewStatusService(store, client, testLogger())

	created, err := checkout.CreateSession(ctx, CreateSessionInput{
		Items:     testCart(),
		Source:    "kiosk",
		GuestName: "Sam",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if created.Totals.TotalCents != 1540 {
		t.Fatalf("total = %d, want 1540", created.Totals.TotalCents)
	}

	order, err := store.GetByConfirmationID(ctx, created.ConfirmationID)
	if err != nil {
		t.Fatalf("order not visible before payment: %v", err)
	}
	if order.Status != db.StatusAwaitingPayment || order.Paid {
		t.Fatalf("fresh order must await payment: %+v", order)
	}

	pre, err := status.Resolve(ctx, created.ConfirmationID)
	if err != nil {
		t.Fatalf("poll before payment: %v", err)
	}
	if pre.Paid || pre.Status != db.StatusAwaitingPayment {
		t.Fatalf("unpaid order polled as %+v", pre)
	}

	client.retrievedSession = reubenSession(created.ConfirmationID)
	payload := fmt.Sprintf(`{"id":"cs_reuben","metadata":{"confirmation_id":%q}}`, created.ConfirmationID)
	if err := payments.HandleCheckoutSessionCompleted(ctx, []byte(payload)); err != nil {
		t.Fatalf("completion event: %v", err)
	}

	order, err = store.GetByConfirmationID(ctx, created.ConfirmationID)
	if err != nil {
		t.Fatalf("order lost after payment: %v", err)
	}
	if order.Status != db.StatusPaid || !order.Paid {
		t.Fatalf("order not paid after event: %+v", order)
	}
	if order.PaymentIntentID != "pi_reuben" {
		t.Fatalf("payment intent not attached: %q", order.PaymentIntentID)
	}
	if order.TotalCents != 1540 || order.SubtotalCents != 1400 || order.TaxCents != 140 {
		t.Fatalf("authoritative totals not recorded: %+v", order)
	}

	post, err := status.Resolve(ctx, created.ConfirmationID)
	if err != nil {
		t.Fatalf("poll after payment: %v", err)
	}
	if !post.Paid || post.Status != db.StatusPaid {
		t.Fatalf("paid order polled as %+v", post)
	}
}
