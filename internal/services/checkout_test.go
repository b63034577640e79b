package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/models"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
)

func testCart() []models.LineItem {
	return []models.LineItem{
		{Name: "Reuben", UnitPriceCents: 1400, Quantity: 1, Modifiers: []string{"no pickle"}},
	}
}

func TestCreateSession_CreatesOrderBeforeSession(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	client := &fakePaymentClient{
		createdSession: &stripeapi.CheckoutSession{
			ID:            "cs_1",
			URL:           "https://pay.example.com/cs_1",
			PaymentIntent: &stripeapi.PaymentIntent{ID: "pi_1"},
		},
	}
	svc := NewCheckoutService(store, client, pricing.NewPricer(0.10, 0), "https://alscarryout.com", testLogger())

	result, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items:     testCart(),
		Source:    "kiosk",
		GuestName: "Sam",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ConfirmationID == "" || result.CheckoutURL != "https://pay.example.com/cs_1" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Totals.TotalCents != 1540 {
		t.Fatalf("total = %d, want 1540", result.Totals.TotalCents)
	}

	order, err := store.GetByConfirmationID(context.Background(), result.ConfirmationID)
	if err != nil {
		t.Fatalf("order was not persisted: %v", err)
	}
	if order.Status != db.StatusAwaitingPayment {
		t.Fatalf("status = %s, want AWAITING_PAYMENT", order.Status)
	}
	if order.CheckoutSessionID != "cs_1" || order.PaymentIntentID != "pi_1" {
		t.Fatalf("session was not attached: %+v", order)
	}

	if len(client.sessionParams) != 1 {
		t.Fatalf("expected one session creation, got %d", len(client.sessionParams))
	}
	params := client.sessionParams[0]
	if params.ConfirmationID != result.ConfirmationID {
		t.Fatalf("session metadata confirmation id mismatch: %s", params.ConfirmationID)
	}
	if params.TaxCents != 140 {
		t.Fatalf("session tax = %d, want 140", params.TaxCents)
	}
}

func TestCreateSession_BelowMinimumRejectsBeforePersisting(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	svc := NewCheckoutService(store, &fakePaymentClient{}, pricing.NewPricer(0.10, 2000), "https://alscarryout.com", testLogger())

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{Items: testCart()})
	var belowMin *pricing.BelowMinimumError
	if !errors.As(err, &belowMin) {
		t.Fatalf("expected BelowMinimumError, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("rejected cart should not create an order")
	}
}

func TestCreateSession_ProcessorFailureKeepsOrder(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	client := &fakePaymentClient{createSessionErr: errors.New("processor down")}
	svc := NewCheckoutService(store, client, pricing.NewPricer(0.10, 0), "https://alscarryout.com", testLogger())

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{Items: testCart()})
	var sessionErr *SessionCreationError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected SessionCreationError, got %v", err)
	}

	order, getErr := store.GetByConfirmationID(context.Background(), sessionErr.ConfirmationID)
	if getErr != nil {
		t.Fatalf("order should survive a processor failure: %v", getErr)
	}
	if order.Status != db.StatusAwaitingPayment {
		t.Fatalf("status = %s, want AWAITING_PAYMENT", order.Status)
	}
}

func TestCreateIntent_AssignsConfirmationNumber(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	client := &fakePaymentClient{
		createdIntent: &stripeapi.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"},
	}
	svc := NewCheckoutService(store, client, pricing.NewPricer(0.10, 0), "https://alscarryout.com", testLogger())

	result, err := svc.CreateIntent(context.Background(), CreateIntentInput{Items: testCart(), Source: "web"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ClientSecret != "pi_1_secret" {
		t.Fatalf("client secret = %q", result.ClientSecret)
	}
	if !regexp.MustCompile(`^\d{8}-\d{4}$`).MatchString(result.ConfirmationNumber) {
		t.Fatalf("confirmation number %q is not date-nnnn shaped", result.ConfirmationNumber)
	}

	order, err := store.GetByConfirmationID(context.Background(), result.ConfirmationNumber)
	if err != nil {
		t.Fatalf("order was not persisted: %v", err)
	}
	if order.PaymentIntentID != "pi_1" || order.Source != models.SourceWeb {
		t.Fatalf("unexpected order: %+v", order)
	}
}
