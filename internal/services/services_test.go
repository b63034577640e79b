package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/stripe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOrderStore struct {
	orders    map[string]*db.Order
	nextID    int64
	createErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*db.Order)}
}

func (f *fakeOrderStore) Create(_ context.Context, order *db.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.orders[order.ConfirmationID]; ok {
		return fmt.Errorf("duplicate confirmation id: %s", order.ConfirmationID)
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	stored := *order
	f.orders[order.ConfirmationID] = &stored
	return nil
}

func (f *fakeOrderStore) GetByConfirmationID(_ context.Context, confirmationID string) (*db.Order, error) {
	if order, ok := f.orders[confirmationID]; ok {
		return order, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOrderStore) GetBySessionID(_ context.Context, sessionID string) (*db.Order, error) {
	for _, order := range f.orders {
		if order.CheckoutSessionID == sessionID && sessionID != "" {
			return order, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOrderStore) GetByPaymentIntentID(_ context.Context, paymentIntentID string) (*db.Order, error) {
	for _, order := range f.orders {
		if order.PaymentIntentID == paymentIntentID && paymentIntentID != "" {
			return order, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOrderStore) AttachCheckoutSession(_ context.Context, confirmationID, sessionID, paymentIntentID string) error {
	order, ok := f.orders[confirmationID]
	if !ok {
		return pgx.ErrNoRows
	}
	order.CheckoutSessionID = sessionID
	if paymentIntentID != "" {
		order.PaymentIntentID = paymentIntentID
	}
	return nil
}

func (f *fakeOrderStore) AttachPaymentIntent(_ context.Context, confirmationID, paymentIntentID string) error {
	order, ok := f.orders[confirmationID]
	if !ok {
		return pgx.ErrNoRows
	}
	order.PaymentIntentID = paymentIntentID
	return nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, params db.MarkPaidParams) (bool, error) {
	order, ok := f.orders[params.ConfirmationID]
	if !ok {
		return false, nil
	}
	if order.Status != db.StatusAwaitingPayment && order.Status != db.StatusPaid {
		return false, nil
	}
	order.Status = db.StatusPaid
	order.Paid = true
	order.PaymentIntentID = params.PaymentIntentID
	if params.SessionID != "" {
		order.CheckoutSessionID = params.SessionID
	}
	order.Items = params.Items
	order.OrderSummary = params.OrderSummary
	order.SubtotalCents = params.SubtotalCents
	order.TaxCents = params.TaxCents
	order.TotalCents = params.TotalCents
	order.PaymentMethod = params.PaymentMethod
	return true, nil
}

func (f *fakeOrderStore) MarkCashierPending(_ context.Context, confirmationID string) (bool, error) {
	order, ok := f.orders[confirmationID]
	if !ok || order.Status != db.StatusAwaitingPayment {
		return false, nil
	}
	order.Status = db.StatusCashierPending
	order.PaymentMethod = "cashier"
	return true, nil
}

func (f *fakeOrderStore) MarkRefunded(_ context.Context, paymentIntentID, refundID string) (bool, error) {
	for _, order := range f.orders {
		if order.PaymentIntentID != paymentIntentID || paymentIntentID == "" {
			continue
		}
		if order.Status != db.StatusPaid || order.RefundID != "" {
			return false, nil
		}
		order.Status = db.StatusRefunded
		order.RefundID = refundID
		order.RefundDate = time.Now()
		return true, nil
	}
	return false, nil
}

type fakePaymentClient struct {
	createdSession   *stripeapi.CheckoutSession
	createSessionErr error
	sessionParams    []stripe.CheckoutSessionParams

	retrievedSession *stripeapi.CheckoutSession
	retrieveErr      error

	createdIntent   *stripeapi.PaymentIntent
	createIntentErr error

	intent       *stripeapi.PaymentIntent
	getIntentErr error

	method *stripeapi.PaymentMethod

	refund      *stripeapi.Refund
	refundErr   error
	refundCalls int
}

func (f *fakePaymentClient) CreateCheckoutSession(_ context.Context, params stripe.CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	f.sessionParams = append(f.sessionParams, params)
	if f.createSessionErr != nil {
		return nil, f.createSessionErr
	}
	return f.createdSession, nil
}

func (f *fakePaymentClient) GetCheckoutSession(_ context.Context, sessionID string, _ bool) (*stripeapi.CheckoutSession, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	if f.retrievedSession == nil || f.retrievedSession.ID != sessionID {
		return nil, fmt.Errorf("no such session: %s", sessionID)
	}
	return f.retrievedSession, nil
}

func (f *fakePaymentClient) CreatePaymentIntent(_ context.Context, _ stripe.PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
	if f.createIntentErr != nil {
		return nil, f.createIntentErr
	}
	return f.createdIntent, nil
}

func (f *fakePaymentClient) GetPaymentIntent(_ context.Context, paymentIntentID string) (*stripeapi.PaymentIntent, error) {
	if f.getIntentErr != nil {
		return nil, f.getIntentErr
	}
	if f.intent == nil || f.intent.ID != paymentIntentID {
		return nil, fmt.Errorf("no such intent: %s", paymentIntentID)
	}
	return f.intent, nil
}

func (f *fakePaymentClient) GetPaymentMethod(_ context.Context, paymentMethodID string) (*stripeapi.PaymentMethod, error) {
	if f.method == nil || f.method.ID != paymentMethodID {
		return nil, fmt.Errorf("no such payment method: %s", paymentMethodID)
	}
	return f.method, nil
}

func (f *fakePaymentClient) CreateRefund(_ context.Context, _ stripe.RefundParams) (*stripeapi.Refund, error) {
	f.refundCalls++
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return f.refund, nil
}
