// Package services holds the order-flow business logic: checkout session
// creation, webhook-driven payment confirmation, status resolution, the
// cashier fallback, and refunds. Services depend on narrow interfaces so
// tests can swap the database and the payment processor for fakes.
package services

import (
	"context"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/models"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
	"github.com/seung7-arch/als-deli-website/internal/stripe"
)

type orderStore interface {
	Create(ctx context.Context, order *db.Order) error
	GetByConfirmationID(ctx context.Context, confirmationID string) (*db.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*db.Order, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*db.Order, error)
	AttachCheckoutSession(ctx context.Context, confirmationID, sessionID, paymentIntentID string) error
	AttachPaymentIntent(ctx context.Context, confirmationID, paymentIntentID string) error
	MarkPaid(ctx context.Context, params db.MarkPaidParams) (bool, error)
	MarkCashierPending(ctx context.Context, confirmationID string) (bool, error)
	MarkRefunded(ctx context.Context, paymentIntentID, refundID string) (bool, error)
}

type paymentClient interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string, expandLineItems bool) (*stripeapi.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, params stripe.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*stripeapi.PaymentIntent, error)
	GetPaymentMethod(ctx context.Context, paymentMethodID string) (*stripeapi.PaymentMethod, error)
	CreateRefund(ctx context.Context, params stripe.RefundParams) (*stripeapi.Refund, error)
}

type cartPricer interface {
	Quote(items []models.LineItem) (pricing.Totals, error)
	Price(items []models.LineItem) (pricing.Totals, error)
}
