package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/logging"
	"github.com/seung7-arch/als-deli-website/internal/models"
	"github.com/seung7-arch/als-deli-website/internal/observability"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
	"github.com/seung7-arch/als-deli-website/internal/stripe"
)

// SessionCreationError means the order row exists but the processor session
// could not be created. The confirmation id lets the client retry or fall
// back to the cashier without losing the order.
type SessionCreationError struct {
	ConfirmationID string
	Err            error
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("failed to create checkout session for order %s: %v", e.ConfirmationID, e.Err)
}

func (e *SessionCreationError) Unwrap() error {
	return e.Err
}

type CheckoutService struct {
	orders   orderStore
	payments paymentClient
	pricer   cartPricer
	baseURL  string
	logger   *slog.Logger
}

func NewCheckoutService(orders orderStore, payments paymentClient, pricer cartPricer, baseURL string, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		orders:   orders,
		payments: payments,
		pricer:   pricer,
		baseURL:  baseURL,
		logger:   logger,
	}
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CreateSessionInput struct {
	Items               []models.LineItem
	Source              string
	GuestName           string
	CustomerPhone       string
	PickupTime          string
	SpecialInstructions string
}

type CreateSessionResult struct {
	ConfirmationID string
	SessionID      string
	CheckoutURL    string
	Totals         pricing.Totals
}

// CreateSession prices the cart, persists an AWAITING_PAYMENT order keyed by
// a fresh confirmation id, and only then asks the processor for a hosted
// session tagged with that id. Insert-before-create means a completion event
// always has a row to land on.
func (s *CheckoutService) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.create_session",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("CreateSession"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	source := models.NormalizeSource(input.Source)
	meter.SetAttributes(attribute.String("source", string(source)))

	totals, err := s.pricer.Price(input.Items)
	if err != nil {
		meter.Count("checkout.session.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "pricing_failed"),
		))
		return nil, err
	}

	order := &db.Order{
		ConfirmationID:      uuid.NewString(),
		Status:              db.StatusAwaitingPayment,
		Items:               input.Items,
		OrderSummary:        pricing.Summary(input.Items),
		SubtotalCents:       totals.SubtotalCents,
		TaxCents:            totals.TaxCents,
		TotalCents:          totals.TotalCents,
		Source:              source,
		GuestName:           input.GuestName,
		CustomerPhone:       input.CustomerPhone,
		PickupTime:          input.PickupTime,
		SpecialInstructions: input.SpecialInstructions,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		meter.Count("checkout.session.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "order_create_failed"),
		))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	meter.Count("order.created", 1)

	session, err := s.payments.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		ConfirmationID: order.ConfirmationID,
		GuestName:      input.GuestName,
		Source:         string(source),
		Items:          input.Items,
		TaxCents:       totals.TaxCents,
		SuccessURL:     fmt.Sprintf("%s/kiosk-success?order=%s", s.baseURL, order.ConfirmationID),
		CancelURL:      fmt.Sprintf("%s/kiosk-checkout", s.baseURL),
	})
	if err != nil {
		meter.Count("checkout.session.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "create_failed"),
		))
		logger.Error("failed to create checkout session", "error", err, "confirmation_id", order.ConfirmationID)
		return nil, &SessionCreationError{ConfirmationID: order.ConfirmationID, Err: err}
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}
	if err := s.orders.AttachCheckoutSession(ctx, order.ConfirmationID, session.ID, paymentIntentID); err != nil {
		meter.Count("checkout.session.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "attach_session_failed"),
		))
		return nil, fmt.Errorf("failed to attach session to order: %w", err)
	}

	meter.Count("checkout.session.created", 1)
	logger.Info("checkout session created",
		"confirmation_id", order.ConfirmationID,
		"session_id", session.ID,
		"total_cents", totals.TotalCents,
		"source", string(source))

	return &CreateSessionResult{
		ConfirmationID: order.ConfirmationID,
		SessionID:      session.ID,
		CheckoutURL:    session.URL,
		Totals:         totals,
	}, nil
}

type CreateIntentInput struct {
	Items         []models.LineItem
	Source        string
	GuestName     string
	CustomerPhone string
}

type CreateIntentResult struct {
	ConfirmationNumber string
	PaymentIntentID    string
	ClientSecret       string
	Totals             pricing.Totals
}

// CreateIntent is the direct payment-intent flow for embedded card entry.
// The order row is inserted before the intent exists, so the confirmation
// number in the intent's metadata always resolves to a stored order.
func (s *CheckoutService) CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.create_intent",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("CreateIntent"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	source := models.NormalizeSource(input.Source)

	totals, err := s.pricer.Quote(input.Items)
	if err != nil {
		meter.Count("payment_intent.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "pricing_failed"),
		))
		return nil, err
	}

	order := &db.Order{
		ConfirmationID: newConfirmationNumber(time.Now()),
		Status:         db.StatusAwaitingPayment,
		Items:          input.Items,
		OrderSummary:   pricing.Summary(input.Items),
		SubtotalCents:  totals.SubtotalCents,
		TaxCents:       totals.TaxCents,
		TotalCents:     totals.TotalCents,
		Source:         source,
		GuestName:      input.GuestName,
		CustomerPhone:  input.CustomerPhone,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		meter.Count("payment_intent.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "order_create_failed"),
		))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	meter.Count("order.created", 1)

	intent, err := s.payments.CreatePaymentIntent(ctx, stripe.PaymentIntentParams{
		AmountCents: totals.TotalCents,
		Metadata: map[string]string{
			stripe.MetadataConfirmationNumber: order.ConfirmationID,
			"source":                          string(source),
		},
	})
	if err != nil {
		meter.Count("payment_intent.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "create_failed"),
		))
		logger.Error("failed to create payment intent", "error", err, "confirmation_id", order.ConfirmationID)
		return nil, &SessionCreationError{ConfirmationID: order.ConfirmationID, Err: err}
	}

	if err := s.orders.AttachPaymentIntent(ctx, order.ConfirmationID, intent.ID); err != nil {
		meter.Count("payment_intent.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "attach_intent_failed"),
		))
		return nil, fmt.Errorf("failed to attach intent to order: %w", err)
	}

	meter.Count("payment_intent.created", 1)
	logger.Info("payment intent created",
		"confirmation_id", order.ConfirmationID,
		"intent_id", intent.ID,
		"total_cents", totals.TotalCents)

	return &CreateIntentResult{
		ConfirmationNumber: order.ConfirmationID,
		PaymentIntentID:    intent.ID,
		ClientSecret:       intent.ClientSecret,
		Totals:             totals,
	}, nil
}

// newConfirmationNumber builds the short human-readable confirmation number
// used by the intent flow, e.g. 20260828-4312.
func newConfirmationNumber(now time.Time) string {
	return fmt.Sprintf("%s-%04d", now.Format("20060102"), rand.IntN(10000))
}
