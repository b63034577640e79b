package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/jackc/pgx/v5"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/logging"
	"github.com/seung7-arch/als-deli-website/internal/models"
	"github.com/seung7-arch/als-deli-website/internal/observability"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
	"github.com/seung7-arch/als-deli-website/internal/stripe"
)

// PaymentService applies processor completion events to stored orders. The
// processor's record is authoritative: items and totals read back from the
// session overwrite whatever the order row held at creation time.
type PaymentService struct {
	orders   orderStore
	payments paymentClient
	logger   *slog.Logger
}

func NewPaymentService(orders orderStore, payments paymentClient, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		orders:   orders,
		payments: payments,
		logger:   logger,
	}
}

func (s *PaymentService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// HandleCheckoutSessionCompleted confirms a hosted-session payment. A
// transition that matches no row is a reconciliation anomaly: the payment
// succeeded at the processor but the store disagrees, so a fallback PAID row
// is inserted rather than losing a paid order. Errors are only returned when
// a retry from the processor could help.
func (s *PaymentService) HandleCheckoutSessionCompleted(ctx context.Context, payload []byte) error {
	span := sentry.StartSpan(
		ctx,
		"service.payment.checkout_session_completed",
		sentry.WithOpName("service.payment"),
		sentry.WithDescription("HandleCheckoutSessionCompleted"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}
	if session.ID == "" {
		return fmt.Errorf("missing session ID")
	}

	confirmationID := session.Metadata[stripe.MetadataConfirmationID]
	if confirmationID == "" {
		meter.Count("webhook.uncorrelated", 1, sentry.WithAttributes(
			attribute.String("event", "checkout.session.completed"),
		))
		logger.Warn("session completed without confirmation metadata; skipping", "session_id", session.ID)
		return nil
	}

	// Never trust the event payload for amounts; line items are only
	// available on a fresh retrieval anyway.
	full, err := s.payments.GetCheckoutSession(ctx, session.ID, true)
	if err != nil {
		return fmt.Errorf("failed to retrieve session for reconciliation: %w", err)
	}

	items, taxCents := itemsFromSession(full)
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPriceCents * item.Quantity
	}

	paymentIntentID := ""
	if full.PaymentIntent != nil {
		paymentIntentID = full.PaymentIntent.ID
	}

	params := db.MarkPaidParams{
		ConfirmationID:  confirmationID,
		PaymentIntentID: paymentIntentID,
		SessionID:       full.ID,
		Items:           items,
		OrderSummary:    pricing.Summary(items),
		SubtotalCents:   subtotal,
		TaxCents:        taxCents,
		TotalCents:      full.AmountTotal,
		PaymentMethod:   s.paymentMethodLabel(ctx, paymentIntentID),
	}

	matched, err := s.orders.MarkPaid(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to mark order as paid: %w", err)
	}
	if !matched {
		s.recoverUnmatchedPayment(ctx, params, models.OrderSource(session.Metadata["source"]), session.Metadata["guest_name"])
		return nil
	}

	meter.Count("order.paid", 1, sentry.WithAttributes(
		attribute.String("flow", "checkout_session"),
	))
	logger.Info("order marked paid",
		"confirmation_id", confirmationID,
		"session_id", full.ID,
		"total_cents", full.AmountTotal)
	return nil
}

// HandlePaymentIntentSucceeded confirms a direct-intent payment. Intents
// created by hosted sessions carry the session flow's correlation key and
// are skipped here; checkout.session.completed owns them.
func (s *PaymentService) HandlePaymentIntentSucceeded(ctx context.Context, payload []byte) error {
	span := sentry.StartSpan(
		ctx,
		"service.payment.payment_intent_succeeded",
		sentry.WithOpName("service.payment"),
		sentry.WithDescription("HandlePaymentIntentSucceeded"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return fmt.Errorf("invalid event object: %w", err)
	}
	if intent.ID == "" {
		return fmt.Errorf("missing payment intent ID")
	}

	if intent.Metadata[stripe.MetadataConfirmationID] != "" {
		logger.Debug("intent belongs to a checkout session; skipping", "intent_id", intent.ID)
		return nil
	}

	confirmationNumber := intent.Metadata[stripe.MetadataConfirmationNumber]
	if confirmationNumber == "" {
		meter.Count("webhook.uncorrelated", 1, sentry.WithAttributes(
			attribute.String("event", "payment_intent.succeeded"),
		))
		logger.Warn("intent succeeded without confirmation metadata; skipping", "intent_id", intent.ID)
		return nil
	}

	params := db.MarkPaidParams{
		ConfirmationID:  confirmationNumber,
		PaymentIntentID: intent.ID,
		TotalCents:      intent.Amount,
		PaymentMethod:   s.paymentMethodLabel(ctx, intent.ID),
	}

	// The intent has no line items; carry the cart forward from the stored
	// order so MarkPaid's overwrite does not blank it.
	order, err := s.orders.GetByConfirmationID(ctx, confirmationNumber)
	if err == nil {
		params.Items = order.Items
		params.OrderSummary = order.OrderSummary
		params.SubtotalCents = order.SubtotalCents
		params.TaxCents = order.TaxCents
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to get order: %w", err)
	}

	matched, err := s.orders.MarkPaid(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to mark order as paid: %w", err)
	}
	if !matched {
		s.recoverUnmatchedPayment(ctx, params, models.OrderSource(intent.Metadata["source"]), "")
		return nil
	}

	meter.Count("order.paid", 1, sentry.WithAttributes(
		attribute.String("flow", "payment_intent"),
	))
	logger.Info("order marked paid",
		"confirmation_id", confirmationNumber,
		"intent_id", intent.ID,
		"total_cents", intent.Amount)
	return nil
}

// recoverUnmatchedPayment handles a completion event whose transition
// matched no row. A refunded order is the one legitimate case; anything
// else means money moved without a record, so insert a fallback PAID row
// and flag the anomaly rather than dropping the payment.
func (s *PaymentService) recoverUnmatchedPayment(ctx context.Context, params db.MarkPaidParams, source models.OrderSource, guestName string) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	existing, err := s.orders.GetByConfirmationID(ctx, params.ConfirmationID)
	if err == nil && existing.Status == db.StatusRefunded {
		logger.Info("ignoring completion event for refunded order", "confirmation_id", params.ConfirmationID)
		return
	}
	if err == nil {
		// Row exists in a state MarkPaid refused to touch.
		meter.Count("webhook.reconciliation.anomaly", 1, sentry.WithAttributes(
			attribute.String("reason", "status_conflict"),
		))
		logger.Error("paid event did not match stored order state",
			"confirmation_id", params.ConfirmationID,
			"stored_status", string(existing.Status))
		return
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		meter.Count("webhook.reconciliation.anomaly", 1, sentry.WithAttributes(
			attribute.String("reason", "lookup_failed"),
		))
		logger.Error("failed to look up order for unmatched payment", "error", err, "confirmation_id", params.ConfirmationID)
		return
	}

	meter.Count("webhook.reconciliation.anomaly", 1, sentry.WithAttributes(
		attribute.String("reason", "order_missing"),
	))
	logger.Error("paid event for unknown order; inserting fallback record",
		"confirmation_id", params.ConfirmationID,
		"payment_intent_id", params.PaymentIntentID)

	fallback := &db.Order{
		ConfirmationID:    params.ConfirmationID,
		Status:            db.StatusPaid,
		Paid:              true,
		Items:             params.Items,
		OrderSummary:      params.OrderSummary,
		SubtotalCents:     params.SubtotalCents,
		TaxCents:          params.TaxCents,
		TotalCents:        params.TotalCents,
		CheckoutSessionID: params.SessionID,
		PaymentIntentID:   params.PaymentIntentID,
		PaymentMethod:     params.PaymentMethod,
		Source:            models.NormalizeSource(string(source)),
		GuestName:         guestName,
	}
	if err := s.orders.Create(ctx, fallback); err != nil {
		logger.Error("failed to insert fallback paid order", "error", err, "confirmation_id", params.ConfirmationID)
		return
	}
	meter.Count("order.paid.recovered", 1)
}

// paymentMethodLabel resolves a customer-facing payment method label, e.g.
// "Card ••4242". Lookups are best effort; confirmation never fails over a
// missing label.
func (s *PaymentService) paymentMethodLabel(ctx context.Context, paymentIntentID string) string {
	const fallback = "Card"
	if paymentIntentID == "" {
		return fallback
	}

	intent, err := s.payments.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil || intent.PaymentMethod == nil {
		return fallback
	}

	method := intent.PaymentMethod
	if method.Card == nil {
		method, err = s.payments.GetPaymentMethod(ctx, method.ID)
		if err != nil || method == nil {
			return fallback
		}
	}
	if method.Card != nil && method.Card.Last4 != "" {
		return "Card ••" + method.Card.Last4
	}
	return fallback
}

// itemsFromSession rebuilds the cart from the processor's expanded line
// items, splitting the synthetic tax line back out of the item list.
func itemsFromSession(session *stripeapi.CheckoutSession) ([]models.LineItem, int64) {
	if session == nil || session.LineItems == nil {
		return nil, 0
	}

	items := make([]models.LineItem, 0, len(session.LineItems.Data))
	var taxCents int64
	for _, line := range session.LineItems.Data {
		if line == nil {
			continue
		}
		if line.Description == stripe.TaxLineName {
			taxCents += line.AmountTotal
			continue
		}
		item := models.LineItem{
			Name:     line.Description,
			Quantity: line.Quantity,
		}
		if line.Price != nil {
			item.UnitPriceCents = line.Price.UnitAmount
		}
		items = append(items, item)
	}
	return items, taxCents
}
