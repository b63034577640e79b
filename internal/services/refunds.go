package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/seung7-arch/als-deli-website/internal/logging"
	"github.com/seung7-arch/als-deli-website/internal/observability"
	"github.com/seung7-arch/als-deli-website/internal/stripe"
)

// ErrAlreadyRefunded rejects a repeat refund for an order that already has
// a recorded refund.
var ErrAlreadyRefunded = errors.New("order is already refunded")

// RefundService issues refunds at the processor and records them on the
// matching order.
type RefundService struct {
	orders   orderStore
	payments paymentClient
	logger   *slog.Logger
}

func NewRefundService(orders orderStore, payments paymentClient, logger *slog.Logger) *RefundService {
	return &RefundService{
		orders:   orders,
		payments: payments,
		logger:   logger,
	}
}

type RefundInput struct {
	PaymentIntentID string
	// AmountCents of zero refunds the full charge.
	AmountCents int64
}

type RefundResult struct {
	RefundID    string
	AmountCents int64
	Status      string
	// Matched is false when the refund went through at the processor but
	// no PAID, not-yet-refunded order carried the intent id.
	Matched bool
}

// ProcessRefund refunds first and records second. The processor is the
// source of truth for money movement, so a bookkeeping miss after a
// successful refund is logged and flagged, never rolled back. The store's
// refund-once guard makes a repeat call for the same order fail before any
// second refund is attempted via the existing-record check below.
func (s *RefundService) ProcessRefund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.refund.process",
		sentry.WithOpName("service.refund"),
		sentry.WithDescription("ProcessRefund"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := logging.FromContext(ctx, s.logger)
	meter := observability.MeterFromContext(ctx)

	if input.PaymentIntentID == "" {
		return nil, fmt.Errorf("payment intent id is required")
	}

	// Refuse a second refund for an order we already recorded one on.
	if order, err := s.orders.GetByPaymentIntentID(ctx, input.PaymentIntentID); err == nil && order.RefundID != "" {
		meter.Count("refund.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "already_refunded"),
		))
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRefunded, order.ConfirmationID)
	}

	refund, err := s.payments.CreateRefund(ctx, stripe.RefundParams{
		PaymentIntentID: input.PaymentIntentID,
		AmountCents:     input.AmountCents,
	})
	if err != nil {
		meter.Count("refund.failed", 1)
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	matched, err := s.orders.MarkRefunded(ctx, input.PaymentIntentID, refund.ID)
	if err != nil {
		// The money already moved back; surface the bookkeeping failure
		// loudly but report the refund as done.
		meter.Count("refund.record_failed", 1)
		logger.Error("refund succeeded but could not be recorded",
			"error", err,
			"payment_intent_id", input.PaymentIntentID,
			"refund_id", refund.ID)
	} else if !matched {
		meter.Count("refund.unmatched", 1)
		logger.Warn("refund issued with no matching paid order",
			"payment_intent_id", input.PaymentIntentID,
			"refund_id", refund.ID)
	}

	meter.Count("refund.issued", 1)
	logger.Info("refund processed",
		"payment_intent_id", input.PaymentIntentID,
		"refund_id", refund.ID,
		"amount_cents", input.AmountCents,
		"matched", matched)

	return &RefundResult{
		RefundID:    refund.ID,
		AmountCents: refund.Amount,
		Status:      string(refund.Status),
		Matched:     matched,
	}, nil
}
