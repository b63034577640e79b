package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/logging"
)

// StatusService answers client polling during the window between payment
// completion at the processor and webhook delivery.
type StatusService struct {
	orders   orderStore
	payments paymentClient
	logger   *slog.Logger
}

func NewStatusService(orders orderStore, payments paymentClient, logger *slog.Logger) *StatusService {
	return &StatusService{
		orders:   orders,
		payments: payments,
		logger:   logger,
	}
}

type StatusResult struct {
	Found  bool
	Paid   bool
	Status db.OrderStatus
	Order  *db.Order

	// AmountTotalCents and Currency are set only when the answer came
	// from a live processor lookup rather than the store.
	AmountTotalCents int64
	Currency         string
}

// Resolve looks the identifier up as a confirmation id first, then as a
// session id. When the store has no row yet, a session id is checked
// directly against the processor so a kiosk polling right after payment
// sees PAID before the webhook lands. Unknown identifiers resolve to a
// pending AWAITING_PAYMENT answer, never an error.
func (s *StatusService) Resolve(ctx context.Context, id string) (*StatusResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.status.resolve",
		sentry.WithOpName("service.status"),
		sentry.WithDescription("Resolve"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("order identifier is required")
	}

	order, err := s.orders.GetByConfirmationID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		order, err = s.orders.GetBySessionID(ctx, id)
	}
	if err == nil {
		return &StatusResult{
			Found:  true,
			Paid:   order.IsPaid(),
			Status: order.Status,
			Order:  order,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if strings.HasPrefix(id, "cs_") {
		session, sessErr := s.payments.GetCheckoutSession(ctx, id, false)
		if sessErr != nil {
			logging.FromContext(ctx, s.logger).Warn("status fallback session lookup failed", "error", sessErr, "session_id", id)
		} else if session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid {
			return &StatusResult{
				Found:            false,
				Paid:             true,
				Status:           db.StatusPaid,
				AmountTotalCents: session.AmountTotal,
				Currency:         string(session.Currency),
			}, nil
		}
	}

	return &StatusResult{
		Found:  false,
		Paid:   false,
		Status: db.StatusAwaitingPayment,
	}, nil
}
