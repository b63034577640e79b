package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/logging"
	"github.com/seung7-arch/als-deli-website/internal/models"
	"github.com/seung7-arch/als-deli-website/internal/observability"
	"github.com/seung7-arch/als-deli-website/internal/pricing"
)

// ErrOrderNotConvertible rejects rerouting an order whose payment already
// settled one way or the other.
var ErrOrderNotConvertible = errors.New("order cannot be rerouted to the register")

// CashierService records pay-at-register orders. No processor interaction
// happens here; the order is handed to staff as CASHIER_PENDING.
type CashierService struct {
	orders orderStore
	pricer cartPricer
	logger *slog.Logger
}

func NewCashierService(orders orderStore, pricer cartPricer, logger *slog.Logger) *CashierService {
	return &CashierService{
		orders: orders,
		pricer: pricer,
		logger: logger,
	}
}

type CashierOrderInput struct {
	Items               []models.LineItem
	Source              string
	GuestName           string
	CustomerPhone       string
	PickupTime          string
	SpecialInstructions string
}

// CreateOrder prices the cart and persists a CASHIER_PENDING order. The
// minimum-order policy does not apply; the register takes any total.
func (s *CashierService) CreateOrder(ctx context.Context, input CashierOrderInput) (*db.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.cashier.create_order",
		sentry.WithOpName("service.cashier"),
		sentry.WithDescription("CreateOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := logging.FromContext(ctx, s.logger)
	meter := observability.MeterFromContext(ctx)
	source := models.NormalizeSource(input.Source)

	totals, err := s.pricer.Quote(input.Items)
	if err != nil {
		meter.Count("cashier.order.rejected", 1, sentry.WithAttributes(
			attribute.String("reason", "pricing_failed"),
		))
		return nil, err
	}

	order := &db.Order{
		ConfirmationID:      uuid.NewString(),
		Status:              db.StatusCashierPending,
		Items:               input.Items,
		OrderSummary:        pricing.Summary(input.Items),
		SubtotalCents:       totals.SubtotalCents,
		TaxCents:            totals.TaxCents,
		TotalCents:          totals.TotalCents,
		PaymentMethod:       "cashier",
		Source:              source,
		GuestName:           input.GuestName,
		CustomerPhone:       input.CustomerPhone,
		PickupTime:          input.PickupTime,
		SpecialInstructions: input.SpecialInstructions,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		meter.Count("cashier.order.failed", 1)
		return nil, fmt.Errorf("failed to create cashier order: %w", err)
	}

	meter.Count("cashier.order.created", 1, sentry.WithAttributes(
		attribute.String("source", string(source)),
	))
	logger.Info("cashier order created",
		"confirmation_id", order.ConfirmationID,
		"total_cents", totals.TotalCents,
		"source", string(source))
	return order, nil
}

// ConvertOrder reroutes an existing unpaid order to the register. This is
// the fallback after a failed card checkout: the order row already exists
// under its confirmation id and must not be duplicated. Converting an
// order that is already CASHIER_PENDING is a no-op.
func (s *CashierService) ConvertOrder(ctx context.Context, confirmationID string) (*db.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.cashier.convert_order",
		sentry.WithOpName("service.cashier"),
		sentry.WithDescription("ConvertOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := logging.FromContext(ctx, s.logger)
	meter := observability.MeterFromContext(ctx)

	order, err := s.orders.GetByConfirmationID(ctx, confirmationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	matched, err := s.orders.MarkCashierPending(ctx, confirmationID)
	if err != nil {
		meter.Count("cashier.convert.failed", 1)
		return nil, fmt.Errorf("failed to convert order: %w", err)
	}
	if !matched {
		if order.Status == db.StatusCashierPending {
			return order, nil
		}
		meter.Count("cashier.convert.rejected", 1, sentry.WithAttributes(
			attribute.String("status", string(order.Status)),
		))
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotConvertible, confirmationID, order.Status)
	}

	order.Status = db.StatusCashierPending
	order.PaymentMethod = "cashier"
	meter.Count("cashier.order.converted", 1)
	logger.Info("order rerouted to cashier",
		"confirmation_id", confirmationID,
		"total_cents", order.TotalCents)
	return order, nil
}
