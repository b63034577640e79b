package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seung7-arch/als-deli-website/internal/models"
)

// OrderStore persists orders keyed by confirmation_id. Updates are
// optimistic: each statement matches on the correlation key plus the allowed
// source statuses and reports whether a row was touched, so callers can
// detect reconciliation anomalies without taking locks.
type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, confirmation_id, status, paid, items, order_summary,
	subtotal_cents, tax_cents, total_cents,
	checkout_session_id, payment_intent_id, payment_method,
	source, guest_name, customer_phone, pickup_time, special_instructions,
	refund_id, refund_date, created_at
`

func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	query := `
		INSERT INTO orders (
			confirmation_id, status, paid, items, order_summary,
			subtotal_cents, tax_cents, total_cents,
			checkout_session_id, payment_intent_id, payment_method,
			source, guest_name, customer_phone, pickup_time, special_instructions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13, $14, $15, $16)
		RETURNING id, created_at
	`
	var createdAt pgtype.Timestamptz
	err = s.pool.QueryRow(ctx, query,
		order.ConfirmationID,
		string(order.Status),
		order.Paid,
		itemsJSON,
		order.OrderSummary,
		order.SubtotalCents,
		order.TaxCents,
		order.TotalCents,
		order.CheckoutSessionID,
		order.PaymentIntentID,
		order.PaymentMethod,
		string(order.Source),
		order.GuestName,
		order.CustomerPhone,
		order.PickupTime,
		order.SpecialInstructions,
	).Scan(&order.ID, &createdAt)
	if err != nil {
		return err
	}
	order.CreatedAt = createdAt.Time
	return nil
}

func (s *OrderStore) GetByConfirmationID(ctx context.Context, confirmationID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE confirmation_id = $1`
	return s.scanOrder(s.pool.QueryRow(ctx, query, confirmationID))
}

func (s *OrderStore) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE checkout_session_id = $1`
	return s.scanOrder(s.pool.QueryRow(ctx, query, sessionID))
}

func (s *OrderStore) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = $1`
	return s.scanOrder(s.pool.QueryRow(ctx, query, paymentIntentID))
}

// AttachCheckoutSession records the processor's session/intent identifiers on
// a freshly created order.
func (s *OrderStore) AttachCheckoutSession(ctx context.Context, confirmationID, sessionID, paymentIntentID string) error {
	query := `
		UPDATE orders
		SET checkout_session_id = $2, payment_intent_id = NULLIF($3, '')
		WHERE confirmation_id = $1
	`
	cmdTag, err := s.pool.Exec(ctx, query, confirmationID, sessionID, paymentIntentID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AttachPaymentIntent records the processor's intent identifier without
// touching the session column. Used by the direct payment-intent flow.
func (s *OrderStore) AttachPaymentIntent(ctx context.Context, confirmationID, paymentIntentID string) error {
	query := `
		UPDATE orders
		SET payment_intent_id = $2
		WHERE confirmation_id = $1
	`
	cmdTag, err := s.pool.Exec(ctx, query, confirmationID, paymentIntentID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type MarkPaidParams struct {
	ConfirmationID  string
	PaymentIntentID string
	SessionID       string
	Items           []LineItem
	OrderSummary    string
	SubtotalCents   int64
	TaxCents        int64
	TotalCents      int64
	PaymentMethod   string
}

// MarkPaid flips an order to PAID, overwriting items and totals with the
// processor's authoritative values. Re-applying the same event is an
// idempotent no-op on the transition (PAID stays in the matched set) and a
// REFUNDED order can never regress. Returns whether any row matched; zero
// rows is the reconciliation anomaly the caller must count.
func (s *OrderStore) MarkPaid(ctx context.Context, params MarkPaidParams) (bool, error) {
	itemsJSON, err := json.Marshal(params.Items)
	if err != nil {
		return false, fmt.Errorf("failed to encode order items: %w", err)
	}

	query := `
		UPDATE orders
		SET status = $2, paid = TRUE, payment_intent_id = $3,
		    checkout_session_id = COALESCE(NULLIF($4, ''), checkout_session_id),
		    items = $5, order_summary = $6,
		    subtotal_cents = $7, tax_cents = $8, total_cents = $9,
		    payment_method = $10
		WHERE confirmation_id = $1 AND status IN ('AWAITING_PAYMENT', 'PAID')
	`
	cmdTag, err := s.pool.Exec(ctx, query,
		params.ConfirmationID,
		string(StatusPaid),
		params.PaymentIntentID,
		params.SessionID,
		itemsJSON,
		params.OrderSummary,
		params.SubtotalCents,
		params.TaxCents,
		params.TotalCents,
		params.PaymentMethod,
	)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

// MarkRefunded records a refund exactly once: the refund_id IS NULL guard
// means a second refund attempt on the same order matches zero rows and the
// first refund identifier is never overwritten.
// MarkCashierPending reroutes an unpaid order to the register. Only
// AWAITING_PAYMENT rows convert; a paid or refunded order never regresses.
func (s *OrderStore) MarkCashierPending(ctx context.Context, confirmationID string) (bool, error) {
	query := `
		UPDATE orders
		SET status = $2, payment_method = 'cashier'
		WHERE confirmation_id = $1 AND status = 'AWAITING_PAYMENT'
	`
	cmdTag, err := s.pool.Exec(ctx, query, confirmationID, string(StatusCashierPending))
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

func (s *OrderStore) MarkRefunded(ctx context.Context, paymentIntentID, refundID string) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3, refund_id = $2, refund_date = NOW()
		WHERE payment_intent_id = $1 AND status = 'PAID' AND refund_id IS NULL
	`
	cmdTag, err := s.pool.Exec(ctx, query, paymentIntentID, refundID, string(StatusRefunded))
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

type orderRow struct {
	ID                  int64
	ConfirmationID      string
	Status              string
	Paid                bool
	Items               []byte
	OrderSummary        pgtype.Text
	SubtotalCents       int64
	TaxCents            int64
	TotalCents          int64
	CheckoutSessionID   pgtype.Text
	PaymentIntentID     pgtype.Text
	PaymentMethod       pgtype.Text
	Source              pgtype.Text
	GuestName           pgtype.Text
	CustomerPhone       pgtype.Text
	PickupTime          pgtype.Text
	SpecialInstructions pgtype.Text
	RefundID            pgtype.Text
	RefundDate          pgtype.Timestamptz
	CreatedAt           pgtype.Timestamptz
}

func (s *OrderStore) scanOrder(row pgx.Row) (*Order, error) {
	var r orderRow
	err := row.Scan(
		&r.ID,
		&r.ConfirmationID,
		&r.Status,
		&r.Paid,
		&r.Items,
		&r.OrderSummary,
		&r.SubtotalCents,
		&r.TaxCents,
		&r.TotalCents,
		&r.CheckoutSessionID,
		&r.PaymentIntentID,
		&r.PaymentMethod,
		&r.Source,
		&r.GuestName,
		&r.CustomerPhone,
		&r.PickupTime,
		&r.SpecialInstructions,
		&r.RefundID,
		&r.RefundDate,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:             r.ID,
		ConfirmationID: r.ConfirmationID,
		Status:         OrderStatus(r.Status),
		Paid:           r.Paid,
		SubtotalCents:  r.SubtotalCents,
		TaxCents:       r.TaxCents,
		TotalCents:     r.TotalCents,
		CreatedAt:      r.CreatedAt.Time,
	}

	if r.Items != nil {
		if err := json.Unmarshal(r.Items, &order.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
	}
	if r.OrderSummary.Valid {
		order.OrderSummary = r.OrderSummary.String
	}
	if r.CheckoutSessionID.Valid {
		order.CheckoutSessionID = r.CheckoutSessionID.String
	}
	if r.PaymentIntentID.Valid {
		order.PaymentIntentID = r.PaymentIntentID.String
	}
	if r.PaymentMethod.Valid {
		order.PaymentMethod = r.PaymentMethod.String
	}
	if r.Source.Valid {
		order.Source = models.OrderSource(r.Source.String)
	}
	if r.GuestName.Valid {
		order.GuestName = r.GuestName.String
	}
	if r.CustomerPhone.Valid {
		order.CustomerPhone = r.CustomerPhone.String
	}
	if r.PickupTime.Valid {
		order.PickupTime = r.PickupTime.String
	}
	if r.SpecialInstructions.Valid {
		order.SpecialInstructions = r.SpecialInstructions.String
	}
	if r.RefundID.Valid {
		order.RefundID = r.RefundID.String
	}
	if r.RefundDate.Valid {
		order.RefundDate = r.RefundDate.Time
	}

	return order, nil
}
