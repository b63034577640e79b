package models

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	StatusPaid            OrderStatus = "PAID"
	StatusCashierPending  OrderStatus = "CASHIER_PENDING"
	StatusRefunded        OrderStatus = "REFUNDED"
)

type OrderSource string

const (
	SourceKiosk OrderSource = "KIOSK"
	SourceWeb   OrderSource = "WEB"
)

// LineItem is one priced, quantified product entry with optional modifiers.
type LineItem struct {
	Name           string   `json:"name"`
	UnitPriceCents int64    `json:"unit_price_cents"`
	Quantity       int64    `json:"quantity"`
	Modifiers      []string `json:"modifiers,omitempty"`
}

// Order is the central entity. ConfirmationID is the single correlation key
// between the store, the payment processor, and client polling; it is
// assigned exactly once, at creation, before any payment attempt.
type Order struct {
	ID                  int64       `json:"id"`
	ConfirmationID      string      `json:"confirmation_id"`
	Status              OrderStatus `json:"status"`
	Paid                bool        `json:"paid"`
	Items               []LineItem  `json:"items"`
	OrderSummary        string      `json:"order_summary"`
	SubtotalCents       int64       `json:"subtotal_cents"`
	TaxCents            int64       `json:"tax_cents"`
	TotalCents          int64       `json:"total_cents"`
	CheckoutSessionID   string      `json:"checkout_session_id"`
	PaymentIntentID     string      `json:"payment_intent_id"`
	PaymentMethod       string      `json:"payment_method"`
	Source              OrderSource `json:"source"`
	GuestName           string      `json:"guest_name"`
	CustomerPhone       string      `json:"customer_phone"`
	PickupTime          string      `json:"pickup_time"`
	SpecialInstructions string      `json:"special_instructions"`
	RefundID            string      `json:"refund_id"`
	CreatedAt           time.Time   `json:"created_at"`
	RefundDate          time.Time   `json:"refund_date"`
}

// IsPaid reconciles the denormalized paid flag with status on the read side.
// The two are written together in every statement that touches either.
func (o *Order) IsPaid() bool {
	return o.Paid || o.Status == StatusPaid
}

// NormalizeSource maps free-form source tags to the KIOSK/WEB enum,
// defaulting unknown values to KIOSK.
func NormalizeSource(raw string) OrderSource {
	switch OrderSource(strings.ToUpper(strings.TrimSpace(raw))) {
	case SourceWeb:
		return SourceWeb
	default:
		return SourceKiosk
	}
}
