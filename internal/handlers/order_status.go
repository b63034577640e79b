package handlers

import (
	"net/http"
	"time"

	"github.com/seung7-arch/als-deli-website/internal/db"
	"github.com/seung7-arch/als-deli-website/internal/models"
)

type orderStatusResponse struct {
	Status string        `json:"status"`
	Paid   bool          `json:"paid"`
	Order  *orderDetails `json:"order,omitempty"`

	// Set only when the status came from a live processor lookup.
	AmountTotal float64 `json:"amount_total,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

type orderDetails struct {
	ConfirmationID      string             `json:"confirmation_id"`
	OrderSummary        string             `json:"order_summary"`
	Items               []models.LineItem  `json:"items"`
	Subtotal            float64            `json:"subtotal"`
	Tax                 float64            `json:"tax"`
	Total               float64            `json:"total"`
	PaymentMethod       string             `json:"payment_method,omitempty"`
	Source              models.OrderSource `json:"source"`
	GuestName           string             `json:"guest_name,omitempty"`
	PickupTime          string             `json:"pickup_time,omitempty"`
	SpecialInstructions string             `json:"special_instructions,omitempty"`
	RefundID            string             `json:"refund_id,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
}

// OrderStatus answers kiosk polling. The identifier comes from any of the
// query params the frontends historically used.
func (h *Handlers) OrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	id := r.URL.Query().Get("confirmation_id")
	if id == "" {
		id = r.URL.Query().Get("order")
	}
	if id == "" {
		id = r.URL.Query().Get("session_id")
	}
	if id == "" {
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{Error: "confirmation_id is required"})
		return
	}

	result, err := h.statusService.Resolve(ctx, id)
	if err != nil {
		logger.Error("failed to resolve order status", "error", err, "id", id)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := orderStatusResponse{
		Status: statusLabel(result.Status),
		Paid:   result.Paid,
	}
	if result.Order != nil {
		resp.Order = detailsFromOrder(result.Order)
	}
	if result.AmountTotalCents > 0 {
		resp.AmountTotal = centsToDollars(result.AmountTotalCents)
		resp.Currency = result.Currency
	}
	h.writeJSON(ctx, w, http.StatusOK, resp)
}

// statusLabel translates the stored status enum into the vocabulary the
// polling clients branch on. Anything not yet settled reads as pending.
func statusLabel(status models.OrderStatus) string {
	switch status {
	case models.StatusPaid:
		return "paid"
	case models.StatusCashierPending:
		return "cashier_pending"
	case models.StatusRefunded:
		return "refunded"
	default:
		return "pending"
	}
}

func detailsFromOrder(order *db.Order) *orderDetails {
	return &orderDetails{
		ConfirmationID:      order.ConfirmationID,
		OrderSummary:        order.OrderSummary,
		Items:               order.Items,
		Subtotal:            centsToDollars(order.SubtotalCents),
		Tax:                 centsToDollars(order.TaxCents),
		Total:               centsToDollars(order.TotalCents),
		PaymentMethod:       order.PaymentMethod,
		Source:              order.Source,
		GuestName:           order.GuestName,
		PickupTime:          order.PickupTime,
		SpecialInstructions: order.SpecialInstructions,
		RefundID:            order.RefundID,
		CreatedAt:           order.CreatedAt,
	}
}
