package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/seung7-arch/als-deli-website/internal/services"
)

// cashierRequest takes either a cart to ring up fresh or the confirmation
// id of an order whose card checkout fell through.
type cashierRequest struct {
	ConfirmationID      string        `json:"confirmation_id"`
	Items               []requestItem `json:"items" validate:"required_without=ConfirmationID,omitempty,min=1,dive"`
	Source              string        `json:"source"`
	GuestName           string        `json:"guest_name"`
	CustomerPhone       string        `json:"customer_phone"`
	PickupTime          string        `json:"pickup_time"`
	SpecialInstructions string        `json:"special_instructions"`
}

type cashierOrderResponse struct {
	Success        bool    `json:"success"`
	ConfirmationID string  `json:"confirmation_id"`
	Status         string  `json:"status"`
	OrderSummary   string  `json:"order_summary"`
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
}

// MarkCashier records a pay-at-register order, or reroutes an existing
// unpaid order to the register when the body names a confirmation_id.
func (h *Handlers) MarkCashier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	var req cashierRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if req.ConfirmationID != "" {
		order, err := h.cashierService.ConvertOrder(ctx, req.ConfirmationID)
		if err != nil {
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				h.writeError(ctx, w, http.StatusNotFound, errorResponse{
					Error: "order not found",
					Code:  "ORDER_NOT_FOUND",
				})
			case errors.Is(err, services.ErrOrderNotConvertible):
				h.writeError(ctx, w, http.StatusConflict, errorResponse{
					Error: err.Error(),
					Code:  "NOT_CONVERTIBLE",
				})
			default:
				logger.Error("failed to convert order to cashier", "error", err, "confirmation_id", req.ConfirmationID)
				h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
			return
		}

		h.writeJSON(ctx, w, http.StatusOK, cashierOrderResponse{
			Success:        true,
			ConfirmationID: order.ConfirmationID,
			Status:         string(order.Status),
			OrderSummary:   order.OrderSummary,
			Subtotal:       centsToDollars(order.SubtotalCents),
			Tax:            centsToDollars(order.TaxCents),
			Total:          centsToDollars(order.TotalCents),
		})
		return
	}

	order, err := h.cashierService.CreateOrder(ctx, services.CashierOrderInput{
		Items:               lineItemsFromRequest(req.Items),
		Source:              req.Source,
		GuestName:           req.GuestName,
		CustomerPhone:       req.CustomerPhone,
		PickupTime:          req.PickupTime,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		if h.writePricingError(ctx, w, err) {
			return
		}
		logger.Error("failed to create cashier order", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.writeJSON(ctx, w, http.StatusCreated, cashierOrderResponse{
		Success:        true,
		ConfirmationID: order.ConfirmationID,
		Status:         string(order.Status),
		OrderSummary:   order.OrderSummary,
		Subtotal:       centsToDollars(order.SubtotalCents),
		Tax:            centsToDollars(order.TaxCents),
		Total:          centsToDollars(order.TotalCents),
	})
}
