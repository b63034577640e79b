package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/seung7-arch/als-deli-website/internal/pricing"
	"github.com/seung7-arch/als-deli-website/internal/services"
)

type checkoutRequest struct {
	Items               []requestItem `json:"items" validate:"required,min=1,dive"`
	Source              string        `json:"source"`
	GuestName           string        `json:"guest_name"`
	CustomerPhone       string        `json:"customer_phone"`
	PickupTime          string        `json:"pickup_time"`
	SpecialInstructions string        `json:"special_instructions"`
}

type checkoutSessionResponse struct {
	URL            string  `json:"checkout_url"`
	SessionID      string  `json:"session_id"`
	ConfirmationID string  `json:"confirmation_id"`
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"final_total"`
}

func (h *Handlers) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	var req checkoutRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.checkoutService.CreateSession(ctx, services.CreateSessionInput{
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
		var sessionErr *services.SessionCreationError
		if errors.As(err, &sessionErr) {
			h.writeError(ctx, w, http.StatusBadGateway, errorResponse{
				Error:          "payment processor unavailable",
				Code:           "SESSION_CREATE_FAILED",
				ConfirmationID: sessionErr.ConfirmationID,
			})
			return
		}
		logger.Error("failed to create checkout session", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, checkoutSessionResponse{
		URL:            result.CheckoutURL,
		SessionID:      result.SessionID,
		ConfirmationID: result.ConfirmationID,
		Subtotal:       centsToDollars(result.Totals.SubtotalCents),
		Tax:            centsToDollars(result.Totals.TaxCents),
		Total:          centsToDollars(result.Totals.TotalCents),
	})
}

// writePricingError maps cart validation failures to 400s with stable codes.
// Returns false when err is not a pricing failure.
func (h *Handlers) writePricingError(ctx context.Context, w http.ResponseWriter, err error) bool {
	var belowMin *pricing.BelowMinimumError
	switch {
	case errors.As(err, &belowMin):
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{
			Error: belowMin.Error() + "; please pay at the register instead",
			Code:  "BELOW_MINIMUM",
		})
	case errors.Is(err, pricing.ErrEmptyCart), errors.Is(err, pricing.ErrInvalidCart):
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{
			Error: err.Error(),
			Code:  "INVALID_CART",
		})
	default:
		return false
	}
	return true
}
