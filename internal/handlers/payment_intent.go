package handlers

import (
	"errors"
	"net/http"

	"github.com/seung7-arch/als-deli-website/internal/services"
)

type paymentIntentResponse struct {
	ClientSecret       string  `json:"client_secret"`
	ConfirmationNumber string  `json:"confirmation_number"`
	Subtotal           float64 `json:"subtotal"`
	Tax                float64 `json:"tax"`
	Total              float64 `json:"total"`
}

// CreatePaymentIntent backs the embedded card form. The order exists with
// its confirmation number before the client ever sees a client secret.
func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	var req checkoutRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.checkoutService.CreateIntent(ctx, services.CreateIntentInput{
		Items:         lineItemsFromRequest(req.Items),
		Source:        req.Source,
		GuestName:     req.GuestName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		if h.writePricingError(ctx, w, err) {
			return
		}
		var sessionErr *services.SessionCreationError
		if errors.As(err, &sessionErr) {
			h.writeError(ctx, w, http.StatusBadGateway, errorResponse{
				Error:          "payment processor unavailable",
				Code:           "INTENT_CREATE_FAILED",
				ConfirmationID: sessionErr.ConfirmationID,
			})
			return
		}
		logger.Error("failed to create payment intent", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, paymentIntentResponse{
		ClientSecret:       result.ClientSecret,
		ConfirmationNumber: result.ConfirmationNumber,
		Subtotal:           centsToDollars(result.Totals.SubtotalCents),
		Tax:                centsToDollars(result.Totals.TaxCents),
		Total:              centsToDollars(result.Totals.TotalCents),
	})
}
