package handlers

import (
	"errors"
	"net/http"

	"github.com/seung7-arch/als-deli-website/internal/services"
)

type refundRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	// Amount is in cents, matching the processor's refund API. Zero
	// refunds the full charge.
	Amount int64 `json:"amount" validate:"min=0"`
}

type refundResponse struct {
	Success bool          `json:"success"`
	Refund  refundDetails `json:"refund"`
	Matched bool          `json:"matched"`
}

type refundDetails struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

func (h *Handlers) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	var req refundRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.refundService.ProcessRefund(ctx, services.RefundInput{
		PaymentIntentID: req.PaymentIntentID,
		AmountCents:     req.Amount,
	})
	if err != nil {
		if errors.Is(err, services.ErrAlreadyRefunded) {
			h.writeError(ctx, w, http.StatusConflict, errorResponse{
				Error: err.Error(),
				Code:  "ALREADY_REFUNDED",
			})
			return
		}
		logger.Error("failed to process refund", "error", err, "payment_intent_id", req.PaymentIntentID)
		h.writeError(ctx, w, http.StatusBadGateway, errorResponse{Error: "refund failed"})
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, refundResponse{
		Success: true,
		Refund: refundDetails{
			ID:     result.RefundID,
			Amount: result.AmountCents,
			Status: result.Status,
		},
		Matched: result.Matched,
	})
}
