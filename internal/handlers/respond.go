package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

func (h *Handlers) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.loggerFromContext(ctx).Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	// Code is a stable machine-readable discriminator for clients that
	// branch on failure kinds, e.g. BELOW_MINIMUM.
	Code string `json:"code,omitempty"`
	// ConfirmationID is set when an order row exists despite the failure,
	// so the client can fall back to the cashier path.
	ConfirmationID string `json:"confirmation_id,omitempty"`
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, status int, resp errorResponse) {
	h.writeJSON(ctx, w, status, resp)
}
