package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/seung7-arch/als-deli-website/internal/cart"
)

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal float64            `json:"subtotal"`
}

type cartItemResponse struct {
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Quantity  int64    `json:"quantity"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func cartToResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		Items:    make([]cartItemResponse, 0, len(c.Items)),
		Subtotal: centsToDollars(c.SubtotalCents()),
	}
	for _, item := range c.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			Name:      item.Name,
			Price:     centsToDollars(item.UnitPriceCents),
			Quantity:  item.Quantity,
			Modifiers: item.Modifiers,
		})
	}
	return resp
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := mux.Vars(r)["cartID"]

	c, err := h.cartStore.Load(ctx, cartID)
	if err != nil {
		h.loggerFromContext(ctx).Error("failed to load cart", "error", err, "cart_id", cartID)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, cartToResponse(c))
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	cartID := mux.Vars(r)["cartID"]

	var req requestItem
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	c, err := h.cartStore.Load(ctx, cartID)
	if err != nil {
		logger.Error("failed to load cart", "error", err, "cart_id", cartID)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	cart.Add(c, lineItemsFromRequest([]requestItem{req})[0])
	if err := h.cartStore.Save(ctx, cartID, c); err != nil {
		logger.Error("failed to save cart", "error", err, "cart_id", cartID)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, cartToResponse(c))
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	vars := mux.Vars(r)
	cartID := vars["cartID"]

	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid item index"})
		return
	}

	c, err := h.cartStore.Load(ctx, cartID)
	if err != nil {
		logger.Error("failed to load cart", "error", err, "cart_id", cartID)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	cart.Remove(c, index)
	if err := h.cartStore.Save(ctx, cartID, c); err != nil {
		logger.Error("failed to save cart", "error", err, "cart_id", cartID)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, cartToResponse(c))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := mux.Vars(r)["cartID"]

	if err := h.cartStore.Delete(ctx, cartID); err != nil {
		h.loggerFromContext(ctx).Error("failed to delete cart", "error", err, "cart_id", cartID)
		h.writeError(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, cartResponse{Items: []cartItemResponse{}})
}
