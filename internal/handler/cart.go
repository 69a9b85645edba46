package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prodavnica/storefront/internal/domain/cart"
)

type cartLineResponse struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
}

type cartResponse struct {
	Items     []cartLineResponse `json:"items"`
	Total     json.Number        `json:"total"`
	ItemCount int                `json:"itemCount"`
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the current user's cart with totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	view, err := h.carts.View(r.Context(), u.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items := make([]cartLineResponse, len(view.Lines))
	for i, l := range view.Lines {
		items[i] = mapCartLine(l)
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Items:     items,
		Total:     money(view.Total),
		ItemCount: view.ItemCount,
	})
}

// AddCartItem puts a product into the cart, merging quantities on repeat.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line, err := h.carts.Add(r.Context(), u.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCartLine(*line))
}

// UpdateCartItem replaces the quantity of an existing cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.carts.Update(r.Context(), u.ID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartLine(*line))
}

// RemoveCartItem deletes a cart line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.carts.Remove(r.Context(), u.ID, chi.URLParam(r, "productID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapCartLine(l cart.Line) cartLineResponse {
	return cartLineResponse{
		ProductID: l.ProductID,
		Name:      l.Name,
		Price:     money(l.Price),
		Quantity:  l.Quantity,
	}
}
