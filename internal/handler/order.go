package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prodavnica/storefront/internal/domain/order"
)

type orderItemResponse struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Total     json.Number         `json:"total"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	Items     []orderItemResponse `json:"items,omitempty"`
}

// CreateOrder converts the current user's cart into a pending order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	o, items, err := h.orders.Checkout(r.Context(), u.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrder(o, items))
}

// ListOrders returns the current user's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), u.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrder(&o.Order, o.Items)
	}
	writeJSON(w, http.StatusOK, out)
}

func mapOrder(o *order.Order, items []order.Item) orderResponse {
	respItems := make([]orderItemResponse, len(items))
	for i, it := range items {
		respItems[i] = orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     money(it.Price),
		}
	}
	return orderResponse{
		ID:        o.ID,
		Total:     money(o.Total),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		Items:     respItems,
	}
}
