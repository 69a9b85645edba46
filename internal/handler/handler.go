// Package handler exposes the service over HTTP. Routing is chi; handlers
// convert JSON requests to domain calls and map domain errors to the
// {code, message} error shape.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/prodavnica/storefront/internal/domain/cart"
	"github.com/prodavnica/storefront/internal/domain/order"
)

// CartService is the cart surface the handlers consume.
type CartService interface {
	View(ctx context.Context, userID string) (*cart.View, error)
	Add(ctx context.Context, userID, productID string, qty int) (*cart.Line, error)
	Update(ctx context.Context, userID, productID string, qty int) (*cart.Line, error)
	Remove(ctx context.Context, userID, productID string) error
}

// OrderService is the checkout surface the handlers consume.
type OrderService interface {
	Checkout(ctx context.Context, userID string) (*order.Order, []order.Item, error)
	ListByUser(ctx context.Context, userID string) ([]order.WithItems, error)
}

// IntentManager creates or reuses the payment intent for an order.
type IntentManager interface {
	CreateOrReuse(ctx context.Context, orderID, currency string) (clientSecret string, err error)
}

// WebhookProcessor applies one raw webhook delivery.
type WebhookProcessor interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

// Handler holds the HTTP handlers for the storefront API.
type Handler struct {
	carts   CartService
	orders  OrderService
	intents IntentManager
	webhook WebhookProcessor
}

// New constructs a Handler with the required domain dependencies.
func New(carts CartService, orders OrderService, intents IntentManager, webhook WebhookProcessor) *Handler {
	return &Handler{
		carts:   carts,
		orders:  orders,
		intents: intents,
		webhook: webhook,
	}
}

// Routes mounts all API routes. auth wraps the user-facing routes; the
// webhook route authenticates by signature instead and stays outside it.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Get("/cart", h.GetCart)
		r.Post("/cart", h.AddCartItem)
		r.Put("/cart/{productID}", h.UpdateCartItem)
		r.Delete("/cart/{productID}", h.RemoveCartItem)

		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListOrders)

		r.Post("/payment-intents", h.CreatePaymentIntent)
	})

	r.Post("/payment-webhook", h.PaymentWebhook)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// money renders a decimal amount as a JSON number with two decimal places.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
