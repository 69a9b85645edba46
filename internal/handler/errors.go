package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/prodavnica/storefront/internal/domain/cart"
	"github.com/prodavnica/storefront/internal/domain/order"
	"github.com/prodavnica/storefront/internal/domain/payment"
	"github.com/prodavnica/storefront/internal/domain/product"
	"github.com/prodavnica/storefront/internal/domain/user"
)

// errorResponse is the JSON error shape for every failure.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

// respondError maps domain errors to HTTP statuses. Unexpected errors are
// logged with context and surfaced as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var iqErr *cart.InvalidQuantityError

	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.As(err, &iqErr):
		writeError(w, http.StatusBadRequest, iqErr.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "cart item not found")
	case errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case isProcessorError(err):
		// External processor failure: surfaced without retry, the client may
		// resubmit.
		writeError(w, http.StatusBadGateway, "payment processor unavailable")
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isProcessorError(err error) bool {
	var pErr *payment.ProcessorError
	return errors.As(err, &pErr)
}
