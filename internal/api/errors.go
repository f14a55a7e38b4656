package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/ec-shop/internal/command"
	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/infrastructure/store"
)

// Stable error kinds surfaced to clients alongside a human-readable
// message. Unexpected store failures map to "internal" without leaking
// detail.
const (
	kindNotFound            = "not_found"
	kindInvalidArgument     = "invalid_argument"
	kindInvalidTransition   = "invalid_transition"
	kindInsufficientStock   = "insufficient_stock"
	kindInsufficientBalance = "insufficient_balance"
	kindForbidden           = "forbidden"
	kindConflict            = "conflict"
	kindInternal            = "internal"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondErrorKind(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, map[string]string{"error": kind, "message": message})
}

// respondDomainError translates business-rule violations into a status code
// and stable kind.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, user.ErrAddressNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		respondErrorKind(w, http.StatusNotFound, kindNotFound, err.Error())

	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, user.ErrInvalidAmount):
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, err.Error())

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrOrderNotPending),
		errors.Is(err, order.ErrOrderNotPaid),
		errors.Is(err, order.ErrOrderNotShipped),
		errors.Is(err, order.ErrOrderShipped),
		errors.Is(err, order.ErrOrderDelivered),
		errors.Is(err, order.ErrOrderCanceled):
		respondErrorKind(w, http.StatusBadRequest, kindInvalidTransition, err.Error())

	case errors.Is(err, product.ErrInsufficientStock):
		respondErrorKind(w, http.StatusBadRequest, kindInsufficientStock, err.Error())

	case errors.Is(err, user.ErrInsufficientBalance):
		respondErrorKind(w, http.StatusBadRequest, kindInsufficientBalance, err.Error())

	case errors.Is(err, command.ErrNotOwner):
		respondErrorKind(w, http.StatusForbidden, kindForbidden, err.Error())

	case errors.Is(err, store.ErrConflict),
		errors.Is(err, product.ErrProductReferenced),
		errors.Is(err, user.ErrAddressReferenced),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrUsernameTaken):
		respondErrorKind(w, http.StatusConflict, kindConflict, err.Error())

	default:
		log.Printf("[API] Internal error: %v", err)
		respondErrorKind(w, http.StatusInternalServerError, kindInternal, "internal server error")
	}
}
