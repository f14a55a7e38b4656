package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/ec-shop/internal/api/middleware"
	"github.com/example/ec-shop/internal/command"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/infrastructure/store"
	"github.com/example/ec-shop/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Order Handlers

// CreateOrder is the administrative checkout: the request names the
// purchaser explicitly.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	o, err := h.cmdHandler.CreateOrder(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

// CreateMyOrder is the end-user checkout; the purchaser is the
// authenticated identity.
func (h *Handlers) CreateMyOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AddressID string              `json:"address_id"`
		Items     []command.OrderLine `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	o, err := h.cmdHandler.CreateOrder(r.Context(), command.CreateOrder{
		UserID:    middleware.GetUserID(r.Context()),
		AddressID: req.AddressID,
		Items:     req.Items,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"total_amount": o.TotalAmount,
	})
}

// ListOrders is the administrative listing with order_number and status
// filters.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	f := store.OrderFilter{
		OrderNumber: r.URL.Query().Get("order_number"),
		Status:      r.URL.Query().Get("status"),
		Page:        queryInt(r, "page", 1),
		PerPage:     queryInt(r, "per_page", 10),
	}

	page, err := h.queryHandler.ListOrders(r.Context(), f)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListMyOrders lists the authenticated user's own orders.
func (h *Handlers) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	perPage := queryInt(r, "size", 0)
	if perPage == 0 {
		perPage = queryInt(r, "per_page", 10)
	}
	f := store.OrderFilter{
		Status:  r.URL.Query().Get("status"),
		Page:    queryInt(r, "page", 1),
		PerPage: perPage,
	}

	page, err := h.queryHandler.ListUserOrders(r.Context(), middleware.GetUserID(r.Context()), f)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")

	view, err := h.queryHandler.GetOrder(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// Users may only read their own orders; admins read all.
	if view.UserID != middleware.GetUserID(r.Context()) && !isAdmin(r) {
		respondErrorKind(w, http.StatusForbidden, kindForbidden, "forbidden")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// UpdateOrderStatus applies an arbitrary transition (admin).
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/orders/"), "/status")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	o, err := h.cmdHandler.Transition(r.Context(), command.TransitionOrder{
		OrderID: id,
		Status:  req.Status,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "order status updated",
		"order":   o,
	})
}

// PayOrder is the pending→paid convenience wrapper for the order's owner.
func (h *Handlers) PayOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := decodeOrderID(w, r)
	if !ok {
		return
	}

	o, err := h.cmdHandler.Pay(r.Context(), orderID, middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"order_id": o.ID,
		"status":   o.Status,
	})
}

// ConfirmOrder is the shipped→delivered convenience wrapper for the
// order's owner.
func (h *Handlers) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := decodeOrderID(w, r)
	if !ok {
		return
	}

	o, err := h.cmdHandler.Confirm(r.Context(), orderID, middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"order_id": o.ID,
		"status":   o.Status,
	})
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/orders/"), "/cancel")

	// Admins cancel any order; users only their own.
	requestedBy := middleware.GetUserID(r.Context())
	if isAdmin(r) {
		requestedBy = ""
	}

	o, err := h.cmdHandler.Cancel(r.Context(), id, requestedBy)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"order_id": o.ID,
		"status":   o.Status,
	})
}

// OrderAction handles administrative order actions. Delete removes the
// order and its items with no restock or refund.
func (h *Handlers) OrderAction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/orders/"), "/action")

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	switch req.Action {
	case "delete":
		if err := h.cmdHandler.DeleteOrder(r.Context(), id); err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
	default:
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument,
			fmt.Sprintf("unsupported action: %s", req.Action))
	}
}

// Helper functions

func decodeOrderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "missing order_id")
		return "", false
	}
	return req.OrderID, true
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// isAdmin checks if the current identity has the admin role.
func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	return ok && claims.Role == user.RoleAdmin
}
