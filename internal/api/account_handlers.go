package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/api/middleware"
	"github.com/example/ec-shop/internal/command"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/infrastructure/store"
)

// AccountHandlers serves profile, balance and address endpoints.
type AccountHandlers struct {
	cmdHandler *command.Handler
	accounts   store.AccountStore
}

func NewAccountHandlers(cmdHandler *command.Handler, accounts store.AccountStore) *AccountHandlers {
	return &AccountHandlers{
		cmdHandler: cmdHandler,
		accounts:   accounts,
	}
}

func (h *AccountHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.FindUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// Recharge adds funds to the authenticated user's balance.
func (h *AccountHandlers) Recharge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	balance, err := h.cmdHandler.Recharge(r.Context(), middleware.GetUserID(r.Context()), req.Amount)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "recharge successful",
		"balance": balance,
	})
}

func (h *AccountHandlers) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.accounts.ListAddresses(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"addresses": addresses})
}

type addressRequest struct {
	Province  string `json:"province"`
	City      string `json:"city"`
	District  string `json:"district"`
	Detail    string `json:"detail"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}

func (h *AccountHandlers) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	a := &user.Address{
		ID:        uuid.New().String(),
		UserID:    middleware.GetUserID(r.Context()),
		Province:  req.Province,
		City:      req.City,
		District:  req.District,
		Detail:    req.Detail,
		Name:      req.Name,
		Phone:     req.Phone,
		IsDefault: req.IsDefault,
	}
	if err := h.accounts.CreateAddress(r.Context(), a); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *AccountHandlers) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/users/addresses/")

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	a := &user.Address{
		ID:        id,
		UserID:    middleware.GetUserID(r.Context()),
		Province:  req.Province,
		City:      req.City,
		District:  req.District,
		Detail:    req.Detail,
		Name:      req.Name,
		Phone:     req.Phone,
		IsDefault: req.IsDefault,
	}
	if err := h.accounts.UpdateAddress(r.Context(), a); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *AccountHandlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/users/addresses/")

	if err := h.accounts.DeleteAddress(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "address deleted"})
}
