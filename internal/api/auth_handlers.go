package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/api/middleware"
	"github.com/example/ec-shop/internal/auth"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/infrastructure/store"
)

// AuthHandlers handles authentication-related HTTP requests.
type AuthHandlers struct {
	accounts   store.AccountStore
	jwtService *auth.JWTService
}

func NewAuthHandlers(accounts store.AccountStore, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		accounts:   accounts,
		jwtService: jwtService,
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse represents user data in responses.
type UserResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Balance:   u.Balance,
		CreatedAt: u.CreatedAt,
	}
}

// Register creates a new account with the user role and a zero balance.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "username and email are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "password must be at least 8 characters")
			return
		}
		respondDomainError(w, err)
		return
	}

	newUser := &user.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		Balance:      decimal.Zero,
		CreatedAt:    time.Now(),
	}
	if err := h.accounts.CreateUser(r.Context(), newUser); err != nil {
		respondDomainError(w, err)
		return
	}

	h.setAuthCookies(w, r, newUser)

	respondJSON(w, http.StatusCreated, map[string]any{
		"user":    toUserResponse(newUser),
		"message": "registration successful",
	})
}

// Login authenticates by username and password.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	u, err := h.accounts.FindUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			respondErrorKind(w, http.StatusUnauthorized, kindInvalidArgument, "invalid username or password")
			return
		}
		respondDomainError(w, err)
		return
	}

	if !auth.CheckPassword(req.Password, u.PasswordHash) {
		respondErrorKind(w, http.StatusUnauthorized, kindInvalidArgument, "invalid username or password")
		return
	}

	h.setAuthCookies(w, r, u)

	respondJSON(w, http.StatusOK, map[string]any{
		"user":    toUserResponse(u),
		"message": "login successful",
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

// Refresh issues a new access token from a valid refresh token.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondErrorKind(w, http.StatusUnauthorized, kindInvalidArgument, "no refresh token")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondErrorKind(w, http.StatusUnauthorized, kindInvalidArgument, "invalid refresh token")
		return
	}

	u, err := h.accounts.FindUser(r.Context(), userID)
	if err != nil {
		h.clearAuthCookies(w)
		respondErrorKind(w, http.StatusUnauthorized, kindInvalidArgument, "user not found")
		return
	}

	h.setAuthCookies(w, r, u)

	respondJSON(w, http.StatusOK, map[string]string{"message": "token refreshed"})
}

// Me returns the current authenticated user's information.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondErrorKind(w, http.StatusUnauthorized, kindInvalidArgument, "unauthorized")
		return
	}

	u, err := h.accounts.FindUser(r.Context(), claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondErrorKind(w, http.StatusUnauthorized, kindInvalidArgument, "unauthorized")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	u, err := h.accounts.FindUser(r.Context(), claims.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !auth.CheckPassword(req.CurrentPassword, u.PasswordHash) {
		respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondErrorKind(w, http.StatusBadRequest, kindInvalidArgument, "new password must be at least 8 characters")
			return
		}
		respondDomainError(w, err)
		return
	}
	if err := h.accounts.UpdatePassword(r.Context(), claims.UserID, hash); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
}

// Helper methods

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, u *user.User) {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(u.ID, u.Username, u.Role)
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(u.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/api/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
