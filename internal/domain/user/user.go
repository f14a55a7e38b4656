package user

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAddressNotFound     = errors.New("address not found")
	ErrAddressReferenced   = errors.New("address is referenced by existing orders")
)

type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Phone        string          `json:"phone"`
	Role         string          `json:"role"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Address belongs to exactly one user. Orders hold a non-owning reference;
// deletion is blocked while any order points at it.
type Address struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Province  string `json:"province"`
	City      string `json:"city"`
	District  string `json:"district"`
	Detail    string `json:"detail"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}
