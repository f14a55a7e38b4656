package order

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order must have at least one item")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrMissingAddress    = errors.New("order requires a shipping address")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderNotPending   = errors.New("order must be pending to be paid")
	ErrOrderNotPaid      = errors.New("order must be paid before shipping")
	ErrOrderNotShipped   = errors.New("order must be shipped before delivery")
	ErrOrderShipped      = errors.New("cannot cancel shipped order")
	ErrOrderDelivered    = errors.New("order is already delivered")
	ErrOrderCanceled     = errors.New("order is already canceled")
)

// validTransitions defines allowed state transitions.
// delivered and canceled are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCanceled},
	StatusPaid:      {StatusShipped, StatusCanceled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCanceled:  {},
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := validTransitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	OrderNumber string          `json:"order_number"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AddressID   string          `json:"address_id"`
	Items       []Item          `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Item is an order line. Price is the product price snapshotted at order
// time, decoupled from later product price changes.
type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums item subtotals, rounded to 2 decimal places.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionError returns an appropriate error for an invalid transition.
func (o *Order) TransitionError(target Status) error {
	switch {
	case o.Status == StatusCanceled:
		return ErrOrderCanceled
	case o.Status == StatusDelivered:
		return ErrOrderDelivered
	case o.Status == StatusShipped && target == StatusCanceled:
		return ErrOrderShipped
	case o.Status != StatusPending && target == StatusPaid:
		return ErrOrderNotPending
	case o.Status == StatusPending && target == StatusShipped:
		return ErrOrderNotPaid
	case o.Status != StatusShipped && target == StatusDelivered:
		return ErrOrderNotShipped
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.Status, target)
	}
}

const numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewNumber generates an order number: current date plus a 6 character
// random suffix. Uniqueness is enforced by the store; the caller retries
// with a fresh number on conflict.
func NewNumber() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure means the host is broken
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return time.Now().Format("20060102") + string(buf)
}
