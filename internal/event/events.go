package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle event types published after a successful commit.
const (
	TypeOrderCreated   = "order.created"
	TypeOrderPaid      = "order.paid"
	TypeOrderShipped   = "order.shipped"
	TypeOrderDelivered = "order.delivered"
	TypeOrderCanceled  = "order.canceled"
	TypeOrderDeleted   = "order.deleted"
)

type OrderEvent struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Items       []OrderItem     `json:"items,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Publisher delivers order events to interested consumers (the notifier).
// Publishing is best-effort: the ledger transaction has already committed.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, e OrderEvent) error
}
