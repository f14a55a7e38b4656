package command

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/event"
	"github.com/example/ec-shop/internal/infrastructure/store"
)

// ErrNotOwner is returned when a user-scoped command targets an order
// belonging to someone else.
var ErrNotOwner = errors.New("order belongs to another user")

// orderNumberAttempts bounds the retry on an order number collision before
// surfacing Conflict to the caller.
const orderNumberAttempts = 2

// Handler executes write operations against the ledger. Every mutation of
// orders, stock and balances runs inside one transaction supplied by the
// TxRunner; the stores never see partially applied state.
type Handler struct {
	tx        store.TxRunner
	products  store.ProductStore
	accounts  store.AccountStore
	orders    store.OrderStore
	carts     store.CartStore
	publisher event.Publisher
}

func NewHandler(
	tx store.TxRunner,
	products store.ProductStore,
	accounts store.AccountStore,
	orders store.OrderStore,
	carts store.CartStore,
	publisher event.Publisher,
) *Handler {
	return &Handler{
		tx:        tx,
		products:  products,
		accounts:  accounts,
		orders:    orders,
		carts:     carts,
		publisher: publisher,
	}
}

// CreateOrder runs checkout: it validates the purchaser and address,
// reserves stock and snapshots prices per line, computes the total and
// persists the order with its items. All stock decrements and the insert
// commit as one unit; any failing line rolls everything back.
func (h *Handler) CreateOrder(ctx context.Context, cmd CreateOrder) (*order.Order, error) {
	if len(cmd.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}
	if cmd.AddressID == "" {
		return nil, order.ErrMissingAddress
	}
	for _, line := range cmd.Items {
		if line.Quantity <= 0 {
			return nil, order.ErrInvalidQuantity
		}
	}

	if _, err := h.accounts.FindUser(ctx, cmd.UserID); err != nil {
		return nil, err
	}
	addr, err := h.accounts.FindAddress(ctx, cmd.AddressID)
	if err != nil {
		return nil, err
	}
	if addr.UserID != cmd.UserID {
		return nil, user.ErrAddressNotFound
	}

	var o *order.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		now := time.Now()
		o = &order.Order{
			ID:          uuid.New().String(),
			UserID:      cmd.UserID,
			AddressID:   cmd.AddressID,
			OrderNumber: order.NewNumber(),
			Status:      order.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = h.tx.WithinTx(ctx, func(tx *sql.Tx) error {
			items := make([]order.Item, 0, len(cmd.Items))
			for _, line := range cmd.Items {
				price, err := h.products.ReserveStock(ctx, tx, line.ProductID, line.Quantity)
				if err != nil {
					return err
				}
				items = append(items, order.Item{
					ID:        uuid.New().String(),
					OrderID:   o.ID,
					ProductID: line.ProductID,
					Quantity:  line.Quantity,
					Price:     price,
				})
			}
			o.Items = items
			o.TotalAmount = order.Total(items)
			return h.orders.Insert(ctx, tx, o)
		})
		if !errors.Is(err, store.ErrConflict) {
			break
		}
		log.Printf("[Command] Order number %s collided, retrying", o.OrderNumber)
	}
	if err != nil {
		return nil, err
	}

	h.publishOrderEvent(ctx, event.TypeOrderCreated, o)
	return o, nil
}

// Transition applies one step of the order status state machine together
// with its compensating effects: pending→paid debits the buyer,
// pending/paid→canceled restocks every line, and a paid order additionally
// refunds the buyer's balance on cancellation. The order row is locked for
// the duration, so concurrent transitions serialize.
func (h *Handler) Transition(ctx context.Context, cmd TransitionOrder) (*order.Order, error) {
	target, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	var o *order.Order
	err = h.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		o, err = h.orders.FindForUpdate(ctx, tx, cmd.OrderID)
		if err != nil {
			return err
		}
		if cmd.RequestedBy != "" && o.UserID != cmd.RequestedBy {
			return ErrNotOwner
		}
		if !o.CanTransitionTo(target) {
			return o.TransitionError(target)
		}

		switch target {
		case order.StatusPaid:
			if err := h.accounts.Debit(ctx, tx, o.UserID, o.TotalAmount); err != nil {
				return err
			}
		case order.StatusCanceled:
			for _, item := range o.Items {
				if err := h.products.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			if o.Status == order.StatusPaid {
				if err := h.accounts.Credit(ctx, tx, o.UserID, o.TotalAmount); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		if err := h.orders.UpdateStatus(ctx, tx, o.ID, target, now); err != nil {
			return err
		}
		o.Status = target
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.publishOrderEvent(ctx, transitionEventType(target), o)
	return o, nil
}

// Pay is the user-facing pending→paid wrapper.
func (h *Handler) Pay(ctx context.Context, orderID, userID string) (*order.Order, error) {
	return h.Transition(ctx, TransitionOrder{
		OrderID:     orderID,
		Status:      string(order.StatusPaid),
		RequestedBy: userID,
	})
}

// Confirm is the user-facing shipped→delivered wrapper.
func (h *Handler) Confirm(ctx context.Context, orderID, userID string) (*order.Order, error) {
	return h.Transition(ctx, TransitionOrder{
		OrderID:     orderID,
		Status:      string(order.StatusDelivered),
		RequestedBy: userID,
	})
}

// Cancel moves an order to canceled, restocking its items.
func (h *Handler) Cancel(ctx context.Context, orderID, userID string) (*order.Order, error) {
	return h.Transition(ctx, TransitionOrder{
		OrderID:     orderID,
		Status:      string(order.StatusCanceled),
		RequestedBy: userID,
	})
}

// DeleteOrder removes an order and its items regardless of status. It does
// not restock or refund; it is an administrative, audit-worthy action, not
// a cancellation substitute.
func (h *Handler) DeleteOrder(ctx context.Context, orderID string) error {
	var o *order.Order
	err := h.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		var err error
		o, err = h.orders.FindForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		return h.orders.Delete(ctx, tx, orderID)
	})
	if err != nil {
		return err
	}

	log.Printf("[Command] Order %s (%s, status %s) deleted by administrator",
		o.ID, o.OrderNumber, o.Status)
	h.publishOrderEvent(ctx, event.TypeOrderDeleted, o)
	return nil
}

// Recharge credits the user's balance.
func (h *Handler) Recharge(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, user.ErrInvalidAmount
	}
	if err := h.accounts.Credit(ctx, nil, userID, amount); err != nil {
		return decimal.Zero, err
	}
	u, err := h.accounts.FindUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

// Product catalog commands (admin).

func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	now := time.Now()
	p := &product.Product{
		ID:              uuid.New().String(),
		Name:            cmd.Name,
		Description:     cmd.Description,
		Price:           cmd.Price.Round(2),
		Stock:           cmd.Stock,
		Category:        cmd.Category,
		EcoFriendly:     cmd.EcoFriendly,
		EcoLabels:       cmd.EcoLabels,
		Material:        cmd.Material,
		CarbonFootprint: cmd.CarbonFootprint,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	return h.products.Update(ctx, &product.Product{
		ID:              cmd.ProductID,
		Name:            cmd.Name,
		Description:     cmd.Description,
		Price:           cmd.Price.Round(2),
		Stock:           cmd.Stock,
		Category:        cmd.Category,
		EcoFriendly:     cmd.EcoFriendly,
		EcoLabels:       cmd.EcoLabels,
		Material:        cmd.Material,
		CarbonFootprint: cmd.CarbonFootprint,
	})
}

func (h *Handler) DeleteProduct(ctx context.Context, id string) error {
	return h.products.Delete(ctx, id)
}

// Cart commands.

func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	if cmd.Quantity <= 0 {
		return cart.ErrInvalidQuantity
	}
	if _, err := h.products.Find(ctx, cmd.ProductID); err != nil {
		return err
	}
	return h.carts.Add(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity)
}

func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) error {
	if cmd.Quantity <= 0 {
		return cart.ErrInvalidQuantity
	}
	return h.carts.SetQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity)
}

func (h *Handler) RemoveFromCart(ctx context.Context, userID, productID string) error {
	return h.carts.Remove(ctx, userID, productID)
}

func (h *Handler) ClearCart(ctx context.Context, userID string) error {
	return h.carts.Clear(ctx, userID)
}

func (h *Handler) publishOrderEvent(ctx context.Context, eventType string, o *order.Order) {
	if h.publisher == nil {
		return
	}

	items := make([]event.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = event.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	e := event.OrderEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      string(o.Status),
		Total:       o.TotalAmount,
		Items:       items,
		OccurredAt:  time.Now(),
	}
	if err := h.publisher.PublishOrderEvent(ctx, e); err != nil {
		// The transaction already committed; notification delivery is
		// best-effort.
		log.Printf("[Command] Failed to publish %s for order %s: %v", eventType, o.ID, err)
	}
}

func transitionEventType(target order.Status) string {
	switch target {
	case order.StatusPaid:
		return event.TypeOrderPaid
	case order.StatusShipped:
		return event.TypeOrderShipped
	case order.StatusDelivered:
		return event.TypeOrderDelivered
	case order.StatusCanceled:
		return event.TypeOrderCanceled
	default:
		return ""
	}
}
