package query

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/infrastructure/store"
)

// Handler serves the read side: listings and detail views assembled from
// the same tables the command side writes. No caching; the store is the
// single source of truth.
type Handler struct {
	orders   store.OrderStore
	products store.ProductStore
	accounts store.AccountStore
	carts    store.CartStore
}

func NewHandler(orders store.OrderStore, products store.ProductStore, accounts store.AccountStore, carts store.CartStore) *Handler {
	return &Handler{
		orders:   orders,
		products: products,
		accounts: accounts,
		carts:    carts,
	}
}

// ListOrders is the administrative listing with order number and status
// filters.
func (h *Handler) ListOrders(ctx context.Context, f store.OrderFilter) (*OrderPage, error) {
	orders, total, err := h.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}

	page := &OrderPage{Items: make([]*OrderView, 0, len(orders)), Total: total}
	for _, o := range orders {
		page.Items = append(page.Items, h.buildOrderView(ctx, o))
	}
	return page, nil
}

// ListUserOrders lists a single user's orders. A status filter of "all" is
// treated as no filter.
func (h *Handler) ListUserOrders(ctx context.Context, userID string, f store.OrderFilter) (*OrderPage, error) {
	f.UserID = userID
	if f.Status == "all" {
		f.Status = ""
	}
	return h.ListOrders(ctx, f)
}

func (h *Handler) GetOrder(ctx context.Context, id string) (*OrderView, error) {
	o, err := h.orders.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.buildOrderView(ctx, o), nil
}

func (h *Handler) buildOrderView(ctx context.Context, o *order.Order) *OrderView {
	view := &OrderView{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       make([]OrderItemView, 0, len(o.Items)),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}

	if u, err := h.accounts.FindUser(ctx, o.UserID); err == nil {
		view.Username = u.Username
	}
	if addr, err := h.accounts.FindAddress(ctx, o.AddressID); err == nil {
		view.Address = addr
	}

	for _, item := range o.Items {
		name := "unknown product"
		if p, err := h.products.Find(ctx, item.ProductID); err == nil {
			name = p.Name
		}
		view.Items = append(view.Items, OrderItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		})
	}
	return view
}

func (h *Handler) ListProducts(ctx context.Context, f store.ProductFilter) ([]*product.Product, int, error) {
	return h.products.List(ctx, f)
}

func (h *Handler) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return h.products.Find(ctx, id)
}

func (h *Handler) Categories(ctx context.Context) ([]string, error) {
	return h.products.Categories(ctx)
}

// GetCart returns the user's cart priced at current catalog prices.
// Snapshotting only happens at checkout.
func (h *Handler) GetCart(ctx context.Context, userID string) ([]*CartItemView, decimal.Decimal, error) {
	items, err := h.carts.Items(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	views := make([]*CartItemView, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		view := &CartItemView{
			ProductID:   item.ProductID,
			ProductName: "unknown product",
			Quantity:    item.Quantity,
		}
		if p, err := h.products.Find(ctx, item.ProductID); err == nil {
			view.ProductName = p.Name
			view.Price = p.Price
			view.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(view.Subtotal)
		}
		views = append(views, view)
	}
	return views, total.Round(2), nil
}
