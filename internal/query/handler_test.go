package query

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/infrastructure/store"
	"github.com/example/ec-shop/internal/infrastructure/store/mocks"
)

func newQueryFixture() (*Handler, *mocks.MockOrderStore, *mocks.MockProductStore, *mocks.MockAccountStore, *mocks.MockCartStore) {
	orders := mocks.NewMockOrderStore()
	products := mocks.NewMockProductStore()
	accounts := mocks.NewMockAccountStore()
	carts := mocks.NewMockCartStore()
	h := NewHandler(orders, products, accounts, carts)

	accounts.Users["user-1"] = &user.User{ID: "user-1", Username: "alice"}
	accounts.Addresses["addr-1"] = &user.Address{ID: "addr-1", UserID: "user-1", City: "Kyoto"}
	products.Products["prod-1"] = &product.Product{
		ID:    "prod-1",
		Name:  "Bamboo Toothbrush",
		Price: decimal.RequireFromString("4.50"),
		Stock: 10,
	}
	return h, orders, products, accounts, carts
}

func TestGetOrder_BuildsView(t *testing.T) {
	h, orders, _, _, _ := newQueryFixture()
	orders.Orders["order-1"] = &order.Order{
		ID:          "order-1",
		UserID:      "user-1",
		OrderNumber: "20260901ABC123",
		Status:      order.StatusPending,
		AddressID:   "addr-1",
		TotalAmount: decimal.RequireFromString("9.00"),
		Items: []order.Item{
			{ID: "item-1", ProductID: "prod-1", Quantity: 2, Price: decimal.RequireFromString("4.50")},
		},
	}

	view, err := h.GetOrder(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	require.NotNil(t, view.Address)
	assert.Equal(t, "Kyoto", view.Address.City)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Bamboo Toothbrush", view.Items[0].ProductName)
	assert.Equal(t, "9.00", view.Items[0].Subtotal.StringFixed(2))
}

func TestGetOrder_MissingProductFallsBack(t *testing.T) {
	h, orders, _, _, _ := newQueryFixture()
	orders.Orders["order-1"] = &order.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: order.StatusPending,
		Items: []order.Item{
			{ID: "item-1", ProductID: "prod-gone", Quantity: 1, Price: decimal.RequireFromString("3.00")},
		},
	}

	view, err := h.GetOrder(context.Background(), "order-1")

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	// The snapshot price survives even when the product is gone.
	assert.Equal(t, "unknown product", view.Items[0].ProductName)
	assert.Equal(t, "3.00", view.Items[0].Price.StringFixed(2))
}

func TestGetOrder_NotFound(t *testing.T) {
	h, _, _, _, _ := newQueryFixture()

	_, err := h.GetOrder(context.Background(), "order-missing")

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestListUserOrders_ScopesToUserAndExpandsAll(t *testing.T) {
	h, orders, _, _, _ := newQueryFixture()
	orders.Orders["order-1"] = &order.Order{ID: "order-1", UserID: "user-1", Status: order.StatusPending}
	orders.Orders["order-2"] = &order.Order{ID: "order-2", UserID: "user-1", Status: order.StatusPaid}
	orders.Orders["order-3"] = &order.Order{ID: "order-3", UserID: "user-other", Status: order.StatusPending}

	page, err := h.ListUserOrders(context.Background(), "user-1", store.OrderFilter{Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = h.ListUserOrders(context.Background(), "user-1", store.OrderFilter{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "order-2", page.Items[0].ID)
}

func TestGetCart_PricedAtCurrentPrices(t *testing.T) {
	h, _, products, _, carts := newQueryFixture()
	require.NoError(t, carts.Add(context.Background(), "user-1", "prod-1", 2))

	views, total, err := h.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "9.00", total.StringFixed(2))

	// Cart views follow catalog price changes, unlike order snapshots.
	products.Products["prod-1"].Price = decimal.RequireFromString("6.00")
	_, total, err = h.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "12.00", total.StringFixed(2))
}

func TestGetCart_Empty(t *testing.T) {
	h, _, _, _, _ := newQueryFixture()

	views, total, err := h.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, views)
	assert.True(t, total.IsZero())
}
