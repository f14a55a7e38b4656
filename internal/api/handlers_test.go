package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-shop/internal/api/middleware"
	"github.com/example/ec-shop/internal/auth"
	"github.com/example/ec-shop/internal/command"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/infrastructure/store/mocks"
	"github.com/example/ec-shop/internal/query"
)

type apiFixture struct {
	handlers *Handlers
	products *mocks.MockProductStore
	accounts *mocks.MockAccountStore
	orders   *mocks.MockOrderStore
}

func newAPIFixture() *apiFixture {
	tx := &mocks.MockTxRunner{}
	products := mocks.NewMockProductStore()
	accounts := mocks.NewMockAccountStore()
	orders := mocks.NewMockOrderStore()
	carts := mocks.NewMockCartStore()
	publisher := &mocks.MockPublisher{}

	cmdHandler := command.NewHandler(tx, products, accounts, orders, carts, publisher)
	queryHandler := query.NewHandler(orders, products, accounts, carts)

	accounts.Users["user-1"] = &user.User{
		ID:       "user-1",
		Username: "alice",
		Role:     user.RoleUser,
		Balance:  decimal.RequireFromString("100.00"),
	}
	accounts.Addresses["addr-1"] = &user.Address{ID: "addr-1", UserID: "user-1"}
	products.Products["prod-1"] = &product.Product{
		ID:    "prod-1",
		Name:  "Bamboo Toothbrush",
		Price: decimal.RequireFromString("4.50"),
		Stock: 10,
	}

	return &apiFixture{
		handlers: NewHandlers(cmdHandler, queryHandler),
		products: products,
		accounts: accounts,
		orders:   orders,
	}
}

func (f *apiFixture) seedOrder(status order.Status) {
	f.orders.Orders["order-1"] = &order.Order{
		ID:          "order-1",
		UserID:      "user-1",
		OrderNumber: "20260901ABC123",
		Status:      status,
		AddressID:   "addr-1",
		TotalAmount: decimal.RequireFromString("4.50"),
		Items: []order.Item{
			{ID: "item-1", OrderID: "order-1", ProductID: "prod-1", Quantity: 1, Price: decimal.RequireFromString("4.50")},
		},
	}
}

func asUser(req *http.Request, userID, role string) *http.Request {
	claims := &auth.Claims{UserID: userID, Username: userID, Role: role}
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateMyOrder_Success(t *testing.T) {
	f := newAPIFixture()

	body := `{"address_id":"addr-1","items":[{"product_id":"prod-1","quantity":2}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(body)), "user-1", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.CreateMyOrder(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["order_id"])
	assert.NotEmpty(t, resp["order_number"])
	total, err := decimal.NewFromString(resp["total_amount"].(string))
	require.NoError(t, err)
	assert.Equal(t, "9.00", total.StringFixed(2))
	assert.Equal(t, 8, f.products.Products["prod-1"].Stock)
}

func TestCreateMyOrder_InsufficientStock(t *testing.T) {
	f := newAPIFixture()

	body := `{"address_id":"addr-1","items":[{"product_id":"prod-1","quantity":99}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(body)), "user-1", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.CreateMyOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_stock", decodeError(t, rec)["error"])
}

func TestCreateMyOrder_EmptyItems(t *testing.T) {
	f := newAPIFixture()

	body := `{"address_id":"addr-1","items":[]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(body)), "user-1", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.CreateMyOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decodeError(t, rec)["error"])
}

func TestPayOrder_InsufficientBalance(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusPending)
	f.accounts.Users["user-1"].Balance = decimal.RequireFromString("1.00")

	body := `{"order_id":"order-1"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/pay", strings.NewReader(body)), "user-1", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.PayOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_balance", decodeError(t, rec)["error"])
}

func TestPayOrder_NotOwner(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusPending)

	body := `{"order_id":"order-1"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/pay", strings.NewReader(body)), "user-other", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.PayOrder(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec)["error"])
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newAPIFixture()

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/order-missing", nil), "user-1", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.GetOrder(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec)["error"])
}

func TestGetOrder_OtherUsersOrderForbidden(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusPending)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/order-1", nil), "user-other", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.GetOrder(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetOrder_AdminReadsAnyOrder(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusPending)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/order-1", nil), "admin-1", user.RoleAdmin)
	rec := httptest.NewRecorder()

	f.handlers.GetOrder(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusShipped)

	body := `{"status":"canceled"}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/orders/order-1/status", strings.NewReader(body)), "admin-1", user.RoleAdmin)
	rec := httptest.NewRecorder()

	f.handlers.UpdateOrderStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, rec)["error"])
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusPending)

	body := `{"status":"refunded"}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/orders/order-1/status", strings.NewReader(body)), "admin-1", user.RoleAdmin)
	rec := httptest.NewRecorder()

	f.handlers.UpdateOrderStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_argument", decodeError(t, rec)["error"])
}

func TestOrderAction_Delete(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusDelivered)

	body := `{"action":"delete"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/order-1/action", strings.NewReader(body)), "admin-1", user.RoleAdmin)
	rec := httptest.NewRecorder()

	f.handlers.OrderAction(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.orders.Orders)
}

func TestOrderAction_Unsupported(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusPending)

	body := `{"action":"archive"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/order-1/action", strings.NewReader(body)), "admin-1", user.RoleAdmin)
	rec := httptest.NewRecorder()

	f.handlers.OrderAction(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec)["message"], "unsupported action")
}

func TestCancelOrder_UserCancelsOwnPendingOrder(t *testing.T) {
	f := newAPIFixture()
	f.seedOrder(order.StatusPending)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders/order-1/cancel", nil), "user-1", user.RoleUser)
	rec := httptest.NewRecorder()

	f.handlers.CancelOrder(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusCanceled, f.orders.Orders["order-1"].Status)
	assert.Equal(t, 11, f.products.Products["prod-1"].Stock)
}
