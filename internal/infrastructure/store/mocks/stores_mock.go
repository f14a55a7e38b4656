package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/domain/user"
	"github.com/example/ec-shop/internal/event"
	"github.com/example/ec-shop/internal/infrastructure/store"
)

// MockTxRunner runs the unit of work without a database. It records whether
// the work reported failure, which in production triggers a rollback.
type MockTxRunner struct {
	Calls      int
	RolledBack bool
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.Calls++
	if err := fn(nil); err != nil {
		m.RolledBack = true
		return err
	}
	return nil
}

type StockCall struct {
	ProductID string
	Quantity  int
}

// MockProductStore is an in-memory ProductStore recording stock calls.
type MockProductStore struct {
	Products     map[string]*product.Product
	ReserveCalls []StockCall
	RestoreCalls []StockCall
}

func NewMockProductStore() *MockProductStore {
	return &MockProductStore{Products: make(map[string]*product.Product)}
}

func (m *MockProductStore) Find(ctx context.Context, id string) (*product.Product, error) {
	p, ok := m.Products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

func (m *MockProductStore) List(ctx context.Context, f store.ProductFilter) ([]*product.Product, int, error) {
	var out []*product.Product
	for _, p := range m.Products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *MockProductStore) Categories(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.Products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}

func (m *MockProductStore) Create(ctx context.Context, p *product.Product) error {
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductStore) Update(ctx context.Context, p *product.Product) error {
	if _, ok := m.Products[p.ID]; !ok {
		return product.ErrProductNotFound
	}
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.Products[id]; !ok {
		return product.ErrProductNotFound
	}
	delete(m.Products, id)
	return nil
}

func (m *MockProductStore) ReserveStock(ctx context.Context, tx *sql.Tx, id string, qty int) (decimal.Decimal, error) {
	p, ok := m.Products[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", product.ErrProductNotFound, id)
	}
	if p.Stock < qty {
		return decimal.Zero, fmt.Errorf("%w: %s", product.ErrInsufficientStock, p.Name)
	}
	p.Stock -= qty
	m.ReserveCalls = append(m.ReserveCalls, StockCall{ProductID: id, Quantity: qty})
	return p.Price, nil
}

func (m *MockProductStore) RestoreStock(ctx context.Context, tx *sql.Tx, id string, qty int) error {
	p, ok := m.Products[id]
	if !ok {
		return fmt.Errorf("%w: %s", product.ErrProductNotFound, id)
	}
	p.Stock += qty
	m.RestoreCalls = append(m.RestoreCalls, StockCall{ProductID: id, Quantity: qty})
	return nil
}

type BalanceCall struct {
	UserID string
	Amount decimal.Decimal
}

// MockAccountStore is an in-memory AccountStore recording balance calls.
type MockAccountStore struct {
	Users       map[string]*user.User
	Addresses   map[string]*user.Address
	DebitCalls  []BalanceCall
	CreditCalls []BalanceCall
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		Users:     make(map[string]*user.User),
		Addresses: make(map[string]*user.Address),
	}
}

func (m *MockAccountStore) FindUser(ctx context.Context, id string) (*user.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (m *MockAccountStore) FindUserByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range m.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *MockAccountStore) CreateUser(ctx context.Context, u *user.User) error {
	for _, existing := range m.Users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return store.ErrConflict
		}
	}
	m.Users[u.ID] = u
	return nil
}

func (m *MockAccountStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := m.Users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *MockAccountStore) Debit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error {
	u, ok := m.Users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	if u.Balance.LessThan(amount) {
		return user.ErrInsufficientBalance
	}
	u.Balance = u.Balance.Sub(amount)
	m.DebitCalls = append(m.DebitCalls, BalanceCall{UserID: id, Amount: amount})
	return nil
}

func (m *MockAccountStore) Credit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error {
	u, ok := m.Users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Balance = u.Balance.Add(amount)
	m.CreditCalls = append(m.CreditCalls, BalanceCall{UserID: id, Amount: amount})
	return nil
}

func (m *MockAccountStore) FindAddress(ctx context.Context, id string) (*user.Address, error) {
	a, ok := m.Addresses[id]
	if !ok {
		return nil, user.ErrAddressNotFound
	}
	return a, nil
}

func (m *MockAccountStore) ListAddresses(ctx context.Context, userID string) ([]*user.Address, error) {
	var out []*user.Address
	for _, a := range m.Addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAccountStore) CreateAddress(ctx context.Context, a *user.Address) error {
	m.Addresses[a.ID] = a
	return nil
}

func (m *MockAccountStore) UpdateAddress(ctx context.Context, a *user.Address) error {
	existing, ok := m.Addresses[a.ID]
	if !ok || existing.UserID != a.UserID {
		return user.ErrAddressNotFound
	}
	m.Addresses[a.ID] = a
	return nil
}

func (m *MockAccountStore) DeleteAddress(ctx context.Context, userID, id string) error {
	existing, ok := m.Addresses[id]
	if !ok || existing.UserID != userID {
		return user.ErrAddressNotFound
	}
	delete(m.Addresses, id)
	return nil
}

type StatusCall struct {
	OrderID string
	Status  order.Status
}

// MockOrderStore is an in-memory OrderStore. InsertErrs is a queue of
// errors returned by successive Insert calls before inserts start
// succeeding, used to simulate order number collisions.
type MockOrderStore struct {
	Orders            map[string]*order.Order
	InsertErrs        []error
	InsertCalls       int
	UpdateStatusCalls []StatusCall
	DeleteCalls       []string
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{Orders: make(map[string]*order.Order)}
}

func (m *MockOrderStore) Insert(ctx context.Context, tx *sql.Tx, o *order.Order) error {
	m.InsertCalls++
	if len(m.InsertErrs) > 0 {
		err := m.InsertErrs[0]
		m.InsertErrs = m.InsertErrs[1:]
		if err != nil {
			return err
		}
	}
	m.Orders[o.ID] = o
	return nil
}

func (m *MockOrderStore) Find(ctx context.Context, id string) (*order.Order, error) {
	o, ok := m.Orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderStore) FindForUpdate(ctx context.Context, tx *sql.Tx, id string) (*order.Order, error) {
	return m.Find(ctx, id)
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, st order.Status, at time.Time) error {
	o, ok := m.Orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = st
	o.UpdatedAt = at
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, StatusCall{OrderID: id, Status: st})
	return nil
}

func (m *MockOrderStore) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	if _, ok := m.Orders[id]; !ok {
		return order.ErrOrderNotFound
	}
	delete(m.Orders, id)
	m.DeleteCalls = append(m.DeleteCalls, id)
	return nil
}

func (m *MockOrderStore) List(ctx context.Context, f store.OrderFilter) ([]*order.Order, int, error) {
	var out []*order.Order
	for _, o := range m.Orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

// MockCartStore is an in-memory CartStore.
type MockCartStore struct {
	Carts map[string]map[string]int
}

func NewMockCartStore() *MockCartStore {
	return &MockCartStore{Carts: make(map[string]map[string]int)}
}

func (m *MockCartStore) Items(ctx context.Context, userID string) ([]*cart.Item, error) {
	var out []*cart.Item
	for pid, qty := range m.Carts[userID] {
		out = append(out, &cart.Item{UserID: userID, ProductID: pid, Quantity: qty})
	}
	return out, nil
}

func (m *MockCartStore) Add(ctx context.Context, userID, productID string, qty int) error {
	if m.Carts[userID] == nil {
		m.Carts[userID] = make(map[string]int)
	}
	m.Carts[userID][productID] += qty
	return nil
}

func (m *MockCartStore) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if _, ok := m.Carts[userID][productID]; !ok {
		return cart.ErrItemNotFound
	}
	m.Carts[userID][productID] = qty
	return nil
}

func (m *MockCartStore) Remove(ctx context.Context, userID, productID string) error {
	if _, ok := m.Carts[userID][productID]; !ok {
		return cart.ErrItemNotFound
	}
	delete(m.Carts[userID], productID)
	return nil
}

func (m *MockCartStore) Clear(ctx context.Context, userID string) error {
	delete(m.Carts, userID)
	return nil
}

// MockPublisher records published order events.
type MockPublisher struct {
	Events []event.OrderEvent
}

func (m *MockPublisher) PublishOrderEvent(ctx context.Context, e event.OrderEvent) error {
	m.Events = append(m.Events, e)
	return nil
}
