package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/domain/cart"
	"github.com/example/ec-shop/internal/domain/order"
	"github.com/example/ec-shop/internal/domain/product"
	"github.com/example/ec-shop/internal/domain/user"
)

// TxRunner is the unit of work every ledger mutation executes inside.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Keyword  string
	Page     int
	PerPage  int
}

// ProductStore is the catalog collaborator. ReserveStock and RestoreStock
// take the transaction so stock mutation commits atomically with the order
// mutation that caused it.
type ProductStore interface {
	Find(ctx context.Context, id string) (*product.Product, error)
	List(ctx context.Context, f ProductFilter) ([]*product.Product, int, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, p *product.Product) error
	Update(ctx context.Context, p *product.Product) error
	Delete(ctx context.Context, id string) error

	// ReserveStock decrements stock by qty if stock >= qty and returns the
	// current price as the order item's snapshot.
	ReserveStock(ctx context.Context, tx *sql.Tx, id string, qty int) (decimal.Decimal, error)
	// RestoreStock returns previously reserved quantity on cancellation.
	RestoreStock(ctx context.Context, tx *sql.Tx, id string, qty int) error
}

// AccountStore is the user/balance/address collaborator. Debit and Credit
// take the transaction of the status change that triggers them.
type AccountStore interface {
	FindUser(ctx context.Context, id string) (*user.User, error)
	FindUserByUsername(ctx context.Context, username string) (*user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	Debit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error
	Credit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error

	FindAddress(ctx context.Context, id string) (*user.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]*user.Address, error)
	CreateAddress(ctx context.Context, a *user.Address) error
	UpdateAddress(ctx context.Context, a *user.Address) error
	DeleteAddress(ctx context.Context, userID, id string) error
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID      string
	Status      string
	OrderNumber string
	Page        int
	PerPage     int
}

// OrderStore is the order ledger. FindForUpdate locks the order row so
// concurrent transitions on the same order are serialized.
type OrderStore interface {
	Insert(ctx context.Context, tx *sql.Tx, o *order.Order) error
	Find(ctx context.Context, id string) (*order.Order, error)
	FindForUpdate(ctx context.Context, tx *sql.Tx, id string) (*order.Order, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id string, st order.Status, at time.Time) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	List(ctx context.Context, f OrderFilter) ([]*order.Order, int, error)
}

type CartStore interface {
	Items(ctx context.Context, userID string) ([]*cart.Item, error)
	Add(ctx context.Context, userID, productID string, qty int) error
	SetQuantity(ctx context.Context, userID, productID string, qty int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}
