package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/ec-shop/internal/domain/order"
)

// PostgresOrderStore implements OrderStore on PostgreSQL.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

// Insert persists an order and its items as one unit inside the checkout
// transaction. A unique violation on order_number surfaces as ErrConflict
// so the caller can retry with a fresh number.
func (s *PostgresOrderStore) Insert(ctx context.Context, tx *sql.Tx, o *order.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, order_number, status, total_amount, address_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.UserID, o.OrderNumber, o.Status, o.TotalAmount, o.AddressID, o.CreatedAt, o.UpdatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("order number %s: %w", o.OrderNumber, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, item.ID, o.ID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (s *PostgresOrderStore) Find(ctx context.Context, id string) (*order.Order, error) {
	return s.find(ctx, s.db, id, false)
}

// FindForUpdate locks the order row for the duration of the transaction.
// Concurrent transitions on the same order serialize here, so two requests
// cannot both observe pending and both apply the payment debit.
func (s *PostgresOrderStore) FindForUpdate(ctx context.Context, tx *sql.Tx, id string) (*order.Order, error) {
	return s.find(ctx, tx, id, true)
}

func (s *PostgresOrderStore) find(ctx context.Context, q querier, id string, forUpdate bool) (*order.Order, error) {
	query := `SELECT id, user_id, order_number, status, total_amount, address_id, created_at, updated_at
		FROM orders WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var o order.Order
	err := q.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.UserID, &o.OrderNumber,
		&o.Status, &o.TotalAmount, &o.AddressID, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	items, err := s.loadItems(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *PostgresOrderStore) loadItems(ctx context.Context, q querier, orderID string) ([]order.Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresOrderStore) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, st order.Status, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, st, at)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// Delete removes the order together with its items. The cascade is the
// ledger's own invariant, enforced here rather than left to the schema.
func (s *PostgresOrderStore) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func (s *PostgresOrderStore) List(ctx context.Context, f OrderFilter) ([]*order.Order, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if f.UserID != "" {
		args = append(args, f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.OrderNumber != "" {
		args = append(args, "%"+f.OrderNumber+"%")
		where += fmt.Sprintf(" AND order_number LIKE $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, order_number, status, total_amount, address_id, created_at, updated_at
		FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Status,
			&o.TotalAmount, &o.AddressID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, o := range orders {
		items, err := s.loadItems(ctx, s.db, o.ID)
		if err != nil {
			return nil, 0, err
		}
		o.Items = items
	}
	return orders, total, nil
}
