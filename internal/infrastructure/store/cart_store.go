package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/ec-shop/internal/domain/cart"
)

// PostgresCartStore implements CartStore on PostgreSQL. Carts are plain
// rows, one per (user, product); checkout consumes an explicit item list
// so the cart never participates in the ledger transaction.
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

func (s *PostgresCartStore) Items(ctx context.Context, userID string) ([]*cart.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, product_id, quantity FROM cart_items WHERE user_id = $1 ORDER BY product_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []*cart.Item
	for rows.Next() {
		var item cart.Item
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (s *PostgresCartStore) Add(ctx context.Context, userID, productID string, qty int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity
	`, userID, productID, qty)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (s *PostgresCartStore) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND product_id = $2
	`, userID, productID, qty)
	if err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (s *PostgresCartStore) Remove(ctx context.Context, userID, productID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (s *PostgresCartStore) Clear(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
