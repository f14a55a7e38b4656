package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/domain/product"
)

// PostgresProductStore implements ProductStore on PostgreSQL.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = `id, name, description, price, stock, category,
	eco_friendly, eco_labels, material, carbon_footprint, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*product.Product, error) {
	var p product.Product
	var labels string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category,
		&p.EcoFriendly, &labels, &p.Material, &p.CarbonFootprint, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if labels != "" {
		p.EcoLabels = strings.Split(labels, ",")
	}
	return &p, nil
}

func (s *PostgresProductStore) Find(ctx context.Context, id string) (*product.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, product.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *PostgresProductStore) List(ctx context.Context, f ProductFilter) ([]*product.Product, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	args = append(args, perPage, (page-1)*perPage)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			productColumns, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (s *PostgresProductStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresProductStore) Create(ctx context.Context, p *product.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock, category,
			eco_friendly, eco_labels, material, carbon_footprint, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category,
		p.EcoFriendly, strings.Join(p.EcoLabels, ","), p.Material, p.CarbonFootprint,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *PostgresProductStore) Update(ctx context.Context, p *product.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = $2, description = $3, price = $4, stock = $5,
			category = $6, eco_friendly = $7, eco_labels = $8, material = $9,
			carbon_footprint = $10, updated_at = $11
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category,
		p.EcoFriendly, strings.Join(p.EcoLabels, ","), p.Material, p.CarbonFootprint,
		time.Now())
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// Delete refuses to remove a product that any order item references;
// historical orders keep their snapshot prices but the product row must
// stay resolvable.
func (s *PostgresProductStore) Delete(ctx context.Context, id string) error {
	var referenced bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)`, id).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("check product references: %w", err)
	}
	if referenced {
		return product.ErrProductReferenced
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// ReserveStock is a conditional decrement: the stock >= qty guard makes
// concurrent checkouts against the same product serialize on the row, so
// stock can never go negative. Returns the price snapshot for the order item.
func (s *PostgresProductStore) ReserveStock(ctx context.Context, tx *sql.Tx, id string, qty int) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := tx.QueryRowContext(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1
		RETURNING price
	`, qty, id).Scan(&price)
	if err == sql.ErrNoRows {
		// Distinguish a missing product from an under-stocked one.
		var name string
		err := tx.QueryRowContext(ctx, `SELECT name FROM products WHERE id = $1`, id).Scan(&name)
		if err == sql.ErrNoRows {
			return decimal.Zero, fmt.Errorf("%w: %s", product.ErrProductNotFound, id)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("reserve stock: %w", err)
		}
		return decimal.Zero, fmt.Errorf("%w: %s", product.ErrInsufficientStock, name)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("reserve stock: %w", err)
	}
	return price, nil
}

func (s *PostgresProductStore) RestoreStock(ctx context.Context, tx *sql.Tx, id string, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = now() WHERE id = $2
	`, qty, id)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", product.ErrProductNotFound, id)
	}
	return nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	return page, perPage
}
