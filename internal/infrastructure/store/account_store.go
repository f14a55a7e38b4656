package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/ec-shop/internal/domain/user"
)

// PostgresAccountStore implements AccountStore on PostgreSQL.
type PostgresAccountStore struct {
	db *sql.DB
}

func NewPostgresAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

const userColumns = `id, username, email, password_hash, phone, role, balance, created_at`

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone,
		&u.Role, &u.Balance, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresAccountStore) FindUser(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresAccountStore) FindUserByUsername(ctx context.Context, username string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err == sql.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (s *PostgresAccountStore) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, phone, role, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Phone, u.Role, u.Balance, u.CreatedAt)
	if IsUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Debit subtracts amount from the balance with a balance >= amount guard,
// inside the caller's transaction so payment and status change commit as
// one unit.
func (s *PostgresAccountStore) Debit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1
	`, amount, id)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("debit: %w", err)
		}
		if !exists {
			return user.ErrUserNotFound
		}
		return user.ErrInsufficientBalance
	}
	return nil
}

// Credit adds amount to the balance. A nil tx runs against the pool
// (balance recharge); refunds pass the cancellation transaction.
func (s *PostgresAccountStore) Credit(ctx context.Context, tx *sql.Tx, id string, amount decimal.Decimal) error {
	var q querier = s.db
	if tx != nil {
		q = tx
	}
	res, err := q.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id = $2`, amount, id)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

const addressColumns = `id, user_id, province, city, district, detail, name, phone, is_default`

func scanAddress(row interface{ Scan(...any) error }) (*user.Address, error) {
	var a user.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Province, &a.City, &a.District,
		&a.Detail, &a.Name, &a.Phone, &a.IsDefault)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresAccountStore) FindAddress(ctx context.Context, id string) (*user.Address, error) {
	a, err := scanAddress(s.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, user.ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find address: %w", err)
	}
	return a, nil
}

func (s *PostgresAccountStore) ListAddresses(ctx context.Context, userID string) ([]*user.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*user.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (s *PostgresAccountStore) CreateAddress(ctx context.Context, a *user.Address) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, province, city, district, detail, name, phone, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.UserID, a.Province, a.City, a.District, a.Detail, a.Name, a.Phone, a.IsDefault)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) UpdateAddress(ctx context.Context, a *user.Address) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE addresses SET province = $3, city = $4, district = $5, detail = $6,
			name = $7, phone = $8, is_default = $9
		WHERE id = $1 AND user_id = $2
	`, a.ID, a.UserID, a.Province, a.City, a.District, a.Detail, a.Name, a.Phone, a.IsDefault)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrAddressNotFound
	}
	return nil
}

// DeleteAddress refuses to remove an address that any order references.
func (s *PostgresAccountStore) DeleteAddress(ctx context.Context, userID, id string) error {
	var referenced bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE address_id = $1)`, id).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("check address references: %w", err)
	}
	if referenced {
		return user.ErrAddressReferenced
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrAddressNotFound
	}
	return nil
}
