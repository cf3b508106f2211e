package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"expense-tracker-api/internal/models"
	"expense-tracker-api/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolationCode = "23505"

// Store provides Postgres-backed persistence for users and expenses.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash BYTEA NOT NULL,
			password_salt BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount NUMERIC(18,2) NOT NULL,
			currency_code CHAR(3) NOT NULL,
			category SMALLINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			incurred_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS expenses_user_incurred_idx ON expenses (user_id, incurred_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row. The unique index on email is the final
// arbiter for duplicate registrations, even when two requests race.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, full_name, email, password_hash, password_salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, full_name, email, password_hash, password_salt, created_at, updated_at;
	`
	row := s.pool.QueryRow(ctx, query, user.ID, user.FullName, user.Email, user.PasswordHash, user.PasswordSalt, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// GetUserByEmail fetches a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, full_name, email, password_hash, password_salt, created_at, updated_at
		FROM users
		WHERE email = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// GetUserByID fetches a user by identifier.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `
		SELECT id, full_name, email, password_hash, password_salt, created_at, updated_at
		FROM users
		WHERE id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// CreateExpense inserts a new expense row.
func (s *Store) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	const query = `
		INSERT INTO expenses (id, user_id, amount, currency_code, category, description, incurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, amount, currency_code, category, description, incurred_at, created_at, updated_at;
	`
	row := s.pool.QueryRow(ctx, query,
		expense.ID, expense.UserID, expense.Amount, expense.CurrencyCode,
		expense.Category, expense.Description, expense.IncurredAt, expense.CreatedAt)
	return scanExpense(row)
}

// GetExpense fetches an expense owned by ownerID. A record owned by another
// user yields ErrNotFound, indistinguishable from a missing record.
func (s *Store) GetExpense(ctx context.Context, ownerID, id uuid.UUID) (models.Expense, error) {
	const query = `
		SELECT id, user_id, amount, currency_code, category, description, incurred_at, created_at, updated_at
		FROM expenses
		WHERE user_id = $1 AND id = $2;
	`
	return scanExpense(s.pool.QueryRow(ctx, query, ownerID, id))
}

// UpdateExpense replaces all mutable fields of an owned expense and stamps
// updated_at.
func (s *Store) UpdateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	const query = `
		UPDATE expenses
		SET amount = $1, currency_code = $2, category = $3, description = $4, incurred_at = $5, updated_at = NOW()
		WHERE user_id = $6 AND id = $7
		RETURNING id, user_id, amount, currency_code, category, description, incurred_at, created_at, updated_at;
	`
	row := s.pool.QueryRow(ctx, query,
		expense.Amount, expense.CurrencyCode, expense.Category, expense.Description,
		expense.IncurredAt, expense.UserID, expense.ID)
	return scanExpense(row)
}

// DeleteExpense removes an owned expense.
func (s *Store) DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error {
	const query = `DELETE FROM expenses WHERE user_id = $1 AND id = $2;`
	tag, err := s.pool.Exec(ctx, query, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListExpenses returns the owner's expenses within the optional incurred_at
// bounds, most recent first with id as a stable tie-break.
func (s *Store) ListExpenses(ctx context.Context, ownerID uuid.UUID, filter storage.ExpenseFilter) ([]models.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, amount, currency_code, category, description, incurred_at, created_at, updated_at
		FROM expenses
		WHERE user_id = $1`)
	args := []any{ownerID}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, " AND incurred_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&sb, " AND incurred_at <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY incurred_at DESC, id;")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.PasswordSalt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var expense models.Expense
	err := row.Scan(&expense.ID, &expense.UserID, &expense.Amount, &expense.CurrencyCode,
		&expense.Category, &expense.Description, &expense.IncurredAt, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Expense{}, storage.ErrNotFound
		}
		return models.Expense{}, err
	}
	return expense, nil
}
