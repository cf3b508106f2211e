package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"expense-tracker-api/internal/models"
	"expense-tracker-api/internal/storage"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides sqlite-backed persistence, used for local development and
// tests.
type Store struct {
	db *sql.DB
}

// New opens the database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	// Cascade deletes require foreign key enforcement, off by default in sqlite.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash BLOB NOT NULL,
			password_salt BLOB NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount REAL NOT NULL,
			currency_code TEXT NOT NULL,
			category INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			incurred_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS expenses_user_incurred_idx ON expenses (user_id, incurred_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row. The unique constraint on email is the
// final arbiter for duplicate registrations.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, full_name, email, password_hash, password_salt, created_at)
		VALUES (?, ?, ?, ?, ?, ?);
	`
	_, err := s.db.ExecContext(ctx, query, user.ID, user.FullName, user.Email, user.PasswordHash, user.PasswordSalt, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return s.GetUserByID(ctx, user.ID)
}

// GetUserByEmail fetches a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, full_name, email, password_hash, password_salt, created_at, updated_at
		FROM users
		WHERE email = ?;
	`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetUserByID fetches a user by identifier.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const query = `
		SELECT id, full_name, email, password_hash, password_salt, created_at, updated_at
		FROM users
		WHERE id = ?;
	`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// CreateExpense inserts a new expense row.
func (s *Store) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	const query = `
		INSERT INTO expenses (id, user_id, amount, currency_code, category, description, incurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := s.db.ExecContext(ctx, query,
		expense.ID, expense.UserID, expense.Amount, expense.CurrencyCode,
		int(expense.Category), expense.Description, expense.IncurredAt, expense.CreatedAt)
	if err != nil {
		return models.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return s.GetExpense(ctx, expense.UserID, expense.ID)
}

// GetExpense fetches an expense owned by ownerID. A record owned by another
// user yields ErrNotFound, indistinguishable from a missing record.
func (s *Store) GetExpense(ctx context.Context, ownerID, id uuid.UUID) (models.Expense, error) {
	const query = `
		SELECT id, user_id, amount, currency_code, category, description, incurred_at, created_at, updated_at
		FROM expenses
		WHERE user_id = ? AND id = ?;
	`
	return scanExpense(s.db.QueryRowContext(ctx, query, ownerID, id))
}

// UpdateExpense replaces all mutable fields of an owned expense and stamps
// updated_at.
func (s *Store) UpdateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	const query = `
		UPDATE expenses
		SET amount = ?, currency_code = ?, category = ?, description = ?, incurred_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND id = ?;
	`
	result, err := s.db.ExecContext(ctx, query,
		expense.Amount, expense.CurrencyCode, int(expense.Category), expense.Description,
		expense.IncurredAt, expense.UserID, expense.ID)
	if err != nil {
		return models.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.Expense{}, err
	}
	if affected == 0 {
		return models.Expense{}, storage.ErrNotFound
	}
	return s.GetExpense(ctx, expense.UserID, expense.ID)
}

// DeleteExpense removes an owned expense.
func (s *Store) DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND id = ?;`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
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
		WHERE user_id = ?`)
	args := []any{ownerID}
	if filter.From != nil {
		sb.WriteString(" AND incurred_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		sb.WriteString(" AND incurred_at <= ?")
		args = append(args, *filter.To)
	}
	sb.WriteString(" ORDER BY incurred_at DESC, id;")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
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

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	var updatedAt sql.NullTime
	err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.PasswordSalt, &user.CreatedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		user.UpdatedAt = &t
	}
	return user, nil
}

func scanExpense(row scanner) (models.Expense, error) {
	var expense models.Expense
	var category int
	var updatedAt sql.NullTime
	err := row.Scan(&expense.ID, &expense.UserID, &expense.Amount, &expense.CurrencyCode,
		&category, &expense.Description, &expense.IncurredAt, &expense.CreatedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, storage.ErrNotFound
		}
		return models.Expense{}, err
	}
	expense.Category = models.Category(category)
	if updatedAt.Valid {
		t := updatedAt.Time
		expense.UpdatedAt = &t
	}
	return expense, nil
}
