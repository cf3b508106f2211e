package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"expense-tracker-api/internal/models"
)

// ErrNotFound indicates a record does not exist or is not owned by the caller.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ExpenseFilter bounds ListExpenses by when the expense was incurred.
// A nil bound means unbounded on that side. Both bounds are inclusive.
type ExpenseFilter struct {
	From *time.Time
	To   *time.Time
}

// UserStore captures identity persistence operations.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// ExpenseStore captures expense persistence operations. Every lookup is
// scoped to the owning user: a record owned by someone else is reported the
// same way as a missing record.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	GetExpense(ctx context.Context, ownerID, id uuid.UUID) (models.Expense, error)
	UpdateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id uuid.UUID) error
	ListExpenses(ctx context.Context, ownerID uuid.UUID, filter ExpenseFilter) ([]models.Expense, error)
}

// Store is the full persistence surface consumed by the application.
type Store interface {
	UserStore
	ExpenseStore
	Close() error
}
