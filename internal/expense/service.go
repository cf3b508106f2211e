package expense

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"expense-tracker-api/internal/models"
	"expense-tracker-api/internal/storage"
)

// ErrInvalidInput indicates a malformed or missing required field.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidArgument indicates a well-formed but semantically invalid value,
// such as an unknown period preset.
var ErrInvalidArgument = errors.New("invalid argument")

const maxDescriptionLength = 500

// Input carries the full mutable field set of an expense. Updates use full
// replace semantics, so every call supplies all fields.
type Input struct {
	Amount       float64
	CurrencyCode string
	Category     models.Category
	Description  string
	IncurredAt   *time.Time
}

// Service implements the ownership-scoped expense operations. Every lookup
// re-derives ownership from storage; authorization decisions are never cached.
type Service struct {
	store storage.ExpenseStore
	now   func() time.Time
}

// NewService returns a Service backed by the given store.
func NewService(store storage.ExpenseStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Create validates the input and records a new expense owned by ownerID.
// A missing incurred-at timestamp defaults to the current instant; all
// timestamps are normalized to UTC.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in Input) (models.Expense, error) {
	currency, err := validateInput(in)
	if err != nil {
		return models.Expense{}, err
	}

	now := normalizeTime(s.now())
	incurredAt := now
	if in.IncurredAt != nil {
		incurredAt = normalizeTime(*in.IncurredAt)
	}

	expense := models.Expense{
		ID:           uuid.New(),
		UserID:       ownerID,
		Amount:       in.Amount,
		CurrencyCode: currency,
		Category:     in.Category,
		Description:  in.Description,
		IncurredAt:   incurredAt,
		CreatedAt:    now,
	}
	return s.store.CreateExpense(ctx, expense)
}

// Get returns the expense only if it exists and is owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (models.Expense, error) {
	return s.findOwned(ctx, ownerID, id)
}

// Update replaces all mutable fields of an owned expense atomically and
// stamps an updated-at timestamp.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, in Input) (models.Expense, error) {
	currency, err := validateInput(in)
	if err != nil {
		return models.Expense{}, err
	}

	current, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return models.Expense{}, err
	}

	incurredAt := normalizeTime(s.now())
	if in.IncurredAt != nil {
		incurredAt = normalizeTime(*in.IncurredAt)
	}

	current.Amount = in.Amount
	current.CurrencyCode = currency
	current.Category = in.Category
	current.Description = in.Description
	current.IncurredAt = incurredAt
	return s.store.UpdateExpense(ctx, current)
}

// Delete removes an owned expense. Deleting a record that is already gone
// reports ErrNotFound.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.store.DeleteExpense(ctx, ownerID, id)
}

// List returns the owner's expenses, most recent first. A period preset
// resolves to a window ending now; explicit start/end bounds replace the
// period window entirely rather than intersecting with it. An empty result
// is not an error.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, period string, start, end *time.Time) ([]models.Expense, error) {
	var filter storage.ExpenseFilter

	if p := strings.ToLower(strings.TrimSpace(period)); p != "" {
		now := normalizeTime(s.now())
		var from time.Time
		switch p {
		case "week", "pastweek":
			from = now.AddDate(0, 0, -7)
		case "month", "pastmonth":
			from = addMonthsClamped(now, -1)
		case "3months", "last3months":
			from = addMonthsClamped(now, -3)
		default:
			return nil, fmt.Errorf("%w: invalid period %q, use week, month, or 3months", ErrInvalidArgument, period)
		}
		filter = storage.ExpenseFilter{From: &from, To: &now}
	}

	// Explicit bounds override the period window; each bound applies on its own.
	if start != nil || end != nil {
		filter = storage.ExpenseFilter{}
		if start != nil {
			from := normalizeTime(*start)
			filter.From = &from
		}
		if end != nil {
			to := normalizeTime(*end)
			filter.To = &to
		}
	}

	return s.store.ListExpenses(ctx, ownerID, filter)
}

// findOwned is the single ownership gate used by get, update, and delete.
// Nonexistence and foreign ownership are indistinguishable to callers.
func (s *Service) findOwned(ctx context.Context, ownerID, id uuid.UUID) (models.Expense, error) {
	return s.store.GetExpense(ctx, ownerID, id)
}

func validateInput(in Input) (currency string, err error) {
	if in.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	cents := in.Amount * 100
	if math.Abs(cents-math.Round(cents)) > 1e-9 {
		return "", fmt.Errorf("%w: amount must have at most two decimal places", ErrInvalidInput)
	}

	currency = strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if len(currency) != 3 || !isAlpha(currency) {
		return "", fmt.Errorf("%w: currency code must be exactly three letters", ErrInvalidInput)
	}

	if !in.Category.Valid() {
		return "", fmt.Errorf("%w: unknown category", ErrInvalidInput)
	}

	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return "", fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxDescriptionLength)
	}

	return currency, nil
}

// normalizeTime converts timestamps to the canonical reference: UTC at
// second precision.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// addMonthsClamped shifts t by whole calendar months, clamping the day to the
// last valid day of the target month instead of letting the overflow spill
// into the next one. Mar 31 minus one month is Feb 28, not Mar 3.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	month += time.Month(months)
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
