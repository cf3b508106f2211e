package dto

import (
	"time"

	"github.com/google/uuid"

	"expense-tracker-api/internal/models"
)

// ExpenseRequest is the shared create/update body. Updates replace the full
// field set.
type ExpenseRequest struct {
	Amount       float64         `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	Category     models.Category `json:"category"`
	Description  string          `json:"description"`
	IncurredAt   *time.Time      `json:"incurred_at"`
}

type ExpenseResponse struct {
	ID           uuid.UUID       `json:"id"`
	Amount       float64         `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	Category     models.Category `json:"category"`
	Description  string          `json:"description,omitempty"`
	IncurredAt   time.Time       `json:"incurred_at"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// NewExpenseResponse maps an expense to its outward shape.
func NewExpenseResponse(expense models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:           expense.ID,
		Amount:       expense.Amount,
		CurrencyCode: expense.CurrencyCode,
		Category:     expense.Category,
		Description:  expense.Description,
		IncurredAt:   expense.IncurredAt,
		UpdatedAt:    expense.UpdatedAt,
	}
}

// NewExpenseListResponse maps a slice of expenses, preserving order. An empty
// input yields an empty (non-nil) slice so the wire shape is always an array.
func NewExpenseListResponse(expenses []models.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		out = append(out, NewExpenseResponse(expense))
	}
	return out
}
