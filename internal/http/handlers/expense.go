package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"expense-tracker-api/internal/auth"
	"expense-tracker-api/internal/expense"
	"expense-tracker-api/internal/http/respond"
	"expense-tracker-api/internal/models/dto"
	"expense-tracker-api/internal/storage"
)

// ExpenseHandler owns the authenticated expense endpoints.
type ExpenseHandler struct {
	svc *expense.Service
}

// NewExpenseHandler constructs the handler.
func NewExpenseHandler(svc *expense.Service) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

// Register attaches expense routes to the router. The auth middleware must
// already be installed on the enclosing group.
func (h *ExpenseHandler) Register(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

func (h *ExpenseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid identity claim")
		return
	}
	var req dto.ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	created, err := h.svc.Create(r.Context(), ownerID, expenseInput(req))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.NewExpenseResponse(created))
}

func (h *ExpenseHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid identity claim")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "expense not found")
		return
	}

	found, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.NewExpenseResponse(found))
}

func (h *ExpenseHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid identity claim")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "expense not found")
		return
	}
	var req dto.ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	updated, err := h.svc.Update(r.Context(), ownerID, id, expenseInput(req))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.NewExpenseResponse(updated))
}

func (h *ExpenseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid identity claim")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "expense not found")
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExpenseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid identity claim")
		return
	}

	q := r.URL.Query()
	start, err := parseTimeParam(q.Get("start"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseTimeParam(q.Get("end"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := h.svc.List(r.Context(), ownerID, q.Get("period"), start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.NewExpenseListResponse(expenses))
}

func expenseInput(req dto.ExpenseRequest) expense.Input {
	return expense.Input{
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		Category:     req.Category,
		Description:  req.Description,
		IncurredAt:   req.IncurredAt,
	}
}

// parseTimeParam accepts RFC 3339 timestamps or bare dates; bare dates are
// read as midnight UTC.
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			utc := ts.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("invalid timestamp %q, use RFC 3339 or YYYY-MM-DD", value)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, expense.ErrInvalidInput), errors.Is(err, expense.ErrInvalidArgument):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "expense not found")
	default:
		log.Printf("expense operation: %v", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
