package ledger

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

type Expenses interface {
	CreateExpense(ctx context.Context, actor access.Actor, params ledger.ExpenseParams) (*ledger.Expense, error)
	ListExpenses(ctx context.Context, actor access.Actor, filter ledger.ListFilter) ([]*ledger.Expense, error)
	UpdateExpense(ctx context.Context, actor access.Actor, id uuid.UUID, upd ledger.ExpenseUpdate) (*ledger.Expense, error)
	DeleteExpense(ctx context.Context, actor access.Actor, id uuid.UUID) error
}

type ExpenseHandler struct {
	expenses Expenses
}

func NewExpenseHandler(expenses Expenses) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

func (h *ExpenseHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createExpenseRequest struct {
	ProjectID    uuid.UUID          `json:"project_id"`
	Type         ledger.ExpenseType `json:"type"`
	Amount       decimal.Decimal    `json:"amount"`
	Date         string             `json:"date"`
	Description  string             `json:"description"`
	TeamMemberID *uuid.UUID         `json:"team_member_id,omitempty"`
}

type updateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *string          `json:"date,omitempty"`
}

func (h *ExpenseHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	expenses, err := h.expenses.ListExpenses(r.Context(), respond.Actor(r), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toExpenseList(expenses))
}

func (h *ExpenseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	date, err := respond.Date(req.Date)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	e, err := h.expenses.CreateExpense(r.Context(), respond.Actor(r), ledger.ExpenseParams{
		ProjectID:    req.ProjectID,
		Type:         req.Type,
		Amount:       req.Amount,
		Date:         date,
		Description:  req.Description,
		TeamMemberID: req.TeamMemberID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (h *ExpenseHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updateExpenseRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	date, err := respond.OptionalDate(req.Date)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	e, err := h.expenses.UpdateExpense(r.Context(), respond.Actor(r), id, ledger.ExpenseUpdate{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toExpenseResponse(e))
}

func (h *ExpenseHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.expenses.DeleteExpense(r.Context(), respond.Actor(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
