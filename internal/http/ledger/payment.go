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

type Payments interface {
	CreatePayment(ctx context.Context, actor access.Actor, params ledger.PaymentParams) (*ledger.Payment, error)
	ListPayments(ctx context.Context, actor access.Actor, filter ledger.ListFilter) ([]*ledger.Payment, error)
	UpdatePayment(ctx context.Context, actor access.Actor, id uuid.UUID, upd ledger.PaymentUpdate) (*ledger.Payment, error)
	DeletePayment(ctx context.Context, actor access.Actor, id uuid.UUID) error
}

type PaymentHandler struct {
	payments Payments
}

func NewPaymentHandler(payments Payments) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// listFilter reads the optional month, year and project_id query parameters.
func listFilter(r *http.Request) (ledger.ListFilter, error) {
	var f ledger.ListFilter

	m, err := respond.Period(r)
	if err != nil {
		return f, err
	}

	f.Period = m

	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := ledger.ParseID(raw)
		if err != nil {
			return f, err
		}

		f.ProjectID = &id
	}

	return f, nil
}

type createPaymentRequest struct {
	ProjectID uuid.UUID       `json:"project_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Notes     string          `json:"notes"`
}

type updatePaymentRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Notes  *string          `json:"notes,omitempty"`
	Date   *string          `json:"date,omitempty"`
}

func (h *PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	payments, err := h.payments.ListPayments(r.Context(), respond.Actor(r), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPaymentList(payments))
}

func (h *PaymentHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	date, err := respond.Date(req.Date)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.payments.CreatePayment(r.Context(), respond.Actor(r), ledger.PaymentParams{
		ProjectID: req.ProjectID,
		Amount:    req.Amount,
		Date:      date,
		Notes:     req.Notes,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (h *PaymentHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req updatePaymentRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	date, err := respond.OptionalDate(req.Date)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.payments.UpdatePayment(r.Context(), respond.Actor(r), id, ledger.PaymentUpdate{
		Amount: req.Amount,
		Notes:  req.Notes,
		Date:   date,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPaymentResponse(p))
}

func (h *PaymentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.payments.DeletePayment(r.Context(), respond.Actor(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
