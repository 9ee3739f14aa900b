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

type Team interface {
	CreateTeamMember(ctx context.Context, actor access.Actor, params ledger.TeamMemberParams) (*ledger.TeamMember, error)
	GetTeamMember(ctx context.Context, actor access.Actor, id uuid.UUID) (*ledger.TeamMember, error)
	ListTeamMembers(ctx context.Context, actor access.Actor) ([]*ledger.TeamMember, error)
	UpdateTeamMember(ctx context.Context, actor access.Actor, id uuid.UUID, params ledger.TeamMemberParams) (*ledger.TeamMember, error)
	DeleteTeamMember(ctx context.Context, actor access.Actor, id uuid.UUID) error
}

type TeamHandler struct {
	team Team
}

func NewTeamHandler(team Team) *TeamHandler {
	return &TeamHandler{team: team}
}

func (h *TeamHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type teamMemberRequest struct {
	Name             string            `json:"name"`
	Role             string            `json:"role"`
	PayoutType       ledger.PayoutType `json:"payout_type"`
	PayoutAmount     *decimal.Decimal  `json:"payout_amount,omitempty"`
	PayoutPercentage *decimal.Decimal  `json:"payout_percentage,omitempty"`
}

func (req teamMemberRequest) params() ledger.TeamMemberParams {
	return ledger.TeamMemberParams{
		Name:             req.Name,
		Role:             req.Role,
		PayoutType:       req.PayoutType,
		PayoutAmount:     req.PayoutAmount,
		PayoutPercentage: req.PayoutPercentage,
	}
}

func (h *TeamHandler) list(w http.ResponseWriter, r *http.Request) {
	members, err := h.team.ListTeamMembers(r.Context(), respond.Actor(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]teamMemberResponse, len(members))
	for i, m := range members {
		resp[i] = toTeamMemberResponse(m)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *TeamHandler) create(w http.ResponseWriter, r *http.Request) {
	var req teamMemberRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	m, err := h.team.CreateTeamMember(r.Context(), respond.Actor(r), req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toTeamMemberResponse(m))
}

func (h *TeamHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	m, err := h.team.GetTeamMember(r.Context(), respond.Actor(r), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTeamMemberResponse(m))
}

func (h *TeamHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req teamMemberRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	m, err := h.team.UpdateTeamMember(r.Context(), respond.Actor(r), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTeamMemberResponse(m))
}

func (h *TeamHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.team.DeleteTeamMember(r.Context(), respond.Actor(r), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
