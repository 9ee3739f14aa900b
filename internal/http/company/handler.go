// Package company serves the company profile and its user administration.
package company

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/company"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
)

type Service interface {
	CreateCompany(ctx context.Context, userID uuid.UUID, name string) (*company.Company, error)
	GetCompany(ctx context.Context, actor access.Actor) (*company.Company, error)
	RenameCompany(ctx context.Context, actor access.Actor, name string) (*company.Company, error)
	ListUsers(ctx context.Context, actor access.Actor) ([]*company.User, error)
	InviteUser(ctx context.Context, actor access.Actor, params company.InviteParams) (*company.Invitation, error)
	UpdateUserRole(ctx context.Context, actor access.Actor, userID uuid.UUID, role access.Role) (*company.User, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Post("/", h.create)
	r.Patch("/", h.rename)
	r.Get("/users", h.listUsers)
	r.Post("/users/invite", h.invite)
	r.Patch("/users/{id}/role", h.updateRole)
}

type companyResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type userResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type invitationResponse struct {
	User         userResponse `json:"user"`
	TempPassword string       `json:"temp_password,omitempty"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string      `json:"email"`
	Role  access.Role `json:"role"`
}

type roleRequest struct {
	Role access.Role `json:"role"`
}

func toCompanyResponse(c *company.Company) companyResponse {
	return companyResponse{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toUserResponse(u *company.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCompany(r.Context(), respond.Actor(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCompanyResponse(c))
}

// create is for users that signed up without a company or left one.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.service.CreateCompany(r.Context(), respond.Actor(r).UserID, req.Name)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toCompanyResponse(c))
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := h.service.RenameCompany(r.Context(), respond.Actor(r), req.Name)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCompanyResponse(c))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), respond.Actor(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	inv, err := h.service.InviteUser(r.Context(), respond.Actor(r), company.InviteParams{Email: req.Email, Role: req.Role})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, invitationResponse{
		User:         toUserResponse(inv.User),
		TempPassword: inv.TempPassword,
	})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req roleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.service.UpdateUserRole(r.Context(), respond.Actor(r), id, req.Role)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toUserResponse(u))
}
