package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/company"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
)

type Accounts interface {
	Signup(ctx context.Context, params company.SignupParams) (*company.User, *company.Company, error)
	Authenticate(ctx context.Context, email, password string) (*company.User, error)
}

type Handler struct {
	accounts Accounts
	issuer   *Issuer
}

func NewHandler(accounts Accounts, issuer *Issuer) *Handler {
	return &Handler{accounts: accounts, issuer: issuer}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/token", h.token)
}

type signupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	CompanyID *uuid.UUID  `json:"company_id,omitempty"`
}

type companyResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type tokenResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      userResponse     `json:"user"`
	Company   *companyResponse `json:"company,omitempty"`
}

func toUserResponse(u *company.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CompanyID: u.CompanyID}
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, c, err := h.accounts.Signup(r.Context(), company.SignupParams{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp, err := h.issue(u)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp.Company = &companyResponse{ID: c.ID, Name: c.Name}

	respond.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperror.Is(err, apperror.KindForbidden) {
			respond.Unauthorized(w, err.Error())
			return
		}

		respond.Error(w, r, err)

		return
	}

	resp, err := h.issue(u)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) issue(u *company.User) (tokenResponse, error) {
	token, exp, err := h.issuer.Issue(u.ID)
	if err != nil {
		return tokenResponse{}, err
	}

	return tokenResponse{Token: token, ExpiresAt: exp, User: toUserResponse(u)}, nil
}
