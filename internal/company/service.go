// Package company manages tenants, their users and user roles.
package company

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

const minPasswordLength = 6

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=company
type Repository interface {
	// CreateCompanyWithOwner inserts the company and its admin owner atomically.
	CreateCompanyWithOwner(ctx context.Context, c *Company, owner *User) error
	// CreateCompanyForUser makes an existing company-less user the admin owner of c.
	CreateCompanyForUser(ctx context.Context, c *Company, userID uuid.UUID) error
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	RenameCompany(ctx context.Context, id uuid.UUID, name string) (*Company, error)

	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, companyID uuid.UUID) ([]*User, error)
	// AttachUser moves a company-less user into companyID with role.
	AttachUser(ctx context.Context, userID, companyID uuid.UUID, role access.Role) error
	UpdateUserRole(ctx context.Context, companyID, userID uuid.UUID, role access.Role) error
	CountAdmins(ctx context.Context, companyID uuid.UUID) (int, error)
}

type Publisher interface {
	Publish(ctx context.Context, e event.LedgerChanged)
}

type Service struct {
	repo   Repository
	events Publisher
}

// NewService builds the company service. events may be nil.
func NewService(repo Repository, events Publisher) *Service {
	return &Service{repo: repo, events: events}
}

func (s *Service) publish(ctx context.Context, companyID uuid.UUID, entity event.Entity, action event.Action, id uuid.UUID) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, event.LedgerChanged{CompanyID: companyID, Entity: entity, Action: action, ID: id})
}

func classify(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperror.NotFound("%s", notFound)
	case errors.Is(err, ErrEmailTaken):
		return apperror.InvalidArgument("Email already registered")
	}

	return apperror.Store(err)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperror.InvalidArgument("invalid email %q", email)
	}

	return email, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}

type SignupParams struct {
	Name        string
	Email       string
	Password    string
	CompanyName string
}

// Signup registers a user together with a new company the user administers.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*User, *Company, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || strings.TrimSpace(params.Email) == "" || params.Password == "" {
		return nil, nil, apperror.InvalidArgument("Name, email, and password are required")
	}

	if len(params.Password) < minPasswordLength {
		return nil, nil, apperror.InvalidArgument("Password must be at least %d characters", minPasswordLength)
	}

	companyName := strings.TrimSpace(params.CompanyName)
	if companyName == "" {
		return nil, nil, apperror.InvalidArgument("Company name is required")
	}

	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, nil, apperror.InvalidArgument("Email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, apperror.Store(err)
	}

	hash, err := hashPassword(params.Password)
	if err != nil {
		return nil, nil, apperror.Store(err)
	}

	c := &Company{Name: companyName}
	u := &User{Name: name, Email: email, PasswordHash: hash, Role: access.RoleAdmin}

	if err := s.repo.CreateCompanyWithOwner(ctx, c, u); err != nil {
		return nil, nil, classify(err, "Company not found")
	}

	slog.InfoContext(ctx, "company created", "company_id", c.ID, "owner_id", u.ID)
	s.publish(ctx, c.ID, event.EntityCompany, event.ActionCreated, c.ID)

	return u, c, nil
}

// Authenticate checks the credentials and returns the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	invalid := apperror.Forbidden("Invalid email or password")

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalid
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalid
		}

		return nil, apperror.Store(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}

	return u, nil
}

// CreateCompany gives a company-less user a company of their own.
func (s *Service) CreateCompany(ctx context.Context, userID uuid.UUID, name string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidArgument("Company name is required")
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, classify(err, "User not found")
	}

	if u.CompanyID != nil {
		return nil, apperror.InvalidArgument("User already belongs to a company")
	}

	c := &Company{Name: name, OwnerID: u.ID}
	if err := s.repo.CreateCompanyForUser(ctx, c, u.ID); err != nil {
		return nil, classify(err, "User not found")
	}

	s.publish(ctx, c.ID, event.EntityCompany, event.ActionCreated, c.ID)

	return c, nil
}

func (s *Service) GetCompany(ctx context.Context, actor access.Actor) (*Company, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	c, err := s.repo.GetCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, classify(err, "Company not found")
	}

	return c, nil
}

func (s *Service) RenameCompany(ctx context.Context, actor access.Actor, name string) (*Company, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidArgument("Company name is required")
	}

	c, err := s.repo.RenameCompany(ctx, actor.CompanyID, name)
	if err != nil {
		return nil, classify(err, "Company not found")
	}

	s.publish(ctx, c.ID, event.EntityCompany, event.ActionUpdated, c.ID)

	return c, nil
}

// ListUsers returns the company's users, newest first.
func (s *Service) ListUsers(ctx context.Context, actor access.Actor) ([]*User, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx, actor.CompanyID)
	if err != nil {
		return nil, apperror.Store(err)
	}

	return users, nil
}

type InviteParams struct {
	Email string
	Role  access.Role
}

// InviteUser adds a user to the actor's company. A company-less user with
// that email is attached; otherwise a login is created with a temporary
// password that is returned to the caller.
func (s *Service) InviteUser(ctx context.Context, actor access.Actor, params InviteParams) (*Invitation, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(params.Email) == "" || params.Role == "" {
		return nil, apperror.InvalidArgument("Email and role are required")
	}

	if !params.Role.Valid() {
		return nil, apperror.InvalidArgument("unknown role %q", params.Role)
	}

	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)

	switch {
	case err == nil:
		if existing.CompanyID != nil {
			return nil, apperror.InvalidArgument("User already belongs to a company")
		}

		if err := s.repo.AttachUser(ctx, existing.ID, actor.CompanyID, params.Role); err != nil {
			return nil, classify(err, "User not found")
		}

		companyID := actor.CompanyID
		existing.CompanyID = &companyID
		existing.Role = params.Role

		s.publish(ctx, actor.CompanyID, event.EntityUser, event.ActionUpdated, existing.ID)

		return &Invitation{User: existing}, nil
	case !errors.Is(err, ErrNotFound):
		return nil, apperror.Store(err)
	}

	temp := rand.Text()

	hash, err := hashPassword(temp)
	if err != nil {
		return nil, apperror.Store(err)
	}

	companyID := actor.CompanyID
	u := &User{
		Name:         strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: hash,
		CompanyID:    &companyID,
		Role:         params.Role,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, classify(err, "User not found")
	}

	s.publish(ctx, actor.CompanyID, event.EntityUser, event.ActionCreated, u.ID)

	return &Invitation{User: u, TempPassword: temp}, nil
}

// UpdateUserRole changes the role of a user of the actor's company. Demoting
// the company's last admin is allowed but logged.
func (s *Service) UpdateUserRole(ctx context.Context, actor access.Actor, userID uuid.UUID, role access.Role) (*User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, apperror.InvalidArgument("unknown role %q", role)
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, classify(err, "User not found")
	}

	if u.CompanyID == nil || *u.CompanyID != actor.CompanyID {
		return nil, apperror.NotFound("User not found")
	}

	if u.Role == access.RoleAdmin && role != access.RoleAdmin {
		admins, err := s.repo.CountAdmins(ctx, actor.CompanyID)
		if err != nil {
			return nil, apperror.Store(err)
		}

		if admins <= 1 {
			slog.WarnContext(ctx, "demoting the last admin of a company",
				"company_id", actor.CompanyID, "user_id", u.ID, "new_role", role, "actor_id", actor.UserID)
		}
	}

	if err := s.repo.UpdateUserRole(ctx, actor.CompanyID, u.ID, role); err != nil {
		return nil, classify(err, "User not found")
	}

	u.Role = role
	s.publish(ctx, actor.CompanyID, event.EntityUser, event.ActionUpdated, u.ID)

	return u, nil
}

// ResolveActor loads the current company and role of an authenticated user,
// so role changes apply without waiting for the user's token to expire.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (access.Actor, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return access.Actor{}, apperror.Forbidden("Unknown user")
		}

		return access.Actor{}, apperror.Store(err)
	}

	return u.Actor(), nil
}
