package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

type ProjectParams struct {
	Name        string
	ClientName  string
	StartDate   time.Time
	EndDate     *time.Time
	TotalBudget decimal.Decimal
	Currency    string
	Description string
}

func (p ProjectParams) validate() (currency.Code, error) {
	if strings.TrimSpace(p.Name) == "" {
		return "", apperror.InvalidArgument("Project name is required")
	}

	if strings.TrimSpace(p.ClientName) == "" {
		return "", apperror.InvalidArgument("Client name is required")
	}

	if p.StartDate.IsZero() {
		return "", apperror.InvalidArgument("Start date is required")
	}

	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return "", apperror.InvalidArgument("End date must not be before start date")
	}

	if p.TotalBudget.IsNegative() {
		return "", apperror.InvalidArgument("Amount must be positive")
	}

	code, ok := currency.Parse(p.Currency)
	if !ok {
		return "", apperror.InvalidArgument("unsupported currency %q", p.Currency)
	}

	return code, nil
}

func (s *Service) CreateProject(ctx context.Context, actor access.Actor, params ProjectParams) (*Project, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	code, err := params.validate()
	if err != nil {
		return nil, err
	}

	p := &Project{
		CompanyID:   actor.CompanyID,
		Name:        strings.TrimSpace(params.Name),
		ClientName:  strings.TrimSpace(params.ClientName),
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		TotalBudget: params.TotalBudget,
		Currency:    code,
		Description: strings.TrimSpace(params.Description),
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, apperror.Store(err)
	}

	s.publish(ctx, actor.CompanyID, event.EntityProject, event.ActionCreated, p.ID, nil)

	return p, nil
}

func (s *Service) GetProject(ctx context.Context, actor access.Actor, id uuid.UUID) (*Project, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProject(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, classify(err, "Project not found")
	}

	return p, nil
}

// ListProjects returns the company's projects, newest first.
func (s *Service) ListProjects(ctx context.Context, actor access.Actor) ([]*Project, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	projects, err := s.repo.ListProjects(ctx, actor.CompanyID)
	if err != nil {
		return nil, apperror.Store(err)
	}

	return projects, nil
}

// UpdateProject replaces the editable fields of a project.
func (s *Service) UpdateProject(ctx context.Context, actor access.Actor, id uuid.UUID, params ProjectParams) (*Project, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	code, err := params.validate()
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetProject(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, classify(err, "Project not found")
	}

	p.Name = strings.TrimSpace(params.Name)
	p.ClientName = strings.TrimSpace(params.ClientName)
	p.StartDate = params.StartDate
	p.EndDate = params.EndDate
	p.TotalBudget = params.TotalBudget
	p.Currency = code
	p.Description = strings.TrimSpace(params.Description)

	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, classify(err, "Project not found")
	}

	s.publish(ctx, actor.CompanyID, event.EntityProject, event.ActionUpdated, p.ID, nil)

	return p, nil
}

// DeleteProject removes a project together with its payments and expenses.
func (s *Service) DeleteProject(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := actor.RequireMutate(); err != nil {
		return err
	}

	if err := s.repo.DeleteProject(ctx, actor.CompanyID, id); err != nil {
		return classify(err, "Project not found")
	}

	s.publish(ctx, actor.CompanyID, event.EntityProject, event.ActionDeleted, id, nil)

	return nil
}
