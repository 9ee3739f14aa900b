package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

type ExpenseParams struct {
	ProjectID    uuid.UUID
	Type         ExpenseType
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	TeamMemberID *uuid.UUID
}

type ExpenseUpdate struct {
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
}

func (s *Service) CreateExpense(ctx context.Context, actor access.Actor, params ExpenseParams) (*Expense, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	if !params.Type.Valid() {
		return nil, apperror.InvalidArgument("Expense type is required")
	}

	if err := validateAmount(params.Amount); err != nil {
		return nil, err
	}

	desc := strings.TrimSpace(params.Description)
	if desc == "" {
		return nil, apperror.InvalidArgument("Description is required")
	}

	m, err := derivePeriod(params.Date)
	if err != nil {
		return nil, err
	}

	// Only team expenses reference a member; anything sent for other types is dropped.
	var memberID *uuid.UUID

	if params.Type == ExpenseTeam {
		if params.TeamMemberID == nil || *params.TeamMemberID == uuid.Nil {
			return nil, apperror.InvalidArgument("Team member is required for team expenses")
		}

		id := *params.TeamMemberID
		memberID = &id
	}

	if _, err := s.requireProject(ctx, actor.CompanyID, params.ProjectID); err != nil {
		return nil, err
	}

	var member *MemberRef

	if memberID != nil {
		tm, err := s.repo.GetTeamMember(ctx, actor.CompanyID, *memberID)
		if err != nil {
			return nil, classify(err, "Team member not found")
		}

		member = &MemberRef{ID: tm.ID, Name: tm.Name, Role: tm.Role}
	}

	e := &Expense{
		CompanyID:    actor.CompanyID,
		ProjectID:    params.ProjectID,
		Type:         params.Type,
		Amount:       params.Amount,
		Date:         params.Date,
		Month:        m.Month,
		Year:         m.Year,
		Description:  desc,
		TeamMemberID: memberID,
		TeamMember:   member,
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, apperror.Store(err)
	}

	s.publish(ctx, actor.CompanyID, event.EntityExpense, event.ActionCreated, e.ID, &m)

	return e, nil
}

// ListExpenses returns expenses newest first with project and member joined.
func (s *Service) ListExpenses(ctx context.Context, actor access.Actor, filter ListFilter) ([]*Expense, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	f, err := toFilter(actor.CompanyID, filter)
	if err != nil {
		return nil, err
	}

	expenses, err := s.repo.ListExpenses(ctx, f)
	if err != nil {
		return nil, apperror.Store(err)
	}

	return expenses, nil
}

func (s *Service) UpdateExpense(ctx context.Context, actor access.Actor, id uuid.UUID, upd ExpenseUpdate) (*Expense, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetExpense(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, classify(err, "Expense not found")
	}

	if err := checkDateUnchanged(e.Date, upd.Date); err != nil {
		return nil, err
	}

	if upd.Amount != nil {
		if err := validateAmount(*upd.Amount); err != nil {
			return nil, err
		}

		e.Amount = *upd.Amount
	}

	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		if desc == "" {
			return nil, apperror.InvalidArgument("Description is required")
		}

		e.Description = desc
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, classify(err, "Expense not found")
	}

	m := e.Period()
	s.publish(ctx, actor.CompanyID, event.EntityExpense, event.ActionUpdated, e.ID, &m)

	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := actor.RequireMutate(); err != nil {
		return err
	}

	e, err := s.repo.GetExpense(ctx, actor.CompanyID, id)
	if err != nil {
		return classify(err, "Expense not found")
	}

	if err := s.repo.DeleteExpense(ctx, actor.CompanyID, id); err != nil {
		return classify(err, "Expense not found")
	}

	m := e.Period()
	s.publish(ctx, actor.CompanyID, event.EntityExpense, event.ActionDeleted, id, &m)

	return nil
}

// MonthlyExpenses sums the company's expenses for one month.
func (s *Service) MonthlyExpenses(ctx context.Context, actor access.Actor, month, year int) (decimal.Decimal, error) {
	if err := actor.RequireRead(); err != nil {
		return decimal.Zero, err
	}

	m, err := period.New(month, year)
	if err != nil {
		return decimal.Zero, err
	}

	total, err := s.repo.SumExpenses(ctx, Filter{CompanyID: actor.CompanyID, Period: &m})
	if err != nil {
		return decimal.Zero, apperror.Store(err)
	}

	return total, nil
}
