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

const minYear = 2000

type PaymentParams struct {
	ProjectID uuid.UUID
	Amount    decimal.Decimal
	Date      time.Time
	Notes     string
}

// PaymentUpdate carries the fields a caller wants to change. Date is only
// accepted when it matches the stored date.
type PaymentUpdate struct {
	Amount *decimal.Decimal
	Notes  *string
	Date   *time.Time
}

// ListFilter narrows payment and expense listings. Both fields are optional.
type ListFilter struct {
	Period    *period.Month
	ProjectID *uuid.UUID
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperror.InvalidArgument("Amount must be positive")
	}

	return nil
}

// derivePeriod computes the month bucket stored alongside a record's date.
func derivePeriod(date time.Time) (period.Month, error) {
	if date.IsZero() {
		return period.Month{}, apperror.InvalidArgument("Date is required")
	}

	m := period.Of(date)
	if m.Year < minYear {
		return period.Month{}, apperror.InvalidArgument("Year must be valid")
	}

	return m, nil
}

func checkDateUnchanged(stored time.Time, requested *time.Time) error {
	if requested == nil || requested.Equal(stored) {
		return nil
	}

	return apperror.InvalidArgument("%s", ErrDateImmutable.Error())
}

func (s *Service) requireProject(ctx context.Context, companyID, projectID uuid.UUID) (*Project, error) {
	if projectID == uuid.Nil {
		return nil, apperror.InvalidArgument("Project ID is required")
	}

	p, err := s.repo.GetProject(ctx, companyID, projectID)
	if err != nil {
		return nil, classify(err, "Project not found")
	}

	return p, nil
}

func (s *Service) CreatePayment(ctx context.Context, actor access.Actor, params PaymentParams) (*Payment, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	if err := validateAmount(params.Amount); err != nil {
		return nil, err
	}

	m, err := derivePeriod(params.Date)
	if err != nil {
		return nil, err
	}

	if _, err := s.requireProject(ctx, actor.CompanyID, params.ProjectID); err != nil {
		return nil, err
	}

	p := &Payment{
		CompanyID: actor.CompanyID,
		ProjectID: params.ProjectID,
		Amount:    params.Amount,
		Date:      params.Date,
		Month:     m.Month,
		Year:      m.Year,
		Notes:     strings.TrimSpace(params.Notes),
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, apperror.Store(err)
	}

	s.publish(ctx, actor.CompanyID, event.EntityPayment, event.ActionCreated, p.ID, &m)

	return p, nil
}

// ListPayments returns payments newest first with their project joined.
func (s *Service) ListPayments(ctx context.Context, actor access.Actor, filter ListFilter) ([]*Payment, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	f, err := toFilter(actor.CompanyID, filter)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPayments(ctx, f)
	if err != nil {
		return nil, apperror.Store(err)
	}

	return payments, nil
}

func (s *Service) UpdatePayment(ctx context.Context, actor access.Actor, id uuid.UUID, upd PaymentUpdate) (*Payment, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPayment(ctx, actor.CompanyID, id)
	if err != nil {
		return nil, classify(err, "Payment not found")
	}

	if err := checkDateUnchanged(p.Date, upd.Date); err != nil {
		return nil, err
	}

	if upd.Amount != nil {
		if err := validateAmount(*upd.Amount); err != nil {
			return nil, err
		}

		p.Amount = *upd.Amount
	}

	if upd.Notes != nil {
		p.Notes = strings.TrimSpace(*upd.Notes)
	}

	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return nil, classify(err, "Payment not found")
	}

	m := p.Period()
	s.publish(ctx, actor.CompanyID, event.EntityPayment, event.ActionUpdated, p.ID, &m)

	return p, nil
}

func (s *Service) DeletePayment(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := actor.RequireMutate(); err != nil {
		return err
	}

	p, err := s.repo.GetPayment(ctx, actor.CompanyID, id)
	if err != nil {
		return classify(err, "Payment not found")
	}

	if err := s.repo.DeletePayment(ctx, actor.CompanyID, id); err != nil {
		return classify(err, "Payment not found")
	}

	m := p.Period()
	s.publish(ctx, actor.CompanyID, event.EntityPayment, event.ActionDeleted, id, &m)

	return nil
}

// MonthlyIncome sums the company's payments for one month.
func (s *Service) MonthlyIncome(ctx context.Context, actor access.Actor, month, year int) (decimal.Decimal, error) {
	if err := actor.RequireRead(); err != nil {
		return decimal.Zero, err
	}

	m, err := period.New(month, year)
	if err != nil {
		return decimal.Zero, err
	}

	total, err := s.repo.SumPayments(ctx, Filter{CompanyID: actor.CompanyID, Period: &m})
	if err != nil {
		return decimal.Zero, apperror.Store(err)
	}

	return total, nil
}

// ProjectTotalReceived sums every payment ever received on a project.
func (s *Service) ProjectTotalReceived(ctx context.Context, actor access.Actor, projectID uuid.UUID) (decimal.Decimal, error) {
	if err := actor.RequireRead(); err != nil {
		return decimal.Zero, err
	}

	total, err := s.repo.SumPayments(ctx, Filter{CompanyID: actor.CompanyID, ProjectID: &projectID})
	if err != nil {
		return decimal.Zero, apperror.Store(err)
	}

	return total, nil
}

func toFilter(companyID uuid.UUID, lf ListFilter) (Filter, error) {
	f := Filter{CompanyID: companyID, ProjectID: lf.ProjectID}

	if lf.Period != nil {
		if err := lf.Period.Validate(); err != nil {
			return Filter{}, err
		}

		m := *lf.Period
		f.Period = &m
	}

	return f, nil
}
