package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

// Direction tells whether a statement line is money in or out.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// StatementLine is one movement parsed from a bank statement. Amount is
// always non-negative; Direction carries the sign.
type StatementLine struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Direction   Direction
}

// ImportedLine is a ledger record already matching a statement line.
type ImportedLine struct {
	ID   uuid.UUID
	Line StatementLine
}

type ImportResult struct {
	Payments  []*Payment
	Expenses  []*Expense
	New       []StatementLine
	Conflicts []Conflict
}

type Conflict struct {
	Incoming   StatementLine
	ExistingID uuid.UUID
}

type lineKey struct {
	Date        string
	Amount      string
	Direction   Direction
	Description string
}

// keyOf identifies a statement line for duplicate detection.
func keyOf(l StatementLine) lineKey {
	return lineKey{
		Date:        l.Date.Format(time.DateOnly),
		Amount:      l.Amount.String(),
		Direction:   l.Direction,
		Description: strings.TrimSpace(l.Description),
	}
}

// ImportStatement records statement lines on a project: incoming amounts as
// payments, outgoing as misc expenses. If any line matches an existing
// record nothing is written and the conflicts are returned for review.
func (s *Service) ImportStatement(ctx context.Context, actor access.Actor, projectID uuid.UUID, lines []StatementLine) (*ImportResult, error) {
	return s.importLines(ctx, actor, projectID, lines, true)
}

// ConfirmImport writes the given lines without duplicate detection.
func (s *Service) ConfirmImport(ctx context.Context, actor access.Actor, projectID uuid.UUID, lines []StatementLine) (*ImportResult, error) {
	return s.importLines(ctx, actor, projectID, lines, false)
}

func (s *Service) importLines(ctx context.Context, actor access.Actor, projectID uuid.UUID, lines []StatementLine, detect bool) (*ImportResult, error) {
	if err := actor.RequireMutate(); err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return &ImportResult{}, nil
	}

	for i, l := range lines {
		if err := validateAmount(l.Amount); err != nil {
			return nil, apperror.InvalidArgument("line %d: %s", i+1, err)
		}

		if l.Direction != DirectionIn && l.Direction != DirectionOut {
			return nil, apperror.InvalidArgument("line %d: unknown direction %q", i+1, l.Direction)
		}

		if _, err := derivePeriod(l.Date); err != nil {
			return nil, apperror.InvalidArgument("line %d: %s", i+1, err)
		}
	}

	if _, err := s.requireProject(ctx, actor.CompanyID, projectID); err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(lines)

	itx, err := s.repo.BeginImport(ctx, actor.CompanyID, projectID, minDate, maxDate)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("begin import: %w", err))
	}
	defer itx.Rollback()

	if detect {
		duplicates, err := itx.FindDuplicates(ctx, lines)
		if err != nil {
			return nil, apperror.Store(fmt.Errorf("find duplicates: %w", err))
		}

		lookup := make(map[lineKey]uuid.UUID, len(duplicates))
		for _, d := range duplicates {
			lookup[keyOf(d.Line)] = d.ID
		}

		var (
			fresh     []StatementLine
			conflicts []Conflict
		)

		for _, l := range lines {
			if id, found := lookup[keyOf(l)]; found {
				conflicts = append(conflicts, Conflict{Incoming: l, ExistingID: id})
				continue
			}

			fresh = append(fresh, l)
		}

		if len(conflicts) > 0 {
			return &ImportResult{New: fresh, Conflicts: conflicts}, nil
		}
	}

	payments, expenses := linesToRecords(actor.CompanyID, projectID, lines)

	if err := itx.CreatePayments(ctx, payments); err != nil {
		return nil, apperror.Store(fmt.Errorf("create payments: %w", err))
	}

	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, apperror.Store(fmt.Errorf("create expenses: %w", err))
	}

	if err := itx.Commit(); err != nil {
		return nil, apperror.Store(fmt.Errorf("commit import: %w", err))
	}

	for _, p := range payments {
		m := p.Period()
		s.publish(ctx, actor.CompanyID, event.EntityPayment, event.ActionCreated, p.ID, &m)
	}

	for _, e := range expenses {
		m := e.Period()
		s.publish(ctx, actor.CompanyID, event.EntityExpense, event.ActionCreated, e.ID, &m)
	}

	return &ImportResult{Payments: payments, Expenses: expenses}, nil
}

func dateRange(lines []StatementLine) (time.Time, time.Time) {
	minDate := lines[0].Date
	maxDate := lines[0].Date

	for _, l := range lines[1:] {
		if l.Date.Before(minDate) {
			minDate = l.Date
		}

		if l.Date.After(maxDate) {
			maxDate = l.Date
		}
	}

	return minDate, maxDate
}

func linesToRecords(companyID, projectID uuid.UUID, lines []StatementLine) ([]*Payment, []*Expense) {
	var (
		payments []*Payment
		expenses []*Expense
	)

	for _, l := range lines {
		// Validated by the caller.
		m, _ := derivePeriod(l.Date)
		desc := strings.TrimSpace(l.Description)

		if l.Direction == DirectionIn {
			payments = append(payments, &Payment{
				CompanyID: companyID,
				ProjectID: projectID,
				Amount:    l.Amount,
				Date:      l.Date,
				Month:     m.Month,
				Year:      m.Year,
				Notes:     desc,
			})

			continue
		}

		if desc == "" {
			desc = "Imported expense"
		}

		expenses = append(expenses, &Expense{
			CompanyID:   companyID,
			ProjectID:   projectID,
			Type:        ExpenseMisc,
			Amount:      l.Amount,
			Date:        l.Date,
			Month:       m.Month,
			Year:        m.Year,
			Description: desc,
		})
	}

	return payments, expenses
}
