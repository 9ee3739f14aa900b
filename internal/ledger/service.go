// Package ledger owns the company scoped ledger records (projects,
// payments, expenses, team members) and the rules for mutating them.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/event"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, companyID, id uuid.UUID) (*Project, error)
	ListProjects(ctx context.Context, companyID uuid.UUID) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, companyID, id uuid.UUID) error

	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, companyID, id uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, filter Filter) ([]*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, companyID, id uuid.UUID) error
	SumPayments(ctx context.Context, filter Filter) (decimal.Decimal, error)

	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, companyID, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, filter Filter) ([]*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, companyID, id uuid.UUID) error
	SumExpenses(ctx context.Context, filter Filter) (decimal.Decimal, error)

	CreateTeamMember(ctx context.Context, member *TeamMember) error
	GetTeamMember(ctx context.Context, companyID, id uuid.UUID) (*TeamMember, error)
	ListTeamMembers(ctx context.Context, companyID uuid.UUID) ([]*TeamMember, error)
	UpdateTeamMember(ctx context.Context, member *TeamMember) error
	DeleteTeamMember(ctx context.Context, companyID, id uuid.UUID) error

	BeginImport(ctx context.Context, companyID, projectID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

// ImportTx is a store transaction holding the import lock for one project
// and date range.
type ImportTx interface {
	FindDuplicates(ctx context.Context, lines []StatementLine) ([]ImportedLine, error)
	CreatePayments(ctx context.Context, payments []*Payment) error
	CreateExpenses(ctx context.Context, expenses []*Expense) error
	Commit() error
	Rollback() error
}

// Publisher receives an event after every committed mutation.
type Publisher interface {
	Publish(ctx context.Context, e event.LedgerChanged)
}

type Service struct {
	repo   Repository
	events Publisher
}

// NewService builds the ledger service. events may be nil.
func NewService(repo Repository, events Publisher) *Service {
	return &Service{repo: repo, events: events}
}

func (s *Service) publish(ctx context.Context, companyID uuid.UUID, entity event.Entity, action event.Action, id uuid.UUID, p *period.Month) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, event.LedgerChanged{
		CompanyID: companyID,
		Entity:    entity,
		Action:    action,
		ID:        id,
		Period:    p,
	})
}
