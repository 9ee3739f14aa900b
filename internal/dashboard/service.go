package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/cache"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

// Reader is the read side of the ledger store. Every call is company scoped.
type Reader interface {
	GetProject(ctx context.Context, companyID, id uuid.UUID) (*ledger.Project, error)
	ListProjects(ctx context.Context, companyID uuid.UUID) ([]*ledger.Project, error)
	ListPayments(ctx context.Context, filter ledger.Filter) ([]*ledger.Payment, error)
	ListExpenses(ctx context.Context, filter ledger.Filter) ([]*ledger.Expense, error)
	SumPayments(ctx context.Context, filter ledger.Filter) (decimal.Decimal, error)
	SumExpenses(ctx context.Context, filter ledger.Filter) (decimal.Decimal, error)
	ListTeamMembers(ctx context.Context, companyID uuid.UUID) ([]*ledger.TeamMember, error)
}

type Service struct {
	store     Reader
	summaries cache.Cache[*Summary]

	// generations counts invalidations per company. A summary computed
	// across an invalidation is returned but never cached.
	mu          sync.Mutex
	generations map[uuid.UUID]uint64
}

type Option func(*Service)

// WithCache keeps computed summaries until a ledger event for the company
// invalidates them.
func WithCache(c cache.Cache[*Summary]) Option {
	return func(s *Service) {
		s.summaries = c
	}
}

func NewService(store Reader, opts ...Option) *Service {
	s := &Service{store: store, generations: make(map[uuid.UUID]uint64)}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func companyPrefix(companyID uuid.UUID) string {
	return companyID.String() + "/"
}

func summaryKey(companyID uuid.UUID, m period.Month) string {
	return companyPrefix(companyID) + "summary/" + m.String()
}

// Invalidate drops cached views of the event's company. It has the
// event.Handler signature so it can be subscribed to the bus directly.
func (s *Service) Invalidate(ctx context.Context, e event.LedgerChanged) {
	if s.summaries == nil {
		return
	}

	s.mu.Lock()
	s.generations[e.CompanyID]++
	s.mu.Unlock()

	if n := s.summaries.DeletePrefix(companyPrefix(e.CompanyID)); n > 0 {
		slog.DebugContext(ctx, "invalidated dashboard cache",
			"company_id", e.CompanyID, "entity", e.Entity, "action", e.Action, "entries", n)
	}
}

// Summary computes the company dashboard for one month. The independent
// store queries run concurrently; any failure fails the whole call.
func (s *Service) Summary(ctx context.Context, actor access.Actor, month, year int) (*Summary, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	target, err := period.New(month, year)
	if err != nil {
		return nil, err
	}

	window, err := period.Window(month, year, TrendMonths)
	if err != nil {
		return nil, err
	}

	key := summaryKey(actor.CompanyID, target)
	gen := s.generation(actor.CompanyID)

	if s.summaries != nil {
		if cached, ok := s.summaries.Get(key); ok {
			return cached, nil
		}
	}

	monthFilter := ledger.Filter{CompanyID: actor.CompanyID, Period: &target}

	var (
		income, expenses decimal.Decimal
		projects         []*ledger.Project
		payments         []*ledger.Payment
		monthExpenses    []*ledger.Expense
		members          []*ledger.TeamMember
		trend            = make([]TrendPoint, len(window))
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		income, err = s.store.SumPayments(gctx, monthFilter)
		return wrap("sum income", err)
	})
	g.Go(func() (err error) {
		expenses, err = s.store.SumExpenses(gctx, monthFilter)
		return wrap("sum expenses", err)
	})
	g.Go(func() (err error) {
		projects, err = s.store.ListProjects(gctx, actor.CompanyID)
		return wrap("list projects", err)
	})
	g.Go(func() (err error) {
		payments, err = s.store.ListPayments(gctx, monthFilter)
		return wrap("list payments", err)
	})
	g.Go(func() (err error) {
		monthExpenses, err = s.store.ListExpenses(gctx, monthFilter)
		return wrap("list expenses", err)
	})
	g.Go(func() (err error) {
		members, err = s.store.ListTeamMembers(gctx, actor.CompanyID)
		return wrap("list team members", err)
	})

	for i, b := range window {
		trend[i] = TrendPoint{Month: b.Month.Month, Year: b.Year, Label: b.Label}
		f := ledger.Filter{CompanyID: actor.CompanyID, Period: &window[i].Month}

		g.Go(func() (err error) {
			trend[i].Income, err = s.store.SumPayments(gctx, f)
			return wrap("sum trend income", err)
		})
		g.Go(func() (err error) {
			trend[i].Expenses, err = s.store.SumExpenses(gctx, f)
			return wrap("sum trend expenses", err)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperror.Store(err)
	}

	profitability := projectProfitability(projects, payments, monthExpenses)

	sum := &Summary{
		Period:                 target,
		TotalIncome:            income,
		TotalExpenses:          expenses,
		NetProfit:              income.Sub(expenses),
		ActiveProjectsCount:    len(projects),
		ProjectProfitability:   profitability,
		TrendData:              trend,
		TeamPayoutDistribution: teamPayoutDistribution(monthExpenses, members),
		DefaultCurrency:        defaultCurrency(projects),
		MixedCurrencies:        mixedCurrencies(profitability),
	}

	s.remember(actor.CompanyID, gen, key, sum)

	return sum, nil
}

func (s *Service) generation(companyID uuid.UUID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generations[companyID]
}

// remember caches sum unless the company was invalidated after gen was read.
func (s *Service) remember(companyID uuid.UUID, gen uint64, key string, sum *Summary) {
	if s.summaries == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[companyID] != gen {
		return
	}

	s.summaries.Set(key, sum)
}

// ProjectDetail loads a project with its ledger. The optional filter narrows
// payments only; expenses are always the project's full history.
func (s *Service) ProjectDetail(ctx context.Context, actor access.Actor, projectID uuid.UUID, filter *period.Month) (*ProjectDetail, error) {
	if err := actor.RequireRead(); err != nil {
		return nil, err
	}

	if projectID == uuid.Nil {
		return nil, apperror.InvalidArgument("Project ID is required")
	}

	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}

	all := ledger.Filter{CompanyID: actor.CompanyID, ProjectID: &projectID}
	scoped := all
	scoped.Period = filter

	var (
		project     *ledger.Project
		payments    []*ledger.Payment
		allPayments []*ledger.Payment
		expenses    []*ledger.Expense
		members     []*ledger.TeamMember
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		project, err = s.store.GetProject(gctx, actor.CompanyID, projectID)
		return err
	})
	g.Go(func() (err error) {
		allPayments, err = s.store.ListPayments(gctx, all)
		return wrap("list payments", err)
	})
	if filter != nil {
		g.Go(func() (err error) {
			payments, err = s.store.ListPayments(gctx, scoped)
			return wrap("list month payments", err)
		})
	}
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, all)
		return wrap("list expenses", err)
	})
	g.Go(func() (err error) {
		members, err = s.store.ListTeamMembers(gctx, actor.CompanyID)
		return wrap("list team members", err)
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, apperror.NotFound("Project not found")
		}

		return nil, apperror.Store(err)
	}

	if filter == nil {
		payments = allPayments
	}

	received := sumPayments(payments)
	spent := sumExpenses(expenses)

	return &ProjectDetail{
		Project:          project,
		Filter:           filter,
		Payments:         payments,
		Expenses:         expenses,
		TotalReceived:    received,
		TotalExpenses:    spent,
		NetProfit:        received.Sub(spent),
		Remaining:        project.TotalBudget.Sub(received),
		ExpensesByType:   expensesByType(expenses),
		MonthlyBreakdown: monthlyBreakdown(allPayments),
		TeamPayouts:      projectTeamPayouts(expenses, members),
	}, nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", op, err)
}
