// Package export renders a company's month as a CSV ledger or as a short
// plain-text summary.
package export

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/dashboard"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

type Ledger interface {
	ListPayments(ctx context.Context, actor access.Actor, filter ledger.ListFilter) ([]*ledger.Payment, error)
	ListExpenses(ctx context.Context, actor access.Actor, filter ledger.ListFilter) ([]*ledger.Expense, error)
}

type Dashboard interface {
	Summary(ctx context.Context, actor access.Actor, month, year int) (*dashboard.Summary, error)
}

// Row is one line of the month ledger CSV.
type Row struct {
	Date        string `csv:"date"`
	Direction   string `csv:"direction"`
	Kind        string `csv:"kind"`
	Project     string `csv:"project"`
	Client      string `csv:"client"`
	Currency    string `csv:"currency"`
	Amount      string `csv:"amount"`
	Description string `csv:"description"`
	TeamMember  string `csv:"team_member"`
}

type dated struct {
	at  time.Time
	row Row
}

type Service struct {
	ledger    Ledger
	dashboard Dashboard
}

func NewService(l Ledger, d Dashboard) *Service {
	return &Service{ledger: l, dashboard: d}
}

// MonthLedger writes every payment and expense of the month as CSV, oldest
// first. Amounts are written in their project's currency at its scale.
func (s *Service) MonthLedger(ctx context.Context, actor access.Actor, month, year int, w io.Writer) error {
	m, err := period.New(month, year)
	if err != nil {
		return err
	}

	filter := ledger.ListFilter{Period: &m}

	payments, err := s.ledger.ListPayments(ctx, actor, filter)
	if err != nil {
		return err
	}

	expenses, err := s.ledger.ListExpenses(ctx, actor, filter)
	if err != nil {
		return err
	}

	entries := make([]dated, 0, len(payments)+len(expenses))

	for _, p := range payments {
		r := Row{
			Direction:   string(ledger.DirectionIn),
			Kind:        "payment",
			Description: p.Notes,
		}
		setProject(&r, p.Project, p.Amount)
		entries = append(entries, dated{at: p.Date, row: r})
	}

	for _, e := range expenses {
		r := Row{
			Direction:   string(ledger.DirectionOut),
			Kind:        string(e.Type),
			Description: e.Description,
		}
		if e.TeamMember != nil {
			r.TeamMember = e.TeamMember.Name
		}

		setProject(&r, e.Project, e.Amount)
		entries = append(entries, dated{at: e.Date, row: r})
	}

	slices.SortStableFunc(entries, func(a, b dated) int {
		return a.at.Compare(b.at)
	})

	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = e.row
		rows[i].Date = e.at.Format(time.DateOnly)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	return nil
}

func setProject(r *Row, ref *ledger.ProjectRef, amount decimal.Decimal) {
	code := currency.Default
	if ref != nil {
		r.Project = ref.Name
		r.Client = ref.ClientName
		code = ref.Currency
	}

	r.Currency = string(code)
	r.Amount = amount.StringFixed(int32(code.Scale()))
}

// Summary writes the month dashboard as plain text. Per-project figures use
// the project's currency; totals use the default currency and are tagged
// "mixed" when they add up several currencies.
func (s *Service) Summary(ctx context.Context, actor access.Actor, month, year int, w io.Writer) error {
	sum, err := s.dashboard.Summary(ctx, actor, month, year)
	if err != nil {
		return err
	}

	var sb strings.Builder

	total := func(d decimal.Decimal) string {
		out := currency.Format(d, sum.DefaultCurrency)
		if sum.MixedCurrencies {
			out += " (mixed)"
		}

		return out
	}

	fmt.Fprintf(&sb, "Summary for %s\n\n", sum.Period.Label())
	fmt.Fprintf(&sb, "Income:          %s\n", total(sum.TotalIncome))
	fmt.Fprintf(&sb, "Expenses:        %s\n", total(sum.TotalExpenses))
	fmt.Fprintf(&sb, "Net profit:      %s\n", total(sum.NetProfit))
	fmt.Fprintf(&sb, "Active projects: %d\n", sum.ActiveProjectsCount)

	if len(sum.ProjectProfitability) > 0 {
		sb.WriteString("\nProjects\n")

		for _, p := range sum.ProjectProfitability {
			fmt.Fprintf(&sb, "* %s | in %s | out %s | profit %s\n",
				p.ProjectName,
				currency.Format(p.Income, p.Currency),
				currency.Format(p.Expenses, p.Currency),
				currency.Format(p.Profit, p.Currency),
			)
		}
	}

	if len(sum.TeamPayoutDistribution) > 0 {
		sb.WriteString("\nTeam payouts\n")

		for _, m := range sum.TeamPayoutDistribution {
			fmt.Fprintf(&sb, "* %s | %s\n", m.Name, total(m.Amount))
		}
	}

	sb.WriteString("\nLast months\n")

	for _, t := range sum.TrendData {
		fmt.Fprintf(&sb, "* %s | in %s | out %s\n", t.Label, total(t.Income), total(t.Expenses))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return nil
}
