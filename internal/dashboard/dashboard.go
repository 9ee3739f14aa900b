// Package dashboard computes the month scoped view-models shown on the
// company dashboard and on a project's detail page.
package dashboard

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

// TrendMonths is the length of the trend window ending at the requested month.
const TrendMonths = 6

// Summary is the company dashboard for one month. Totals sum raw amounts
// across projects without currency conversion; MixedCurrencies reports when
// that happened.
type Summary struct {
	Period                 period.Month
	TotalIncome            decimal.Decimal
	TotalExpenses          decimal.Decimal
	NetProfit              decimal.Decimal
	ActiveProjectsCount    int
	ProjectProfitability   []ProjectProfit
	TrendData              []TrendPoint
	TeamPayoutDistribution []MemberPayout
	DefaultCurrency        currency.Code
	MixedCurrencies        bool
}

type ProjectProfit struct {
	ProjectID   uuid.UUID
	ProjectName string
	Currency    currency.Code
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Profit      decimal.Decimal
}

type TrendPoint struct {
	Month    int
	Year     int
	Label    string
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

type MemberPayout struct {
	TeamMemberID uuid.UUID
	Name         string
	Amount       decimal.Decimal
}

// ProjectDetail is a project with its ledger. Payments honour the optional
// month filter; Expenses and everything derived from them are all-time.
type ProjectDetail struct {
	Project          *ledger.Project
	Filter           *period.Month
	Payments         []*ledger.Payment
	Expenses         []*ledger.Expense
	TotalReceived    decimal.Decimal
	TotalExpenses    decimal.Decimal
	NetProfit        decimal.Decimal
	Remaining        decimal.Decimal
	ExpensesByType   []TypeTotal
	MonthlyBreakdown []MonthTotal
	TeamPayouts      []ProjectPayout
}

type TypeTotal struct {
	Type  ledger.ExpenseType
	Total decimal.Decimal
}

// MonthTotal is the payments received on a project in one month.
type MonthTotal struct {
	Month int
	Year  int
	Label string
	Total decimal.Decimal
}

type ProjectPayout struct {
	TeamMemberID uuid.UUID
	Name         string
	Role         string
	TotalPaid    decimal.Decimal
	PaymentCount int
}
