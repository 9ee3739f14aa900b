package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

// ExpenseType classifies money paid out on a project.
type ExpenseType string

const (
	ExpenseTeam  ExpenseType = "team"
	ExpenseTools ExpenseType = "tools"
	ExpenseMisc  ExpenseType = "misc"
)

func (t ExpenseType) Valid() bool {
	return t == ExpenseTeam || t == ExpenseTools || t == ExpenseMisc
}

// PayoutType describes how a team member is compensated.
type PayoutType string

const (
	PayoutFixed      PayoutType = "fixed"
	PayoutPercentage PayoutType = "percentage"
)

func (t PayoutType) Valid() bool {
	return t == PayoutFixed || t == PayoutPercentage
}

// Project is a client engagement. Every payment and expense belongs to one.
type Project struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	ClientName  string
	StartDate   time.Time
	EndDate     *time.Time
	TotalBudget decimal.Decimal
	Currency    currency.Code
	Description string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ProjectRef is the subset of a project joined onto payment and expense reads.
type ProjectRef struct {
	ID         uuid.UUID
	Name       string
	ClientName string
	Currency   currency.Code
}

// MemberRef is the subset of a team member joined onto expense reads.
type MemberRef struct {
	ID   uuid.UUID
	Name string
	Role string
}

// Payment is money received from a client. Month and Year are derived from
// Date when the payment is created and never recomputed.
type Payment struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	ProjectID uuid.UUID
	Amount    decimal.Decimal
	Date      time.Time
	Month     int
	Year      int
	Notes     string
	Project   *ProjectRef // Loaded via JOIN
	CreatedAt time.Time
}

func (p *Payment) Period() period.Month {
	return period.Month{Month: p.Month, Year: p.Year}
}

// Expense is money paid out. TeamMemberID is set iff Type is ExpenseTeam.
type Expense struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	ProjectID    uuid.UUID
	Type         ExpenseType
	Amount       decimal.Decimal
	Date         time.Time
	Month        int
	Year         int
	Description  string
	TeamMemberID *uuid.UUID
	TeamMember   *MemberRef  // Loaded via JOIN
	Project      *ProjectRef // Loaded via JOIN
	CreatedAt    time.Time
}

func (e *Expense) Period() period.Month {
	return period.Month{Month: e.Month, Year: e.Year}
}

// TeamMember holds compensation terms. It is metadata only: payouts are
// recorded by hand as team expenses.
type TeamMember struct {
	ID               uuid.UUID
	CompanyID        uuid.UUID
	Name             string
	Role             string
	PayoutType       PayoutType
	PayoutAmount     *decimal.Decimal
	PayoutPercentage *decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// Filter scopes payment and expense scans. CompanyID is mandatory.
type Filter struct {
	CompanyID uuid.UUID
	ProjectID *uuid.UUID
	Period    *period.Month
	Type      *ExpenseType // Expenses only
}
