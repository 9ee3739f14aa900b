package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/dashboard"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

// Calendar dates travel as YYYY-MM-DD strings.
func dateString(t time.Time) string {
	return t.Format(time.DateOnly)
}

type projectResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	ClientName  string          `json:"client_name"`
	StartDate   string          `json:"start_date"`
	EndDate     *string         `json:"end_date,omitempty"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	Currency    currency.Code   `json:"currency"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

type projectRefResponse struct {
	Name       string        `json:"name"`
	ClientName string        `json:"client_name"`
	Currency   currency.Code `json:"currency"`
}

type memberRefResponse struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type paymentResponse struct {
	ID        uuid.UUID           `json:"id"`
	ProjectID uuid.UUID           `json:"project_id"`
	Project   *projectRefResponse `json:"project,omitempty"`
	Amount    decimal.Decimal     `json:"amount"`
	Date      string              `json:"date"`
	Month     int                 `json:"month"`
	Year      int                 `json:"year"`
	Notes     string              `json:"notes,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type expenseResponse struct {
	ID           uuid.UUID           `json:"id"`
	ProjectID    uuid.UUID           `json:"project_id"`
	Project      *projectRefResponse `json:"project,omitempty"`
	Type         ledger.ExpenseType  `json:"type"`
	Amount       decimal.Decimal     `json:"amount"`
	Date         string              `json:"date"`
	Month        int                 `json:"month"`
	Year         int                 `json:"year"`
	Description  string              `json:"description"`
	TeamMemberID *uuid.UUID          `json:"team_member_id,omitempty"`
	TeamMember   *memberRefResponse  `json:"team_member,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

type teamMemberResponse struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Role             string            `json:"role"`
	PayoutType       ledger.PayoutType `json:"payout_type"`
	PayoutAmount     *decimal.Decimal  `json:"payout_amount,omitempty"`
	PayoutPercentage *decimal.Decimal  `json:"payout_percentage,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        *time.Time        `json:"updated_at,omitempty"`
}

type typeTotalResponse struct {
	Type  ledger.ExpenseType `json:"type"`
	Total decimal.Decimal    `json:"total"`
}

type monthTotalResponse struct {
	Month int             `json:"month"`
	Year  int             `json:"year"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

type projectPayoutResponse struct {
	TeamMemberID uuid.UUID       `json:"team_member_id"`
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	PaymentCount int             `json:"payment_count"`
}

type projectDetailResponse struct {
	Project          projectResponse         `json:"project"`
	Filter           *period.Month           `json:"filter,omitempty"`
	Payments         []paymentResponse       `json:"payments"`
	Expenses         []expenseResponse       `json:"expenses"`
	TotalReceived    decimal.Decimal         `json:"total_received"`
	TotalExpenses    decimal.Decimal         `json:"total_expenses"`
	NetProfit        decimal.Decimal         `json:"net_profit"`
	Remaining        decimal.Decimal         `json:"remaining"`
	ExpensesByType   []typeTotalResponse     `json:"expenses_by_type"`
	MonthlyBreakdown []monthTotalResponse    `json:"monthly_breakdown"`
	TeamPayouts      []projectPayoutResponse `json:"team_payouts"`
}

type statementLineDTO struct {
	Date        string           `json:"date"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Direction   ledger.Direction `json:"direction"`
}

type conflictResponse struct {
	Incoming   statementLineDTO `json:"incoming"`
	ExistingID uuid.UUID        `json:"existing_id"`
}

type importConflictResponse struct {
	New       []statementLineDTO `json:"new"`
	Conflicts []conflictResponse `json:"conflicts"`
}

type importSuccessResponse struct {
	Imported int               `json:"imported"`
	Payments []paymentResponse `json:"payments"`
	Expenses []expenseResponse `json:"expenses"`
}

func toProjectResponse(p *ledger.Project) projectResponse {
	resp := projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		ClientName:  p.ClientName,
		StartDate:   dateString(p.StartDate),
		TotalBudget: p.TotalBudget,
		Currency:    p.Currency,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	if p.EndDate != nil {
		resp.EndDate = new(dateString(*p.EndDate))
	}

	return resp
}

func toProjectRef(ref *ledger.ProjectRef) *projectRefResponse {
	if ref == nil {
		return nil
	}

	return &projectRefResponse{Name: ref.Name, ClientName: ref.ClientName, Currency: ref.Currency}
}

func toPaymentResponse(p *ledger.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		Project:   toProjectRef(p.Project),
		Amount:    p.Amount,
		Date:      dateString(p.Date),
		Month:     p.Month,
		Year:      p.Year,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
}

func toPaymentList(payments []*ledger.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}

	return resp
}

func toExpenseResponse(e *ledger.Expense) expenseResponse {
	resp := expenseResponse{
		ID:           e.ID,
		ProjectID:    e.ProjectID,
		Project:      toProjectRef(e.Project),
		Type:         e.Type,
		Amount:       e.Amount,
		Date:         dateString(e.Date),
		Month:        e.Month,
		Year:         e.Year,
		Description:  e.Description,
		TeamMemberID: e.TeamMemberID,
		CreatedAt:    e.CreatedAt,
	}

	if e.TeamMember != nil {
		resp.TeamMember = &memberRefResponse{Name: e.TeamMember.Name, Role: e.TeamMember.Role}
	}

	return resp
}

func toExpenseList(expenses []*ledger.Expense) []expenseResponse {
	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}

	return resp
}

func toTeamMemberResponse(m *ledger.TeamMember) teamMemberResponse {
	return teamMemberResponse{
		ID:               m.ID,
		Name:             m.Name,
		Role:             m.Role,
		PayoutType:       m.PayoutType,
		PayoutAmount:     m.PayoutAmount,
		PayoutPercentage: m.PayoutPercentage,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toProjectDetailResponse(d *dashboard.ProjectDetail) projectDetailResponse {
	resp := projectDetailResponse{
		Project:          toProjectResponse(d.Project),
		Filter:           d.Filter,
		Payments:         toPaymentList(d.Payments),
		Expenses:         toExpenseList(d.Expenses),
		TotalReceived:    d.TotalReceived,
		TotalExpenses:    d.TotalExpenses,
		NetProfit:        d.NetProfit,
		Remaining:        d.Remaining,
		ExpensesByType:   make([]typeTotalResponse, len(d.ExpensesByType)),
		MonthlyBreakdown: make([]monthTotalResponse, len(d.MonthlyBreakdown)),
		TeamPayouts:      make([]projectPayoutResponse, len(d.TeamPayouts)),
	}

	for i, t := range d.ExpensesByType {
		resp.ExpensesByType[i] = typeTotalResponse{Type: t.Type, Total: t.Total}
	}

	for i, m := range d.MonthlyBreakdown {
		resp.MonthlyBreakdown[i] = monthTotalResponse{Month: m.Month, Year: m.Year, Label: m.Label, Total: m.Total}
	}

	for i, p := range d.TeamPayouts {
		resp.TeamPayouts[i] = projectPayoutResponse{
			TeamMemberID: p.TeamMemberID,
			Name:         p.Name,
			Role:         p.Role,
			TotalPaid:    p.TotalPaid,
			PaymentCount: p.PaymentCount,
		}
	}

	return resp
}

func toLineDTO(l ledger.StatementLine) statementLineDTO {
	return statementLineDTO{
		Date:        dateString(l.Date),
		Description: l.Description,
		Amount:      l.Amount,
		Direction:   l.Direction,
	}
}

func toLineDTOs(lines []ledger.StatementLine) []statementLineDTO {
	resp := make([]statementLineDTO, len(lines))
	for i, l := range lines {
		resp[i] = toLineDTO(l)
	}

	return resp
}
