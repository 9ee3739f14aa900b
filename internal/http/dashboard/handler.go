// Package dashboard serves the monthly company summary.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/dashboard"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
)

type Summarizer interface {
	Summary(ctx context.Context, actor access.Actor, month, year int) (*dashboard.Summary, error)
}

type Handler struct {
	summaries Summarizer
	now       func() time.Time
}

func NewHandler(summaries Summarizer) *Handler {
	return &Handler{summaries: summaries, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summary)
}

type projectProfitResponse struct {
	ProjectID   uuid.UUID       `json:"project_id"`
	ProjectName string          `json:"project_name"`
	Currency    currency.Code   `json:"currency"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Profit      decimal.Decimal `json:"profit"`
}

type trendPointResponse struct {
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Label    string          `json:"label"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type memberPayoutResponse struct {
	TeamMemberID uuid.UUID       `json:"team_member_id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
}

type summaryResponse struct {
	Month                  int                     `json:"month"`
	Year                   int                     `json:"year"`
	TotalIncome            decimal.Decimal         `json:"total_income"`
	TotalExpenses          decimal.Decimal         `json:"total_expenses"`
	NetProfit              decimal.Decimal         `json:"net_profit"`
	ActiveProjectsCount    int                     `json:"active_projects_count"`
	ProjectProfitability   []projectProfitResponse `json:"project_profitability"`
	TrendData              []trendPointResponse    `json:"trend_data"`
	TeamPayoutDistribution []memberPayoutResponse  `json:"team_payout_distribution"`
	DefaultCurrency        currency.Code           `json:"default_currency"`
	MixedCurrencies        bool                    `json:"mixed_currencies"`
}

func toSummaryResponse(s *dashboard.Summary) summaryResponse {
	resp := summaryResponse{
		Month:                  s.Period.Month,
		Year:                   s.Period.Year,
		TotalIncome:            s.TotalIncome,
		TotalExpenses:          s.TotalExpenses,
		NetProfit:              s.NetProfit,
		ActiveProjectsCount:    s.ActiveProjectsCount,
		ProjectProfitability:   make([]projectProfitResponse, len(s.ProjectProfitability)),
		TrendData:              make([]trendPointResponse, len(s.TrendData)),
		TeamPayoutDistribution: make([]memberPayoutResponse, len(s.TeamPayoutDistribution)),
		DefaultCurrency:        s.DefaultCurrency,
		MixedCurrencies:        s.MixedCurrencies,
	}

	for i, p := range s.ProjectProfitability {
		resp.ProjectProfitability[i] = projectProfitResponse{
			ProjectID:   p.ProjectID,
			ProjectName: p.ProjectName,
			Currency:    p.Currency,
			Income:      p.Income,
			Expenses:    p.Expenses,
			Profit:      p.Profit,
		}
	}

	for i, t := range s.TrendData {
		resp.TrendData[i] = trendPointResponse{
			Month:    t.Month,
			Year:     t.Year,
			Label:    t.Label,
			Income:   t.Income,
			Expenses: t.Expenses,
		}
	}

	for i, m := range s.TeamPayoutDistribution {
		resp.TeamPayoutDistribution[i] = memberPayoutResponse{TeamMemberID: m.TeamMemberID, Name: m.Name, Amount: m.Amount}
	}

	return resp
}

// summary defaults to the current month when no month and year are given.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	m, err := respond.RequiredPeriod(r, h.now())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	s, err := h.summaries.Summary(r.Context(), respond.Actor(r), m.Month, m.Year)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSummaryResponse(s))
}
