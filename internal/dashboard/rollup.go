package dashboard

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

func sumPayments(payments []*ledger.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}

	return total
}

func sumExpenses(expenses []*ledger.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	return total
}

// projectProfitability rolls the month's records up per project. A project
// appears once iff it has at least one payment or expense in the input.
// Names and currencies come from projects, falling back to the joined ref.
func projectProfitability(projects []*ledger.Project, payments []*ledger.Payment, expenses []*ledger.Expense) []ProjectProfit {
	byID := make(map[uuid.UUID]*ledger.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	rows := make(map[uuid.UUID]*ProjectProfit)

	row := func(id uuid.UUID, ref *ledger.ProjectRef) *ProjectProfit {
		if r, ok := rows[id]; ok {
			return r
		}

		r := &ProjectProfit{ProjectID: id, Income: decimal.Zero, Expenses: decimal.Zero}

		switch {
		case byID[id] != nil:
			r.ProjectName = byID[id].Name
			r.Currency = byID[id].Currency
		case ref != nil:
			r.ProjectName = ref.Name
			r.Currency = ref.Currency
		}

		rows[id] = r

		return r
	}

	for _, p := range payments {
		r := row(p.ProjectID, p.Project)
		r.Income = r.Income.Add(p.Amount)
	}

	for _, e := range expenses {
		r := row(e.ProjectID, e.Project)
		r.Expenses = r.Expenses.Add(e.Amount)
	}

	out := make([]ProjectProfit, 0, len(rows))
	for _, r := range rows {
		r.Profit = r.Income.Sub(r.Expenses)
		out = append(out, *r)
	}

	slices.SortFunc(out, func(a, b ProjectProfit) int {
		if c := cmp.Compare(a.ProjectName, b.ProjectName); c != 0 {
			return c
		}

		return cmp.Compare(a.ProjectID.String(), b.ProjectID.String())
	})

	return out
}

// teamPayoutDistribution sums team expenses per member. Members without team
// expenses are absent, as are expenses whose member is not in members.
func teamPayoutDistribution(expenses []*ledger.Expense, members []*ledger.TeamMember) []MemberPayout {
	names := make(map[uuid.UUID]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	totals := make(map[uuid.UUID]decimal.Decimal)

	for _, e := range expenses {
		if e.Type != ledger.ExpenseTeam || e.TeamMemberID == nil {
			continue
		}

		id := *e.TeamMemberID
		if _, ok := names[id]; !ok {
			continue
		}

		totals[id] = totals[id].Add(e.Amount)
	}

	out := make([]MemberPayout, 0, len(totals))
	for id, amount := range totals {
		out = append(out, MemberPayout{TeamMemberID: id, Name: names[id], Amount: amount})
	}

	slices.SortFunc(out, func(a, b MemberPayout) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}

		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}

		return cmp.Compare(a.TeamMemberID.String(), b.TeamMemberID.String())
	})

	return out
}

// defaultCurrency picks the most used project currency. projects are in
// store order (newest first); ties go to the currency that appears on the
// oldest project.
func defaultCurrency(projects []*ledger.Project) currency.Code {
	counts := make(map[currency.Code]int)

	var order []currency.Code

	for i := len(projects) - 1; i >= 0; i-- {
		c := projects[i].Currency
		if counts[c] == 0 {
			order = append(order, c)
		}

		counts[c]++
	}

	best := currency.Default
	bestCount := 0

	for _, c := range order {
		if counts[c] > bestCount {
			best = c
			bestCount = counts[c]
		}
	}

	return best
}

func mixedCurrencies(rows []ProjectProfit) bool {
	if len(rows) == 0 {
		return false
	}

	for _, r := range rows[1:] {
		if r.Currency != rows[0].Currency {
			return true
		}
	}

	return false
}

// monthlyBreakdown groups payments by month, oldest first.
func monthlyBreakdown(payments []*ledger.Payment) []MonthTotal {
	totals := make(map[period.Month]decimal.Decimal)
	for _, p := range payments {
		m := p.Period()
		totals[m] = totals[m].Add(p.Amount)
	}

	months := make([]period.Month, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}

	slices.SortFunc(months, func(a, b period.Month) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}

		return 0
	})

	out := make([]MonthTotal, 0, len(months))
	for _, m := range months {
		out = append(out, MonthTotal{Month: m.Month, Year: m.Year, Label: m.Label(), Total: totals[m]})
	}

	return out
}

// expensesByType totals expenses per type in a fixed team, tools, misc order.
func expensesByType(expenses []*ledger.Expense) []TypeTotal {
	out := []TypeTotal{
		{Type: ledger.ExpenseTeam, Total: decimal.Zero},
		{Type: ledger.ExpenseTools, Total: decimal.Zero},
		{Type: ledger.ExpenseMisc, Total: decimal.Zero},
	}

	for _, e := range expenses {
		for i := range out {
			if out[i].Type == e.Type {
				out[i].Total = out[i].Total.Add(e.Amount)
			}
		}
	}

	return out
}

// projectTeamPayouts counts and sums a project's team expenses per member,
// largest total first. Expenses of members not in members are skipped.
func projectTeamPayouts(expenses []*ledger.Expense, members []*ledger.TeamMember) []ProjectPayout {
	byID := make(map[uuid.UUID]*ledger.TeamMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	rows := make(map[uuid.UUID]*ProjectPayout)

	for _, e := range expenses {
		if e.Type != ledger.ExpenseTeam || e.TeamMemberID == nil {
			continue
		}

		m, ok := byID[*e.TeamMemberID]
		if !ok {
			continue
		}

		r, ok := rows[m.ID]
		if !ok {
			r = &ProjectPayout{TeamMemberID: m.ID, Name: m.Name, Role: m.Role, TotalPaid: decimal.Zero}
			rows[m.ID] = r
		}

		r.TotalPaid = r.TotalPaid.Add(e.Amount)
		r.PaymentCount++
	}

	out := make([]ProjectPayout, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}

	slices.SortFunc(out, func(a, b ProjectPayout) int {
		if c := b.TotalPaid.Cmp(a.TotalPaid); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}
