package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/currency"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}

	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

// filterClause appends the filter's predicates for the table aliased as alias.
// Arguments are numbered from $1.
func filterClause(alias string, f ledger.Filter) (string, []any) {
	clause := fmt.Sprintf(" WHERE %s.company_id = $1", alias)
	args := []any{f.CompanyID}
	argIdx := 2

	if f.ProjectID != nil {
		clause += fmt.Sprintf(" AND %s.project_id = $%d", alias, argIdx)

		args = append(args, *f.ProjectID)
		argIdx++
	}

	if f.Period != nil {
		clause += fmt.Sprintf(" AND %s.month = $%d AND %s.year = $%d", alias, argIdx, alias, argIdx+1)

		args = append(args, f.Period.Month, f.Period.Year)
		argIdx += 2
	}

	if f.Type != nil {
		clause += fmt.Sprintf(" AND %s.type = $%d", alias, argIdx)

		args = append(args, *f.Type)
	}

	return clause, args
}

// Projects

// Expected column order: id, company_id, name, client_name, start_date, end_date,
// total_budget, currency, description, created_at, updated_at
func scanProject(s scanner) (*ledger.Project, error) {
	var p ledger.Project

	var code string

	if err := s.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.ClientName, &p.StartDate, &p.EndDate,
		&p.TotalBudget, &code, &p.Description, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Currency = currency.Code(code)

	return &p, nil
}

const selectProjectColumns = `
	p.id, p.company_id, p.name, p.client_name, p.start_date, p.end_date,
	p.total_budget, p.currency, p.description, p.created_at, p.updated_at
`

func (s *Store) CreateProject(ctx context.Context, p *ledger.Project) error {
	query := `
		INSERT INTO projects (company_id, name, client_name, start_date, end_date, total_budget, currency, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.CompanyID,
		p.Name,
		p.ClientName,
		p.StartDate,
		p.EndDate,
		p.TotalBudget,
		p.Currency,
		p.Description,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	return nil
}

func (s *Store) GetProject(ctx context.Context, companyID, id uuid.UUID) (*ledger.Project, error) {
	query := `SELECT ` + selectProjectColumns + `
		FROM projects p
		WHERE p.company_id = $1 AND p.id = $2`

	p, err := scanProject(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting project: %w", err)
	}

	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, companyID uuid.UUID) ([]*ledger.Project, error) {
	query := `SELECT ` + selectProjectColumns + `
		FROM projects p
		WHERE p.company_id = $1
		ORDER BY p.created_at DESC, p.id`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*ledger.Project

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}

		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project rows: %w", err)
	}

	return projects, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *ledger.Project) error {
	query := `
		UPDATE projects
		SET name = $1, client_name = $2, start_date = $3, end_date = $4, total_budget = $5,
			currency = $6, description = $7, updated_at = NOW()
		WHERE company_id = $8 AND id = $9
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.Name,
		p.ClientName,
		p.StartDate,
		p.EndDate,
		p.TotalBudget,
		p.Currency,
		p.Description,
		p.CompanyID,
		p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating project: %w", notFound(err))
	}

	return nil
}

// DeleteProject relies on ON DELETE CASCADE to drop the project's payments and expenses.
func (s *Store) DeleteProject(ctx context.Context, companyID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	if err := checkAffected(res); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	return nil
}

// Payments

// Expected column order: id, company_id, project_id, amount, date, month, year,
// notes, created_at, project name, client_name, currency
func scanPayment(s scanner) (*ledger.Payment, error) {
	var p ledger.Payment

	var name, client, code sql.NullString

	if err := s.Scan(
		&p.ID, &p.CompanyID, &p.ProjectID, &p.Amount, &p.Date, &p.Month, &p.Year,
		&p.Notes, &p.CreatedAt, &name, &client, &code,
	); err != nil {
		return nil, err
	}

	if name.Valid {
		p.Project = &ledger.ProjectRef{
			ID:         p.ProjectID,
			Name:       name.String,
			ClientName: client.String,
			Currency:   currency.Code(code.String),
		}
	}

	return &p, nil
}

const selectPaymentColumns = `
	pa.id, pa.company_id, pa.project_id, pa.amount, pa.date, pa.month, pa.year,
	pa.notes, pa.created_at, pr.name, pr.client_name, pr.currency
`

const insertPayment = `
	INSERT INTO payments (company_id, project_id, amount, date, month, year, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	RETURNING id, created_at
`

func createPayment(ctx context.Context, q querier, p *ledger.Payment) error {
	return q.QueryRowContext(ctx, insertPayment,
		p.CompanyID,
		p.ProjectID,
		p.Amount,
		p.Date,
		p.Month,
		p.Year,
		p.Notes,
	).Scan(&p.ID, &p.CreatedAt)
}

func (s *Store) CreatePayment(ctx context.Context, p *ledger.Payment) error {
	if err := createPayment(ctx, s.db, p); err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}

	return nil
}

func (s *Store) GetPayment(ctx context.Context, companyID, id uuid.UUID) (*ledger.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments pa
		LEFT JOIN projects pr ON pa.project_id = pr.id
		WHERE pa.company_id = $1 AND pa.id = $2`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, filter ledger.Filter) ([]*ledger.Payment, error) {
	where, args := filterClause("pa", ledger.Filter{
		CompanyID: filter.CompanyID,
		ProjectID: filter.ProjectID,
		Period:    filter.Period,
	})

	query := `SELECT ` + selectPaymentColumns + `
		FROM payments pa
		LEFT JOIN projects pr ON pa.project_id = pr.id` + where + `
		ORDER BY pa.date DESC, pa.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*ledger.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return payments, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *ledger.Payment) error {
	query := `
		UPDATE payments
		SET amount = $1, notes = $2
		WHERE company_id = $3 AND id = $4
	`

	res, err := s.db.ExecContext(ctx, query, p.Amount, p.Notes, p.CompanyID, p.ID)
	if err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}

	if err := checkAffected(res); err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}

	return nil
}

func (s *Store) DeletePayment(ctx context.Context, companyID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	if err := checkAffected(res); err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	return nil
}

func (s *Store) SumPayments(ctx context.Context, filter ledger.Filter) (decimal.Decimal, error) {
	where, args := filterClause("pa", ledger.Filter{
		CompanyID: filter.CompanyID,
		ProjectID: filter.ProjectID,
		Period:    filter.Period,
	})

	var total decimal.Decimal
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(pa.amount), 0) FROM payments pa`+where, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("summing payments: %w", err)
	}

	return total, nil
}

// Expenses

// Expected column order: id, company_id, project_id, type, amount, date, month, year,
// description, team_member_id, created_at, project name, client_name, currency,
// member name, member role
func scanExpense(s scanner) (*ledger.Expense, error) {
	var e ledger.Expense

	var typeStr string

	var memberID *uuid.UUID

	var name, client, code, memberName, memberRole sql.NullString

	if err := s.Scan(
		&e.ID, &e.CompanyID, &e.ProjectID, &typeStr, &e.Amount, &e.Date, &e.Month, &e.Year,
		&e.Description, &memberID, &e.CreatedAt,
		&name, &client, &code, &memberName, &memberRole,
	); err != nil {
		return nil, err
	}

	e.Type = ledger.ExpenseType(typeStr)
	e.TeamMemberID = memberID

	if name.Valid {
		e.Project = &ledger.ProjectRef{
			ID:         e.ProjectID,
			Name:       name.String,
			ClientName: client.String,
			Currency:   currency.Code(code.String),
		}
	}

	if memberID != nil && memberName.Valid {
		e.TeamMember = &ledger.MemberRef{
			ID:   *memberID,
			Name: memberName.String,
			Role: memberRole.String,
		}
	}

	return &e, nil
}

const selectExpenseColumns = `
	ex.id, ex.company_id, ex.project_id, ex.type, ex.amount, ex.date, ex.month, ex.year,
	ex.description, ex.team_member_id, ex.created_at,
	pr.name, pr.client_name, pr.currency, tm.name, tm.role
`

const fromExpenses = `
	FROM expenses ex
	LEFT JOIN projects pr ON ex.project_id = pr.id
	LEFT JOIN team_members tm ON ex.team_member_id = tm.id`

const insertExpense = `
	INSERT INTO expenses (company_id, project_id, type, amount, date, month, year, description, team_member_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	RETURNING id, created_at
`

func createExpense(ctx context.Context, q querier, e *ledger.Expense) error {
	return q.QueryRowContext(ctx, insertExpense,
		e.CompanyID,
		e.ProjectID,
		e.Type,
		e.Amount,
		e.Date,
		e.Month,
		e.Year,
		e.Description,
		e.TeamMemberID,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *Store) CreateExpense(ctx context.Context, e *ledger.Expense) error {
	if err := createExpense(ctx, s.db, e); err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

func (s *Store) GetExpense(ctx context.Context, companyID, id uuid.UUID) (*ledger.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + fromExpenses + `
		WHERE ex.company_id = $1 AND ex.id = $2`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, filter ledger.Filter) ([]*ledger.Expense, error) {
	where, args := filterClause("ex", filter)

	query := `SELECT ` + selectExpenseColumns + fromExpenses + where + `
		ORDER BY ex.date DESC, ex.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*ledger.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	return expenses, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *ledger.Expense) error {
	query := `
		UPDATE expenses
		SET amount = $1, description = $2
		WHERE company_id = $3 AND id = $4
	`

	res, err := s.db.ExecContext(ctx, query, e.Amount, e.Description, e.CompanyID, e.ID)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}

	if err := checkAffected(res); err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}

	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, companyID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	if err := checkAffected(res); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	return nil
}

func (s *Store) SumExpenses(ctx context.Context, filter ledger.Filter) (decimal.Decimal, error) {
	where, args := filterClause("ex", filter)

	var total decimal.Decimal
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(ex.amount), 0) FROM expenses ex`+where, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("summing expenses: %w", err)
	}

	return total, nil
}

// Team members

// Expected column order: id, company_id, name, role, payout_type, payout_amount,
// payout_percentage, created_at, updated_at
func scanTeamMember(s scanner) (*ledger.TeamMember, error) {
	var m ledger.TeamMember

	var payoutType string

	var amount, pct decimal.NullDecimal

	if err := s.Scan(
		&m.ID, &m.CompanyID, &m.Name, &m.Role, &payoutType, &amount, &pct, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.PayoutType = ledger.PayoutType(payoutType)

	if amount.Valid {
		m.PayoutAmount = &amount.Decimal
	}

	if pct.Valid {
		m.PayoutPercentage = &pct.Decimal
	}

	return &m, nil
}

const selectTeamMemberColumns = `
	tm.id, tm.company_id, tm.name, tm.role, tm.payout_type, tm.payout_amount,
	tm.payout_percentage, tm.created_at, tm.updated_at
`

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}

	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (s *Store) CreateTeamMember(ctx context.Context, m *ledger.TeamMember) error {
	query := `
		INSERT INTO team_members (company_id, name, role, payout_type, payout_amount, payout_percentage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		m.CompanyID,
		m.Name,
		m.Role,
		m.PayoutType,
		nullDecimal(m.PayoutAmount),
		nullDecimal(m.PayoutPercentage),
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating team member: %w", err)
	}

	return nil
}

func (s *Store) GetTeamMember(ctx context.Context, companyID, id uuid.UUID) (*ledger.TeamMember, error) {
	query := `SELECT ` + selectTeamMemberColumns + `
		FROM team_members tm
		WHERE tm.company_id = $1 AND tm.id = $2`

	m, err := scanTeamMember(s.db.QueryRowContext(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting team member: %w", err)
	}

	return m, nil
}

func (s *Store) ListTeamMembers(ctx context.Context, companyID uuid.UUID) ([]*ledger.TeamMember, error) {
	query := `SELECT ` + selectTeamMemberColumns + `
		FROM team_members tm
		WHERE tm.company_id = $1
		ORDER BY tm.created_at DESC, tm.id`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	defer rows.Close()

	var members []*ledger.TeamMember

	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning team member: %w", err)
		}

		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team member rows: %w", err)
	}

	return members, nil
}

func (s *Store) UpdateTeamMember(ctx context.Context, m *ledger.TeamMember) error {
	query := `
		UPDATE team_members
		SET name = $1, role = $2, payout_type = $3, payout_amount = $4, payout_percentage = $5, updated_at = NOW()
		WHERE company_id = $6 AND id = $7
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		m.Name,
		m.Role,
		m.PayoutType,
		nullDecimal(m.PayoutAmount),
		nullDecimal(m.PayoutPercentage),
		m.CompanyID,
		m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating team member: %w", notFound(err))
	}

	return nil
}

// DeleteTeamMember relies on ON DELETE SET NULL to detach recorded team expenses.
func (s *Store) DeleteTeamMember(ctx context.Context, companyID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM team_members WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting team member: %w", err)
	}

	if err := checkAffected(res); err != nil {
		return fmt.Errorf("deleting team member: %w", err)
	}

	return nil
}

// Statement import

// importLockKey is per project so imports with overlapping date ranges
// cannot both miss each other's lines.
func importLockKey(projectID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("import/"))
	h.Write(projectID[:])

	return int64(h.Sum64())
}

type importTx struct {
	tx        *sql.Tx
	companyID uuid.UUID
	projectID uuid.UUID
	minDate   time.Time
	maxDate   time.Time
}

// BeginImport opens a transaction serialized with any concurrent import into
// the same project.
func (s *Store) BeginImport(ctx context.Context, companyID, projectID uuid.UUID, minDate, maxDate time.Time) (ledger.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(projectID)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{
		tx:        dbTx,
		companyID: companyID,
		projectID: projectID,
		minDate:   minDate,
		maxDate:   maxDate,
	}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

// FindDuplicates returns the project's payments and expenses recorded on the
// same dates as the given lines, shaped as statement lines for matching.
func (itx *importTx) FindDuplicates(ctx context.Context, lines []ledger.StatementLine) ([]ledger.ImportedLine, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	dates := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		dates[l.Date.Format(time.DateOnly)] = struct{}{}
	}

	query := `
		SELECT id, date, amount, notes, 'in' FROM payments
		WHERE company_id = $1 AND project_id = $2 AND date >= $3 AND date <= $4
		UNION ALL
		SELECT id, date, amount, description, 'out' FROM expenses
		WHERE company_id = $1 AND project_id = $2 AND date >= $3 AND date <= $4
	`

	rows, err := itx.tx.QueryContext(ctx, query, itx.companyID, itx.projectID, itx.minDate, itx.maxDate)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var found []ledger.ImportedLine

	for rows.Next() {
		var (
			il        ledger.ImportedLine
			direction string
		)

		if err := rows.Scan(&il.ID, &il.Line.Date, &il.Line.Amount, &il.Line.Description, &direction); err != nil {
			return nil, fmt.Errorf("scanning import candidate: %w", err)
		}

		if _, ok := dates[il.Line.Date.Format(time.DateOnly)]; !ok {
			continue
		}

		il.Line.Direction = ledger.Direction(direction)
		found = append(found, il)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return found, nil
}

func (itx *importTx) CreatePayments(ctx context.Context, payments []*ledger.Payment) error {
	for _, p := range payments {
		if err := createPayment(ctx, itx.tx, p); err != nil {
			return fmt.Errorf("creating payment: %w", err)
		}
	}

	return nil
}

func (itx *importTx) CreateExpenses(ctx context.Context, expenses []*ledger.Expense) error {
	for _, e := range expenses {
		if err := createExpense(ctx, itx.tx, e); err != nil {
			return fmt.Errorf("creating expense: %w", err)
		}
	}

	return nil
}
