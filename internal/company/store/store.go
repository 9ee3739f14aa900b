package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/company"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// classify maps driver errors onto the company sentinels.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return company.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return company.ErrEmailTaken
	}

	return err
}

// Expected column order: id, name, email, password_hash, company_id, role, created_at
func scanUser(s scanner) (*company.User, error) {
	var u company.User

	var role string

	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CompanyID, &role, &u.CreatedAt); err != nil {
		return nil, err
	}

	u.Role = access.Role(role)

	return &u, nil
}

const selectUserColumns = `id, name, email, password_hash, company_id, role, created_at`

const insertUser = `
	INSERT INTO users (name, email, password_hash, company_id, role, created_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	RETURNING id, created_at
`

func (s *Store) CreateCompanyWithOwner(ctx context.Context, c *company.Company, owner *company.User) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	err = dbTx.QueryRowContext(ctx, insertUser,
		owner.Name, owner.Email, owner.PasswordHash, nil, owner.Role,
	).Scan(&owner.ID, &owner.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating owner: %w", classify(err))
	}

	c.OwnerID = owner.ID

	err = dbTx.QueryRowContext(ctx, `
		INSERT INTO companies (name, owner_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, c.Name, c.OwnerID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating company: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `UPDATE users SET company_id = $1 WHERE id = $2`, c.ID, owner.ID); err != nil {
		return fmt.Errorf("linking owner: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	owner.CompanyID = &c.ID

	return nil
}

func (s *Store) CreateCompanyForUser(ctx context.Context, c *company.Company, userID uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	err = dbTx.QueryRowContext(ctx, `
		INSERT INTO companies (name, owner_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, c.Name, userID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating company: %w", err)
	}

	res, err := dbTx.ExecContext(ctx, `
		UPDATE users SET company_id = $1, role = $2
		WHERE id = $3 AND company_id IS NULL
	`, c.ID, access.RoleAdmin, userID)
	if err != nil {
		return fmt.Errorf("linking owner: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return fmt.Errorf("linking owner: %w", company.ErrNotFound)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	c.OwnerID = userID

	return nil
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	var c company.Company

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting company: %w", classify(err))
	}

	return &c, nil
}

func (s *Store) RenameCompany(ctx context.Context, id uuid.UUID, name string) (*company.Company, error) {
	var c company.Company

	err := s.db.QueryRowContext(ctx, `
		UPDATE companies SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, name, owner_id, created_at, updated_at
	`, name, id).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("renaming company: %w", classify(err))
	}

	return &c, nil
}

func (s *Store) CreateUser(ctx context.Context, u *company.User) error {
	err := s.db.QueryRowContext(ctx, insertUser,
		u.Name, u.Email, u.PasswordHash, u.CompanyID, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user: %w", classify(err))
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*company.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+selectUserColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", classify(err))
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*company.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+selectUserColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", classify(err))
	}

	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, companyID uuid.UUID) ([]*company.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectUserColumns+` FROM users
		WHERE company_id = $1
		ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*company.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

func (s *Store) AttachUser(ctx context.Context, userID, companyID uuid.UUID, role access.Role) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET company_id = $1, role = $2
		WHERE id = $3 AND company_id IS NULL
	`, companyID, role, userID)
	if err != nil {
		return fmt.Errorf("attaching user: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return fmt.Errorf("attaching user: %w", company.ErrNotFound)
	}

	return nil
}

func (s *Store) UpdateUserRole(ctx context.Context, companyID, userID uuid.UUID, role access.Role) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET role = $1
		WHERE company_id = $2 AND id = $3
	`, role, companyID, userID)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}

	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return fmt.Errorf("updating user role: %w", company.ErrNotFound)
	}

	return nil
}

func (s *Store) CountAdmins(ctx context.Context, companyID uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE company_id = $1 AND role = $2
	`, companyID, access.RoleAdmin).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}

	return n, nil
}
