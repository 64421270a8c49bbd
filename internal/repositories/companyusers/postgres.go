package companyusers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

// UserCompanyIndex is the unique index allowing one membership per pair.
const UserCompanyIndex = "index_company_users_on_user_id_and_company_id"

const selectMembership = `SELECT id, user_id, company_id, role, created_at, updated_at FROM company_users`

// PostgresRepository implements Repository over the company_users table.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a repository bound to db, which may be a
// *sql.DB or a *sql.Tx.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMembership(row scanner) (*models.CompanyUser, error) {
	m := &models.CompanyUser{}
	if err := row.Scan(&m.ID, &m.UserID, &m.CompanyID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
}

// Create inserts the membership. A second row for the same pair fails on
// the UserCompanyIndex unique index.
func (r *PostgresRepository) Create(ctx context.Context, m *models.CompanyUser) (*models.CompanyUser, error) {
	query :=
		`INSERT INTO company_users (user_id, company_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, m.UserID, m.CompanyID, m.Role, m.CreatedAt, m.UpdatedAt).Scan(&m.ID)
	if err != nil {
		return nil, dbError(err)
	}
	return m, nil
}

// GetByID returns the membership with id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.CompanyUser, error) {
	return r.getOne(ctx, "id = $1", id)
}

// Get returns the membership of userID in companyID.
func (r *PostgresRepository) Get(ctx context.Context, userID, companyID int64) (*models.CompanyUser, error) {
	return r.getOne(ctx, "user_id = $1 AND company_id = $2", userID, companyID)
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, args ...any) (*models.CompanyUser, error) {
	m, err := scanMembership(r.db.QueryRowContext(ctx, selectMembership+" WHERE "+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbError(err)
	}
	return m, nil
}

// UpdateRole writes the role and updated_at of m.
func (r *PostgresRepository) UpdateRole(ctx context.Context, m *models.CompanyUser) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE company_users SET role = $1, updated_at = $2 WHERE user_id = $3 AND company_id = $4`,
		m.Role, m.UpdatedAt, m.UserID, m.CompanyID)
	if err != nil {
		return dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the membership of userID in companyID.
func (r *PostgresRepository) Delete(ctx context.Context, userID, companyID int64) error {
	n, err := r.deleteWhere(ctx, "user_id = $1 AND company_id = $2", userID, companyID)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListByCompany returns the members of a company, ordered by id.
func (r *PostgresRepository) ListByCompany(ctx context.Context, companyID int64) ([]*models.CompanyUser, error) {
	return r.list(ctx, selectMembership+" WHERE company_id = $1 ORDER BY id", companyID)
}

// ListByUser returns the memberships of a user, ordered by id.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.CompanyUser, error) {
	return r.list(ctx, selectMembership+" WHERE user_id = $1 ORDER BY id", userID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.CompanyUser, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []*models.CompanyUser
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, dbError(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

// Exists reports whether the pair already has a membership.
func (r *PostgresRepository) Exists(ctx context.Context, userID, companyID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM company_users WHERE user_id = $1 AND company_id = $2)`,
		userID, companyID).Scan(&exists)
	if err != nil {
		return false, dbError(err)
	}
	return exists, nil
}

// DeleteByUser removes every membership of the user and reports how many went.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return r.deleteWhere(ctx, "user_id = $1", userID)
}

// DeleteByCompany removes every membership in the company and reports how many went.
func (r *PostgresRepository) DeleteByCompany(ctx context.Context, companyID int64) (int64, error) {
	return r.deleteWhere(ctx, "company_id = $1", companyID)
}

func (r *PostgresRepository) deleteWhere(ctx context.Context, where string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM company_users WHERE "+where, args...)
	if err != nil {
		return 0, dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}
