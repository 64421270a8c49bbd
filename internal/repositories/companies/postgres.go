package companies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

const selectCompany = `SELECT id, name, industry, size, description, status, fiscal_year_end, created_at, updated_at
	FROM companies`

// PostgresRepository implements Repository over the companies table.
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

func scanCompany(row scanner) (*models.Company, error) {
	c := &models.Company{}
	var description sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.Size, &description, &c.Status, &c.FiscalYearEnd,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	return c, nil
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
}

// nullable stores an empty optional text column as NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts company and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, company *models.Company) (*models.Company, error) {
	query :=
		`INSERT INTO companies (name, industry, size, description, status, fiscal_year_end, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		company.Name, company.Industry, company.Size, nullable(company.Description), company.Status,
		company.FiscalYearEnd, company.CreatedAt, company.UpdatedAt).Scan(&company.ID)
	if err != nil {
		return nil, dbError(err)
	}
	return company, nil
}

// GetByID returns the company with id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx, selectCompany+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbError(err)
	}
	return c, nil
}

// Update writes every mutable column, status included.
func (r *PostgresRepository) Update(ctx context.Context, company *models.Company) error {
	query :=
		`UPDATE companies SET name = $1, industry = $2, size = $3, description = $4, status = $5,
		 fiscal_year_end = $6, updated_at = $7
		 WHERE id = $8`

	res, err := r.db.ExecContext(ctx, query,
		company.Name, company.Industry, company.Size, nullable(company.Description), company.Status,
		company.FiscalYearEnd, company.UpdatedAt, company.ID)
	if err != nil {
		return dbError(err)
	}
	return requireOne(res)
}

// ListActive returns companies whose status is active.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*models.Company, error) {
	return r.ListByStatus(ctx, models.CompanyActive)
}

// ListByStatus returns companies in status, ordered by id.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.CompanyStatus) ([]*models.Company, error) {
	rows, err := r.db.QueryContext(ctx, selectCompany+" WHERE status = $1 ORDER BY id", status)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, dbError(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

// Delete removes the company row.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return dbError(err)
	}
	return requireOne(res)
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
