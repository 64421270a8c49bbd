package auditlogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

const selectEntry = `SELECT id, user_id, company_id, auditable_type, auditable_id, action, resource_type, resource_id,
		audit_changes, ip_address, user_agent, created_at, updated_at
	FROM audit_logs`

// PostgresRepository implements Repository over the audit_logs table.
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

func scanEntry(row scanner) (*models.AuditLog, error) {
	e := &models.AuditLog{}
	var (
		auditableType         sql.NullString
		auditableID           sql.NullInt64
		resourceType, changes sql.NullString
		ip, agent             sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.CompanyID, &auditableType, &auditableID, &e.Action, &resourceType,
		&e.ResourceID, &changes, &ip, &agent, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if auditableType.Valid && auditableID.Valid {
		e.Auditable = &models.Auditable{Type: models.AuditableType(auditableType.String), ID: auditableID.Int64}
	}
	e.ResourceType = resourceType.String
	e.AuditChanges = changes.String
	e.IPAddress = ip.String
	e.UserAgent = agent.String
	return e, nil
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts the entry. A nil Auditable is written as NULL and rejected
// by the NOT NULL columns.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error) {
	query :=
		`INSERT INTO audit_logs (user_id, company_id, auditable_type, auditable_id, action, resource_type, resource_id,
		 audit_changes, ip_address, user_agent, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`

	var auditableType, auditableID any
	if entry.Auditable != nil {
		auditableType, auditableID = string(entry.Auditable.Type), entry.Auditable.ID
	}

	err := r.db.QueryRowContext(ctx, query,
		entry.UserID, entry.CompanyID, auditableType, auditableID, entry.Action, nullable(entry.ResourceType),
		entry.ResourceID, nullable(entry.AuditChanges), nullable(entry.IPAddress), nullable(entry.UserAgent),
		entry.CreatedAt, entry.UpdatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, dbError(err)
	}
	return entry, nil
}

// GetByID returns the entry with id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.AuditLog, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, selectEntry+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbError(err)
	}
	return e, nil
}

// buildFind renders q into a statement with positional placeholders.
func buildFind(q Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		conds = append(conds, cond)
	}

	if q.UserID != nil {
		add("user_id = ?", *q.UserID)
	}
	if q.CompanyID != nil {
		add("company_id = ?", *q.CompanyID)
	}
	if q.Auditable != nil {
		add("auditable_type = ? AND auditable_id = ?", string(q.Auditable.Type), q.Auditable.ID)
	}
	if q.Action != nil {
		add("action = ?", *q.Action)
	}

	var sb strings.Builder
	sb.WriteString(selectEntry)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if q.Recent {
		sb.WriteString(" ORDER BY created_at DESC, id DESC")
	} else {
		sb.WriteString(" ORDER BY id")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args
}

// Find returns the entries matching every set field of q.
func (r *PostgresRepository) Find(ctx context.Context, q Query) ([]*models.AuditLog, error) {
	query, args := buildFind(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []*models.AuditLog
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, dbError(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

// DeleteByUser removes the entries written by a user and reports how many went.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return r.deleteWhere(ctx, "user_id = $1", userID)
}

// DeleteByCompany removes the entries of a company and reports how many went.
func (r *PostgresRepository) DeleteByCompany(ctx context.Context, companyID int64) (int64, error) {
	return r.deleteWhere(ctx, "company_id = $1", companyID)
}

func (r *PostgresRepository) deleteWhere(ctx context.Context, where string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM audit_logs WHERE "+where, args...)
	if err != nil {
		return 0, dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}
