package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

// EmailIndex is the unique index that guarantees email uniqueness.
const EmailIndex = "index_users_on_email"

const selectUser = `SELECT id, email, encrypted_password, reset_password_token, reset_password_sent_at,
		remember_created_at, first_name, last_name, role, deleted_at, created_at, updated_at
	FROM users`

// PostgresRepository implements Repository over the users table.
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

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.EncryptedPassword, &u.ResetPasswordToken, &u.ResetPasswordSentAt,
		&u.RememberCreatedAt, &u.FirstName, &u.LastName, &u.Role, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w", dbx.ClassifyError(err))
}

// Create inserts user and sets its ID. A duplicate email surfaces as a
// unique *dbx.ConstraintError.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, encrypted_password, first_name, last_name, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.EncryptedPassword, user.FirstName, user.LastName, user.Role,
		user.CreatedAt, user.UpdatedAt).Scan(&user.ID)

	if err != nil {
		return nil, dbError(err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbError(err)
	}
	return u, nil
}

// GetByID returns the user with id, soft-deleted or not.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail looks up a user by normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

// GetByResetPasswordToken finds the user holding the token digest.
func (r *PostgresRepository) GetByResetPasswordToken(ctx context.Context, digest string) (*models.User, error) {
	return r.getOne(ctx, "reset_password_token = $1", digest)
}

// ListActive returns users that have not been soft-deleted.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+" WHERE deleted_at IS NULL ORDER BY id")
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbError(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

// Update writes the profile columns and role.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $1, first_name = $2, last_name = $3, role = $4, updated_at = $5
		 WHERE id = $6`

	return r.exec(ctx, query, user.Email, user.FirstName, user.LastName, user.Role, user.UpdatedAt, user.ID)
}

// SetDeletedAt stamps the soft-delete time.
func (r *PostgresRepository) SetDeletedAt(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET deleted_at = $1, updated_at = $1 WHERE id = $2`, at, id)
}

// UpdateCredentials writes the columns owned by the authentication flow.
func (r *PostgresRepository) UpdateCredentials(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET encrypted_password = $1, reset_password_token = $2, reset_password_sent_at = $3,
		 remember_created_at = $4, updated_at = $5
		 WHERE id = $6`

	return r.exec(ctx, query, user.EncryptedPassword, user.ResetPasswordToken, user.ResetPasswordSentAt,
		user.RememberCreatedAt, user.UpdatedAt, user.ID)
}

// EmailExists checks every row, soft-deleted ones included.
func (r *PostgresRepository) EmailExists(ctx context.Context, email string, exceptID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, exceptID).Scan(&exists)
	if err != nil {
		return false, dbError(err)
	}
	return exists, nil
}

// Delete removes the row. Dependent rows must already be gone or cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}
