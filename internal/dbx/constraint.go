package dbx

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// ConstraintKind names the storage constraint a write tripped over.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
)

// SQLSTATE codes from the integrity constraint violation class.
const (
	sqlStateNotNull    = "23502"
	sqlStateForeignKey = "23503"
	sqlStateUnique     = "23505"
	sqlStateCheck      = "23514"
)

// ConstraintError is a PostgreSQL integrity violation in a form the service
// layer can inspect without importing the driver.
type ConstraintError struct {
	Kind       ConstraintKind
	Table      string
	Constraint string
	Column     string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s constraint %q violated: %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s constraint violated on %s.%s: %v", e.Kind, e.Table, e.Column, e.Err)
}

func (e *ConstraintError) Unwrap() []error {
	return []error{common.ErrorConstraint, e.Err}
}

// ClassifyError turns pgconn integrity violations into *ConstraintError.
// Any other error, including nil, is returned unchanged.
func ClassifyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var kind ConstraintKind
	switch pgErr.Code {
	case sqlStateUnique:
		kind = ConstraintUnique
	case sqlStateNotNull:
		kind = ConstraintNotNull
	case sqlStateForeignKey:
		kind = ConstraintForeignKey
	case sqlStateCheck:
		kind = ConstraintCheck
	default:
		return err
	}

	return &ConstraintError{
		Kind:       kind,
		Table:      pgErr.TableName,
		Constraint: pgErr.ConstraintName,
		Column:     pgErr.ColumnName,
		Err:        err,
	}
}

// IsUniqueViolation reports whether err is a unique index violation,
// optionally restricted to the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var ce *ConstraintError
	if !errors.As(err, &ce) || ce.Kind != ConstraintUnique {
		return false
	}
	return constraint == "" || ce.Constraint == constraint
}
