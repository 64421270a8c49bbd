// Package services holds the operations of orgkeeper. Each service validates
// its input, runs the writes that belong together in one transaction and
// reports storage-level failures in the same terms as validation.
package services

import (
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// base carries what every service needs.
type base struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
	bcryptCost  int
}

// Option tunes a service at construction time.
type Option func(*base)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithBcryptCost sets the cost used when hashing passwords.
func WithBcryptCost(cost int) Option {
	return func(b *base) { b.bcryptCost = cost }
}

func newBase(name string, db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, opts []Option) base {
	if log == nil {
		log = logging.Nop{}
	}
	b := base{
		db:          db,
		repomanager: m,
		log:         log.With("service", name),
		now:         func() time.Time { return time.Now().UTC() },
		bcryptCost:  bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func taken(entity, field string) error {
	return models.NewValidationError(entity, models.FieldError{Field: field, Violation: models.ViolationTaken})
}

// uniqueAsTaken reports a violation of the named unique index as a taken
// field, so a writer that lost a race sees the same error as one that did not.
func uniqueAsTaken(err error, index, entity, field string) error {
	if dbx.IsUniqueViolation(err, index) {
		return taken(entity, field)
	}
	return err
}

// joinValidation merges the field errors of several checks into one
// *ValidationError. A non-validation error is returned as is.
func joinValidation(entity string, errs ...error) error {
	var fields []models.FieldError
	for _, err := range errs {
		if err == nil {
			continue
		}
		ve, ok := models.AsValidationError(err)
		if !ok {
			return err
		}
		fields = append(fields, ve.Fields...)
	}
	if len(fields) == 0 {
		return nil
	}
	return models.NewValidationError(entity, fields...)
}

// Removed counts the dependent rows a destroy took with it.
type Removed struct {
	Memberships int64
	AuditLogs   int64
}
