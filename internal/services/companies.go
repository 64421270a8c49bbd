package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/repomanager"
)

type CompanyService struct {
	base
}

func NewCompanyService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, opts ...Option) *CompanyService {
	return &CompanyService{base: newBase("companies", db, m, log, opts)}
}

// Create inserts a company; status defaults to active.
func (s *CompanyService) Create(ctx context.Context, c *models.Company) (*models.Company, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now

	created, err := s.repomanager.Companies(s.db).Create(ctx, c)
	if err != nil {
		s.log.Error(ctx, "company create failed", "name", c.Name, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "company created", "company_id", created.ID, "size", created.Size)
	return created, nil
}

func (s *CompanyService) Get(ctx context.Context, id int64) (*models.Company, error) {
	return s.repomanager.Companies(s.db).GetByID(ctx, id)
}

// Update overwrites the descriptive fields and status of an existing company.
func (s *CompanyService) Update(ctx context.Context, c *models.Company) (*models.Company, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.repomanager.Companies(s.db).Update(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "company updated", "company_id", c.ID)
	return c, nil
}

// SetStatus moves a company to status. Every transition is allowed.
func (s *CompanyService) SetStatus(ctx context.Context, id int64, status models.CompanyStatus) (*models.Company, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("company", models.FieldError{Field: "status", Violation: models.ViolationInclusion})
	}

	repo := s.repomanager.Companies(s.db)
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := c.Status
	c.Status = status
	c.UpdatedAt = s.now()
	if err := repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "company status changed", "company_id", id, "from", from, "to", status)
	return c, nil
}

// ListActive returns companies with status active, by id.
func (s *CompanyService) ListActive(ctx context.Context) ([]*models.Company, error) {
	return s.repomanager.Companies(s.db).ListActive(ctx)
}

func (s *CompanyService) ListByStatus(ctx context.Context, status models.CompanyStatus) ([]*models.Company, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("company", models.FieldError{Field: "status", Violation: models.ViolationInclusion})
	}
	return s.repomanager.Companies(s.db).ListByStatus(ctx, status)
}

// Destroy removes the company with its audit entries and memberships, in
// that order, in one transaction.
func (s *CompanyService) Destroy(ctx context.Context, id int64) (*Removed, error) {
	removed := &Removed{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if removed.AuditLogs, err = s.repomanager.AuditLogs(tx).DeleteByCompany(ctx, id); err != nil {
			return fmt.Errorf("delete audit logs: %w", err)
		}
		if removed.Memberships, err = s.repomanager.CompanyUsers(tx).DeleteByCompany(ctx, id); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		return s.repomanager.Companies(tx).Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "company destroy failed", "company_id", id, "error", err)
		}
		return nil, err
	}

	s.log.Info(ctx, "company destroyed", "company_id", id,
		"memberships", removed.Memberships, "audit_logs", removed.AuditLogs)
	return removed, nil
}
