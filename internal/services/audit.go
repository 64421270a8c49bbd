package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/auditlogs"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/repomanager"
)

// AuditService appends to and reads the audit trail. Entries are never
// updated; they only disappear with the user or company they belong to.
type AuditService struct {
	base
}

func NewAuditService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, opts ...Option) *AuditService {
	return &AuditService{base: newBase("audit", db, m, log, opts)}
}

// Record validates and stores entry. action and resource_type must come from
// the caller; only a blank resource_id is copied from the auditable
// reference. A missing reference passes validation and is rejected by
// storage as a not-null constraint error.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	entry.FillResourceID()

	now := s.now()
	entry.CreatedAt, entry.UpdatedAt = now, now

	created, err := s.repomanager.AuditLogs(s.db).Create(ctx, entry)
	if err != nil {
		s.log.Error(ctx, "audit record failed", "action", entry.Action, "resource_type", entry.ResourceType, "error", err)
		return nil, err
	}

	s.log.Debug(ctx, "audit recorded", "audit_log_id", created.ID, "action", created.Action)
	return created, nil
}

func (s *AuditService) Get(ctx context.Context, id int64) (*models.AuditLog, error) {
	return s.repomanager.AuditLogs(s.db).GetByID(ctx, id)
}

// Query returns entries matching every set filter of q.
func (s *AuditService) Query(ctx context.Context, q auditlogs.Query) ([]*models.AuditLog, error) {
	return s.repomanager.AuditLogs(s.db).Find(ctx, q)
}

// Recent returns the newest entries first; limit <= 0 means all.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	return s.Query(ctx, auditlogs.Query{Recent: true, Limit: limit})
}

func (s *AuditService) ForUser(ctx context.Context, userID int64) ([]*models.AuditLog, error) {
	return s.Query(ctx, auditlogs.Query{UserID: &userID})
}

func (s *AuditService) ForCompany(ctx context.Context, companyID int64) ([]*models.AuditLog, error) {
	return s.Query(ctx, auditlogs.Query{CompanyID: &companyID})
}

// Target is an entity an audit entry can point at.
type Target interface {
	AuditRef() models.Auditable
}

// Resolve loads the entity ref points at.
func (s *AuditService) Resolve(ctx context.Context, ref models.Auditable) (Target, error) {
	var (
		target Target
		err    error
	)
	switch ref.Type {
	case models.AuditableUser:
		var u *models.User
		u, err = s.repomanager.Users(s.db).GetByID(ctx, ref.ID)
		target = u
	case models.AuditableCompany:
		var c *models.Company
		c, err = s.repomanager.Companies(s.db).GetByID(ctx, ref.ID)
		target = c
	case models.AuditableCompanyUser:
		var m *models.CompanyUser
		m, err = s.repomanager.CompanyUsers(s.db).GetByID(ctx, ref.ID)
		target = m
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownAuditableType, ref.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	return target, nil
}
