package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/companyusers"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/repomanager"
)

// MembershipService links users to companies. A user holds at most one
// membership per company.
type MembershipService struct {
	base
}

func NewMembershipService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, opts ...Option) *MembershipService {
	return &MembershipService{base: newBase("memberships", db, m, log, opts)}
}

// mustExist turns a missing parent row into a required field.
func mustExist(err error, field string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return models.NewValidationError("company_user", models.FieldError{Field: field, Violation: models.ViolationRequired})
	}
	return err
}

// Add grants userID a role in companyID. An empty role means member.
func (s *MembershipService) Add(ctx context.Context, userID, companyID int64, role models.MembershipRole) (*models.CompanyUser, error) {
	now := s.now()
	m := &models.CompanyUser{UserID: userID, CompanyID: companyID, Role: role, CreatedAt: now, UpdatedAt: now}
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).GetByID(ctx, userID); err != nil {
			return mustExist(err, "user")
		}
		if _, err := s.repomanager.Companies(tx).GetByID(ctx, companyID); err != nil {
			return mustExist(err, "company")
		}

		repo := s.repomanager.CompanyUsers(tx)
		exists, err := repo.Exists(ctx, userID, companyID)
		if err != nil {
			return err
		}
		if exists {
			return taken("company_user", "user_id")
		}
		_, err = repo.Create(ctx, m)
		return uniqueAsTaken(err, companyusers.UserCompanyIndex, "company_user", "user_id")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "membership added", "user_id", userID, "company_id", companyID, "role", m.Role)
	return m, nil
}

func (s *MembershipService) Get(ctx context.Context, userID, companyID int64) (*models.CompanyUser, error) {
	return s.repomanager.CompanyUsers(s.db).Get(ctx, userID, companyID)
}

func (s *MembershipService) ChangeRole(ctx context.Context, userID, companyID int64, role models.MembershipRole) (*models.CompanyUser, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("company_user", models.FieldError{Field: "role", Violation: models.ViolationInclusion})
	}

	repo := s.repomanager.CompanyUsers(s.db)
	m, err := repo.Get(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	m.Role = role
	m.UpdatedAt = s.now()
	if err := repo.UpdateRole(ctx, m); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "membership role changed", "user_id", userID, "company_id", companyID, "role", role)
	return m, nil
}

func (s *MembershipService) Remove(ctx context.Context, userID, companyID int64) error {
	if err := s.repomanager.CompanyUsers(s.db).Delete(ctx, userID, companyID); err != nil {
		return err
	}
	s.log.Info(ctx, "membership removed", "user_id", userID, "company_id", companyID)
	return nil
}

func (s *MembershipService) ListForCompany(ctx context.Context, companyID int64) ([]*models.CompanyUser, error) {
	return s.repomanager.CompanyUsers(s.db).ListByCompany(ctx, companyID)
}

func (s *MembershipService) ListForUser(ctx context.Context, userID int64) ([]*models.CompanyUser, error) {
	return s.repomanager.CompanyUsers(s.db).ListByUser(ctx, userID)
}
