package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/users"
)

// UserService manages accounts: registration, profile, role and the two
// ways of removing a user.
type UserService struct {
	base
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, opts ...Option) *UserService {
	return &UserService{base: newBase("users", db, m, log, opts)}
}

// RegisterParams describes a new account. Password may be empty, in which
// case the account has no usable password until one is set.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.UserRole
}

// Register validates and inserts a user. A duplicate email, including one
// held by a soft-deleted user, is reported as email taken.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	now := s.now()
	user := &models.User{
		Email:     normalizeEmail(p.Email),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      p.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.ApplyDefaults()

	var passwordErr error
	if p.Password != "" {
		passwordErr = models.ValidatePassword(p.Password)
	}
	if err := joinValidation("user", user.Validate(), passwordErr); err != nil {
		return nil, err
	}

	if p.Password != "" {
		hash, err := cryptox.HashPassword(p.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.EncryptedPassword = hash
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		exists, err := repo.EmailExists(ctx, user.Email, 0)
		if err != nil {
			return err
		}
		if exists {
			return taken("user", "email")
		}
		_, err = repo.Create(ctx, user)
		return uniqueAsTaken(err, users.EmailIndex, "user", "email")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
}

// ListActive returns users that have not been soft-deleted, by id.
func (s *UserService) ListActive(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).ListActive(ctx)
}

// ProfileChanges lists the profile fields to overwrite; nil fields are kept.
type ProfileChanges struct {
	Email     *string
	FirstName *string
	LastName  *string
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, ch ProfileChanges) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		var err error
		user, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		emailChanged := false
		if ch.Email != nil {
			email := normalizeEmail(*ch.Email)
			emailChanged = email != user.Email
			user.Email = email
		}
		if ch.FirstName != nil {
			user.FirstName = *ch.FirstName
		}
		if ch.LastName != nil {
			user.LastName = *ch.LastName
		}
		if err := user.Validate(); err != nil {
			return err
		}

		if emailChanged {
			exists, err := repo.EmailExists(ctx, user.Email, user.ID)
			if err != nil {
				return err
			}
			if exists {
				return taken("user", "email")
			}
		}

		user.UpdatedAt = s.now()
		return uniqueAsTaken(repo.Update(ctx, user), users.EmailIndex, "user", "email")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user profile updated", "user_id", user.ID)
	return user, nil
}

func (s *UserService) ChangeRole(ctx context.Context, id int64, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("user", models.FieldError{Field: "role", Violation: models.ViolationInclusion})
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.UpdatedAt = s.now()
	if err := repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user role changed", "user_id", id, "role", role)
	return user, nil
}

// SoftDelete stamps deleted_at. The row, its memberships and its audit trail
// stay. Repeating the call moves the timestamp forward.
func (s *UserService) SoftDelete(ctx context.Context, id int64) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.SoftDelete(s.now())
	if err := repo.SetDeletedAt(ctx, id, *user.DeletedAt); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user soft-deleted", "user_id", id)
	return user, nil
}

// Destroy removes the user with its audit entries and memberships, in that
// order, in one transaction.
func (s *UserService) Destroy(ctx context.Context, id int64) (*Removed, error) {
	removed := &Removed{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if removed.AuditLogs, err = s.repomanager.AuditLogs(tx).DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("delete audit logs: %w", err)
		}
		if removed.Memberships, err = s.repomanager.CompanyUsers(tx).DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		return s.repomanager.Users(tx).Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "user destroy failed", "user_id", id, "error", err)
		}
		return nil, err
	}

	s.log.Info(ctx, "user destroyed", "user_id", id,
		"memberships", removed.Memberships, "audit_logs", removed.AuditLogs)
	return removed, nil
}
