package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/repomanager"
)

// CredentialService owns encrypted_password, the reset token columns and
// remember_created_at. Column contents stay compatible with Devise: a bcrypt
// hash and a keyed digest of the reset token.
type CredentialService struct {
	base
	secret      []byte
	resetWithin time.Duration
	// compared against when the email is unknown, so both paths pay for bcrypt
	dummyHash string
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, secretKey string,
	resetWithin time.Duration, opts ...Option) (*CredentialService, error) {

	if secretKey == "" {
		return nil, errors.New("credential service: empty secret key")
	}
	if resetWithin <= 0 {
		resetWithin = common.ResetPasswordWithin
	}

	b := newBase("credentials", db, m, log, opts)
	dummy, err := cryptox.HashPassword("orgkeeper-dummy-password", b.bcryptCost)
	if err != nil {
		return nil, err
	}

	return &CredentialService{base: b, secret: []byte(secretKey), resetWithin: resetWithin, dummyHash: dummy}, nil
}

// SetPassword replaces the user's password hash.
func (s *CredentialService) SetPassword(ctx context.Context, userID int64, password string) error {
	if err := models.ValidatePassword(password); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hash
	user.UpdatedAt = s.now()
	if err := repo.UpdateCredentials(ctx, user); err != nil {
		return err
	}

	s.log.Info(ctx, "password set", "user_id", userID)
	return nil
}

// Authenticate returns the active user owning email and password. Unknown
// emails, wrong passwords and soft-deleted users all yield ErrorUnauthorized.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.CheckPassword(s.dummyHash, password)
			return nil, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "authentication lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	if err := cryptox.ComparePassword(user.EncryptedPassword, password); err != nil {
		if cryptox.IsMismatch(err) {
			s.log.Warn(ctx, "authentication failed", "user_id", user.ID)
		} else {
			s.log.Warn(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		}
		return nil, common.ErrorUnauthorized
	}
	if !user.Active() {
		s.log.Warn(ctx, "authentication refused for deleted user", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// IssueResetToken starts a password reset for email and returns the raw
// token. Only its digest is stored.
func (s *CredentialService) IssueResetToken(ctx context.Context, email string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}

	token, digest, err := cryptox.NewToken(s.secret)
	if err != nil {
		return "", err
	}
	now := s.now()
	user.ResetPasswordToken = &digest
	user.ResetPasswordSentAt = &now
	user.UpdatedAt = now
	if err := repo.UpdateCredentials(ctx, user); err != nil {
		return "", err
	}

	s.log.Info(ctx, "reset token issued", "user_id", user.ID)
	return token, nil
}

// ResetPassword sets a new password using a token from IssueResetToken. The
// token works once and only within the reset window.
func (s *CredentialService) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}

	digest := cryptox.TokenDigest(s.secret, token)
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByResetPasswordToken(ctx, digest)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if user.ResetPasswordToken == nil || !cryptox.DigestEqual(*user.ResetPasswordToken, digest) {
		return nil, common.ErrInvalidToken
	}

	now := s.now()
	if user.ResetPasswordSentAt == nil || now.Sub(*user.ResetPasswordSentAt) > s.resetWithin {
		return nil, common.ErrTokenExpired
	}

	hash, err := cryptox.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.EncryptedPassword = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordSentAt = nil
	user.UpdatedAt = now
	if err := repo.UpdateCredentials(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return user, nil
}

// Remember stamps remember_created_at.
func (s *CredentialService) Remember(ctx context.Context, userID int64) error {
	return s.setRemembered(ctx, userID, true)
}

// Forget clears remember_created_at.
func (s *CredentialService) Forget(ctx context.Context, userID int64) error {
	return s.setRemembered(ctx, userID, false)
}

func (s *CredentialService) setRemembered(ctx context.Context, userID int64, remember bool) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	user.RememberCreatedAt = nil
	if remember {
		user.RememberCreatedAt = &now
	}
	user.UpdatedAt = now
	return repo.UpdateCredentials(ctx, user)
}
