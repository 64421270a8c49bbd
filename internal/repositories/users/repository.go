package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

// Repository persists users. Reads return soft-deleted rows too unless the
// method says otherwise.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetPasswordToken(ctx context.Context, digest string) (*models.User, error)
	ListActive(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetDeletedAt(ctx context.Context, id int64, at time.Time) error
	UpdateCredentials(ctx context.Context, user *models.User) error
	EmailExists(ctx context.Context, email string, exceptID int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}
