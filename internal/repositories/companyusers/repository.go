package companyusers

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

// Repository persists memberships, one per (user, company) pair.
type Repository interface {
	Create(ctx context.Context, m *models.CompanyUser) (*models.CompanyUser, error)
	GetByID(ctx context.Context, id int64) (*models.CompanyUser, error)
	Get(ctx context.Context, userID, companyID int64) (*models.CompanyUser, error)
	UpdateRole(ctx context.Context, m *models.CompanyUser) error
	Delete(ctx context.Context, userID, companyID int64) error
	ListByCompany(ctx context.Context, companyID int64) ([]*models.CompanyUser, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.CompanyUser, error)
	Exists(ctx context.Context, userID, companyID int64) (bool, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteByCompany(ctx context.Context, companyID int64) (int64, error)
}
