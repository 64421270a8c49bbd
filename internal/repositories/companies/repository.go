package companies

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

// Repository persists companies.
type Repository interface {
	Create(ctx context.Context, company *models.Company) (*models.Company, error)
	GetByID(ctx context.Context, id int64) (*models.Company, error)
	Update(ctx context.Context, company *models.Company) error
	ListActive(ctx context.Context) ([]*models.Company, error)
	ListByStatus(ctx context.Context, status models.CompanyStatus) ([]*models.Company, error)
	Delete(ctx context.Context, id int64) error
}
