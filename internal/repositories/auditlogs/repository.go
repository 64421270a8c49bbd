package auditlogs

import (
	"context"

	"github.com/dmitrijs2005/orgkeeper/internal/models"
)

// Query filters audit entries. Nil fields are not applied. Recent orders
// newest first; otherwise entries come back in insertion order.
type Query struct {
	UserID    *int64
	CompanyID *int64
	Auditable *models.Auditable
	Action    *models.AuditAction
	Recent    bool
	Limit     int
}

// Repository has no update: audit entries are written once.
type Repository interface {
	Create(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error)
	GetByID(ctx context.Context, id int64) (*models.AuditLog, error)
	Find(ctx context.Context, q Query) ([]*models.AuditLog, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteByCompany(ctx context.Context, companyID int64) (int64, error)
}
