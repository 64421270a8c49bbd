package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/auditlogs"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/companies"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/companyusers"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/users"
)

// RepositoryManager binds repositories to a DBTX, so the same service code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	RollbackMigration(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Companies(db dbx.DBTX) companies.Repository
	CompanyUsers(db dbx.DBTX) companyusers.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
}
