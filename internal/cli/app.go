// Package cli implements the orgkeeper command line: one subcommand per
// service operation, with tab-aligned output.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/orgkeeper/internal/archive"
	"github.com/dmitrijs2005/orgkeeper/internal/config"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/auditlogs"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/orgkeeper/internal/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type UserService interface {
	Register(ctx context.Context, p services.RegisterParams) (*models.User, error)
	ListActive(ctx context.Context) ([]*models.User, error)
	ChangeRole(ctx context.Context, id int64, role models.UserRole) (*models.User, error)
	SoftDelete(ctx context.Context, id int64) (*models.User, error)
	Destroy(ctx context.Context, id int64) (*services.Removed, error)
}

type CredentialService interface {
	SetPassword(ctx context.Context, userID int64, password string) error
}

type CompanyService interface {
	Create(ctx context.Context, c *models.Company) (*models.Company, error)
	ListActive(ctx context.Context) ([]*models.Company, error)
	ListByStatus(ctx context.Context, status models.CompanyStatus) ([]*models.Company, error)
	SetStatus(ctx context.Context, id int64, status models.CompanyStatus) (*models.Company, error)
	Destroy(ctx context.Context, id int64) (*services.Removed, error)
}

type MembershipService interface {
	Add(ctx context.Context, userID, companyID int64, role models.MembershipRole) (*models.CompanyUser, error)
	ChangeRole(ctx context.Context, userID, companyID int64, role models.MembershipRole) (*models.CompanyUser, error)
	Remove(ctx context.Context, userID, companyID int64) error
	ListForCompany(ctx context.Context, companyID int64) ([]*models.CompanyUser, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.CompanyUser, error)
}

type AuditService interface {
	Record(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error)
	Query(ctx context.Context, q auditlogs.Query) ([]*models.AuditLog, error)
}

type Archiver interface {
	Export(ctx context.Context, companyID int64) (*archive.Result, error)
}

type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	RollbackMigration(ctx context.Context, db *sql.DB) error
}

type App struct {
	db          *sql.DB
	migrator    Migrator
	users       UserService
	credentials CredentialService
	companies   CompanyService
	memberships MembershipService
	audit       AuditService
	archiver    Archiver
	logger      logging.Logger
	out         io.Writer
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// NewApp connects to PostgreSQL, optionally migrates, and wires the services.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if cfg.MigrateOnStart {
		if err := m.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info(ctx, "migrations applied")
	}

	opts := []services.Option{services.WithBcryptCost(cfg.BcryptCost)}
	creds, err := services.NewCredentialService(db, m, logger, cfg.SecretKey, cfg.ResetPasswordWithin, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	auditSvc := services.NewAuditService(db, m, logger, opts...)

	return &App{
		db:          db,
		migrator:    m,
		users:       services.NewUserService(db, m, logger, opts...),
		credentials: creds,
		companies:   services.NewCompanyService(db, m, logger, opts...),
		memberships: services.NewMembershipService(db, m, logger, opts...),
		audit:       auditSvc,
		archiver:    archive.NewExporter(auditSvc, cfg, logger),
		logger:      logger,
		out:         os.Stdout,
	}, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// ErrUsage is returned for a malformed command line.
var ErrUsage = errors.New("usage")

const usage = `usage: orgkeeper [global flags] <command> <subcommand> [flags]

commands:
  migrate [up|down]
  user register|list|role|soft-delete|destroy|password
  company create|list|status|destroy
  member add|role|remove|list
  audit record|list|archive`

// Run executes one command line, without the global flags.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	a.logger.Debug(ctx, "running command", "command", cmd, "args", rest)
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	case "migrate":
		return a.migrate(ctx, rest)
	case "user":
		return a.user(ctx, rest)
	case "company":
		return a.company(ctx, rest)
	case "member":
		return a.member(ctx, rest)
	case "audit":
		return a.auditCmd(ctx, rest)
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

func (a *App) migrate(ctx context.Context, args []string) error {
	dir := "up"
	if len(args) > 0 {
		dir = args[0]
	}
	switch dir {
	case "up":
		if err := a.migrator.RunMigrations(ctx, a.db); err != nil {
			return err
		}
	case "down":
		if err := a.migrator.RollbackMigration(ctx, a.db); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: migrate up|down", ErrUsage)
	}
	fmt.Fprintf(a.out, "migrate %s: ok\n", dir)
	return nil
}
