package cli

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/archive"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/auditlogs"
	"github.com/dmitrijs2005/orgkeeper/internal/services"
)

var fixedNow = time.Date(2025, 7, 28, 9, 30, 0, 0, time.UTC)

type fakeUsers struct {
	registered  *services.RegisterParams
	registerErr error
	list        []*models.User
	roleID      int64
	role        models.UserRole
	softID      int64
	destroyID   int64
	removed     *services.Removed
	err         error
}

func (f *fakeUsers) Register(_ context.Context, p services.RegisterParams) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = &p
	role := p.Role
	if role == "" {
		role = models.RoleViewer
	}
	return &models.User{ID: 1, Email: p.Email, FirstName: p.FirstName, LastName: p.LastName, Role: role}, nil
}

func (f *fakeUsers) ListActive(context.Context) ([]*models.User, error) { return f.list, f.err }

func (f *fakeUsers) ChangeRole(_ context.Context, id int64, role models.UserRole) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.roleID, f.role = id, role
	return &models.User{ID: id, Role: role}, nil
}

func (f *fakeUsers) SoftDelete(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.softID = id
	at := fixedNow
	return &models.User{ID: id, DeletedAt: &at}, nil
}

func (f *fakeUsers) Destroy(_ context.Context, id int64) (*services.Removed, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.destroyID = id
	return f.removed, nil
}

type fakeCredentials struct {
	userID   int64
	password string
	err      error
}

func (f *fakeCredentials) SetPassword(_ context.Context, userID int64, password string) error {
	f.userID, f.password = userID, password
	return f.err
}

type fakeCompanies struct {
	created   *models.Company
	active    []*models.Company
	byStatus  map[models.CompanyStatus][]*models.Company
	statusID  int64
	status    models.CompanyStatus
	destroyID int64
	err       error
}

func (f *fakeCompanies) Create(_ context.Context, c *models.Company) (*models.Company, error) {
	if f.err != nil {
		return nil, f.err
	}
	c.ApplyDefaults()
	c.ID = 7
	f.created = c
	return c, nil
}

func (f *fakeCompanies) ListActive(context.Context) ([]*models.Company, error) { return f.active, f.err }

func (f *fakeCompanies) ListByStatus(_ context.Context, s models.CompanyStatus) ([]*models.Company, error) {
	return f.byStatus[s], f.err
}

func (f *fakeCompanies) SetStatus(_ context.Context, id int64, s models.CompanyStatus) (*models.Company, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.statusID, f.status = id, s
	return &models.Company{ID: id, Status: s}, nil
}

func (f *fakeCompanies) Destroy(_ context.Context, id int64) (*services.Removed, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.destroyID = id
	return &services.Removed{Memberships: 2, AuditLogs: 5}, nil
}

type membershipCall struct {
	op            string
	user, company int64
	role          models.MembershipRole
}

type fakeMemberships struct {
	calls     []membershipCall
	byCompany []*models.CompanyUser
	byUser    []*models.CompanyUser
	err       error
}

func (f *fakeMemberships) Add(_ context.Context, u, c int64, r models.MembershipRole) (*models.CompanyUser, error) {
	f.calls = append(f.calls, membershipCall{"add", u, c, r})
	if f.err != nil {
		return nil, f.err
	}
	if r == "" {
		r = models.MembershipMember
	}
	return &models.CompanyUser{ID: 3, UserID: u, CompanyID: c, Role: r}, nil
}

func (f *fakeMemberships) ChangeRole(_ context.Context, u, c int64, r models.MembershipRole) (*models.CompanyUser, error) {
	f.calls = append(f.calls, membershipCall{"role", u, c, r})
	if f.err != nil {
		return nil, f.err
	}
	return &models.CompanyUser{ID: 3, UserID: u, CompanyID: c, Role: r}, nil
}

func (f *fakeMemberships) Remove(_ context.Context, u, c int64) error {
	f.calls = append(f.calls, membershipCall{op: "remove", user: u, company: c})
	return f.err
}

func (f *fakeMemberships) ListForCompany(_ context.Context, c int64) ([]*models.CompanyUser, error) {
	f.calls = append(f.calls, membershipCall{op: "list-company", company: c})
	return f.byCompany, f.err
}

func (f *fakeMemberships) ListForUser(_ context.Context, u int64) ([]*models.CompanyUser, error) {
	f.calls = append(f.calls, membershipCall{op: "list-user", user: u})
	return f.byUser, f.err
}

type fakeAudit struct {
	recorded *models.AuditLog
	query    *auditlogs.Query
	entries  []*models.AuditLog
	err      error
}

func (f *fakeAudit) Record(_ context.Context, e *models.AuditLog) (*models.AuditLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	e.ID = 11
	e.CreatedAt = fixedNow
	f.recorded = e
	return e, nil
}

func (f *fakeAudit) Query(_ context.Context, q auditlogs.Query) ([]*models.AuditLog, error) {
	f.query = &q
	return f.entries, f.err
}

type fakeArchiver struct {
	companyID int64
	result    *archive.Result
	err       error
}

func (f *fakeArchiver) Export(_ context.Context, id int64) (*archive.Result, error) {
	f.companyID = id
	return f.result, f.err
}

type fakeMigrator struct {
	up, down int
	err      error
}

func (f *fakeMigrator) RunMigrations(context.Context, *sql.DB) error {
	f.up++
	return f.err
}

func (f *fakeMigrator) RollbackMigration(context.Context, *sql.DB) error {
	f.down++
	return f.err
}

type harness struct {
	app         *App
	out         *bytes.Buffer
	users       *fakeUsers
	credentials *fakeCredentials
	companies   *fakeCompanies
	memberships *fakeMemberships
	audit       *fakeAudit
	archiver    *fakeArchiver
	migrator    *fakeMigrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		out:         &bytes.Buffer{},
		users:       &fakeUsers{},
		credentials: &fakeCredentials{},
		companies:   &fakeCompanies{},
		memberships: &fakeMemberships{},
		audit:       &fakeAudit{},
		archiver:    &fakeArchiver{},
		migrator:    &fakeMigrator{},
	}
	h.app = &App{
		migrator:    h.migrator,
		users:       h.users,
		credentials: h.credentials,
		companies:   h.companies,
		memberships: h.memberships,
		audit:       h.audit,
		archiver:    h.archiver,
		logger:      logging.Nop{},
		out:         h.out,
	}
	return h
}

// stubPasswords makes readPassword return the given answers in order.
func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			t.Fatalf("unexpected password prompt")
		}
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}
