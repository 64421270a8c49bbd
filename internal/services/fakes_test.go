package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/dbx"
	"github.com/dmitrijs2005/orgkeeper/internal/logging"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/auditlogs"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/companies"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/companyusers"
	"github.com/dmitrijs2005/orgkeeper/internal/repositories/users"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// store is an in-memory stand-in for the four tables. It ignores the DBTX
// handed to the manager, so transaction boundaries are checked with sqlmock
// and row effects are checked here.
type store struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]models.User
	companies map[int64]models.Company
	members   map[int64]models.CompanyUser
	audits    map[int64]models.AuditLog
	// fail makes the named repository method return the error once
	fail map[string]error
}

func newStore() *store {
	return &store{
		users:     map[int64]models.User{},
		companies: map[int64]models.Company{},
		members:   map[int64]models.CompanyUser{},
		audits:    map[int64]models.AuditLog{},
		fail:      map[string]error{},
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) failure(method string) error {
	if err, ok := s.fail[method]; ok {
		delete(s.fail, method)
		return err
	}
	return nil
}

func uniqueViolation(index string) error {
	return fmt.Errorf("db error: %w", dbx.ClassifyError(&pgconn.PgError{Code: "23505", ConstraintName: index}))
}

func notNullViolation(column string) error {
	return fmt.Errorf("db error: %w", dbx.ClassifyError(&pgconn.PgError{Code: "23502", TableName: "audit_logs", ColumnName: column}))
}

type fakeManager struct{ s *store }

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m fakeManager) RollbackMigration(context.Context, *sql.DB) error { return nil }
func (m fakeManager) Users(dbx.DBTX) users.Repository                  { return fakeUsers{m.s} }
func (m fakeManager) Companies(dbx.DBTX) companies.Repository          { return fakeCompanies{m.s} }
func (m fakeManager) CompanyUsers(dbx.DBTX) companyusers.Repository    { return fakeMembers{m.s} }
func (m fakeManager) AuditLogs(dbx.DBTX) auditlogs.Repository          { return fakeAudits{m.s} }

// --- users ---

type fakeUsers struct{ s *store }

func (r fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.Create"); err != nil {
		return nil, err
	}
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return nil, uniqueViolation(users.EmailIndex)
		}
	}
	u.ID = r.s.id()
	r.s.users[u.ID] = *u
	return u, nil
}

func (r fakeUsers) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	err := r.s.failure("users.GetByEmail")
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r fakeUsers) GetByResetPasswordToken(_ context.Context, digest string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ResetPasswordToken != nil && *u.ResetPasswordToken == digest })
}

func (r fakeUsers) ListActive(context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, u := range r.s.users {
		if u.DeletedAt == nil {
			cp := u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeUsers) put(id int64, apply func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	apply(&u)
	r.s.users[id] = u
	return nil
}

func (r fakeUsers) Update(_ context.Context, in *models.User) error {
	if err := r.s.failure("users.Update"); err != nil {
		return err
	}
	return r.put(in.ID, func(u *models.User) {
		u.Email, u.FirstName, u.LastName, u.Role, u.UpdatedAt = in.Email, in.FirstName, in.LastName, in.Role, in.UpdatedAt
	})
}

func (r fakeUsers) SetDeletedAt(_ context.Context, id int64, at time.Time) error {
	return r.put(id, func(u *models.User) { u.DeletedAt, u.UpdatedAt = &at, at })
}

func (r fakeUsers) UpdateCredentials(_ context.Context, in *models.User) error {
	return r.put(in.ID, func(u *models.User) {
		u.EncryptedPassword = in.EncryptedPassword
		u.ResetPasswordToken = in.ResetPasswordToken
		u.ResetPasswordSentAt = in.ResetPasswordSentAt
		u.RememberCreatedAt = in.RememberCreatedAt
		u.UpdatedAt = in.UpdatedAt
	})
}

func (r fakeUsers) EmailExists(_ context.Context, email string, exceptID int64) (bool, error) {
	if err := r.s.failure("users.EmailExists"); err != nil {
		return false, err
	}
	u, err := r.find(func(u models.User) bool { return u.Email == email && u.ID != exceptID })
	return u != nil && err == nil, nil
}

func (r fakeUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	return nil
}

// --- companies ---

type fakeCompanies struct{ s *store }

func (r fakeCompanies) Create(_ context.Context, c *models.Company) (*models.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	r.s.companies[c.ID] = *c
	return c, nil
}

func (r fakeCompanies) GetByID(_ context.Context, id int64) (*models.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r fakeCompanies) Update(_ context.Context, c *models.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[c.ID]; !ok {
		return common.ErrorNotFound
	}
	r.s.companies[c.ID] = *c
	return nil
}

func (r fakeCompanies) ListActive(ctx context.Context) ([]*models.Company, error) {
	return r.ListByStatus(ctx, models.CompanyActive)
}

func (r fakeCompanies) ListByStatus(_ context.Context, status models.CompanyStatus) ([]*models.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Company
	for _, c := range r.s.companies {
		if c.Status == status {
			cp := c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeCompanies) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("companies.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.companies[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.companies, id)
	return nil
}

// --- memberships ---

type fakeMembers struct{ s *store }

func (r fakeMembers) Create(_ context.Context, m *models.CompanyUser) (*models.CompanyUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("companyusers.Create"); err != nil {
		return nil, err
	}
	for _, o := range r.s.members {
		if o.UserID == m.UserID && o.CompanyID == m.CompanyID {
			return nil, uniqueViolation(companyusers.UserCompanyIndex)
		}
	}
	m.ID = r.s.id()
	r.s.members[m.ID] = *m
	return m, nil
}

func (r fakeMembers) find(match func(models.CompanyUser) bool) (*models.CompanyUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members {
		if match(m) {
			cp := m
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeMembers) GetByID(_ context.Context, id int64) (*models.CompanyUser, error) {
	return r.find(func(m models.CompanyUser) bool { return m.ID == id })
}

func (r fakeMembers) Get(_ context.Context, userID, companyID int64) (*models.CompanyUser, error) {
	return r.find(func(m models.CompanyUser) bool { return m.UserID == userID && m.CompanyID == companyID })
}

func (r fakeMembers) UpdateRole(_ context.Context, in *models.CompanyUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.members {
		if m.UserID == in.UserID && m.CompanyID == in.CompanyID {
			m.Role, m.UpdatedAt = in.Role, in.UpdatedAt
			r.s.members[id] = m
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r fakeMembers) Delete(ctx context.Context, userID, companyID int64) error {
	n := r.deleteWhere(func(m models.CompanyUser) bool { return m.UserID == userID && m.CompanyID == companyID })
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r fakeMembers) list(match func(models.CompanyUser) bool) []*models.CompanyUser {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.CompanyUser
	for _, m := range r.s.members {
		if match(m) {
			cp := m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeMembers) ListByCompany(_ context.Context, companyID int64) ([]*models.CompanyUser, error) {
	return r.list(func(m models.CompanyUser) bool { return m.CompanyID == companyID }), nil
}

func (r fakeMembers) ListByUser(_ context.Context, userID int64) ([]*models.CompanyUser, error) {
	return r.list(func(m models.CompanyUser) bool { return m.UserID == userID }), nil
}

func (r fakeMembers) Exists(ctx context.Context, userID, companyID int64) (bool, error) {
	m, _ := r.Get(ctx, userID, companyID)
	return m != nil, nil
}

func (r fakeMembers) deleteWhere(match func(models.CompanyUser) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, m := range r.s.members {
		if match(m) {
			delete(r.s.members, id)
			n++
		}
	}
	return n
}

func (r fakeMembers) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	return r.deleteWhere(func(m models.CompanyUser) bool { return m.UserID == userID }), nil
}

func (r fakeMembers) DeleteByCompany(_ context.Context, companyID int64) (int64, error) {
	return r.deleteWhere(func(m models.CompanyUser) bool { return m.CompanyID == companyID }), nil
}

// --- audit logs ---

type fakeAudits struct{ s *store }

func (r fakeAudits) Create(_ context.Context, e *models.AuditLog) (*models.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.Auditable == nil {
		return nil, notNullViolation("auditable_type")
	}
	e.ID = r.s.id()
	r.s.audits[e.ID] = *e
	return e, nil
}

func (r fakeAudits) GetByID(_ context.Context, id int64) (*models.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.audits[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &e, nil
}

func (r fakeAudits) Find(_ context.Context, q auditlogs.Query) ([]*models.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.AuditLog
	for _, e := range r.s.audits {
		switch {
		case q.UserID != nil && (e.UserID == nil || *e.UserID != *q.UserID):
			continue
		case q.CompanyID != nil && (e.CompanyID == nil || *e.CompanyID != *q.CompanyID):
			continue
		case q.Auditable != nil && (e.Auditable == nil || *e.Auditable != *q.Auditable):
			continue
		case q.Action != nil && e.Action != *q.Action:
			continue
		}
		cp := e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Recent {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r fakeAudits) deleteWhere(match func(models.AuditLog) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("auditlogs.Delete"); err != nil {
		return 0, err
	}
	var n int64
	for id, e := range r.s.audits {
		if match(e) {
			delete(r.s.audits, id)
			n++
		}
	}
	return n, nil
}

func (r fakeAudits) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	return r.deleteWhere(func(e models.AuditLog) bool { return e.UserID != nil && *e.UserID == userID })
}

func (r fakeAudits) DeleteByCompany(_ context.Context, companyID int64) (int64, error) {
	return r.deleteWhere(func(e models.AuditLog) bool { return e.CompanyID != nil && *e.CompanyID == companyID })
}

// --- helpers ---

var fixedNow = time.Date(2025, 7, 28, 12, 0, 0, 0, time.UTC)

// clock returns a time source the test can move.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *store
	clock *clock
	opts  []Option
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	c := &clock{t: fixedNow}
	return &env{
		db:    db,
		mock:  mock,
		store: newStore(),
		clock: c,
		opts:  []Option{WithClock(c.now), WithBcryptCost(4)},
	}
}

func (e *env) manager() fakeManager { return fakeManager{e.store} }

func (e *env) users() *UserService {
	return NewUserService(e.db, e.manager(), logging.Nop{}, e.opts...)
}

func (e *env) companies() *CompanyService {
	return NewCompanyService(e.db, e.manager(), logging.Nop{}, e.opts...)
}

func (e *env) memberships() *MembershipService {
	return NewMembershipService(e.db, e.manager(), logging.Nop{}, e.opts...)
}

func (e *env) audit() *AuditService {
	return NewAuditService(e.db, e.manager(), logging.Nop{}, e.opts...)
}

// tx expects one committed transaction.
func (e *env) tx() {
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
}

// rolledBack expects one transaction that is rolled back.
func (e *env) rolledBack() {
	e.mock.ExpectBegin()
	e.mock.ExpectRollback()
}

func (e *env) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: "Ada", LastName: "Lovelace", Role: models.RoleViewer, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	_, err := fakeUsers{e.store}.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func (e *env) seedCompany(t *testing.T, name string) *models.Company {
	t.Helper()
	c := &models.Company{Name: name, Industry: "Retail", Size: models.SizeSmall, Status: models.CompanyActive}
	_, err := fakeCompanies{e.store}.Create(context.Background(), c)
	require.NoError(t, err)
	return c
}

func (e *env) seedMembership(t *testing.T, userID, companyID int64) *models.CompanyUser {
	t.Helper()
	m := &models.CompanyUser{UserID: userID, CompanyID: companyID, Role: models.MembershipMember}
	_, err := fakeMembers{e.store}.Create(context.Background(), m)
	require.NoError(t, err)
	return m
}

func (e *env) seedAudit(t *testing.T, userID, companyID *int64, at time.Time) *models.AuditLog {
	t.Helper()
	a := &models.AuditLog{
		UserID: userID, CompanyID: companyID,
		Auditable: &models.Auditable{Type: models.AuditableCompany, ID: 1},
		Action:    models.ActionUpdate, ResourceType: "Company",
		CreatedAt: at, UpdatedAt: at,
	}
	_, err := fakeAudits{e.store}.Create(context.Background(), a)
	require.NoError(t, err)
	return a
}

func ptr[T any](v T) *T { return &v }
