package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/dmitrijs2005/orgkeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyCreate_SizeClosedSet(t *testing.T) {
	e := newEnv(t)
	svc := e.companies()

	_, err := svc.Create(context.Background(), &models.Company{Name: "Big", Industry: "Retail", Size: "enterprise"})
	ve, ok := models.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, ve.Has("size", models.ViolationInclusion))
	assert.Empty(t, e.store.companies, "rejected write leaves no row")

	c, err := svc.Create(context.Background(), &models.Company{Name: "Acme", Industry: "Retail", Size: models.SizeMedium})
	require.NoError(t, err)
	assert.Equal(t, models.CompanyActive, c.Status, "status defaults to active")
	assert.Equal(t, fixedNow, c.CreatedAt)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, c.ID, active[0].ID)
}

func TestCompanyCreate_RequiredFields(t *testing.T) {
	e := newEnv(t)

	_, err := e.companies().Create(context.Background(), &models.Company{})
	ve, ok := models.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, ve.Has("name", models.ViolationRequired))
	assert.True(t, ve.Has("industry", models.ViolationRequired))
	assert.True(t, ve.Has("size", models.ViolationRequired))
}

func TestSetStatus_AnyTransition(t *testing.T) {
	e := newEnv(t)
	c := e.seedCompany(t, "Acme")
	svc := e.companies()

	for _, to := range []models.CompanyStatus{models.CompanySuspended, models.CompanyInactive, models.CompanyActive, models.CompanySuspended} {
		got, err := svc.SetStatus(context.Background(), c.ID, to)
		require.NoError(t, err)
		assert.Equal(t, to, got.Status)
	}

	suspended, err := svc.ListByStatus(context.Background(), models.CompanySuspended)
	require.NoError(t, err)
	assert.Len(t, suspended, 1)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = svc.SetStatus(context.Background(), c.ID, "closed")
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.ListByStatus(context.Background(), "closed")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCompanyUpdate(t *testing.T) {
	e := newEnv(t)
	c := e.seedCompany(t, "Acme")

	c.Description = "anvils"
	c.Size = models.SizeLarge
	got, err := e.companies().Update(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "anvils", e.store.companies[got.ID].Description)

	c.Size = "huge"
	_, err = e.companies().Update(context.Background(), c)
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, models.SizeLarge, e.store.companies[c.ID].Size)
}

func TestCompanyDestroy_RemovesMembershipAndAuditLogs(t *testing.T) {
	e := newEnv(t)
	u := e.seedUser(t, "ada@example.com")
	c := e.seedCompany(t, "Acme")
	other := e.seedCompany(t, "Other")
	e.seedMembership(t, u.ID, c.ID)
	e.seedAudit(t, &u.ID, &c.ID, fixedNow)
	e.seedAudit(t, nil, &c.ID, fixedNow)
	e.seedAudit(t, &u.ID, &other.ID, fixedNow)
	e.tx()

	removed, err := e.companies().Destroy(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, &Removed{Memberships: 1, AuditLogs: 2}, removed)

	_, err = e.companies().Get(context.Background(), c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, e.store.members)
	assert.Len(t, e.store.audits, 1)
	assert.Len(t, e.store.users, 1)
}

func TestCompanyDestroy_FailureRollsBack(t *testing.T) {
	e := newEnv(t)
	c := e.seedCompany(t, "Acme")
	e.store.fail["companies.Delete"] = errors.New("deadlock detected")
	e.rolledBack()

	_, err := e.companies().Destroy(context.Background(), c.ID)
	assert.EqualError(t, err, "deadlock detected")
}
