package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/qzpay/internal/catalog/domain"
	"github.com/smallbiznis/qzpay/internal/catalog/repository"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrgID = int64(42)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Plan{}, &domain.Price{},
		&domain.PlanEntitlement{}, &domain.PlanLimit{},
	))

	svc := New(Params{Log: zap.NewNop(), DB: db, Repo: repository.New()})
	return svc, db
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), testOrgID)
}

func seedPlan(t *testing.T, db *gorm.DB, id int64, code string, active bool, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Plan{
		ID:        snowflake.ID(id),
		OrgID:     snowflake.ID(testOrgID),
		Code:      code,
		Name:      code,
		Active:    active,
		CreatedAt: createdAt,
	}).Error)
}

func TestGetPlan(t *testing.T) {
	svc, db := newTestService(t)
	seedPlan(t, db, 1, "pro", true, time.Now())

	plan, err := svc.GetPlan(testCtx(), snowflake.ID(1).String())
	require.NoError(t, err)
	assert.Equal(t, "pro", plan.Code)

	_, err = svc.GetPlan(testCtx(), snowflake.ID(999).String())
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)

	_, err = svc.GetPlan(testCtx(), "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGetPlanScopedToOrg(t *testing.T) {
	svc, db := newTestService(t)
	seedPlan(t, db, 1, "pro", true, time.Now())

	otherOrg := orgcontext.WithOrgID(context.Background(), 7)
	_, err := svc.GetPlan(otherOrg, snowflake.ID(1).String())
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestListPlansActiveOnly(t *testing.T) {
	svc, db := newTestService(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPlan(t, db, 2, "enterprise", true, base.Add(2*time.Hour))
	seedPlan(t, db, 1, "starter", true, base)
	seedPlan(t, db, 3, "legacy", false, base.Add(time.Hour))

	plans, err := svc.ListPlans(testCtx())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "starter", plans[0].Code)
	assert.Equal(t, "enterprise", plans[1].Code)
}

func TestGetPrice(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Create(&domain.Price{
		ID:         snowflake.ID(10),
		OrgID:      snowflake.ID(testOrgID),
		PlanID:     snowflake.ID(1),
		UnitAmount: 1900,
		Currency:   "usd",
		Interval:   domain.IntervalMonth,
		Active:     true,
	}).Error)

	price, err := svc.GetPrice(testCtx(), snowflake.ID(10).String())
	require.NoError(t, err)
	assert.Equal(t, int64(1900), price.UnitAmount)

	_, err = svc.GetPrice(testCtx(), snowflake.ID(11).String())
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)
}

func TestListPlanEntitlementsAndLimits(t *testing.T) {
	svc, db := newTestService(t)
	require.NoError(t, db.Create(&domain.PlanEntitlement{
		ID: 100, OrgID: snowflake.ID(testOrgID), PlanID: 1, Key: "api_access",
	}).Error)
	require.NoError(t, db.Create(&domain.PlanEntitlement{
		ID: 101, OrgID: snowflake.ID(testOrgID), PlanID: 2, Key: "sso",
	}).Error)
	require.NoError(t, db.Create(&domain.PlanLimit{
		ID: 200, OrgID: snowflake.ID(testOrgID), PlanID: 1, Key: "seats", MaxValue: 5,
	}).Error)

	entitlements, err := svc.ListPlanEntitlements(testCtx(), snowflake.ID(1).String())
	require.NoError(t, err)
	require.Len(t, entitlements, 1)
	assert.Equal(t, "api_access", entitlements[0].Key)

	limits, err := svc.ListPlanLimits(testCtx(), snowflake.ID(1).String())
	require.NoError(t, err)
	require.Len(t, limits, 1)
	assert.Equal(t, int64(5), limits[0].MaxValue)
}
