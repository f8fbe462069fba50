package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/events"
	"github.com/smallbiznis/qzpay/internal/marketplace/domain"
	"github.com/smallbiznis/qzpay/internal/marketplace/repository"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *events.Bus) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Vendor{}, &domain.VendorPayout{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	bus := events.New(zap.NewNop(), nil)

	svc := New(Params{
		Log:   zap.NewNop(),
		DB:    db,
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.New(),
		Bus:   bus,
	})
	return svc, bus
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), 42)
}

// newActiveVendor creates a vendor with a stripe account and activates it.
func newActiveVendor(t *testing.T, svc domain.Service, ctx context.Context, name string, percent float64) *domain.Vendor {
	t.Helper()
	vendor, err := svc.CreateVendor(ctx, domain.CreateVendorRequest{
		Name:             name,
		DefaultPercent:   percent,
		ProviderAccounts: map[string]string{"stripe": "acct_" + name},
	})
	require.NoError(t, err)
	vendor, err = svc.ActivateVendor(ctx, vendor.ID)
	require.NoError(t, err)
	return vendor
}

func TestVendorLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testCtx()

	bare, err := svc.CreateVendor(ctx, domain.CreateVendorRequest{Name: "No Account"})
	require.NoError(t, err)
	assert.Equal(t, domain.VendorStatusPending, bare.Status)
	assert.Equal(t, domain.PayoutScheduleMonthly, bare.PayoutSchedule)

	_, err = svc.ActivateVendor(ctx, bare.ID)
	assert.ErrorIs(t, err, domain.ErrNoProviderAccount, "activation needs a provider account")
	_, err = svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{VendorID: bare.ID, Amount: 100, Currency: "usd"})
	assert.ErrorIs(t, err, domain.ErrVendorInactive, "pending vendors receive nothing")

	vendor, err := svc.CreateVendor(ctx, domain.CreateVendorRequest{
		Name:             "Acme",
		PayoutSchedule:   domain.PayoutScheduleWeekly,
		ProviderAccounts: map[string]string{"stripe": "acct_42"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutScheduleWeekly, vendor.PayoutSchedule)
	assert.Equal(t, "acct_42", vendor.ProviderAccount("stripe"))

	vendor, err = svc.ActivateVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VendorStatusActive, vendor.Status)
	assert.True(t, vendor.Payable())

	suspended, err := svc.SuspendVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VendorStatusSuspended, suspended.Status)
	_, err = svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{VendorID: vendor.ID, Amount: 100, Currency: "usd"})
	assert.ErrorIs(t, err, domain.ErrVendorInactive, "suspension stops payouts")

	// reinstatement works because the account is still on file
	vendor, err = svc.ActivateVendor(ctx, suspended.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VendorStatusActive, vendor.Status)
}

func TestSchedulePayout(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := testCtx()

	vendor := newActiveVendor(t, svc, ctx, "Acme Goods", 80)

	var scheduled []events.VendorPayoutScheduled
	bus.On(events.TypeVendorPayoutScheduled, func(ctx context.Context, payload events.Payload) error {
		scheduled = append(scheduled, payload.(events.VendorPayoutScheduled))
		return nil
	})

	payout, err := svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{
		VendorID: vendor.ID,
		Amount:   8000,
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusScheduled, payout.Status)
	assert.Equal(t, "usd", payout.Currency)
	require.Len(t, scheduled, 1)
	assert.Equal(t, int64(8000), scheduled[0].Amount)
}

func TestSchedulePayoutValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testCtx()

	vendor := newActiveVendor(t, svc, ctx, "Acme", 0)

	_, err := svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{VendorID: vendor.ID, Amount: 0, Currency: "usd"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{VendorID: vendor.ID, Amount: 100})
	assert.ErrorIs(t, err, domain.ErrMissingCurrency)

	_, err = svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{VendorID: snowflake.ID(999), Amount: 100, Currency: "usd"})
	assert.ErrorIs(t, err, domain.ErrVendorNotFound)
}

func TestPayoutStatusMonotonic(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := testCtx()

	vendor := newActiveVendor(t, svc, ctx, "Acme", 0)
	payout, err := svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{
		VendorID: vendor.ID, Amount: 5000, Currency: "usd",
	})
	require.NoError(t, err)

	var paid int
	bus.On(events.TypeVendorPayoutPaid, func(ctx context.Context, payload events.Payload) error {
		paid++
		return nil
	})

	settled, err := svc.MarkPayoutPaid(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusPaid, settled.Status)
	assert.NotNil(t, settled.SettledAt)
	assert.Equal(t, 1, paid)

	_, err = svc.MarkPayoutPaid(ctx, payout.ID)
	assert.ErrorIs(t, err, domain.ErrPayoutSettled)
	_, err = svc.MarkPayoutFailed(ctx, payout.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrPayoutSettled)
	assert.Equal(t, 1, paid, "settling twice publishes nothing new")
}

func TestPayoutProcessing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testCtx()

	vendor := newActiveVendor(t, svc, ctx, "Acme", 0)
	payout, err := svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{
		VendorID: vendor.ID, Amount: 5000, Currency: "usd",
	})
	require.NoError(t, err)

	processing, err := svc.MarkPayoutProcessing(ctx, payout.ID, "po_123")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusProcessing, processing.Status)
	assert.Equal(t, "po_123", processing.ProviderPayoutID)

	_, err = svc.MarkPayoutProcessing(ctx, payout.ID, "po_456")
	assert.ErrorIs(t, err, domain.ErrPayoutNotScheduled, "hand-off happens once")

	paid, err := svc.MarkPayoutPaid(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusPaid, paid.Status)
	assert.Equal(t, "po_123", paid.ProviderPayoutID)

	_, err = svc.MarkPayoutProcessing(ctx, payout.ID, "po_789")
	assert.ErrorIs(t, err, domain.ErrPayoutNotScheduled)
}

func TestMarkPayoutFailed(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := testCtx()

	vendor := newActiveVendor(t, svc, ctx, "Acme", 0)
	payout, err := svc.SchedulePayout(ctx, domain.SchedulePayoutRequest{
		VendorID: vendor.ID, Amount: 5000, Currency: "usd",
	})
	require.NoError(t, err)

	var failed []events.VendorPayoutFailed
	bus.On(events.TypeVendorPayoutFailed, func(ctx context.Context, payload events.Payload) error {
		failed = append(failed, payload.(events.VendorPayoutFailed))
		return nil
	})

	result, err := svc.MarkPayoutFailed(ctx, payout.ID, "bank account closed")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutStatusFailed, result.Status)
	assert.Equal(t, "bank account closed", result.FailureReason)
	require.Len(t, failed, 1)
	assert.Equal(t, "bank account closed", failed[0].Reason)
}

func TestSettlePayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testCtx()

	vendorA := newActiveVendor(t, svc, ctx, "Vendor A", 0)
	vendorB := newActiveVendor(t, svc, ctx, "Vendor B", 0)

	result, payouts, err := svc.SettlePayment(ctx, domain.SettlePaymentRequest{
		Total:    10000,
		Currency: "usd",
		Splits: []domain.Split{
			{VendorID: vendorA.ID, Percent: 60},
			{VendorID: vendorB.ID, Percent: 30},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Total())
	require.Len(t, payouts, 2)
	assert.Equal(t, int64(6000), payouts[0].Amount)
	assert.Equal(t, int64(3000), payouts[1].Amount)

	listed, err := svc.ListPayoutsByVendor(ctx, vendorA.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.PayoutStatusScheduled, listed[0].Status)
}
