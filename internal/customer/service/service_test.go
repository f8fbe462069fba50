package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/customer/domain"
	"github.com/smallbiznis/qzpay/internal/customer/repository"
	"github.com/smallbiznis/qzpay/internal/events"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/smallbiznis/qzpay/internal/provider/fake"
	"github.com/smallbiznis/qzpay/pkg/db/pagination"
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
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	bus := events.New(zap.NewNop(), nil)

	svc := New(Params{
		Log:      zap.NewNop(),
		Config:   config.Config{DefaultCurrency: "usd"},
		DB:       db,
		GenID:    node,
		Repo:     repository.New(),
		Bus:      bus,
		Provider: fake.NewAdapter(),
	})
	return svc, bus
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), 42)
}

func TestCreateCustomer(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := testCtx()

	var created []events.CustomerCreated
	bus.On(events.TypeCustomerCreated, func(ctx context.Context, payload events.Payload) error {
		created = append(created, payload.(events.CustomerCreated))
		return nil
	})

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		ExternalID: "acct-1",
		Email:      "ada@example.com",
		Name:       "Ada",
	})
	require.NoError(t, err)
	assert.NotZero(t, customer.ID)
	assert.Equal(t, "acct-1", customer.ExternalID)
	assert.NotEmpty(t, customer.ProviderCustomerID)

	require.Len(t, created, 1)
	assert.Equal(t, customer.ID, created[0].CustomerID)
	assert.Equal(t, "ada@example.com", created[0].Email)
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testCtx()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrMissingExternalID)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{ExternalID: "acct-1"})
	assert.ErrorIs(t, err, domain.ErrMissingEmail)

	_, err = svc.Create(context.Background(), domain.CreateCustomerRequest{
		ExternalID: "acct-1",
		Email:      "x@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestCreateCustomerDuplicateExternalID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testCtx()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{
		ExternalID: "acct-1",
		Email:      "first@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{
		ExternalID: "acct-1",
		Email:      "second@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrCustomerExists)
}

func TestUpdateCustomer(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := testCtx()

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		ExternalID: "acct-1",
		Email:      "old@example.com",
	})
	require.NoError(t, err)

	var updates int
	bus.On(events.TypeCustomerUpdated, func(ctx context.Context, payload events.Payload) error {
		updates++
		return nil
	})

	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{
		CustomerID: customer.ID.String(),
		Email:      "new@example.com",
		Name:       "New Name",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, 1, updates)
}

func TestGetByExternalID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testCtx()

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{
		ExternalID: "acct-7",
		Email:      "seven@example.com",
	})
	require.NoError(t, err)

	found, err := svc.GetByExternalID(ctx, "acct-7")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetByExternalID(ctx, "acct-missing")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDeleteCustomer(t *testing.T) {
	svc, bus := newTestService(t)
	ctx := testCtx()

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		ExternalID: "acct-1",
		Email:      "gone@example.com",
	})
	require.NoError(t, err)

	var deleted []events.CustomerDeleted
	bus.On(events.TypeCustomerDeleted, func(ctx context.Context, payload events.Payload) error {
		deleted = append(deleted, payload.(events.CustomerDeleted))
		return nil
	})

	require.NoError(t, svc.Delete(ctx, customer.ID.String()))
	require.Len(t, deleted, 1)
	assert.Equal(t, customer.ID, deleted[0].CustomerID)

	_, err = svc.Get(ctx, customer.ID.String())
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	err = svc.Delete(ctx, customer.ID.String())
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestListCustomersScopedToOrg(t *testing.T) {
	svc, _ := newTestService(t)

	orgA := orgcontext.WithOrgID(context.Background(), 1)
	orgB := orgcontext.WithOrgID(context.Background(), 2)

	_, err := svc.Create(orgA, domain.CreateCustomerRequest{ExternalID: "a-1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(orgB, domain.CreateCustomerRequest{ExternalID: "b-1", Email: "b@example.com"})
	require.NoError(t, err)

	listA, _, err := svc.List(orgA, domain.ListCustomersRequest{})
	require.NoError(t, err)
	assert.Len(t, listA, 1)
	assert.Equal(t, "a-1", listA[0].ExternalID)
}

func TestListCustomersPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), 1)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, domain.CreateCustomerRequest{
			ExternalID: fmt.Sprintf("cus-%d", i),
			Email:      fmt.Sprintf("cus-%d@example.com", i),
		})
		require.NoError(t, err)
	}

	first, pageInfo, err := svc.List(ctx, domain.ListCustomersRequest{
		Pagination: pagination.Pagination{PageSize: 3},
	})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotNil(t, pageInfo)
	assert.True(t, pageInfo.HasMore)
	require.NotEmpty(t, pageInfo.NextPageToken)

	second, pageInfo, err := svc.List(ctx, domain.ListCustomersRequest{
		Pagination: pagination.Pagination{PageSize: 3, PageToken: pageInfo.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.False(t, pageInfo.HasMore)

	seen := map[string]bool{}
	for _, c := range append(first, second...) {
		seen[c.ExternalID] = true
	}
	assert.Len(t, seen, 5)
}
