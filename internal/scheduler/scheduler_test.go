package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/smallbiznis/qzpay/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSubscriptions records which maintenance calls the scheduler makes.
type stubSubscriptions struct {
	domain.Service

	dueRollover []domain.Subscription
	dueRetry    []domain.Subscription
	staleSubs   []domain.Subscription

	retryCutoff  time.Time
	expireCutoff time.Time

	rolledOver []snowflake.ID
	retried    []snowflake.ID
	expired    []snowflake.ID
	orgs       []snowflake.ID
}

func (s *stubSubscriptions) FindDueForRollover(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	return s.dueRollover, nil
}

func (s *stubSubscriptions) FindNeedingRetry(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	s.retryCutoff = now
	return s.dueRetry, nil
}

func (s *stubSubscriptions) FindExpiredIncomplete(ctx context.Context, cutoff time.Time) ([]domain.Subscription, error) {
	s.expireCutoff = cutoff
	return s.staleSubs, nil
}

func (s *stubSubscriptions) recordOrg(ctx context.Context) {
	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok {
		s.orgs = append(s.orgs, orgID)
	}
}

func (s *stubSubscriptions) RolloverPeriod(ctx context.Context, id snowflake.ID) (*domain.Subscription, error) {
	s.recordOrg(ctx)
	s.rolledOver = append(s.rolledOver, id)
	return &domain.Subscription{ID: id}, nil
}

func (s *stubSubscriptions) RetryPastDue(ctx context.Context, id snowflake.ID) (*domain.Subscription, error) {
	s.recordOrg(ctx)
	s.retried = append(s.retried, id)
	return &domain.Subscription{ID: id}, nil
}

func (s *stubSubscriptions) ExpireIncomplete(ctx context.Context, id snowflake.ID) (*domain.Subscription, error) {
	s.recordOrg(ctx)
	s.expired = append(s.expired, id)
	return &domain.Subscription{ID: id}, nil
}

func newTestScheduler(stub *stubSubscriptions, now time.Time) *Scheduler {
	return New(Params{
		Log:           zap.NewNop(),
		Config:        config.Config{GracePeriodDays: 3},
		Clock:         clock.NewFakeClock(now),
		Subscriptions: stub,
	})
}

func TestTickDispatchesDueWork(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubSubscriptions{
		dueRollover: []domain.Subscription{
			{ID: snowflake.ID(10), OrgID: snowflake.ID(1)},
			{ID: snowflake.ID(11), OrgID: snowflake.ID(2)},
		},
		dueRetry:  []domain.Subscription{{ID: snowflake.ID(20), OrgID: snowflake.ID(1)}},
		staleSubs: []domain.Subscription{{ID: snowflake.ID(30), OrgID: snowflake.ID(3)}},
	}

	newTestScheduler(stub, now).Tick(context.Background())

	assert.Equal(t, []snowflake.ID{10, 11}, stub.rolledOver)
	assert.Equal(t, []snowflake.ID{20}, stub.retried)
	assert.Equal(t, []snowflake.ID{30}, stub.expired)
	assert.Equal(t, []snowflake.ID{1, 2, 1, 3}, stub.orgs, "each call runs under its own org")
}

func TestTickExpiryCutoffHonorsGracePeriod(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	stub := &stubSubscriptions{}

	newTestScheduler(stub, now).Tick(context.Background())

	assert.Equal(t, now, stub.retryCutoff)
	assert.Equal(t, now.AddDate(0, 0, -3), stub.expireCutoff)
}

func TestTickNothingDue(t *testing.T) {
	stub := &stubSubscriptions{}

	newTestScheduler(stub, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)).Tick(context.Background())

	require.Empty(t, stub.rolledOver)
	require.Empty(t, stub.retried)
	require.Empty(t, stub.expired)
}
