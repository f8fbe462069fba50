// Package scheduler drives time-based billing work: period rollovers,
// payment retries and incomplete-subscription expiry.
package scheduler

import (
	"context"
	"time"

	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	subscriptiondomain "github.com/smallbiznis/qzpay/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Config        config.Config
	Clock         clock.Clock
	Subscriptions subscriptiondomain.Service
}

type Scheduler struct {
	log    *zap.Logger
	cfg    config.Config
	clock  clock.Clock
	subs   subscriptiondomain.Service
	cancel context.CancelFunc
	done   chan struct{}
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:   p.Log.Named("scheduler"),
		cfg:   p.Config,
		clock: p.Clock,
		subs:  p.Subscriptions,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	interval := time.Duration(s.cfg.SchedulerPollSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass over everything due right now.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()
	s.rollovers(ctx, now)
	s.retries(ctx, now)
	s.expirations(ctx, now)
}

func (s *Scheduler) rollovers(ctx context.Context, now time.Time) {
	due, err := s.subs.FindDueForRollover(ctx, now)
	if err != nil {
		s.log.Error("listing due rollovers failed", zap.Error(err))
		return
	}
	for _, sub := range due {
		orgCtx := orgcontext.WithOrgID(ctx, int64(sub.OrgID))
		if _, err := s.subs.RolloverPeriod(orgCtx, sub.ID); err != nil {
			s.log.Error("rollover failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *Scheduler) retries(ctx context.Context, now time.Time) {
	due, err := s.subs.FindNeedingRetry(ctx, now)
	if err != nil {
		s.log.Error("listing due retries failed", zap.Error(err))
		return
	}
	for _, sub := range due {
		orgCtx := orgcontext.WithOrgID(ctx, int64(sub.OrgID))
		if _, err := s.subs.RetryPastDue(orgCtx, sub.ID); err != nil {
			s.log.Error("payment retry failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *Scheduler) expirations(ctx context.Context, now time.Time) {
	cutoff := now.AddDate(0, 0, -s.cfg.GracePeriodDays)
	stale, err := s.subs.FindExpiredIncomplete(ctx, cutoff)
	if err != nil {
		s.log.Error("listing stale incomplete subscriptions failed", zap.Error(err))
		return
	}
	for _, sub := range stale {
		orgCtx := orgcontext.WithOrgID(ctx, int64(sub.OrgID))
		if _, err := s.subs.ExpireIncomplete(orgCtx, sub.ID); err != nil {
			s.log.Error("expiring incomplete subscription failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err),
			)
		}
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Stop,
	})
}
