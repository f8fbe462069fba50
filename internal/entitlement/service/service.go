package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/entitlement/domain"
	"github.com/smallbiznis/qzpay/internal/events"
	"github.com/smallbiznis/qzpay/internal/observability/metrics"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	DB      *gorm.DB
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Bus     *events.Bus
	Metrics *metrics.Metrics `optional:"true"`
}

type entitlementService struct {
	log     *zap.Logger
	db      *gorm.DB
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	bus     *events.Bus
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &entitlementService{
		log:     p.Log.Named("entitlement.service"),
		db:      p.DB,
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		bus:     p.Bus,
		metrics: p.Metrics,
	}
}

func (s *entitlementService) orgID(ctx context.Context) (snowflake.ID, error) {
	id, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}

// Grant creates or extends a feature grant. Re-granting an existing key keeps
// whichever expiry is later, so a long manual grant survives a shorter
// plan-sourced one landing on top of it.
func (s *entitlementService) Grant(ctx context.Context, req domain.GrantRequest) (*domain.Entitlement, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Key) == "" {
		return nil, domain.ErrMissingKey
	}
	if strings.TrimSpace(req.Source) == "" {
		return nil, domain.ErrMissingSource
	}

	var grant *domain.Entitlement
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindGrant(ctx, tx, orgID, req.CustomerID, req.Key)
		if errors.Is(err, domain.ErrEntitlementNotFound) {
			grant = &domain.Entitlement{
				ID:         s.genID.Generate(),
				OrgID:      orgID,
				CustomerID: req.CustomerID,
				Key:        req.Key,
				Source:     req.Source,
				ExpiresAt:  req.ExpiresAt,
			}
			return s.repo.CreateGrant(ctx, tx, grant)
		}
		if err != nil {
			return err
		}

		existing.Source = req.Source
		existing.ExpiresAt = laterExpiry(existing.ExpiresAt, req.ExpiresAt)
		grant = existing
		return s.repo.UpdateGrant(ctx, tx, existing)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.EntitlementGranted{
		CustomerID: grant.CustomerID,
		Key:        grant.Key,
		Source:     grant.Source,
		ExpiresAt:  grant.ExpiresAt,
	})
	return grant, nil
}

// laterExpiry merges two expiries, nil meaning never.
func laterExpiry(a, b *time.Time) *time.Time {
	if a == nil || b == nil {
		return nil
	}
	if b.After(*a) {
		return b
	}
	return a
}

func (s *entitlementService) Revoke(ctx context.Context, customerID snowflake.ID, key string) error {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGrant(ctx, s.db, orgID, customerID, key); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.EntitlementRevoked{CustomerID: customerID, Key: key})
	return nil
}

func (s *entitlementService) RevokeBySource(ctx context.Context, customerID snowflake.ID, source string) (int64, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(source) == "" {
		return 0, domain.ErrMissingSource
	}

	grants, err := s.repo.ListGrants(ctx, s.db, orgID, customerID)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.DeleteGrantsBySource(ctx, s.db, orgID, customerID, source)
	if err != nil {
		return 0, err
	}

	for _, grant := range grants {
		if grant.Source == source {
			s.bus.Publish(ctx, events.EntitlementRevoked{CustomerID: customerID, Key: grant.Key})
		}
	}
	return count, nil
}

// Check treats an expired grant the same as a missing one.
func (s *entitlementService) Check(ctx context.Context, customerID snowflake.ID, key string) (bool, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return false, err
	}

	grant, err := s.repo.FindGrant(ctx, s.db, orgID, customerID, key)
	if errors.Is(err, domain.ErrEntitlementNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return grant.Active(s.clock.Now()), nil
}

func (s *entitlementService) ListActive(ctx context.Context, customerID snowflake.ID) ([]domain.Entitlement, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	grants, err := s.repo.ListGrants(ctx, s.db, orgID, customerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	active := grants[:0]
	for _, grant := range grants {
		if grant.Active(now) {
			active = append(active, grant)
		}
	}
	return active, nil
}

func (s *entitlementService) SetLimit(ctx context.Context, req domain.SetLimitRequest) (*domain.Limit, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Key) == "" {
		return nil, domain.ErrMissingKey
	}

	limit := &domain.Limit{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		CustomerID: req.CustomerID,
		Key:        req.Key,
		MaxValue:   req.MaxValue,
	}
	if err := s.repo.UpsertLimit(ctx, s.db, limit); err != nil {
		return nil, err
	}
	return limit, nil
}

func (s *entitlementService) Increment(ctx context.Context, customerID snowflake.ID, key string, delta int64) (*domain.Limit, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	if delta <= 0 {
		return nil, domain.ErrInvalidDelta
	}

	applied, err := s.repo.IncrementWithinCeiling(ctx, s.db, orgID, customerID, key, delta)
	if err != nil {
		return nil, err
	}

	limit, err := s.repo.FindLimit(ctx, s.db, orgID, customerID, key)
	if err != nil {
		return nil, err
	}
	if !applied {
		if s.metrics != nil {
			s.metrics.LimitDenials.Inc()
		}
		s.bus.Publish(ctx, events.LimitExceeded{
			CustomerID:   customerID,
			Key:          key,
			CurrentValue: limit.CurrentValue,
			MaxValue:     limit.MaxValue,
		})
		return limit, domain.ErrLimitExceeded
	}
	return limit, nil
}

func (s *entitlementService) CheckLimit(ctx context.Context, customerID snowflake.ID, key string) (*domain.LimitStatus, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	limit, err := s.repo.FindLimit(ctx, s.db, orgID, customerID, key)
	if err != nil {
		return nil, err
	}
	remaining := int64(-1)
	if !limit.Unlimited() {
		remaining = limit.MaxValue - limit.CurrentValue
		if remaining < 0 {
			remaining = 0
		}
	}
	return &domain.LimitStatus{
		Allowed:      limit.Unlimited() || limit.CurrentValue < limit.MaxValue,
		CurrentValue: limit.CurrentValue,
		MaxValue:     limit.MaxValue,
		Remaining:    remaining,
	}, nil
}

func (s *entitlementService) ResetLimits(ctx context.Context, customerID snowflake.ID) error {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return err
	}
	return s.repo.ResetLimits(ctx, s.db, orgID, customerID)
}
