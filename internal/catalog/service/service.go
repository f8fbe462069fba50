package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/catalog/domain"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	DB   *gorm.DB
	Repo domain.Repository
}

type catalogService struct {
	log  *zap.Logger
	db   *gorm.DB
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &catalogService{
		log:  p.Log.Named("catalog.service"),
		db:   p.DB,
		repo: p.Repo,
	}
}

func (s *catalogService) orgID(ctx context.Context) (snowflake.ID, error) {
	id, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func (s *catalogService) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	planID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindPlanByID(ctx, s.db, orgID, planID)
}

func (s *catalogService) GetPrice(ctx context.Context, id string) (*domain.Price, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	priceID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindPriceByID(ctx, s.db, orgID, priceID)
}

func (s *catalogService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPlans(ctx, s.db, orgID)
}

func (s *catalogService) ListPlanEntitlements(ctx context.Context, planID string) ([]domain.PlanEntitlement, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(planID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPlanEntitlements(ctx, s.db, orgID, id)
}

func (s *catalogService) ListPlanLimits(ctx context.Context, planID string) ([]domain.PlanLimit, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(planID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPlanLimits(ctx, s.db, orgID, id)
}
