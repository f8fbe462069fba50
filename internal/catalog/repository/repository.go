package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/catalog/domain"
	"github.com/smallbiznis/qzpay/pkg/db/option"
	repo "github.com/smallbiznis/qzpay/pkg/repository"
	"gorm.io/gorm"
)

type repository struct{}

func New() domain.Repository {
	return &repository{}
}

func (r *repository) FindPlanByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Plan, error) {
	plan, err := repo.ProvideStore[domain.Plan](db).FindOne(ctx, &domain.Plan{ID: id, OrgID: orgID})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (r *repository) FindPriceByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Price, error) {
	price, err := repo.ProvideStore[domain.Price](db).FindOne(ctx, &domain.Price{ID: id, OrgID: orgID})
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, domain.ErrPriceNotFound
	}
	return price, nil
}

func (r *repository) ListPlans(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.Plan, error) {
	rows, err := repo.ProvideStore[domain.Plan](db).Find(ctx,
		&domain.Plan{OrgID: orgID, Active: true},
		option.WithSortBy(option.SortBy{Field: "created_at", Order: "asc"}),
	)
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (r *repository) ListPlanEntitlements(ctx context.Context, db *gorm.DB, orgID, planID snowflake.ID) ([]domain.PlanEntitlement, error) {
	rows, err := repo.ProvideStore[domain.PlanEntitlement](db).Find(ctx,
		&domain.PlanEntitlement{OrgID: orgID, PlanID: planID},
	)
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func (r *repository) ListPlanLimits(ctx context.Context, db *gorm.DB, orgID, planID snowflake.ID) ([]domain.PlanLimit, error) {
	rows, err := repo.ProvideStore[domain.PlanLimit](db).Find(ctx,
		&domain.PlanLimit{OrgID: orgID, PlanID: planID},
	)
	if err != nil {
		return nil, err
	}
	return deref(rows), nil
}

func deref[T any](rows []*T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out
}
