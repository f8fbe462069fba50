package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindPlanByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Plan, error)
	FindPriceByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Price, error)
	ListPlans(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Plan, error)
	ListPlanEntitlements(ctx context.Context, db *gorm.DB, orgID, planID snowflake.ID) ([]PlanEntitlement, error)
	ListPlanLimits(ctx context.Context, db *gorm.DB, orgID, planID snowflake.ID) ([]PlanLimit, error)
}
