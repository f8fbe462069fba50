package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateGrant(ctx context.Context, db *gorm.DB, grant *Entitlement) error
	UpdateGrant(ctx context.Context, db *gorm.DB, grant *Entitlement) error
	FindGrant(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string) (*Entitlement, error)
	ListGrants(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]Entitlement, error)
	DeleteGrant(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string) error
	DeleteGrantsBySource(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, source string) (int64, error)

	UpsertLimit(ctx context.Context, db *gorm.DB, limit *Limit) error
	FindLimit(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string) (*Limit, error)
	// IncrementWithinCeiling applies delta in a single conditional UPDATE and
	// reports whether a row changed.
	IncrementWithinCeiling(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string, delta int64) (bool, error)
	ResetLimits(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) error
}
