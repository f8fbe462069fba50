package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Customer, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, externalID string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, p pagination.Pagination) ([]*Customer, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
