package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Subscription, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]Subscription, error)
	// ListLiveByCustomer returns the customer's non-terminal subscriptions.
	ListLiveByCustomer(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]Subscription, error)

	FindDueForRollover(ctx context.Context, db *gorm.DB, now time.Time) ([]Subscription, error)
	FindNeedingRetry(ctx context.Context, db *gorm.DB, now time.Time) ([]Subscription, error)
	FindExpiredIncomplete(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]Subscription, error)
}
