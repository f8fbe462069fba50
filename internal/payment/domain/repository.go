package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Payment, error)
	FindByProviderPaymentID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, provider, providerPaymentID string) (*Payment, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]Payment, error)

	FindWebhookEvent(ctx context.Context, db *gorm.DB, orgID snowflake.ID, provider, providerEventID string) (*WebhookEvent, error)
	CreateWebhookEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) error
}
