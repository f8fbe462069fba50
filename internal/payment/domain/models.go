package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// Payment is one charge attempt against a processor. IdempotencyKey is
// forwarded to the processor so a retried attempt cannot double charge.
type Payment struct {
	ID                snowflake.ID  `gorm:"primaryKey"`
	OrgID             snowflake.ID  `gorm:"not null;index"`
	CustomerID        snowflake.ID  `gorm:"not null;index"`
	InvoiceID         *snowflake.ID `gorm:"index"`
	Provider          string        `gorm:"type:text;not null"`
	ProviderPaymentID string        `gorm:"type:text;index"`
	IdempotencyKey    string        `gorm:"type:text;not null"`
	Amount            int64         `gorm:"not null"`
	Currency          string        `gorm:"type:text;not null"`
	Status            PaymentStatus `gorm:"type:text;not null;default:'pending'"`
	FailureReason     string        `gorm:"type:text"`
	Livemode          bool          `gorm:"not null;default:false"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// WebhookEvent records a processor notification we already handled. The
// provider event ID dedupes redelivered webhooks.
type WebhookEvent struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	OrgID           snowflake.ID `gorm:"not null;index"`
	Provider        string       `gorm:"type:text;not null;uniqueIndex:idx_webhook_provider_event"`
	ProviderEventID string       `gorm:"type:text;not null;uniqueIndex:idx_webhook_provider_event"`
	Type            string       `gorm:"type:text;not null"`
	Payload         datatypes.JSON `gorm:"type:jsonb"`
	ReceivedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (WebhookEvent) TableName() string { return "webhook_events" }
