package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusPaused            SubscriptionStatus = "paused"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnpaid            SubscriptionStatus = "unpaid"
)

// transitions is the allowed lifecycle graph. Absent pairs are rejected.
var transitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusIncomplete: {StatusActive, StatusTrialing, StatusIncompleteExpired, StatusCanceled},
	StatusTrialing:   {StatusActive, StatusPastDue, StatusCanceled},
	StatusActive:     {StatusPastDue, StatusPaused, StatusCanceled},
	StatusPastDue:    {StatusActive, StatusCanceled, StatusUnpaid},
	StatusPaused:     {StatusActive, StatusCanceled},
	StatusUnpaid:     {StatusActive, StatusCanceled},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to SubscriptionStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Subscription binds a customer to a price across billing periods.
type Subscription struct {
	ID                     snowflake.ID       `gorm:"primaryKey"`
	OrgID                  snowflake.ID       `gorm:"not null;index"`
	CustomerID             snowflake.ID       `gorm:"not null;index"`
	PlanID                 snowflake.ID       `gorm:"not null"`
	PriceID                snowflake.ID       `gorm:"not null"`
	Quantity               int                `gorm:"not null;default:1"`
	PromoCodeID            string             `gorm:"type:text"`
	ProviderSubscriptionID string             `gorm:"type:text"`
	Status                 SubscriptionStatus `gorm:"type:text;not null"`
	CurrentPeriodStart     time.Time          `gorm:"not null"`
	CurrentPeriodEnd       time.Time          `gorm:"not null;index"`
	TrialEnd               *time.Time
	CancelAt               *time.Time
	CanceledAt             *time.Time
	PausedAt               *time.Time
	RetryCount             int `gorm:"not null;default:0"`
	NextRetryAt            *time.Time
	LatestInvoiceID        *snowflake.ID
	Livemode               bool              `gorm:"not null;default:false"`
	Metadata               datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt              time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// IsAddOn reports whether this subscription rides alongside the customer's
// primary one instead of replacing it.
func (s Subscription) IsAddOn() bool {
	if s.Metadata == nil {
		return false
	}
	addon, _ := s.Metadata["addon"].(bool)
	return addon
}

// Terminal reports whether the subscription can never move again.
func (s Subscription) Terminal() bool {
	return s.Status == StatusCanceled || s.Status == StatusIncompleteExpired
}

// EntitlementSource is the grant source string for this subscription's
// plan-derived entitlements.
func (s Subscription) EntitlementSource() string {
	return "subscription:" + s.ID.String()
}
