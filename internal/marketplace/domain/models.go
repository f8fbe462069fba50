package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type VendorStatus string

const (
	VendorStatusPending   VendorStatus = "pending"
	VendorStatusActive    VendorStatus = "active"
	VendorStatusSuspended VendorStatus = "suspended"
)

type PayoutSchedule string

const (
	PayoutScheduleDaily   PayoutSchedule = "daily"
	PayoutScheduleWeekly  PayoutSchedule = "weekly"
	PayoutScheduleMonthly PayoutSchedule = "monthly"
)

// Vendor is a marketplace seller receiving split proceeds. Vendors start
// pending and must be activated before any payout is scheduled.
type Vendor struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	OrgID          snowflake.ID   `gorm:"not null;index"`
	Name           string         `gorm:"type:text;not null"`
	Email          string         `gorm:"type:text"`
	DefaultPercent float64        `gorm:"not null;default:0"`
	Status         VendorStatus   `gorm:"type:text;not null;default:'pending'"`
	PayoutSchedule PayoutSchedule `gorm:"type:text;not null;default:'monthly'"`
	// ProviderAccounts maps a processor name to the vendor's account ID
	// there, e.g. {"stripe": "acct_123"}.
	ProviderAccounts datatypes.JSONMap `gorm:"type:jsonb"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Vendor) TableName() string { return "vendors" }

// ProviderAccount returns the vendor's account ID at the named processor,
// or "" when none is configured.
func (v Vendor) ProviderAccount(provider string) string {
	if v.ProviderAccounts == nil {
		return ""
	}
	account, _ := v.ProviderAccounts[provider].(string)
	return account
}

// Payable reports whether money can be scheduled toward this vendor: active
// status and at least one configured provider account.
func (v Vendor) Payable() bool {
	return v.Status == VendorStatusActive && len(v.ProviderAccounts) > 0
}

type PayoutStatus string

const (
	PayoutStatusScheduled  PayoutStatus = "scheduled"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// VendorPayout is money owed to a vendor from settled splits. Status moves
// forward only: scheduled to processing to paid, with failed reachable from
// either non-terminal state, never back.
type VendorPayout struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	OrgID            snowflake.ID `gorm:"not null;index"`
	VendorID         snowflake.ID `gorm:"not null;index"`
	PaymentID        *snowflake.ID
	Amount           int64        `gorm:"not null"`
	Currency         string       `gorm:"type:text;not null"`
	Status           PayoutStatus `gorm:"type:text;not null;default:'scheduled'"`
	ProviderPayoutID string       `gorm:"type:text"`
	FailureReason    string       `gorm:"type:text"`
	PeriodStart      *time.Time
	PeriodEnd        *time.Time
	ScheduledAt      time.Time `gorm:"not null"`
	SettledAt        *time.Time
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (VendorPayout) TableName() string { return "vendor_payouts" }

// Settled reports whether the payout reached a terminal state.
func (p VendorPayout) Settled() bool {
	return p.Status == PayoutStatusPaid || p.Status == PayoutStatusFailed
}
