package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Entitlement is a feature grant. A customer holds at most one live grant per
// key; re-granting merges into the existing row and never shortens its life.
// A nil ExpiresAt means the grant does not expire.
type Entitlement struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OrgID      snowflake.ID `gorm:"not null;index"`
	CustomerID snowflake.ID `gorm:"not null;index:idx_entitlements_customer_key"`
	Key        string       `gorm:"type:text;not null;index:idx_entitlements_customer_key"`
	Source     string       `gorm:"type:text;not null"`
	ExpiresAt  *time.Time
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entitlement) TableName() string { return "entitlements" }

// Active reports whether the grant is live at now.
func (e Entitlement) Active(now time.Time) bool {
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// Limit is a metered ceiling. MaxValue -1 means unlimited.
type Limit struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	OrgID        snowflake.ID `gorm:"not null;index"`
	CustomerID   snowflake.ID `gorm:"not null;index:idx_limits_customer_key"`
	Key          string       `gorm:"type:text;not null;index:idx_limits_customer_key"`
	MaxValue     int64        `gorm:"not null"`
	CurrentValue int64        `gorm:"not null;default:0"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Limit) TableName() string { return "limits" }

// Unlimited reports whether the limit has no ceiling.
func (l Limit) Unlimited() bool { return l.MaxValue < 0 }
