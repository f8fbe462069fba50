// Package domain contains the sellable catalog: plans, prices and the
// entitlements/limits a plan carries. The engine reads this catalog and
// never mutates it; catalog management happens upstream.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingInterval is the unit a price recurs on.
type BillingInterval string

const (
	IntervalDay   BillingInterval = "day"
	IntervalWeek  BillingInterval = "week"
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

// AddTo advances t by count intervals.
func (i BillingInterval) AddTo(t time.Time, count int) time.Time {
	if count <= 0 {
		count = 1
	}
	switch i {
	case IntervalDay:
		return t.AddDate(0, 0, count)
	case IntervalWeek:
		return t.AddDate(0, 0, 7*count)
	case IntervalYear:
		return t.AddDate(count, 0, 0)
	default:
		return t.AddDate(0, count, 0)
	}
}

// Days returns the whole-day length of one period starting at t.
func (i BillingInterval) Days(t time.Time, count int) int {
	return int(i.AddTo(t, count).Sub(t).Hours() / 24)
}

// Plan is a sellable offering.
type Plan struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	OrgID     snowflake.ID      `gorm:"not null;index"`
	Code      string            `gorm:"type:text;not null"`
	Name      string            `gorm:"type:text;not null"`
	Active    bool              `gorm:"not null;default:true"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// Price is a plan's price point. UnitAmount is integer minor units.
type Price struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	OrgID         snowflake.ID    `gorm:"not null;index"`
	PlanID        snowflake.ID    `gorm:"not null;index"`
	UnitAmount    int64           `gorm:"not null"`
	Currency      string          `gorm:"type:text;not null"`
	Interval      BillingInterval `gorm:"type:text;not null"`
	IntervalCount int             `gorm:"not null;default:1"`
	TrialDays     int             `gorm:"not null;default:0"`
	Active        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Price) TableName() string { return "prices" }

// PlanEntitlement is a feature key granted by a plan.
type PlanEntitlement struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	OrgID  snowflake.ID `gorm:"not null;index"`
	PlanID snowflake.ID `gorm:"not null;index"`
	Key    string       `gorm:"type:text;not null"`
}

// TableName sets the database table name.
func (PlanEntitlement) TableName() string { return "plan_entitlements" }

// PlanLimit is a usage ceiling assigned by a plan. MaxValue -1 is unlimited.
type PlanLimit struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	OrgID    snowflake.ID `gorm:"not null;index"`
	PlanID   snowflake.ID `gorm:"not null;index"`
	Key      string       `gorm:"type:text;not null"`
	MaxValue int64        `gorm:"not null"`
}

// TableName sets the database table name.
func (PlanLimit) TableName() string { return "plan_limits" }
