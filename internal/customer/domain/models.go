package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Customer is a billable account. ExternalID is the caller's identifier and
// is unique per organization among live records.
type Customer struct {
	ID                 snowflake.ID      `gorm:"primaryKey"`
	OrgID              snowflake.ID      `gorm:"not null;index"`
	ExternalID         string            `gorm:"type:text;not null;index"`
	Email              string            `gorm:"type:text;not null"`
	Name               string            `gorm:"type:text"`
	ProviderCustomerID string            `gorm:"type:text"`
	Livemode           bool              `gorm:"not null;default:false"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt          gorm.DeletedAt    `gorm:"index"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
