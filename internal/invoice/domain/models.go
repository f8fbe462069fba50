package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusVoid          InvoiceStatus = "void"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
)

// Invoice carries integer minor-unit amounts. Two arithmetic invariants hold
// on every persisted row: Total = Subtotal - Discount + Tax, and
// AmountDue = Total - AmountPaid. Paid and void invoices are immutable.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	OrgID          snowflake.ID  `gorm:"not null;index"`
	CustomerID     snowflake.ID  `gorm:"not null;index"`
	SubscriptionID *snowflake.ID `gorm:"index"`
	Status         InvoiceStatus `gorm:"type:text;not null;default:'open'"`
	Currency       string        `gorm:"type:text;not null"`
	Subtotal       int64         `gorm:"not null"`
	Discount       int64         `gorm:"not null;default:0"`
	Tax            int64         `gorm:"not null;default:0"`
	Total          int64         `gorm:"not null"`
	AmountPaid     int64         `gorm:"not null;default:0"`
	AmountDue      int64         `gorm:"not null"`
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	PaidAt         *time.Time
	VoidedAt       *time.Time
	Livemode       bool              `gorm:"not null;default:false"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Lines []InvoiceLine `gorm:"-"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Finalized reports whether the invoice can no longer change.
func (i Invoice) Finalized() bool {
	return i.Status == InvoiceStatusPaid ||
		i.Status == InvoiceStatusVoid ||
		i.Status == InvoiceStatusUncollectible
}

// InvoiceLine is a single charge or credit. Amount is UnitAmount times
// Quantity and may be negative for proration credits.
type InvoiceLine struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	OrgID       snowflake.ID `gorm:"not null;index"`
	InvoiceID   snowflake.ID `gorm:"not null;index"`
	Description string       `gorm:"type:text;not null"`
	UnitAmount  int64        `gorm:"not null"`
	Quantity    int64        `gorm:"not null;default:1"`
	Amount      int64        `gorm:"not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }
