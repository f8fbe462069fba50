package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, invoice *Invoice, lines []InvoiceLine) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]Invoice, error)
	ListLines(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]InvoiceLine, error)
}
