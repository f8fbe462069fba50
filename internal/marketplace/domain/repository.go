package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateVendor(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	UpdateVendor(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	FindVendorByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Vendor, error)

	CreatePayout(ctx context.Context, db *gorm.DB, payout *VendorPayout) error
	UpdatePayout(ctx context.Context, db *gorm.DB, payout *VendorPayout) error
	FindPayoutByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*VendorPayout, error)
	ListPayoutsByVendor(ctx context.Context, db *gorm.DB, orgID, vendorID snowflake.ID) ([]VendorPayout, error)
}
