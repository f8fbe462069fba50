package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/marketplace/domain"
	"gorm.io/gorm"
)

type repository struct{}

func New() domain.Repository {
	return &repository{}
}

func (r *repository) CreateVendor(ctx context.Context, db *gorm.DB, vendor *domain.Vendor) error {
	return db.WithContext(ctx).Create(vendor).Error
}

func (r *repository) UpdateVendor(ctx context.Context, db *gorm.DB, vendor *domain.Vendor) error {
	return db.WithContext(ctx).Save(vendor).Error
}

func (r *repository) FindVendorByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Vendor, error) {
	var vendor domain.Vendor
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVendorNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) CreatePayout(ctx context.Context, db *gorm.DB, payout *domain.VendorPayout) error {
	return db.WithContext(ctx).Create(payout).Error
}

func (r *repository) UpdatePayout(ctx context.Context, db *gorm.DB, payout *domain.VendorPayout) error {
	return db.WithContext(ctx).Save(payout).Error
}

func (r *repository) FindPayoutByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.VendorPayout, error) {
	var payout domain.VendorPayout
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPayoutNotFound
		}
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListPayoutsByVendor(ctx context.Context, db *gorm.DB, orgID, vendorID snowflake.ID) ([]domain.VendorPayout, error) {
	var payouts []domain.VendorPayout
	err := db.WithContext(ctx).
		Where("org_id = ? AND vendor_id = ?", orgID, vendorID).
		Order("created_at DESC").
		Find(&payouts).Error
	return payouts, err
}
