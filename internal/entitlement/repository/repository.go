package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/entitlement/domain"
	"gorm.io/gorm"
)

type repository struct{}

func New() domain.Repository {
	return &repository{}
}

func (r *repository) CreateGrant(ctx context.Context, db *gorm.DB, grant *domain.Entitlement) error {
	return db.WithContext(ctx).Create(grant).Error
}

func (r *repository) UpdateGrant(ctx context.Context, db *gorm.DB, grant *domain.Entitlement) error {
	return db.WithContext(ctx).Save(grant).Error
}

func (r *repository) FindGrant(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string) (*domain.Entitlement, error) {
	var grant domain.Entitlement
	err := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ? AND key = ?", orgID, customerID, key).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntitlementNotFound
		}
		return nil, err
	}
	return &grant, nil
}

func (r *repository) ListGrants(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]domain.Entitlement, error) {
	var grants []domain.Entitlement
	err := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Order("key ASC").
		Find(&grants).Error
	return grants, err
}

func (r *repository) DeleteGrant(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string) error {
	result := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ? AND key = ?", orgID, customerID, key).
		Delete(&domain.Entitlement{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEntitlementNotFound
	}
	return nil
}

func (r *repository) DeleteGrantsBySource(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, source string) (int64, error) {
	result := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ? AND source = ?", orgID, customerID, source).
		Delete(&domain.Entitlement{})
	return result.RowsAffected, result.Error
}

func (r *repository) UpsertLimit(ctx context.Context, db *gorm.DB, limit *domain.Limit) error {
	var existing domain.Limit
	err := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ? AND key = ?", limit.OrgID, limit.CustomerID, limit.Key).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.WithContext(ctx).Create(limit).Error
	}
	if err != nil {
		return err
	}

	limit.ID = existing.ID
	limit.CurrentValue = existing.CurrentValue
	limit.CreatedAt = existing.CreatedAt
	return db.WithContext(ctx).Save(limit).Error
}

func (r *repository) FindLimit(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string) (*domain.Limit, error) {
	var limit domain.Limit
	err := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ? AND key = ?", orgID, customerID, key).
		First(&limit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLimitNotFound
		}
		return nil, err
	}
	return &limit, nil
}

func (r *repository) IncrementWithinCeiling(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, key string, delta int64) (bool, error) {
	result := db.WithContext(ctx).Exec(`
		UPDATE limits
		SET current_value = current_value + ?, updated_at = CURRENT_TIMESTAMP
		WHERE org_id = ? AND customer_id = ? AND key = ?
		  AND (max_value < 0 OR current_value + ? <= max_value)
	`, delta, orgID, customerID, key, delta)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ResetLimits(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`
		UPDATE limits
		SET current_value = 0, updated_at = CURRENT_TIMESTAMP
		WHERE org_id = ? AND customer_id = ?
	`, orgID, customerID).Error
}
