package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/customer/domain"
	"github.com/smallbiznis/qzpay/pkg/db/option"
	"github.com/smallbiznis/qzpay/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct{}

func New() domain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Save(customer).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindByExternalID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, externalID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("org_id = ? AND external_id = ?", orgID, externalID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, p pagination.Pagination) ([]*domain.Customer, error) {
	stmt := db.WithContext(ctx).Where("org_id = ?", orgID)
	stmt = option.ApplyPagination(p).Apply(stmt)
	stmt = option.WithSortBy(option.SortBy{Field: "id", Order: "desc"}).Apply(stmt)

	var customers []*domain.Customer
	err := stmt.Find(&customers).Error
	return customers, err
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Customer{}).Error
}
