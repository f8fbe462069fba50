package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/invoice/domain"
	"gorm.io/gorm"
)

type repository struct{}

func New() domain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, invoice *domain.Invoice, lines []domain.InvoiceLine) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Save(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ListByCustomer(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *repository) ListLines(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]domain.InvoiceLine, error) {
	var lines []domain.InvoiceLine
	err := db.WithContext(ctx).
		Where("org_id = ? AND invoice_id = ?", orgID, invoiceID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}
