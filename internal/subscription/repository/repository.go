package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/subscription/domain"
	"gorm.io/gorm"
)

type repository struct{}

func New() domain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Save(subscription).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) ListByCustomer(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	err := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Order("created_at ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *repository) ListLiveByCustomer(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	err := db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ? AND status NOT IN ?",
			orgID, customerID,
			[]domain.SubscriptionStatus{domain.StatusCanceled, domain.StatusIncompleteExpired},
		).
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *repository) FindDueForRollover(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	err := db.WithContext(ctx).
		Where("status IN ? AND current_period_end <= ?",
			[]domain.SubscriptionStatus{domain.StatusTrialing, domain.StatusActive},
			now,
		).
		Order("current_period_end ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *repository) FindNeedingRetry(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	err := db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			domain.StatusPastDue, now,
		).
		Order("next_retry_at ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *repository) FindExpiredIncomplete(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	err := db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", domain.StatusIncomplete, cutoff).
		Find(&subscriptions).Error
	return subscriptions, err
}
