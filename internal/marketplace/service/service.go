package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/events"
	"github.com/smallbiznis/qzpay/internal/marketplace/domain"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	DB    *gorm.DB
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Bus   *events.Bus
}

type marketplaceService struct {
	log   *zap.Logger
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	bus   *events.Bus
}

func New(p Params) domain.Service {
	return &marketplaceService{
		log:   p.Log.Named("marketplace.service"),
		db:    p.DB,
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		bus:   p.Bus,
	}
}

func (s *marketplaceService) orgID(ctx context.Context) (snowflake.ID, error) {
	id, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}

func (s *marketplaceService) CreateVendor(ctx context.Context, req domain.CreateVendorRequest) (*domain.Vendor, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrMissingName
	}
	if req.DefaultPercent < 0 || req.DefaultPercent > 100 {
		return nil, domain.ErrInvalidPercent
	}

	schedule := req.PayoutSchedule
	if schedule == "" {
		schedule = domain.PayoutScheduleMonthly
	}
	var accounts datatypes.JSONMap
	if len(req.ProviderAccounts) > 0 {
		accounts = datatypes.JSONMap{}
		for provider, account := range req.ProviderAccounts {
			accounts[provider] = account
		}
	}

	vendor := &domain.Vendor{
		ID:               s.genID.Generate(),
		OrgID:            orgID,
		Name:             name,
		Email:            strings.TrimSpace(req.Email),
		DefaultPercent:   req.DefaultPercent,
		Status:           domain.VendorStatusPending,
		PayoutSchedule:   schedule,
		ProviderAccounts: accounts,
		Metadata:         req.Metadata,
	}
	if err := s.repo.CreateVendor(ctx, s.db, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *marketplaceService) ActivateVendor(ctx context.Context, vendorID snowflake.ID) (*domain.Vendor, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	vendor, err := s.repo.FindVendorByID(ctx, s.db, orgID, vendorID)
	if err != nil {
		return nil, err
	}
	if len(vendor.ProviderAccounts) == 0 {
		return nil, domain.ErrNoProviderAccount
	}
	if vendor.Status == domain.VendorStatusActive {
		return vendor, nil
	}
	vendor.Status = domain.VendorStatusActive
	if err := s.repo.UpdateVendor(ctx, s.db, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *marketplaceService) SuspendVendor(ctx context.Context, vendorID snowflake.ID) (*domain.Vendor, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	vendor, err := s.repo.FindVendorByID(ctx, s.db, orgID, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Status == domain.VendorStatusSuspended {
		return vendor, nil
	}
	vendor.Status = domain.VendorStatusSuspended
	if err := s.repo.UpdateVendor(ctx, s.db, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *marketplaceService) GetVendor(ctx context.Context, vendorID snowflake.ID) (*domain.Vendor, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.FindVendorByID(ctx, s.db, orgID, vendorID)
}

func (s *marketplaceService) SettlePayment(ctx context.Context, req domain.SettlePaymentRequest) (*domain.RevenueShareResult, []domain.VendorPayout, error) {
	if _, err := s.orgID(ctx); err != nil {
		return nil, nil, err
	}
	if req.Total <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}

	result, err := domain.RevenueShare(req.Total, req.AffiliatePercent, req.ReferralPercent, req.Splits, domain.MultiSplitConfig{
		PlatformPercent: req.PlatformPercent,
		MinPlatformFee:  req.MinPlatformFee,
	})
	if err != nil {
		return nil, nil, err
	}

	payouts := make([]domain.VendorPayout, 0, len(result.Shares))
	for _, share := range result.Shares {
		if share.Amount == 0 {
			continue
		}
		payout, err := s.SchedulePayout(ctx, domain.SchedulePayoutRequest{
			VendorID:  share.VendorID,
			PaymentID: req.PaymentID,
			Amount:    share.Amount,
			Currency:  req.Currency,
		})
		if err != nil {
			return nil, nil, err
		}
		payouts = append(payouts, *payout)
	}
	return &result, payouts, nil
}

func (s *marketplaceService) SchedulePayout(ctx context.Context, req domain.SchedulePayoutRequest) (*domain.VendorPayout, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, domain.ErrMissingCurrency
	}

	vendor, err := s.repo.FindVendorByID(ctx, s.db, orgID, req.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Status != domain.VendorStatusActive {
		return nil, domain.ErrVendorInactive
	}
	if len(vendor.ProviderAccounts) == 0 {
		return nil, domain.ErrNoProviderAccount
	}

	payout := &domain.VendorPayout{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		VendorID:    vendor.ID,
		PaymentID:   req.PaymentID,
		Amount:      req.Amount,
		Currency:    currency,
		Status:      domain.PayoutStatusScheduled,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		ScheduledAt: s.clock.Now(),
	}
	if err := s.repo.CreatePayout(ctx, s.db, payout); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.VendorPayoutScheduled{
		PayoutID: payout.ID,
		VendorID: payout.VendorID,
		Amount:   payout.Amount,
		Currency: payout.Currency,
	})
	return payout, nil
}

func (s *marketplaceService) MarkPayoutProcessing(ctx context.Context, payoutID snowflake.ID, providerPayoutID string) (*domain.VendorPayout, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	var payout *domain.VendorPayout
	err = s.db.Transaction(func(tx *gorm.DB) error {
		payout, err = s.repo.FindPayoutByID(ctx, tx, orgID, payoutID)
		if err != nil {
			return err
		}
		if payout.Status != domain.PayoutStatusScheduled {
			return domain.ErrPayoutNotScheduled
		}

		payout.Status = domain.PayoutStatusProcessing
		payout.ProviderPayoutID = providerPayoutID
		return s.repo.UpdatePayout(ctx, tx, payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *marketplaceService) MarkPayoutPaid(ctx context.Context, payoutID snowflake.ID) (*domain.VendorPayout, error) {
	payout, err := s.settle(ctx, payoutID, domain.PayoutStatusPaid, "")
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.VendorPayoutPaid{
		PayoutID: payout.ID,
		VendorID: payout.VendorID,
		Amount:   payout.Amount,
		Currency: payout.Currency,
	})
	return payout, nil
}

func (s *marketplaceService) MarkPayoutFailed(ctx context.Context, payoutID snowflake.ID, reason string) (*domain.VendorPayout, error) {
	payout, err := s.settle(ctx, payoutID, domain.PayoutStatusFailed, reason)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.VendorPayoutFailed{
		PayoutID: payout.ID,
		VendorID: payout.VendorID,
		Reason:   reason,
	})
	return payout, nil
}

// settle finalizes a payout exactly once.
func (s *marketplaceService) settle(ctx context.Context, payoutID snowflake.ID, status domain.PayoutStatus, reason string) (*domain.VendorPayout, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	var payout *domain.VendorPayout
	err = s.db.Transaction(func(tx *gorm.DB) error {
		payout, err = s.repo.FindPayoutByID(ctx, tx, orgID, payoutID)
		if err != nil {
			return err
		}
		if payout.Settled() {
			return domain.ErrPayoutSettled
		}

		payout.Status = status
		payout.FailureReason = reason
		now := s.clock.Now()
		payout.SettledAt = &now
		return s.repo.UpdatePayout(ctx, tx, payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *marketplaceService) ListPayoutsByVendor(ctx context.Context, vendorID snowflake.ID) ([]domain.VendorPayout, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayoutsByVendor(ctx, s.db, orgID, vendorID)
}
