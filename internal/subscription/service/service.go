package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/qzpay/internal/catalog/domain"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/config"
	customerdomain "github.com/smallbiznis/qzpay/internal/customer/domain"
	entitlementdomain "github.com/smallbiznis/qzpay/internal/entitlement/domain"
	"github.com/smallbiznis/qzpay/internal/events"
	invoicedomain "github.com/smallbiznis/qzpay/internal/invoice/domain"
	"github.com/smallbiznis/qzpay/internal/money"
	"github.com/smallbiznis/qzpay/internal/observability/metrics"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/smallbiznis/qzpay/internal/provider"
	"github.com/smallbiznis/qzpay/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Config       config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Bus          *events.Bus
	Provider     provider.Provider
	Catalog      catalogdomain.Service
	Customers    customerdomain.Service
	Invoices     invoicedomain.Service
	Entitlements entitlementdomain.Service
	Charger      domain.Charger
	Metrics      *metrics.Metrics `optional:"true"`
}

type subscriptionService struct {
	log          *zap.Logger
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	bus          *events.Bus
	provider     provider.Provider
	catalog      catalogdomain.Service
	customers    customerdomain.Service
	invoices     invoicedomain.Service
	entitlements entitlementdomain.Service
	charger      domain.Charger
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &subscriptionService{
		log:          p.Log.Named("subscription.service"),
		cfg:          p.Config,
		db:           p.DB,
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		bus:          p.Bus,
		provider:     p.Provider,
		catalog:      p.Catalog,
		customers:    p.Customers,
		invoices:     p.Invoices,
		entitlements: p.Entitlements,
		charger:      p.Charger,
		metrics:      p.Metrics,
	}
}

func (s *subscriptionService) orgID(ctx context.Context) (snowflake.ID, error) {
	id, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}

// setStatus applies a lifecycle transition, rejecting pairs outside the graph.
func (s *subscriptionService) setStatus(sub *domain.Subscription, to domain.SubscriptionStatus) error {
	if !domain.CanTransition(sub.Status, to) {
		return domain.ErrInvalidTransition
	}
	sub.Status = to
	if s.metrics != nil {
		s.metrics.SubscriptionTransitions.WithLabelValues(string(to)).Inc()
	}
	return nil
}

// resolvePlanPrice loads and validates the plan/price pair.
func (s *subscriptionService) resolvePlanPrice(ctx context.Context, planID, priceID string) (*catalogdomain.Plan, *catalogdomain.Price, error) {
	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.Active {
		return nil, nil, domain.ErrInactivePlan
	}
	price, err := s.catalog.GetPrice(ctx, priceID)
	if err != nil {
		return nil, nil, err
	}
	if !price.Active {
		return nil, nil, domain.ErrInactivePrice
	}
	if price.PlanID != plan.ID {
		return nil, nil, domain.ErrPriceMismatch
	}
	return plan, price, nil
}

func (s *subscriptionService) Create(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Get(ctx, req.CustomerID.String())
	if err != nil {
		return nil, err
	}
	plan, price, err := s.resolvePlanPrice(ctx, req.PlanID, req.PriceID)
	if err != nil {
		return nil, err
	}

	isAddOn := false
	if req.Metadata != nil {
		isAddOn, _ = req.Metadata["addon"].(bool)
	}
	if !isAddOn {
		live, err := s.repo.ListLiveByCustomer(ctx, s.db, orgID, customer.ID)
		if err != nil {
			return nil, err
		}
		for _, existing := range live {
			if !existing.IsAddOn() {
				return nil, domain.ErrSubscriptionExists
			}
		}
	}

	now := s.clock.Now()
	trialDays := price.TrialDays
	if req.TrialDays != nil {
		trialDays = *req.TrialDays
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	sub := &domain.Subscription{
		ID:                 s.genID.Generate(),
		OrgID:              orgID,
		CustomerID:         customer.ID,
		PlanID:             plan.ID,
		PriceID:            price.ID,
		Quantity:           quantity,
		PromoCodeID:        req.PromoCodeID,
		Status:             domain.StatusIncomplete,
		CurrentPeriodStart: now,
		Livemode:           s.cfg.Livemode,
		Metadata:           req.Metadata,
	}
	if trialDays > 0 {
		trialEnd := now.AddDate(0, 0, trialDays)
		sub.TrialEnd = &trialEnd
		sub.CurrentPeriodEnd = trialEnd
	} else {
		sub.CurrentPeriodEnd = price.Interval.AddTo(now, price.IntervalCount)
	}

	remote, err := s.provider.CreateSubscription(ctx, provider.CreateSubscriptionRequest{
		CustomerID:     customer.ProviderCustomerID,
		PriceID:        price.ID.String(),
		Quantity:       quantity,
		TrialDays:      trialDays,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	sub.ProviderSubscriptionID = remote.ID

	if err := s.repo.Create(ctx, s.db, sub); err != nil {
		return nil, err
	}

	if trialDays > 0 {
		if err := s.setStatus(sub, domain.StatusTrialing); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, s.db, sub); err != nil {
			return nil, err
		}
		if err := s.grantPlanAccess(ctx, sub); err != nil {
			return nil, err
		}
		s.publishCreated(ctx, sub)
		return sub, nil
	}

	invoice, err := s.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:     customer.ID,
		SubscriptionID: &sub.ID,
		Currency:       price.Currency,
		Lines: []invoicedomain.LineItem{{
			Description: plan.Name,
			Amount:      price.UnitAmount,
			Quantity:    int64(quantity),
		}},
		PeriodStart: &sub.CurrentPeriodStart,
		PeriodEnd:   &sub.CurrentPeriodEnd,
	})
	if err != nil {
		return nil, err
	}
	sub.LatestInvoiceID = &invoice.ID

	chargeErr := error(nil)
	if invoice.AmountDue > 0 {
		chargeErr = s.charger.ChargeInvoice(ctx, domain.ChargeInvoiceRequest{
			CustomerID:         customer.ID,
			InvoiceID:          invoice.ID,
			ProviderCustomerID: customer.ProviderCustomerID,
			Amount:             invoice.AmountDue,
			Currency:           invoice.Currency,
			Description:        plan.Name,
		})
	}
	if chargeErr == nil {
		if err := s.setStatus(sub, domain.StatusActive); err != nil {
			return nil, err
		}
	} else {
		// first payment failed: the subscription stays incomplete until the
		// customer completes payment or the grace window expires
		s.log.Warn("first payment failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(chargeErr),
		)
	}
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}
	if sub.Status == domain.StatusActive {
		if err := s.grantPlanAccess(ctx, sub); err != nil {
			return nil, err
		}
	}

	s.publishCreated(ctx, sub)
	return sub, nil
}

func (s *subscriptionService) publishCreated(ctx context.Context, sub *domain.Subscription) {
	s.bus.Publish(ctx, events.SubscriptionCreated{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		PlanID:         sub.PlanID,
		PriceID:        sub.PriceID,
		Status:         string(sub.Status),
	})
}

func (s *subscriptionService) publishUpdated(ctx context.Context, sub *domain.Subscription) {
	s.bus.Publish(ctx, events.SubscriptionUpdated{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		Status:         string(sub.Status),
	})
}

// grantPlanAccess applies the plan's entitlements and limits to the customer.
func (s *subscriptionService) grantPlanAccess(ctx context.Context, sub *domain.Subscription) error {
	planID := sub.PlanID.String()

	grants, err := s.catalog.ListPlanEntitlements(ctx, planID)
	if err != nil {
		return err
	}
	for _, grant := range grants {
		if _, err := s.entitlements.Grant(ctx, entitlementdomain.GrantRequest{
			CustomerID: sub.CustomerID,
			Key:        grant.Key,
			Source:     sub.EntitlementSource(),
		}); err != nil {
			return err
		}
	}

	limits, err := s.catalog.ListPlanLimits(ctx, planID)
	if err != nil {
		return err
	}
	for _, limit := range limits {
		if _, err := s.entitlements.SetLimit(ctx, entitlementdomain.SetLimitRequest{
			CustomerID: sub.CustomerID,
			Key:        limit.Key,
			MaxValue:   limit.MaxValue,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *subscriptionService) revokePlanAccess(ctx context.Context, sub *domain.Subscription) {
	if _, err := s.entitlements.RevokeBySource(ctx, sub.CustomerID, sub.EntitlementSource()); err != nil {
		s.log.Warn("revoking plan entitlements failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *subscriptionService) ChangePlan(ctx context.Context, req domain.ChangePlanRequest) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByID(ctx, s.db, orgID, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.StatusActive && sub.Status != domain.StatusTrialing {
		return nil, domain.ErrInvalidTransition
	}

	newPlan, newPrice, err := s.resolvePlanPrice(ctx, req.PlanID, req.PriceID)
	if err != nil {
		return nil, err
	}
	if newPrice.ID == sub.PriceID {
		return nil, domain.ErrSamePrice
	}

	customer, err := s.customers.Get(ctx, sub.CustomerID.String())
	if err != nil {
		return nil, err
	}

	// mid-period switch on a paid subscription settles the difference now:
	// credit the unused share of the old price, charge the same share of the
	// new one
	if sub.Status == domain.StatusActive && req.ProrationBehavior != domain.ProrationNone {
		oldPrice, err := s.catalog.GetPrice(ctx, sub.PriceID.String())
		if err != nil {
			return nil, err
		}

		now := s.clock.Now()
		totalDays := periodDays(sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
		usedDays := periodDays(sub.CurrentPeriodStart, now)
		if usedDays > totalDays {
			usedDays = totalDays
		}
		unusedDays := totalDays - usedDays
		quantity := int64(sub.Quantity)
		if quantity <= 0 {
			quantity = 1
		}

		credit, err := money.Prorate(oldPrice.UnitAmount*quantity, totalDays, unusedDays)
		if err != nil {
			return nil, err
		}
		charge, err := money.Prorate(newPrice.UnitAmount*quantity, totalDays, unusedDays)
		if err != nil {
			return nil, err
		}

		invoice, err := s.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
			CustomerID:     customer.ID,
			SubscriptionID: &sub.ID,
			Currency:       newPrice.Currency,
			Lines: []invoicedomain.LineItem{
				{Description: newPlan.Name + ", remainder of period", Amount: charge},
				{Description: "Unused time credit", Amount: -credit},
			},
			PeriodStart: &now,
			PeriodEnd:   &sub.CurrentPeriodEnd,
		})
		if err != nil {
			return nil, err
		}
		sub.LatestInvoiceID = &invoice.ID

		if invoice.AmountDue > 0 {
			if err := s.charger.ChargeInvoice(ctx, domain.ChargeInvoiceRequest{
				CustomerID:         customer.ID,
				InvoiceID:          invoice.ID,
				ProviderCustomerID: customer.ProviderCustomerID,
				Amount:             invoice.AmountDue,
				Currency:           invoice.Currency,
				Description:        newPlan.Name + " proration",
			}); err != nil {
				return nil, err
			}
		}
	}

	if sub.ProviderSubscriptionID != "" {
		if _, err := s.provider.UpdateSubscription(ctx, provider.UpdateSubscriptionRequest{
			SubscriptionID: sub.ProviderSubscriptionID,
			PriceID:        newPrice.ID.String(),
		}); err != nil {
			return nil, err
		}
	}

	s.revokePlanAccess(ctx, sub)
	sub.PlanID = newPlan.ID
	sub.PriceID = newPrice.ID
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}
	if err := s.grantPlanAccess(ctx, sub); err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, sub)
	return sub, nil
}

// periodDays counts whole days from a to b.
func periodDays(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func (s *subscriptionService) Cancel(ctx context.Context, req domain.CancelRequest) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByID(ctx, s.db, orgID, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Terminal() {
		return nil, domain.ErrInvalidTransition
	}

	if req.AtPeriodEnd {
		cancelAt := sub.CurrentPeriodEnd
		sub.CancelAt = &cancelAt
		if err := s.repo.Update(ctx, s.db, sub); err != nil {
			return nil, err
		}
		s.publishUpdated(ctx, sub)
		return sub, nil
	}

	if err := s.cancelNow(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) cancelNow(ctx context.Context, sub *domain.Subscription) error {
	if err := s.setStatus(sub, domain.StatusCanceled); err != nil {
		return err
	}
	now := s.clock.Now()
	sub.CanceledAt = &now
	sub.CancelAt = nil

	if sub.ProviderSubscriptionID != "" {
		if _, err := s.provider.CancelSubscription(ctx, sub.ProviderSubscriptionID); err != nil {
			s.log.Warn("provider cancel failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err),
			)
		}
	}

	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return err
	}
	s.revokePlanAccess(ctx, sub)

	s.bus.Publish(ctx, events.SubscriptionCanceled{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		CanceledAt:     now,
	})
	return nil
}

func (s *subscriptionService) Pause(ctx context.Context, subscriptionID snowflake.ID) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByID(ctx, s.db, orgID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if err := s.setStatus(sub, domain.StatusPaused); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	sub.PausedAt = &now

	if sub.ProviderSubscriptionID != "" {
		if _, err := s.provider.PauseSubscription(ctx, sub.ProviderSubscriptionID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.SubscriptionPaused{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
	})
	return sub, nil
}

func (s *subscriptionService) Resume(ctx context.Context, subscriptionID snowflake.ID) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByID(ctx, s.db, orgID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.StatusPaused {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.setStatus(sub, domain.StatusActive); err != nil {
		return nil, err
	}
	sub.PausedAt = nil

	if sub.ProviderSubscriptionID != "" {
		if _, err := s.provider.ResumeSubscription(ctx, sub.ProviderSubscriptionID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.SubscriptionResumed{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
	})
	return sub, nil
}

func (s *subscriptionService) RetryPastDue(ctx context.Context, subscriptionID snowflake.ID) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByID(ctx, s.db, orgID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.StatusPastDue {
		return nil, domain.ErrNotPastDue
	}
	if sub.LatestInvoiceID == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}

	invoice, err := s.invoices.Get(ctx, *sub.LatestInvoiceID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, sub.CustomerID.String())
	if err != nil {
		return nil, err
	}

	chargeErr := error(nil)
	if invoice.AmountDue > 0 {
		chargeErr = s.charger.ChargeInvoice(ctx, domain.ChargeInvoiceRequest{
			CustomerID:         customer.ID,
			InvoiceID:          invoice.ID,
			ProviderCustomerID: customer.ProviderCustomerID,
			Amount:             invoice.AmountDue,
			Currency:           invoice.Currency,
			Description:        "Payment retry",
		})
	}

	if chargeErr == nil {
		if err := s.setStatus(sub, domain.StatusActive); err != nil {
			return nil, err
		}
		sub.RetryCount = 0
		sub.NextRetryAt = nil
		if err := s.repo.Update(ctx, s.db, sub); err != nil {
			return nil, err
		}
		s.publishUpdated(ctx, sub)
		return sub, nil
	}

	sub.RetryCount++
	if sub.RetryCount >= s.cfg.Retry.MaxRetries {
		return sub, s.exhaustRetries(ctx, sub)
	}

	nextRetry := s.clock.Now().AddDate(0, 0, s.cfg.Retry.RetryIntervalDays)
	sub.NextRetryAt = &nextRetry
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.SubscriptionPastDue{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		RetryCount:     sub.RetryCount,
		NextRetryAt:    sub.NextRetryAt,
	})
	return sub, nil
}

// exhaustRetries lands the subscription where the retry policy says it goes
// once the budget is spent.
func (s *subscriptionService) exhaustRetries(ctx context.Context, sub *domain.Subscription) error {
	sub.NextRetryAt = nil

	if s.cfg.Retry.ExhaustAction == config.ExhaustActionUnpaid {
		if err := s.setStatus(sub, domain.StatusUnpaid); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, s.db, sub); err != nil {
			return err
		}
		s.revokePlanAccess(ctx, sub)
		s.publishUpdated(ctx, sub)
		return nil
	}
	return s.cancelNow(ctx, sub)
}

func (s *subscriptionService) RolloverPeriod(ctx context.Context, subscriptionID snowflake.ID) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByID(ctx, s.db, orgID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.StatusActive && sub.Status != domain.StatusTrialing {
		return nil, domain.ErrInvalidTransition
	}
	now := s.clock.Now()
	if sub.CurrentPeriodEnd.After(now) {
		return nil, domain.ErrRolloverNotDue
	}

	// a scheduled cancellation always beats renewal: rolling past it would
	// cut and charge a renewal invoice the customer already opted out of
	if sub.CancelAt != nil {
		if err := s.cancelNow(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	}

	price, err := s.catalog.GetPrice(ctx, sub.PriceID.String())
	if err != nil {
		return nil, err
	}
	plan, err := s.catalog.GetPlan(ctx, sub.PlanID.String())
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, sub.CustomerID.String())
	if err != nil {
		return nil, err
	}

	wasTrialing := sub.Status == domain.StatusTrialing
	sub.CurrentPeriodStart = sub.CurrentPeriodEnd
	sub.CurrentPeriodEnd = price.Interval.AddTo(sub.CurrentPeriodStart, price.IntervalCount)

	quantity := int64(sub.Quantity)
	if quantity <= 0 {
		quantity = 1
	}
	invoice, err := s.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:     customer.ID,
		SubscriptionID: &sub.ID,
		Currency:       price.Currency,
		Lines: []invoicedomain.LineItem{{
			Description: plan.Name,
			Amount:      price.UnitAmount,
			Quantity:    quantity,
		}},
		PeriodStart: &sub.CurrentPeriodStart,
		PeriodEnd:   &sub.CurrentPeriodEnd,
	})
	if err != nil {
		return nil, err
	}
	sub.LatestInvoiceID = &invoice.ID

	chargeErr := error(nil)
	if invoice.AmountDue > 0 {
		chargeErr = s.charger.ChargeInvoice(ctx, domain.ChargeInvoiceRequest{
			CustomerID:         customer.ID,
			InvoiceID:          invoice.ID,
			ProviderCustomerID: customer.ProviderCustomerID,
			Amount:             invoice.AmountDue,
			Currency:           invoice.Currency,
			Description:        plan.Name,
		})
	}

	if chargeErr == nil {
		if wasTrialing {
			if err := s.setStatus(sub, domain.StatusActive); err != nil {
				return nil, err
			}
			if err := s.grantPlanAccess(ctx, sub); err != nil {
				return nil, err
			}
		}
		sub.RetryCount = 0
		sub.NextRetryAt = nil
	} else {
		if err := s.setStatus(sub, domain.StatusPastDue); err != nil {
			return nil, err
		}
		nextRetry := now.AddDate(0, 0, s.cfg.Retry.RetryIntervalDays)
		sub.NextRetryAt = &nextRetry
	}

	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}

	// usage counters start fresh each period
	if err := s.entitlements.ResetLimits(ctx, sub.CustomerID); err != nil {
		s.log.Warn("resetting limits failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}

	if chargeErr != nil {
		s.bus.Publish(ctx, events.SubscriptionPastDue{
			SubscriptionID: sub.ID,
			CustomerID:     sub.CustomerID,
			RetryCount:     sub.RetryCount,
			NextRetryAt:    sub.NextRetryAt,
		})
	}
	s.bus.Publish(ctx, events.BillingPeriodStarted{
		SubscriptionID: sub.ID,
		CustomerID:     sub.CustomerID,
		PeriodStart:    sub.CurrentPeriodStart,
		PeriodEnd:      sub.CurrentPeriodEnd,
	})
	return sub, nil
}

func (s *subscriptionService) ExpireIncomplete(ctx context.Context, subscriptionID snowflake.ID) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.FindByID(ctx, s.db, orgID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.StatusIncomplete {
		return nil, domain.ErrNotIncomplete
	}
	if err := s.setStatus(sub, domain.StatusIncompleteExpired); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, s.db, sub); err != nil {
		return nil, err
	}

	if sub.LatestInvoiceID != nil {
		if _, err := s.invoices.Void(ctx, *sub.LatestInvoiceID); err != nil {
			s.log.Warn("voiding stale first invoice failed",
				zap.String("invoice_id", sub.LatestInvoiceID.String()),
				zap.Error(err),
			)
		}
	}

	s.publishUpdated(ctx, sub)
	return sub, nil
}

func (s *subscriptionService) Get(ctx context.Context, subscriptionID snowflake.ID) (*domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, orgID, subscriptionID)
}

func (s *subscriptionService) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Subscription, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, s.db, orgID, customerID)
}

func (s *subscriptionService) FindDueForRollover(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	return s.repo.FindDueForRollover(ctx, s.db, now)
}

func (s *subscriptionService) FindNeedingRetry(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	return s.repo.FindNeedingRetry(ctx, s.db, now)
}

func (s *subscriptionService) FindExpiredIncomplete(ctx context.Context, cutoff time.Time) ([]domain.Subscription, error) {
	return s.repo.FindExpiredIncomplete(ctx, s.db, cutoff)
}
