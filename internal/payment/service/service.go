package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/events"
	invoicedomain "github.com/smallbiznis/qzpay/internal/invoice/domain"
	"github.com/smallbiznis/qzpay/internal/observability/metrics"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/smallbiznis/qzpay/internal/payment/domain"
	"github.com/smallbiznis/qzpay/internal/provider"
	"github.com/smallbiznis/qzpay/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	DB       *gorm.DB
	GenID    *snowflake.Node
	Repo     domain.Repository
	Bus      *events.Bus
	Provider provider.Provider
	Invoices invoicedomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type paymentService struct {
	log      *zap.Logger
	cfg      config.Config
	db       *gorm.DB
	genID    *snowflake.Node
	repo     domain.Repository
	bus      *events.Bus
	provider provider.Provider
	invoices invoicedomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &paymentService{
		log:      p.Log.Named("payment.service"),
		cfg:      p.Config,
		db:       p.DB,
		genID:    p.GenID,
		repo:     p.Repo,
		bus:      p.Bus,
		provider: p.Provider,
		invoices: p.Invoices,
		metrics:  p.Metrics,
	}
}

func (s *paymentService) orgID(ctx context.Context) (snowflake.ID, error) {
	id, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}

func (s *paymentService) countAttempt(status string) {
	if s.metrics != nil {
		s.metrics.PaymentsAttempted.WithLabelValues(status).Inc()
	}
}

func (s *paymentService) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Payment, error) {
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

	payment := &domain.Payment{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		CustomerID:     req.CustomerID,
		InvoiceID:      req.InvoiceID,
		Provider:       s.provider.Name(),
		IdempotencyKey: uuid.NewString(),
		Amount:         req.Amount,
		Currency:       currency,
		Status:         domain.PaymentStatusPending,
		Livemode:       s.cfg.Livemode,
	}
	if err := s.repo.Create(ctx, s.db, payment); err != nil {
		return nil, err
	}

	remote, chargeErr := s.provider.CreatePayment(ctx, provider.CreatePaymentRequest{
		CustomerID:     req.ProviderCustomerID,
		Amount:         req.Amount,
		Currency:       currency,
		Description:    req.Description,
		IdempotencyKey: payment.IdempotencyKey,
	})
	if chargeErr != nil {
		payment.Status = domain.PaymentStatusFailed
		payment.FailureReason = chargeErr.Error()
		if err := s.repo.Update(ctx, s.db, payment); err != nil {
			return nil, err
		}

		s.countAttempt("failed")
		s.bus.Publish(ctx, events.PaymentFailed{
			PaymentID:  payment.ID,
			InvoiceID:  derefID(payment.InvoiceID),
			CustomerID: payment.CustomerID,
			Amount:     payment.Amount,
			Currency:   payment.Currency,
			Reason:     payment.FailureReason,
		})
		return payment, fmt.Errorf("%w: %s", domain.ErrChargeFailed, payment.FailureReason)
	}

	payment.ProviderPaymentID = remote.ID
	payment.Status = domain.PaymentStatusSucceeded
	if err := s.repo.Update(ctx, s.db, payment); err != nil {
		return nil, err
	}

	if payment.InvoiceID != nil {
		if _, err := s.invoices.ApplyPayment(ctx, *payment.InvoiceID, payment.Amount); err != nil {
			s.log.Error("settling invoice after charge failed",
				zap.String("payment_id", payment.ID.String()),
				zap.String("invoice_id", payment.InvoiceID.String()),
				zap.Error(err),
			)
		}
	}

	s.countAttempt("succeeded")
	s.bus.Publish(ctx, events.PaymentSucceeded{
		PaymentID:  payment.ID,
		InvoiceID:  derefID(payment.InvoiceID),
		CustomerID: payment.CustomerID,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
	})
	return payment, nil
}

func derefID(id *snowflake.ID) snowflake.ID {
	if id == nil {
		return 0
	}
	return *id
}

func (s *paymentService) Refund(ctx context.Context, paymentID snowflake.ID) (*domain.Payment, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.FindByID(ctx, s.db, orgID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusSucceeded {
		return nil, domain.ErrPaymentNotRefundable
	}

	if _, err := s.provider.RefundPayment(ctx, provider.RefundPaymentRequest{
		PaymentID: payment.ProviderPaymentID,
		Amount:    payment.Amount,
	}); err != nil {
		return nil, err
	}

	payment.Status = domain.PaymentStatusRefunded
	if err := s.repo.Update(ctx, s.db, payment); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.PaymentRefunded{
		PaymentID:  payment.ID,
		CustomerID: payment.CustomerID,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
	})
	return payment, nil
}

func (s *paymentService) Get(ctx context.Context, paymentID snowflake.ID) (*domain.Payment, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, orgID, paymentID)
}

func (s *paymentService) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Payment, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, s.db, orgID, customerID)
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return err
	}

	event, err := s.provider.ConstructEvent(payload, signature)
	if err != nil {
		return err
	}

	if _, err := s.repo.FindWebhookEvent(ctx, s.db, orgID, s.provider.Name(), event.ID); err == nil {
		s.log.Debug("webhook already processed",
			zap.String("provider_event_id", event.ID),
		)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.repo.CreateWebhookEvent(ctx, s.db, &domain.WebhookEvent{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		Provider:        s.provider.Name(),
		ProviderEventID: event.ID,
		Type:            event.Type,
		Payload:         event.RawPayload,
	}); err != nil {
		// A concurrent delivery of the same event lost the race on the
		// unique index; the winner handles it.
		if db.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}

	switch event.Type {
	case provider.EventTypePaymentSucceeded:
		return s.applyWebhookStatus(ctx, orgID, event, domain.PaymentStatusSucceeded)
	case provider.EventTypePaymentFailed:
		return s.applyWebhookStatus(ctx, orgID, event, domain.PaymentStatusFailed)
	case provider.EventTypeRefunded:
		return s.applyWebhookStatus(ctx, orgID, event, domain.PaymentStatusRefunded)
	default:
		s.log.Debug("ignoring webhook event type", zap.String("type", event.Type))
		return nil
	}
}

func (s *paymentService) applyWebhookStatus(ctx context.Context, orgID snowflake.ID, event *provider.Event, status domain.PaymentStatus) error {
	payment, err := s.repo.FindByProviderPaymentID(ctx, s.db, orgID, s.provider.Name(), event.PaymentID)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		s.log.Warn("webhook for unknown payment",
			zap.String("provider_payment_id", event.PaymentID),
			zap.String("type", event.Type),
		)
		return nil
	}
	if err != nil {
		return err
	}
	if payment.Status == status {
		return nil
	}

	previous := payment.Status
	payment.Status = status
	if err := s.repo.Update(ctx, s.db, payment); err != nil {
		return err
	}

	switch status {
	case domain.PaymentStatusSucceeded:
		if payment.InvoiceID != nil && previous != domain.PaymentStatusSucceeded {
			if _, err := s.invoices.ApplyPayment(ctx, *payment.InvoiceID, payment.Amount); err != nil {
				s.log.Error("settling invoice from webhook failed",
					zap.String("invoice_id", payment.InvoiceID.String()),
					zap.Error(err),
				)
			}
		}
		s.bus.Publish(ctx, events.PaymentSucceeded{
			PaymentID:  payment.ID,
			InvoiceID:  derefID(payment.InvoiceID),
			CustomerID: payment.CustomerID,
			Amount:     payment.Amount,
			Currency:   payment.Currency,
		})
	case domain.PaymentStatusFailed:
		s.bus.Publish(ctx, events.PaymentFailed{
			PaymentID:  payment.ID,
			InvoiceID:  derefID(payment.InvoiceID),
			CustomerID: payment.CustomerID,
			Amount:     payment.Amount,
			Currency:   payment.Currency,
			Reason:     "reported by processor",
		})
	case domain.PaymentStatusRefunded:
		s.bus.Publish(ctx, events.PaymentRefunded{
			PaymentID:  payment.ID,
			CustomerID: payment.CustomerID,
			Amount:     payment.Amount,
			Currency:   payment.Currency,
		})
	}
	return nil
}
