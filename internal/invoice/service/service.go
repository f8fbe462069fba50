package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/events"
	"github.com/smallbiznis/qzpay/internal/invoice/domain"
	"github.com/smallbiznis/qzpay/internal/money"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
	DB     *gorm.DB
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Bus    *events.Bus
}

type invoiceService struct {
	log   *zap.Logger
	cfg   config.Config
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	bus   *events.Bus
	guard money.Guard
}

func New(p Params) domain.Service {
	return &invoiceService{
		log:   p.Log.Named("invoice.service"),
		cfg:   p.Config,
		db:    p.DB,
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		bus:   p.Bus,
		guard: money.NewGuard(p.Config.MaxSafeAmount),
	}
}

func (s *invoiceService) orgID(ctx context.Context) (snowflake.ID, error) {
	id, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}

func (s *invoiceService) Create(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if currency == "" {
		return nil, domain.ErrMissingCurrency
	}
	if len(req.Lines) == 0 {
		return nil, domain.ErrNoLines
	}
	if req.Discount < 0 || req.Tax < 0 {
		return nil, domain.ErrInvalidAmount
	}

	invoiceID := s.genID.Generate()
	lines := make([]domain.InvoiceLine, 0, len(req.Lines))
	lineTotals := make([]int64, 0, len(req.Lines))
	for _, item := range req.Lines {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		lineTotal, err := s.guard.Multiply(item.Amount, float64(quantity))
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.InvoiceLine{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			InvoiceID:   invoiceID,
			Description: item.Description,
			UnitAmount:  item.Amount,
			Quantity:    quantity,
			Amount:      lineTotal,
		})
		lineTotals = append(lineTotals, lineTotal)
	}

	subtotal, err := s.guard.InvoiceTotal(lineTotals)
	if err != nil {
		return nil, err
	}
	total, err := s.guard.Add(subtotal-req.Discount, req.Tax)
	if err != nil {
		return nil, err
	}
	if total < 0 {
		total = 0
	}

	invoice := &domain.Invoice{
		ID:             invoiceID,
		OrgID:          orgID,
		CustomerID:     req.CustomerID,
		SubscriptionID: req.SubscriptionID,
		Status:         domain.InvoiceStatusOpen,
		Currency:       currency,
		Subtotal:       subtotal,
		Discount:       req.Discount,
		Tax:            req.Tax,
		Total:          total,
		AmountDue:      total,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		Livemode:       s.cfg.Livemode,
		Metadata:       req.Metadata,
	}
	if err := s.repo.Create(ctx, s.db, invoice, lines); err != nil {
		return nil, err
	}
	invoice.Lines = lines

	s.bus.Publish(ctx, events.InvoiceCreated{
		InvoiceID:  invoice.ID,
		CustomerID: invoice.CustomerID,
		Total:      invoice.Total,
		Currency:   invoice.Currency,
	})

	// a zero-total invoice has nothing to collect
	if invoice.Total == 0 {
		return s.markPaid(ctx, invoice)
	}
	return invoice, nil
}

func (s *invoiceService) ApplyPayment(ctx context.Context, invoiceID snowflake.ID, amount int64) (*domain.Invoice, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var invoice *domain.Invoice
	var paidInFull bool
	err = s.db.Transaction(func(tx *gorm.DB) error {
		invoice, err = s.repo.FindByID(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Finalized() {
			return domain.ErrInvoiceFinalized
		}
		if amount > invoice.AmountDue {
			return domain.ErrOverpayment
		}

		paid, err := s.guard.Add(invoice.AmountPaid, amount)
		if err != nil {
			return err
		}
		invoice.AmountPaid = paid
		invoice.AmountDue = money.Sub(invoice.Total, paid)
		if invoice.AmountDue == 0 {
			invoice.Status = domain.InvoiceStatusPaid
			now := s.clock.Now()
			invoice.PaidAt = &now
			paidInFull = true
		}
		return s.repo.Update(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	if paidInFull {
		s.bus.Publish(ctx, events.InvoicePaid{
			InvoiceID:  invoice.ID,
			CustomerID: invoice.CustomerID,
			AmountPaid: invoice.AmountPaid,
			Currency:   invoice.Currency,
		})
	}
	return invoice, nil
}

func (s *invoiceService) markPaid(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	invoice.Status = domain.InvoiceStatusPaid
	now := s.clock.Now()
	invoice.PaidAt = &now
	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.InvoicePaid{
		InvoiceID:  invoice.ID,
		CustomerID: invoice.CustomerID,
		AmountPaid: invoice.AmountPaid,
		Currency:   invoice.Currency,
	})
	return invoice, nil
}

func (s *invoiceService) Void(ctx context.Context, invoiceID snowflake.ID) (*domain.Invoice, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	var invoice *domain.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		invoice, err = s.repo.FindByID(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Finalized() {
			return domain.ErrInvoiceFinalized
		}

		invoice.Status = domain.InvoiceStatusVoid
		now := s.clock.Now()
		invoice.VoidedAt = &now
		invoice.AmountDue = 0
		return s.repo.Update(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.InvoiceVoided{
		InvoiceID:  invoice.ID,
		CustomerID: invoice.CustomerID,
	})
	return invoice, nil
}

func (s *invoiceService) MarkUncollectible(ctx context.Context, invoiceID snowflake.ID) (*domain.Invoice, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	var invoice *domain.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		invoice, err = s.repo.FindByID(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Finalized() {
			return domain.ErrInvoiceFinalized
		}

		invoice.Status = domain.InvoiceStatusUncollectible
		return s.repo.Update(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) Get(ctx context.Context, invoiceID snowflake.ID) (*domain.Invoice, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	invoice.Lines = lines
	return invoice, nil
}

func (s *invoiceService) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Invoice, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, s.db, orgID, customerID)
}
