package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/customer/domain"
	"github.com/smallbiznis/qzpay/internal/events"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/smallbiznis/qzpay/internal/provider"
	"github.com/smallbiznis/qzpay/pkg/db/pagination"
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
}

type customerService struct {
	log      *zap.Logger
	cfg      config.Config
	db       *gorm.DB
	genID    *snowflake.Node
	repo     domain.Repository
	bus      *events.Bus
	provider provider.Provider
}

func New(p Params) domain.Service {
	return &customerService{
		log:      p.Log.Named("customer.service"),
		cfg:      p.Config,
		db:       p.DB,
		genID:    p.GenID,
		repo:     p.Repo,
		bus:      p.Bus,
		provider: p.Provider,
	}
}

func (s *customerService) orgID(ctx context.Context) (snowflake.ID, error) {
	id, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOrganization
	}
	return id, nil
}

func (s *customerService) Create(ctx context.Context, req domain.CreateCustomerRequest) (*domain.Customer, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}

	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return nil, domain.ErrMissingExternalID
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, domain.ErrMissingEmail
	}

	if _, err := s.repo.FindByExternalID(ctx, s.db, orgID, externalID); err == nil {
		return nil, domain.ErrCustomerExists
	} else if !errors.Is(err, domain.ErrCustomerNotFound) {
		return nil, err
	}

	customer := &domain.Customer{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		ExternalID: externalID,
		Email:      email,
		Name:       strings.TrimSpace(req.Name),
		Livemode:   s.cfg.Livemode,
		Metadata:   req.Metadata,
	}

	remote, err := s.provider.CreateCustomer(ctx, provider.CreateCustomerRequest{
		Email:    email,
		Name:     customer.Name,
		Metadata: map[string]string{"external_id": externalID},
	})
	if err != nil {
		return nil, err
	}
	customer.ProviderCustomerID = remote.ID

	if err := s.repo.Create(ctx, s.db, customer); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.CustomerCreated{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Livemode:   customer.Livemode,
	})
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, req domain.UpdateCustomerRequest) (*domain.Customer, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	customerID, err := snowflake.ParseString(req.CustomerID)
	if err != nil {
		return nil, domain.ErrInvalidCustomerID
	}

	customer, err := s.repo.FindByID(ctx, s.db, orgID, customerID)
	if err != nil {
		return nil, err
	}

	if email := strings.TrimSpace(req.Email); email != "" {
		customer.Email = email
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		customer.Name = name
	}
	if req.Metadata != nil {
		customer.Metadata = req.Metadata
	}

	if customer.ProviderCustomerID != "" {
		if _, err := s.provider.UpdateCustomer(ctx, provider.UpdateCustomerRequest{
			CustomerID: customer.ProviderCustomerID,
			Email:      customer.Email,
			Name:       customer.Name,
		}); err != nil {
			s.log.Warn("provider customer update failed",
				zap.String("customer_id", customer.ID.String()),
				zap.Error(err),
			)
		}
	}

	if err := s.repo.Update(ctx, s.db, customer); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.CustomerUpdated{CustomerID: customer.ID})
	return customer, nil
}

func (s *customerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	customerID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrInvalidCustomerID
	}
	return s.repo.FindByID(ctx, s.db, orgID, customerID)
}

func (s *customerService) GetByExternalID(ctx context.Context, externalID string) (*domain.Customer, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(externalID) == "" {
		return nil, domain.ErrMissingExternalID
	}
	return s.repo.FindByExternalID(ctx, s.db, orgID, strings.TrimSpace(externalID))
}

func (s *customerService) List(ctx context.Context, req domain.ListCustomersRequest) ([]domain.Customer, *pagination.PageInfo, error) {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return nil, nil, err
	}

	size := req.Pagination.PageSize
	if size <= 0 {
		size = 10
	}

	rows, err := s.repo.List(ctx, s.db, orgID, req.Pagination)
	if err != nil {
		return nil, nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, int32(size), func(c *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: c.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	if len(rows) > size {
		rows = rows[:size]
	}
	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, *row)
	}
	return customers, pageInfo, nil
}

func (s *customerService) Delete(ctx context.Context, id string) error {
	orgID, err := s.orgID(ctx)
	if err != nil {
		return err
	}
	customerID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.ErrInvalidCustomerID
	}

	if _, err := s.repo.FindByID(ctx, s.db, orgID, customerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.db, orgID, customerID); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.CustomerDeleted{CustomerID: customerID})
	return nil
}
