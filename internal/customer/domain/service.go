package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/qzpay/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	ExternalID string         `json:"external_id"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	Metadata   map[string]any `json:"metadata"`
}

type UpdateCustomerRequest struct {
	CustomerID string         `json:"customer_id"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	Metadata   map[string]any `json:"metadata"`
}

type ListCustomersRequest struct {
	Pagination pagination.Pagination `json:"pagination"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	Update(ctx context.Context, req UpdateCustomerRequest) (*Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	GetByExternalID(ctx context.Context, externalID string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, *pagination.PageInfo, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCustomerID   = errors.New("invalid_customer_id")
	ErrMissingExternalID   = errors.New("missing_external_id")
	ErrMissingEmail        = errors.New("missing_email")
	ErrCustomerNotFound    = errors.New("customer_not_found")
	ErrCustomerExists      = errors.New("customer_already_exists")
)
