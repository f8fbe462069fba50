package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type ChargeRequest struct {
	CustomerID         snowflake.ID
	InvoiceID          *snowflake.ID
	ProviderCustomerID string
	Amount             int64
	Currency           string
	Description        string
}

type Service interface {
	// Charge runs one attempt against the processor. The attempt is recorded
	// whether it succeeds or not; a success also settles the linked invoice.
	Charge(ctx context.Context, req ChargeRequest) (*Payment, error)
	Refund(ctx context.Context, paymentID snowflake.ID) (*Payment, error)
	Get(ctx context.Context, paymentID snowflake.ID) (*Payment, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Payment, error)
	// HandleWebhook verifies, dedupes and applies one processor notification.
	// Redelivery of an already-processed event is a no-op.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrMissingCurrency     = errors.New("missing_currency")
	ErrPaymentNotFound     = errors.New("payment_not_found")
	ErrPaymentNotRefundable = errors.New("payment_not_refundable")
	ErrChargeFailed        = errors.New("charge_failed")
)
