package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type LineItem struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Quantity    int64  `json:"quantity"`
}

type CreateInvoiceRequest struct {
	CustomerID     snowflake.ID
	SubscriptionID *snowflake.ID
	Currency       string
	Lines          []LineItem
	Discount       int64
	Tax            int64
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	Metadata       map[string]any
}

type Service interface {
	// Create finalizes amounts from the line items and opens the invoice.
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	// ApplyPayment records a partial or full payment. The invoice flips to
	// paid exactly when the amount due reaches zero.
	ApplyPayment(ctx context.Context, invoiceID snowflake.ID, amount int64) (*Invoice, error)
	Void(ctx context.Context, invoiceID snowflake.ID) (*Invoice, error)
	// MarkUncollectible writes off an open invoice that will never be paid.
	MarkUncollectible(ctx context.Context, invoiceID snowflake.ID) (*Invoice, error)
	Get(ctx context.Context, invoiceID snowflake.ID) (*Invoice, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Invoice, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrMissingCurrency     = errors.New("missing_currency")
	ErrNoLines             = errors.New("no_invoice_lines")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrInvoiceFinalized    = errors.New("invoice_finalized")
	ErrOverpayment         = errors.New("overpayment")
)
