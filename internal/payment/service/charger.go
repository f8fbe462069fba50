package service

import (
	"context"

	"github.com/smallbiznis/qzpay/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/qzpay/internal/subscription/domain"
)

// charger lets the subscription lifecycle collect invoices without a direct
// dependency on this package.
type charger struct {
	payments domain.Service
}

func NewCharger(payments domain.Service) subscriptiondomain.Charger {
	return &charger{payments: payments}
}

func (c *charger) ChargeInvoice(ctx context.Context, req subscriptiondomain.ChargeInvoiceRequest) error {
	invoiceID := req.InvoiceID
	_, err := c.payments.Charge(ctx, domain.ChargeRequest{
		CustomerID:         req.CustomerID,
		InvoiceID:          &invoiceID,
		ProviderCustomerID: req.ProviderCustomerID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Description:        req.Description,
	})
	return err
}
