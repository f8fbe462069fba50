package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/qzpay/internal/clock"
	"github.com/smallbiznis/qzpay/internal/config"
	"github.com/smallbiznis/qzpay/internal/events"
	invoicedomain "github.com/smallbiznis/qzpay/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/qzpay/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/qzpay/internal/invoice/service"
	"github.com/smallbiznis/qzpay/internal/orgcontext"
	"github.com/smallbiznis/qzpay/internal/payment/domain"
	"github.com/smallbiznis/qzpay/internal/payment/repository"
	"github.com/smallbiznis/qzpay/internal/provider"
	"github.com/smallbiznis/qzpay/internal/provider/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	payments domain.Service
	invoices invoicedomain.Service
	adapter  *fake.Adapter
	bus      *events.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Payment{}, &domain.WebhookEvent{},
		&invoicedomain.Invoice{}, &invoicedomain.InvoiceLine{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	bus := events.New(log, nil)
	cfg := config.Config{DefaultCurrency: "usd"}
	adapter := fake.NewAdapter()

	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		Log: log, Config: cfg, DB: db, GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)),
		Repo:  invoicerepo.New(), Bus: bus,
	})
	paymentSvc := New(Params{
		Log: log, Config: cfg, DB: db, GenID: node,
		Repo: repository.New(), Bus: bus, Provider: adapter, Invoices: invoiceSvc,
	})

	return &fixture{
		payments: paymentSvc,
		invoices: invoiceSvc,
		adapter:  adapter,
		bus:      bus,
	}
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), 42)
}

func (f *fixture) openInvoice(t *testing.T, ctx context.Context, amount int64) *invoicedomain.Invoice {
	t.Helper()
	invoice, err := f.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: snowflake.ID(100),
		Lines:      []invoicedomain.LineItem{{Description: "Pro plan", Amount: amount}},
	})
	require.NoError(t, err)
	return invoice
}

func TestChargeSettlesInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	invoice := f.openInvoice(t, ctx, 1900)

	var succeeded []events.PaymentSucceeded
	f.bus.On(events.TypePaymentSucceeded, func(ctx context.Context, payload events.Payload) error {
		succeeded = append(succeeded, payload.(events.PaymentSucceeded))
		return nil
	})

	payment, err := f.payments.Charge(ctx, domain.ChargeRequest{
		CustomerID: snowflake.ID(100),
		InvoiceID:  &invoice.ID,
		Amount:     1900,
		Currency:   "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, payment.Status)
	assert.NotEmpty(t, payment.ProviderPaymentID)
	assert.NotEmpty(t, payment.IdempotencyKey)

	settled, err := f.invoices.Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, settled.Status)

	require.Len(t, succeeded, 1)
	assert.Equal(t, invoice.ID, succeeded[0].InvoiceID)
}

func TestChargeFailure(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()
	f.adapter.FailPayments = true

	var failed []events.PaymentFailed
	f.bus.On(events.TypePaymentFailed, func(ctx context.Context, payload events.Payload) error {
		failed = append(failed, payload.(events.PaymentFailed))
		return nil
	})

	payment, err := f.payments.Charge(ctx, domain.ChargeRequest{
		CustomerID: snowflake.ID(100),
		Amount:     1900,
		Currency:   "usd",
	})
	assert.ErrorIs(t, err, domain.ErrChargeFailed)
	assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
	assert.NotEmpty(t, payment.FailureReason)
	require.Len(t, failed, 1)
	assert.Equal(t, payment.FailureReason, failed[0].Reason)
}

func TestChargeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	_, err := f.payments.Charge(ctx, domain.ChargeRequest{CustomerID: 1, Amount: 0, Currency: "usd"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.payments.Charge(ctx, domain.ChargeRequest{CustomerID: 1, Amount: 100})
	assert.ErrorIs(t, err, domain.ErrMissingCurrency)
}

func TestRefund(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	payment, err := f.payments.Charge(ctx, domain.ChargeRequest{
		CustomerID: snowflake.ID(100),
		Amount:     1900,
		Currency:   "usd",
	})
	require.NoError(t, err)

	var refunded []events.PaymentRefunded
	f.bus.On(events.TypePaymentRefunded, func(ctx context.Context, payload events.Payload) error {
		refunded = append(refunded, payload.(events.PaymentRefunded))
		return nil
	})

	result, err := f.payments.Refund(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, result.Status)
	require.Len(t, refunded, 1)

	_, err = f.payments.Refund(ctx, payment.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentNotRefundable)
}

func webhookPayload(t *testing.T, id, eventType, paymentID string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":         id,
		"type":       eventType,
		"payment_id": paymentID,
		"amount":     1900,
		"currency":   "usd",
	})
	require.NoError(t, err)
	return payload
}

func TestHandleWebhookRefund(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	payment, err := f.payments.Charge(ctx, domain.ChargeRequest{
		CustomerID: snowflake.ID(100),
		Amount:     1900,
		Currency:   "usd",
	})
	require.NoError(t, err)

	var refunded int
	f.bus.On(events.TypePaymentRefunded, func(ctx context.Context, payload events.Payload) error {
		refunded++
		return nil
	})

	payload := webhookPayload(t, "evt_001", provider.EventTypeRefunded, payment.ProviderPaymentID)
	require.NoError(t, f.payments.HandleWebhook(ctx, payload, f.adapter.Sign(payload)))

	updated, err := f.payments.Get(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, updated.Status)
	assert.Equal(t, 1, refunded)
}

func TestHandleWebhookDeduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := testCtx()

	payment, err := f.payments.Charge(ctx, domain.ChargeRequest{
		CustomerID: snowflake.ID(100),
		Amount:     1900,
		Currency:   "usd",
	})
	require.NoError(t, err)

	var refunded int
	f.bus.On(events.TypePaymentRefunded, func(ctx context.Context, payload events.Payload) error {
		refunded++
		return nil
	})

	payload := webhookPayload(t, "evt_001", provider.EventTypeRefunded, payment.ProviderPaymentID)
	signature := f.adapter.Sign(payload)
	require.NoError(t, f.payments.HandleWebhook(ctx, payload, signature))
	require.NoError(t, f.payments.HandleWebhook(ctx, payload, signature))
	require.NoError(t, f.payments.HandleWebhook(ctx, payload, signature))

	assert.Equal(t, 1, refunded, "redelivered webhooks apply once")
}

func TestHandleWebhookBadSignature(t *testing.T) {
	f := newFixture(t)

	payload := webhookPayload(t, "evt_001", provider.EventTypeRefunded, "py_000001")
	err := f.payments.HandleWebhook(testCtx(), payload, "forged")
	assert.ErrorIs(t, err, provider.ErrInvalidSignature)
}

func TestHandleWebhookUnknownPayment(t *testing.T) {
	f := newFixture(t)

	payload := webhookPayload(t, "evt_404", provider.EventTypePaymentSucceeded, "py_999999")
	err := f.payments.HandleWebhook(testCtx(), payload, f.adapter.Sign(payload))
	assert.NoError(t, err, "unknown payment is recorded and skipped")
}
