// Package events is the typed publish/subscribe bus tying domain mutations
// to observable side effects.
package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Type identifies a domain event. The set is closed: every type maps to
// exactly one payload struct below.
type Type string

const (
	TypeCustomerCreated Type = "customer.created"
	TypeCustomerUpdated Type = "customer.updated"
	TypeCustomerDeleted Type = "customer.deleted"

	TypeSubscriptionCreated  Type = "subscription.created"
	TypeSubscriptionUpdated  Type = "subscription.updated"
	TypeSubscriptionCanceled Type = "subscription.canceled"
	TypeSubscriptionPaused   Type = "subscription.paused"
	TypeSubscriptionResumed  Type = "subscription.resumed"
	TypeSubscriptionPastDue  Type = "subscription.past_due"

	TypeBillingPeriodStarted Type = "billing.period.started"

	TypeInvoiceCreated Type = "invoice.created"
	TypeInvoicePaid    Type = "invoice.paid"
	TypeInvoiceVoided  Type = "invoice.voided"

	TypePaymentSucceeded Type = "payment.succeeded"
	TypePaymentFailed    Type = "payment.failed"
	TypePaymentRefunded  Type = "payment.refunded"

	TypeEntitlementGranted Type = "entitlement.granted"
	TypeEntitlementRevoked Type = "entitlement.revoked"
	TypeLimitExceeded      Type = "limit.exceeded"

	TypeVendorPayoutScheduled Type = "vendor.payout.scheduled"
	TypeVendorPayoutPaid      Type = "vendor.payout.paid"
	TypeVendorPayoutFailed    Type = "vendor.payout.failed"
)

// Payload is implemented by every event payload in the closed set.
type Payload interface {
	EventType() Type
}

type CustomerCreated struct {
	CustomerID snowflake.ID
	Email      string
	Livemode   bool
}

type CustomerUpdated struct {
	CustomerID snowflake.ID
}

type CustomerDeleted struct {
	CustomerID snowflake.ID
}

type SubscriptionCreated struct {
	SubscriptionID snowflake.ID
	CustomerID     snowflake.ID
	PlanID         snowflake.ID
	PriceID        snowflake.ID
	Status         string
}

type SubscriptionUpdated struct {
	SubscriptionID snowflake.ID
	CustomerID     snowflake.ID
	Status         string
}

type SubscriptionCanceled struct {
	SubscriptionID snowflake.ID
	CustomerID     snowflake.ID
	CanceledAt     time.Time
}

type SubscriptionPaused struct {
	SubscriptionID snowflake.ID
	CustomerID     snowflake.ID
}

type SubscriptionResumed struct {
	SubscriptionID snowflake.ID
	CustomerID     snowflake.ID
}

type SubscriptionPastDue struct {
	SubscriptionID snowflake.ID
	CustomerID     snowflake.ID
	RetryCount     int
	NextRetryAt    *time.Time
}

type BillingPeriodStarted struct {
	SubscriptionID snowflake.ID
	CustomerID     snowflake.ID
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

type InvoiceCreated struct {
	InvoiceID  snowflake.ID
	CustomerID snowflake.ID
	Total      int64
	Currency   string
}

type InvoicePaid struct {
	InvoiceID  snowflake.ID
	CustomerID snowflake.ID
	AmountPaid int64
	Currency   string
}

type InvoiceVoided struct {
	InvoiceID  snowflake.ID
	CustomerID snowflake.ID
}

type PaymentSucceeded struct {
	PaymentID  snowflake.ID
	InvoiceID  snowflake.ID
	CustomerID snowflake.ID
	Amount     int64
	Currency   string
}

type PaymentFailed struct {
	PaymentID  snowflake.ID
	InvoiceID  snowflake.ID
	CustomerID snowflake.ID
	Amount     int64
	Currency   string
	Reason     string
}

type PaymentRefunded struct {
	PaymentID  snowflake.ID
	CustomerID snowflake.ID
	Amount     int64
	Currency   string
}

type EntitlementGranted struct {
	CustomerID snowflake.ID
	Key        string
	Source     string
	ExpiresAt  *time.Time
}

type EntitlementRevoked struct {
	CustomerID snowflake.ID
	Key        string
}

type LimitExceeded struct {
	CustomerID   snowflake.ID
	Key          string
	CurrentValue int64
	MaxValue     int64
}

type VendorPayoutScheduled struct {
	PayoutID snowflake.ID
	VendorID snowflake.ID
	Amount   int64
	Currency string
}

type VendorPayoutPaid struct {
	PayoutID snowflake.ID
	VendorID snowflake.ID
	Amount   int64
	Currency string
}

type VendorPayoutFailed struct {
	PayoutID snowflake.ID
	VendorID snowflake.ID
	Reason   string
}

func (CustomerCreated) EventType() Type       { return TypeCustomerCreated }
func (CustomerUpdated) EventType() Type       { return TypeCustomerUpdated }
func (CustomerDeleted) EventType() Type       { return TypeCustomerDeleted }
func (SubscriptionCreated) EventType() Type   { return TypeSubscriptionCreated }
func (SubscriptionUpdated) EventType() Type   { return TypeSubscriptionUpdated }
func (SubscriptionCanceled) EventType() Type  { return TypeSubscriptionCanceled }
func (SubscriptionPaused) EventType() Type    { return TypeSubscriptionPaused }
func (SubscriptionResumed) EventType() Type   { return TypeSubscriptionResumed }
func (SubscriptionPastDue) EventType() Type   { return TypeSubscriptionPastDue }
func (BillingPeriodStarted) EventType() Type  { return TypeBillingPeriodStarted }
func (InvoiceCreated) EventType() Type        { return TypeInvoiceCreated }
func (InvoicePaid) EventType() Type           { return TypeInvoicePaid }
func (InvoiceVoided) EventType() Type         { return TypeInvoiceVoided }
func (PaymentSucceeded) EventType() Type      { return TypePaymentSucceeded }
func (PaymentFailed) EventType() Type         { return TypePaymentFailed }
func (PaymentRefunded) EventType() Type       { return TypePaymentRefunded }
func (EntitlementGranted) EventType() Type    { return TypeEntitlementGranted }
func (EntitlementRevoked) EventType() Type    { return TypeEntitlementRevoked }
func (LimitExceeded) EventType() Type         { return TypeLimitExceeded }
func (VendorPayoutScheduled) EventType() Type { return TypeVendorPayoutScheduled }
func (VendorPayoutPaid) EventType() Type      { return TypeVendorPayoutPaid }
func (VendorPayoutFailed) EventType() Type    { return TypeVendorPayoutFailed }
