// Package provider defines the contract an external payment processor
// adapter must honor. The engine depends only on this interface; concrete
// adapters live outside the domain core. Amounts crossing this boundary are
// integer minor units; converting to a processor's own convention is the
// adapter's job.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidConfig    = errors.New("invalid_provider_config")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
)

// Error wraps a processor rejection or failure with enough detail for the
// caller to decide on messaging or retry. The domain engine never retries
// these blindly.
type Error struct {
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config is passed to a factory when instantiating an adapter for an org.
type Config struct {
	OrgID    snowflake.ID
	Livemode bool
	Config   map[string]any
}

type Customer struct {
	ID       string
	Email    string
	Name     string
	Metadata map[string]string
}

type CreateCustomerRequest struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type UpdateCustomerRequest struct {
	CustomerID string
	Email      string
	Name       string
	Metadata   map[string]string
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID       string
	Amount   int64
	Currency string
	Status   PaymentStatus
}

// CreatePaymentRequest carries an idempotency key so a client-side retry
// after a timeout cannot double-charge.
type CreatePaymentRequest struct {
	CustomerID     string
	Amount         int64
	Currency       string
	Description    string
	IdempotencyKey string
}

type RefundPaymentRequest struct {
	PaymentID      string
	Amount         int64
	IdempotencyKey string
}

type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID         string
	CustomerID string
	PriceID    string
	Status     SubscriptionStatus
}

type CreateSubscriptionRequest struct {
	CustomerID     string
	PriceID        string
	Quantity       int
	TrialDays      int
	IdempotencyKey string
}

type UpdateSubscriptionRequest struct {
	SubscriptionID    string
	PriceID           string
	Quantity          int
	ProrationBehavior string
}

type Price struct {
	ID            string
	Amount        int64
	Currency      string
	Interval      string
	IntervalCount int
}

type CreatePriceRequest struct {
	Amount        int64
	Currency      string
	Interval      string
	IntervalCount int
}

// Event is the canonical webhook event parsed by an adapter.
type Event struct {
	ID         string
	Type       string
	PaymentID  string
	Amount     int64
	Currency   string
	OccurredAt time.Time
	RawPayload []byte
}

// Webhook event types every adapter normalizes to.
const (
	EventTypePaymentSucceeded = "payment_succeeded"
	EventTypePaymentFailed    = "payment_failed"
	EventTypeRefunded         = "refunded"
)

// Provider is the full processor surface the engine consumes.
type Provider interface {
	Name() string

	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	UpdateCustomer(ctx context.Context, req UpdateCustomerRequest) (*Customer, error)

	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error)
	CapturePayment(ctx context.Context, paymentID string) (*Payment, error)
	CancelPayment(ctx context.Context, paymentID string) (*Payment, error)
	RefundPayment(ctx context.Context, req RefundPaymentRequest) (*Payment, error)
	RetrievePayment(ctx context.Context, paymentID string) (*Payment, error)

	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error)
	UpdateSubscription(ctx context.Context, req UpdateSubscriptionRequest) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	PauseSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	ResumeSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	CreatePrice(ctx context.Context, req CreatePriceRequest) (*Price, error)
	RetrievePrice(ctx context.Context, priceID string) (*Price, error)

	VerifySignature(payload []byte, signature string) bool
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

// Factory builds adapters for a named processor.
type Factory interface {
	Provider() string
	NewAdapter(cfg Config) (Provider, error)
}
