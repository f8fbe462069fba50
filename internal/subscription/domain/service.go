package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateSubscriptionRequest struct {
	CustomerID snowflake.ID
	PlanID     string
	PriceID    string
	// Quantity defaults to 1.
	Quantity int
	// TrialDays overrides the price's trial when non-nil.
	TrialDays   *int
	PromoCodeID string
	Metadata    map[string]any
}

// ProrationBehavior decides whether a mid-period plan change settles the
// price difference immediately.
type ProrationBehavior string

const (
	ProrationCreateProrations ProrationBehavior = "create_prorations"
	ProrationNone             ProrationBehavior = "none"
)

type ChangePlanRequest struct {
	SubscriptionID snowflake.ID
	PlanID         string
	PriceID        string
	// ProrationBehavior defaults to create_prorations.
	ProrationBehavior ProrationBehavior
}

type CancelRequest struct {
	SubscriptionID snowflake.ID
	// AtPeriodEnd schedules the cancellation for the period boundary instead
	// of cutting access now.
	AtPeriodEnd bool
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error)
	ChangePlan(ctx context.Context, req ChangePlanRequest) (*Subscription, error)
	Cancel(ctx context.Context, req CancelRequest) (*Subscription, error)
	Pause(ctx context.Context, subscriptionID snowflake.ID) (*Subscription, error)
	Resume(ctx context.Context, subscriptionID snowflake.ID) (*Subscription, error)
	// RetryPastDue runs one payment retry. Exhausting the retry budget moves
	// the subscription to its configured terminal-ish state.
	RetryPastDue(ctx context.Context, subscriptionID snowflake.ID) (*Subscription, error)
	// RolloverPeriod closes the current billing period and opens the next
	// one. A pending cancelAt inside the closing period wins over renewal.
	RolloverPeriod(ctx context.Context, subscriptionID snowflake.ID) (*Subscription, error)
	// ExpireIncomplete writes off a subscription that never completed its
	// first payment within the grace window.
	ExpireIncomplete(ctx context.Context, subscriptionID snowflake.ID) (*Subscription, error)
	Get(ctx context.Context, subscriptionID snowflake.ID) (*Subscription, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Subscription, error)

	FindDueForRollover(ctx context.Context, now time.Time) ([]Subscription, error)
	FindNeedingRetry(ctx context.Context, now time.Time) ([]Subscription, error)
	FindExpiredIncomplete(ctx context.Context, cutoff time.Time) ([]Subscription, error)
}

// ChargeInvoiceRequest asks the payment layer to collect an invoice.
type ChargeInvoiceRequest struct {
	CustomerID         snowflake.ID
	InvoiceID          snowflake.ID
	ProviderCustomerID string
	Amount             int64
	Currency           string
	Description        string
}

// Charger collects invoices. The payment layer provides the implementation.
type Charger interface {
	ChargeInvoice(ctx context.Context, req ChargeInvoiceRequest) error
}

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrInvalidPlanID         = errors.New("invalid_plan_id")
	ErrInvalidPriceID        = errors.New("invalid_price_id")
	ErrSubscriptionNotFound  = errors.New("subscription_not_found")
	ErrSubscriptionExists    = errors.New("subscription_already_exists")
	ErrInactivePlan          = errors.New("inactive_plan")
	ErrInactivePrice         = errors.New("inactive_price")
	ErrPriceMismatch         = errors.New("price_not_for_plan")
	ErrInvalidTransition     = errors.New("invalid_transition")
	ErrNotPastDue            = errors.New("subscription_not_past_due")
	ErrNotIncomplete         = errors.New("subscription_not_incomplete")
	ErrRolloverNotDue        = errors.New("rollover_not_due")
	ErrSamePrice             = errors.New("same_price")
)
