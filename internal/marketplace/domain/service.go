package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateVendorRequest struct {
	Name           string
	Email          string
	DefaultPercent float64
	// PayoutSchedule defaults to monthly.
	PayoutSchedule   PayoutSchedule
	ProviderAccounts map[string]string
	Metadata         map[string]any
}

type SchedulePayoutRequest struct {
	VendorID    snowflake.ID
	PaymentID   *snowflake.ID
	Amount      int64
	Currency    string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// SettlePaymentRequest splits one settled payment across vendors and
// schedules the resulting payouts.
type SettlePaymentRequest struct {
	PaymentID        *snowflake.ID
	Total            int64
	Currency         string
	AffiliatePercent float64
	ReferralPercent  float64
	Splits           []Split
	PlatformPercent  float64
	MinPlatformFee   int64
}

type Service interface {
	CreateVendor(ctx context.Context, req CreateVendorRequest) (*Vendor, error)
	GetVendor(ctx context.Context, vendorID snowflake.ID) (*Vendor, error)
	// ActivateVendor makes a pending or suspended vendor payable. A vendor
	// without a configured provider account cannot be activated.
	ActivateVendor(ctx context.Context, vendorID snowflake.ID) (*Vendor, error)
	SuspendVendor(ctx context.Context, vendorID snowflake.ID) (*Vendor, error)

	// SettlePayment computes the revenue share for a payment and schedules
	// one payout per vendor share.
	SettlePayment(ctx context.Context, req SettlePaymentRequest) (*RevenueShareResult, []VendorPayout, error)
	SchedulePayout(ctx context.Context, req SchedulePayoutRequest) (*VendorPayout, error)
	// MarkPayoutProcessing records that the payout was handed to the
	// processor, keyed by its payout ID there.
	MarkPayoutProcessing(ctx context.Context, payoutID snowflake.ID, providerPayoutID string) (*VendorPayout, error)
	MarkPayoutPaid(ctx context.Context, payoutID snowflake.ID) (*VendorPayout, error)
	MarkPayoutFailed(ctx context.Context, payoutID snowflake.ID, reason string) (*VendorPayout, error)
	ListPayoutsByVendor(ctx context.Context, vendorID snowflake.ID) ([]VendorPayout, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrMissingName         = errors.New("missing_name")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrMissingCurrency     = errors.New("missing_currency")
	ErrVendorNotFound      = errors.New("vendor_not_found")
	ErrVendorInactive      = errors.New("vendor_inactive")
	ErrNoProviderAccount   = errors.New("no_provider_account")
	ErrPayoutNotFound      = errors.New("payout_not_found")
	ErrPayoutSettled       = errors.New("payout_already_settled")
	ErrPayoutNotScheduled  = errors.New("payout_not_scheduled")
)
