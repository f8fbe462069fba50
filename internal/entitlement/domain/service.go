package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type GrantRequest struct {
	CustomerID snowflake.ID
	Key        string
	Source     string
	ExpiresAt  *time.Time
}

type SetLimitRequest struct {
	CustomerID snowflake.ID
	Key        string
	MaxValue   int64
}

// LimitStatus is the answer to a limit check. Remaining is -1 when the
// ceiling is unlimited.
type LimitStatus struct {
	Allowed      bool
	CurrentValue int64
	MaxValue     int64
	Remaining    int64
}

type Service interface {
	Grant(ctx context.Context, req GrantRequest) (*Entitlement, error)
	Revoke(ctx context.Context, customerID snowflake.ID, key string) error
	// RevokeBySource removes every grant attached to the source and reports
	// how many were removed.
	RevokeBySource(ctx context.Context, customerID snowflake.ID, source string) (int64, error)
	Check(ctx context.Context, customerID snowflake.ID, key string) (bool, error)
	ListActive(ctx context.Context, customerID snowflake.ID) ([]Entitlement, error)

	SetLimit(ctx context.Context, req SetLimitRequest) (*Limit, error)
	// Increment adds delta to the counter iff the result stays within the
	// ceiling. The check and the write are one atomic statement.
	Increment(ctx context.Context, customerID snowflake.ID, key string, delta int64) (*Limit, error)
	CheckLimit(ctx context.Context, customerID snowflake.ID, key string) (*LimitStatus, error)
	ResetLimits(ctx context.Context, customerID snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrMissingKey          = errors.New("missing_key")
	ErrMissingSource       = errors.New("missing_source")
	ErrInvalidDelta        = errors.New("invalid_delta")
	ErrEntitlementNotFound = errors.New("entitlement_not_found")
	ErrLimitNotFound       = errors.New("limit_not_found")
	ErrLimitExceeded       = errors.New("limit_exceeded")
)
