package domain

import (
	"context"
	"errors"
)

type Service interface {
	GetPlan(ctx context.Context, id string) (*Plan, error)
	GetPrice(ctx context.Context, id string) (*Price, error)
	ListPlans(ctx context.Context) ([]Plan, error)
	ListPlanEntitlements(ctx context.Context, planID string) ([]PlanEntitlement, error)
	ListPlanLimits(ctx context.Context, planID string) ([]PlanLimit, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrPlanNotFound        = errors.New("plan_not_found")
	ErrPriceNotFound       = errors.New("price_not_found")
	ErrInactivePlan        = errors.New("inactive_plan")
	ErrInactivePrice       = errors.New("inactive_price")
)
