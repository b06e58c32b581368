package ports

import (
	"context"

	"riskPlanner/internal/domain"
)

// PolicyRepository defines the interface for storing and retrieving risk
// policies. Policies are stored as whole documents; the engine never mutates
// them.
type PolicyRepository interface {
	// CreatePolicy saves a new policy and returns its assigned ID.
	CreatePolicy(ctx context.Context, name string, policy *domain.RiskPolicy) (int64, error)
	// UpdatePolicy replaces the document stored under the given ID.
	UpdatePolicy(ctx context.Context, id int64, policy *domain.RiskPolicy) error
	// FindPolicyByID retrieves a stored policy by its unique ID.
	// Returns nil, nil if not found.
	FindPolicyByID(ctx context.Context, id int64) (*domain.StoredPolicy, error)
	// FindPolicyByName retrieves the most recently updated policy with the
	// given name. Returns nil, nil if not found.
	FindPolicyByName(ctx context.Context, name string) (*domain.StoredPolicy, error)
	// FindAllPolicies retrieves all stored policies, newest first.
	FindAllPolicies(ctx context.Context) ([]*domain.StoredPolicy, error)
	// DeletePolicy removes a stored policy.
	DeletePolicy(ctx context.Context, id int64) error
}

// PlanRepository defines the interface for storing committed plan records.
type PlanRepository interface {
	// CreatePlan saves a plan record. The record's ID must already be set.
	CreatePlan(ctx context.Context, plan *domain.PlanRecord) error
	// FindPlanByID retrieves a plan record by its ID.
	// Returns nil, nil if not found.
	FindPlanByID(ctx context.Context, id string) (*domain.PlanRecord, error)
	// FindRecentPlans retrieves the most recently committed plans, up to a limit.
	FindRecentPlans(ctx context.Context, limit int) ([]*domain.PlanRecord, error)
}
