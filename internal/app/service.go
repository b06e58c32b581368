package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"riskPlanner/config"
	"riskPlanner/internal/domain"
	"riskPlanner/internal/ports"
	"riskPlanner/internal/risk"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// PlanPreview bundles everything derived from one (policy, balance) pair: the
// effective values, the worst-case situation sequence, the outcome tree, and
// its scenario summary.
type PlanPreview struct {
	PolicyName          string                  `json:"policy_name"`
	AccountBalanceCents int64                   `json:"account_balance_cents"`
	Effective           domain.EffectiveValues  `json:"effective"`
	Situations          []domain.TradeSituation `json:"situations"`
	Tree                *domain.Tree            `json:"tree"`
	Summary             risk.ScenarioSummary    `json:"summary"`
	Layout              []risk.PositionedNode   `json:"layout"`
}

// previewKey identifies a memoized preview. Policies are compared by their
// canonical JSON encoding; the engine is deterministic, so equal inputs always
// produce the same preview.
type previewKey struct {
	policyJSON string
	balance    int64
}

// PlannerService orchestrates the planning workflow: resolving policies
// against an account balance, building previews, and committing plan records.
type PlannerService struct {
	cfg        *config.Config
	logger     ports.Logger
	policyRepo ports.PolicyRepository
	planRepo   ports.PlanRepository
	exchange   ports.ExchangeClient // optional; nil means manual balance only

	mu       sync.Mutex // Protects the preview cache
	previews map[previewKey]*PlanPreview
}

// NewPlannerService creates a new application service instance. The exchange
// client may be nil; the service then sizes plans against the configured
// balance override.
func NewPlannerService(
	cfg *config.Config,
	logger ports.Logger,
	policyRepo ports.PolicyRepository,
	planRepo ports.PlanRepository,
	exchange ports.ExchangeClient,
) (*PlannerService, error) {
	if cfg == nil || logger == nil || policyRepo == nil || planRepo == nil {
		return nil, fmt.Errorf("missing required dependencies for PlannerService")
	}
	if cfg.RewardRatio <= 0 {
		return nil, fmt.Errorf("configuration RewardRatio must be positive")
	}

	return &PlannerService{
		cfg:        cfg,
		logger:     logger,
		policyRepo: policyRepo,
		planRepo:   planRepo,
		exchange:   exchange,
		previews:   make(map[previewKey]*PlanPreview),
	}, nil
}

// AccountBalanceCents returns the balance the plan should be sized against.
// With an exchange client wired it queries the quote asset's wallet balance;
// otherwise it falls back to the configured override.
func (s *PlannerService) AccountBalanceCents(ctx context.Context) (int64, error) {
	if s.exchange == nil {
		return s.cfg.AccountBalanceCents, nil
	}

	balance, err := s.exchange.GetAccountBalance(ctx, s.cfg.QuoteAsset)
	if err != nil {
		return 0, fmt.Errorf("fetching %s balance: %w", s.cfg.QuoteAsset, err)
	}
	cents := domain.RoundCents(balance * 100)
	s.logger.Debug(ctx, "fetched account balance", map[string]interface{}{
		"asset":        s.cfg.QuoteAsset,
		"balanceCents": cents,
	})
	return cents, nil
}

// Preview resolves the policy against the balance and builds the full outcome
// preview. Results are memoized per (policy, balance) pair; the engine is a
// pure function of its inputs.
func (s *PlannerService) Preview(ctx context.Context, policy *domain.RiskPolicy, balanceCents int64) (*PlanPreview, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: policy is required", ports.ErrInvalidRequest)
	}

	key, err := makePreviewKey(policy, balanceCents)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if cached, ok := s.previews[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	eff := risk.Resolve(*policy, balanceCents)
	situations := risk.BuildSituations(*policy, eff)
	tree := risk.BuildTree(
		situations,
		s.cfg.RewardRatio,
		policy.LossRecovery,
		policy.GainMode,
		eff.RiskCents,
		policy.LossRecovery.StopAfterSequence,
	)
	preview := &PlanPreview{
		PolicyName:          policy.Name,
		AccountBalanceCents: balanceCents,
		Effective:           eff,
		Situations:          situations,
		Tree:                tree,
		Summary:             risk.Summarize(tree),
		Layout:              risk.LayoutTree(tree, risk.LayoutOptions{}),
	}

	s.logger.Info(ctx, "built plan preview", map[string]interface{}{
		"policy":       policy.Name,
		"balanceCents": balanceCents,
		"leafCount":    preview.Summary.LeafCount,
		"maxDepth":     preview.Summary.MaxDepth,
	})

	s.mu.Lock()
	s.previews[key] = preview
	s.mu.Unlock()
	return preview, nil
}

// FindPolicy returns the stored policy with the given name.
func (s *PlannerService) FindPolicy(ctx context.Context, name string) (*domain.StoredPolicy, error) {
	stored, err := s.policyRepo.FindPolicyByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: policy %q", ports.ErrNotFound, name)
	}
	return stored, nil
}

// PreviewStored builds a preview for a policy saved in the repository,
// addressed by name.
func (s *PlannerService) PreviewStored(ctx context.Context, name string, balanceCents int64) (*PlanPreview, error) {
	stored, err := s.FindPolicy(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Preview(ctx, &stored.Policy, balanceCents)
}

// CommitPlan builds a preview and persists it as a plan record. The record
// carries both the effective cents values and their percentages of the
// balance, so the plan's proportions survive later balance changes.
func (s *PlannerService) CommitPlan(ctx context.Context, policy *domain.RiskPolicy, balanceCents int64) (*domain.PlanRecord, error) {
	preview, err := s.Preview(ctx, policy, balanceCents)
	if err != nil {
		return nil, err
	}

	eff := preview.Effective
	record := &domain.PlanRecord{
		ID:                  ulid.Make().String(),
		PolicyName:          policy.Name,
		AccountBalanceCents: balanceCents,

		RiskCents:              eff.RiskCents,
		DailyLossCents:         eff.DailyLossCents,
		WeeklyLossCents:        eff.WeeklyLossCents,
		MonthlyLossCents:       eff.MonthlyLossCents,
		DailyProfitTargetCents: eff.DailyProfitTargetCents,

		RiskPercent:        percentOfBalance(eff.RiskCents, balanceCents),
		DailyLossPercent:   percentOfBalance(eff.DailyLossCents, balanceCents),
		MonthlyLossPercent: percentOfBalance(eff.MonthlyLossCents, balanceCents),

		ExpectedValueCents: preview.Summary.ExpectedValueCents,
		WorstCaseCents:     preview.Summary.WorstCaseCents,
		LeafCount:          preview.Summary.LeafCount,
		CreatedAt:          time.Now().UTC(),
	}
	if eff.WeeklyLossCents != nil {
		pct := percentOfBalance(*eff.WeeklyLossCents, balanceCents)
		record.WeeklyLossPercent = &pct
	}
	if eff.DailyProfitTargetCents != nil {
		pct := percentOfBalance(*eff.DailyProfitTargetCents, balanceCents)
		record.DailyProfitTargetPercent = &pct
	}

	if err := s.planRepo.CreatePlan(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting plan: %w", err)
	}

	s.logger.Info(ctx, "committed plan", map[string]interface{}{
		"planID":       record.ID,
		"policy":       record.PolicyName,
		"riskCents":    record.RiskCents,
		"balanceCents": balanceCents,
	})
	return record, nil
}

// RecentPlans returns the most recently committed plans, newest first.
func (s *PlannerService) RecentPlans(ctx context.Context, limit int) ([]*domain.PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.planRepo.FindRecentPlans(ctx, limit)
}

// StorePolicy saves a policy under its name, replacing any existing document
// with the same name.
func (s *PlannerService) StorePolicy(ctx context.Context, policy *domain.RiskPolicy) (int64, error) {
	if policy == nil || policy.Name == "" {
		return 0, fmt.Errorf("%w: policy with a name is required", ports.ErrInvalidRequest)
	}

	existing, err := s.policyRepo.FindPolicyByName(ctx, policy.Name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if err := s.policyRepo.UpdatePolicy(ctx, existing.ID, policy); err != nil {
			return 0, err
		}
		return existing.ID, nil
	}
	return s.policyRepo.CreatePolicy(ctx, policy.Name, policy)
}

// ListPolicies returns all stored policies, newest first.
func (s *PlannerService) ListPolicies(ctx context.Context) ([]*domain.StoredPolicy, error) {
	return s.policyRepo.FindAllPolicies(ctx)
}

func makePreviewKey(policy *domain.RiskPolicy, balanceCents int64) (previewKey, error) {
	encoded, err := json.Marshal(policy)
	if err != nil {
		return previewKey{}, fmt.Errorf("encoding policy for preview key: %w", err)
	}
	return previewKey{policyJSON: string(encoded), balance: balanceCents}, nil
}

// percentOfBalance converts a cents amount into a percentage of the balance.
// Decimal arithmetic keeps the stored percentages exact for round inputs
// instead of accumulating float noise.
func percentOfBalance(cents, balanceCents int64) float64 {
	if balanceCents <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(balanceCents)).
		Float64()
	return pct
}
