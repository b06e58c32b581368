package policyfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"riskPlanner/internal/domain"
	"riskPlanner/internal/ports"

	"gopkg.in/yaml.v3"
)

// Load reads a policy document from disk. Files ending in .json are parsed as
// JSON; everything else is parsed as YAML (which also accepts JSON input).
// The returned policy has passed boundary validation.
func Load(path string) (*domain.RiskPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}

	var policy domain.RiskPolicy
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &policy); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrPolicyMalformed, path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &policy); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrPolicyMalformed, path, err)
		}
	}

	if err := Validate(&policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Validate checks the structural constraints a policy document must satisfy
// before the engine is allowed to see it. The engine itself only guards
// numeric edge cases, so anything it would silently misread is rejected here.
func Validate(policy *domain.RiskPolicy) error {
	if policy == nil {
		return fmt.Errorf("%w: policy is nil", ports.ErrPolicyInvalid)
	}
	if policy.BaseTrade.RiskCents <= 0 {
		return fmt.Errorf("%w: base_trade.risk_cents must be positive, got %d", ports.ErrPolicyInvalid, policy.BaseTrade.RiskCents)
	}

	switch policy.RiskSizing.Kind {
	case domain.SizingFixed, "":
		// No payload required.
	case domain.SizingPercentOfBalance:
		p := policy.RiskSizing.PercentOfBalance
		if p == nil {
			return fmt.Errorf("%w: risk_sizing.percent_of_balance payload is required", ports.ErrPolicyInvalid)
		}
		if p.RiskPercent <= 0 || p.RiskPercent > 100 {
			return fmt.Errorf("%w: risk_sizing risk_percent must be in (0, 100], got %v", ports.ErrPolicyInvalid, p.RiskPercent)
		}
	case domain.SizingFixedRatio:
		if policy.RiskSizing.FixedRatio == nil {
			return fmt.Errorf("%w: risk_sizing.fixed_ratio payload is required", ports.ErrPolicyInvalid)
		}
	case domain.SizingKellyFractional:
		// Accepted without a payload; the resolver falls back to the stored base.
	default:
		return fmt.Errorf("%w: unknown risk_sizing kind %q", ports.ErrPolicyInvalid, policy.RiskSizing.Kind)
	}

	for i, step := range policy.LossRecovery.Sequence {
		calc := step.RiskCalculation
		switch calc.Kind {
		case domain.RiskCalcPercentOfBase:
			if calc.Percent <= 0 || calc.Percent > 100 {
				return fmt.Errorf("%w: loss_recovery step %d percent must be in (0, 100], got %v", ports.ErrPolicyInvalid, i+1, calc.Percent)
			}
		case domain.RiskCalcFixedCents:
			if calc.AmountCents <= 0 {
				return fmt.Errorf("%w: loss_recovery step %d amount_cents must be positive, got %d", ports.ErrPolicyInvalid, i+1, calc.AmountCents)
			}
		case domain.RiskCalcSameAsPrevious:
			// No payload.
		default:
			return fmt.Errorf("%w: loss_recovery step %d has unknown risk calculation kind %q", ports.ErrPolicyInvalid, i+1, calc.Kind)
		}
	}

	switch policy.GainMode.Kind {
	case domain.GainCompounding:
		c := policy.GainMode.Compounding
		if c == nil {
			return fmt.Errorf("%w: gain_mode.compounding payload is required", ports.ErrPolicyInvalid)
		}
		if c.ReinvestmentPercent < 0 || c.ReinvestmentPercent > 100 {
			return fmt.Errorf("%w: gain_mode reinvestment_percent must be in [0, 100], got %v", ports.ErrPolicyInvalid, c.ReinvestmentPercent)
		}
		if c.DailyTargetCents != nil && *c.DailyTargetCents <= 0 {
			return fmt.Errorf("%w: gain_mode daily_target_cents must be positive when set", ports.ErrPolicyInvalid)
		}
	case domain.GainSingleTarget:
		s := policy.GainMode.SingleTarget
		if s == nil {
			return fmt.Errorf("%w: gain_mode.single_target payload is required", ports.ErrPolicyInvalid)
		}
		if s.DailyTargetCents <= 0 {
			return fmt.Errorf("%w: gain_mode daily_target_cents must be positive, got %d", ports.ErrPolicyInvalid, s.DailyTargetCents)
		}
	case "":
		// Tree builder treats a missing gain mode as unresolved continuation.
	default:
		return fmt.Errorf("%w: unknown gain_mode kind %q", ports.ErrPolicyInvalid, policy.GainMode.Kind)
	}

	limits := policy.CascadingLimits
	if limits.DailyLossCents < 0 || limits.MonthlyLossCents < 0 {
		return fmt.Errorf("%w: cascading_limits loss amounts must not be negative", ports.ErrPolicyInvalid)
	}
	if limits.WeeklyLossCents != nil && *limits.WeeklyLossCents < 0 {
		return fmt.Errorf("%w: cascading_limits weekly_loss_cents must not be negative", ports.ErrPolicyInvalid)
	}
	switch limits.Mode {
	case domain.LimitAbsolute, "":
	case domain.LimitPercentOfInitial:
		if p := limits.PercentOfInitial; p != nil && (p.DailyPct < 0 || p.MonthlyPct < 0) {
			return fmt.Errorf("%w: cascading_limits percentages must not be negative", ports.ErrPolicyInvalid)
		}
	case domain.LimitRMultiples:
		if r := limits.RMultiples; r != nil && (r.DailyR < 0 || r.MonthlyR < 0) {
			return fmt.Errorf("%w: cascading_limits r-multiples must not be negative", ports.ErrPolicyInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown cascading_limits mode %q", ports.ErrPolicyInvalid, limits.Mode)
	}

	if ec := policy.ExecutionConstraints; ec.MaxContracts != nil && *ec.MaxContracts <= 0 {
		return fmt.Errorf("%w: execution_constraints.max_contracts must be positive when set", ports.ErrPolicyInvalid)
	}

	return nil
}

// Save writes a policy document to disk, choosing the encoding from the file
// extension the same way Load does.
func Save(path string, policy *domain.RiskPolicy) error {
	if err := Validate(policy); err != nil {
		return err
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(policy, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = yaml.Marshal(policy)
	}
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write policy file %s: %w", path, err)
	}
	return nil
}
