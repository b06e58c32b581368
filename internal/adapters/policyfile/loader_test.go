package policyfile

import (
	"os"
	"path/filepath"
	"testing"

	"riskPlanner/internal/domain"
	"riskPlanner/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlPolicy = `
name: conservative
base_trade:
  risk_cents: 50000
risk_sizing:
  kind: percent_of_balance
  percent_of_balance:
    risk_percent: 2
loss_recovery:
  sequence:
    - risk_calculation:
        kind: percent_of_base
        percent: 50
  stop_after_sequence: true
gain_mode:
  kind: single_target
  single_target:
    daily_target_cents: 100000
cascading_limits:
  daily_loss_cents: 100000
  monthly_loss_cents: 500000
  mode: absolute
`

const jsonPolicy = `{
  "name": "aggressive",
  "base_trade": {"risk_cents": 25000},
  "risk_sizing": {"kind": "fixed"},
  "loss_recovery": {"sequence": []},
  "gain_mode": {
    "kind": "compounding",
    "compounding": {"reinvestment_percent": 100, "stop_on_first_loss": true}
  },
  "cascading_limits": {
    "daily_loss_cents": 50000,
    "monthly_loss_cents": 200000,
    "mode": "absolute"
  }
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	policy, err := Load(writeTemp(t, "policy.yaml", yamlPolicy))
	require.NoError(t, err)

	assert.Equal(t, "conservative", policy.Name)
	assert.Equal(t, int64(50000), policy.BaseTrade.RiskCents)
	require.NotNil(t, policy.RiskSizing.PercentOfBalance)
	assert.Equal(t, 2.0, policy.RiskSizing.PercentOfBalance.RiskPercent)
	require.Len(t, policy.LossRecovery.Sequence, 1)
	assert.True(t, policy.LossRecovery.StopAfterSequence)
	require.NotNil(t, policy.GainMode.SingleTarget)
	assert.Equal(t, int64(100000), policy.GainMode.SingleTarget.DailyTargetCents)
}

func TestLoad_JSON(t *testing.T) {
	policy, err := Load(writeTemp(t, "policy.json", jsonPolicy))
	require.NoError(t, err)

	assert.Equal(t, "aggressive", policy.Name)
	assert.Equal(t, domain.GainCompounding, policy.GainMode.Kind)
	require.NotNil(t, policy.GainMode.Compounding)
	assert.True(t, policy.GainMode.Compounding.StopOnFirstLoss)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeTemp(t, "policy.yaml", "base_trade: ["))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrPolicyMalformed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *domain.RiskPolicy {
		return &domain.RiskPolicy{
			Name:      "p",
			BaseTrade: domain.BaseTrade{RiskCents: 50000},
			RiskSizing: domain.RiskSizing{
				Kind:             domain.SizingPercentOfBalance,
				PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: 2},
			},
			GainMode: domain.GainMode{
				Kind:         domain.GainSingleTarget,
				SingleTarget: &domain.SingleTargetGain{DailyTargetCents: 100000},
			},
			CascadingLimits: domain.CascadingLimits{
				DailyLossCents:   100000,
				MonthlyLossCents: 500000,
				Mode:             domain.LimitAbsolute,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *domain.RiskPolicy)
		wantErr bool
	}{
		{name: "valid policy", mutate: func(p *domain.RiskPolicy) {}},
		{
			name:    "zero base risk",
			mutate:  func(p *domain.RiskPolicy) { p.BaseTrade.RiskCents = 0 },
			wantErr: true,
		},
		{
			name:    "missing sizing payload",
			mutate:  func(p *domain.RiskPolicy) { p.RiskSizing.PercentOfBalance = nil },
			wantErr: true,
		},
		{
			name:    "risk percent over 100",
			mutate:  func(p *domain.RiskPolicy) { p.RiskSizing.PercentOfBalance.RiskPercent = 150 },
			wantErr: true,
		},
		{
			name:    "unknown sizing kind",
			mutate:  func(p *domain.RiskPolicy) { p.RiskSizing.Kind = "martingale" },
			wantErr: true,
		},
		{
			name: "recovery step with zero percent",
			mutate: func(p *domain.RiskPolicy) {
				p.LossRecovery.Sequence = []domain.RecoveryStep{
					{RiskCalculation: domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 0}},
				}
			},
			wantErr: true,
		},
		{
			name: "recovery step same as previous needs no payload",
			mutate: func(p *domain.RiskPolicy) {
				p.LossRecovery.Sequence = []domain.RecoveryStep{
					{RiskCalculation: domain.RiskCalculation{Kind: domain.RiskCalcSameAsPrevious}},
				}
			},
		},
		{
			name:    "missing gain payload",
			mutate:  func(p *domain.RiskPolicy) { p.GainMode.SingleTarget = nil },
			wantErr: true,
		},
		{
			name: "compounding reinvestment over 100",
			mutate: func(p *domain.RiskPolicy) {
				p.GainMode = domain.GainMode{
					Kind:        domain.GainCompounding,
					Compounding: &domain.CompoundingGain{ReinvestmentPercent: 120},
				}
			},
			wantErr: true,
		},
		{
			name:    "negative daily loss limit",
			mutate:  func(p *domain.RiskPolicy) { p.CascadingLimits.DailyLossCents = -1 },
			wantErr: true,
		},
		{
			name: "zero max contracts",
			mutate: func(p *domain.RiskPolicy) {
				zero := 0
				p.ExecutionConstraints.MaxContracts = &zero
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := valid()
			tt.mutate(policy)
			err := Validate(policy)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ports.ErrPolicyInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	original, err := Load(writeTemp(t, "policy.yaml", yamlPolicy))
	require.NoError(t, err)
	require.NoError(t, Save(path, original))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, reloaded)
}
