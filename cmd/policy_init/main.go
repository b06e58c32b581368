package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"riskPlanner/internal/adapters/policyfile"
	"riskPlanner/internal/domain"
)

// policy_init writes a starter policy document to disk. The generated file
// carries the classic "50% recovery, double target" day structure as a base to
// edit from.
func main() {
	out := flag.String("out", "policies/default.yaml", "where to write the starter policy")
	name := flag.String("name", "default", "policy name")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	if !*force {
		if _, err := os.Stat(*out); err == nil {
			log.Fatalf("FATAL: %s already exists (use -force to overwrite)", *out)
		}
	}

	weeklyPct := 6.0
	policy := &domain.RiskPolicy{
		Name:      *name,
		BaseTrade: domain.BaseTrade{RiskCents: 50000},
		RiskSizing: domain.RiskSizing{
			Kind:             domain.SizingPercentOfBalance,
			PercentOfBalance: &domain.PercentOfBalanceSizing{RiskPercent: 2},
		},
		LossRecovery: domain.LossRecovery{
			Sequence: []domain.RecoveryStep{
				{RiskCalculation: domain.RiskCalculation{Kind: domain.RiskCalcPercentOfBase, Percent: 50}},
			},
			StopAfterSequence: true,
		},
		GainMode: domain.GainMode{
			Kind:         domain.GainSingleTarget,
			SingleTarget: &domain.SingleTargetGain{DailyTargetCents: 100000},
		},
		CascadingLimits: domain.CascadingLimits{
			DailyLossCents:   100000,
			MonthlyLossCents: 1000000,
			Mode:             domain.LimitPercentOfInitial,
			PercentOfInitial: &domain.PercentOfInitialLimits{
				DailyPct:   3,
				WeeklyPct:  &weeklyPct,
				MonthlyPct: 10,
			},
		},
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("FATAL: Failed to create %s: %v", dir, err)
		}
	}
	if err := policyfile.Save(*out, policy); err != nil {
		log.Fatalf("FATAL: Failed to write policy: %v", err)
	}
	fmt.Printf("Wrote starter policy %q to %s\n", *name, *out)
}
