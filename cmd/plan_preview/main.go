package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"riskPlanner/config"
	"riskPlanner/internal/adapters/logger"
	"riskPlanner/internal/adapters/policyfile"
	"riskPlanner/internal/domain"
	"riskPlanner/internal/risk"
	"riskPlanner/internal/utils"
)

func main() {
	policyPath := flag.String("policy", "", "path to the policy document (defaults to POLICY_PATH)")
	balanceCents := flag.Int64("balance", 0, "account balance in cents (defaults to ACCOUNT_BALANCE_CENTS)")
	scenarioCSV := flag.String("scenarios-csv", "", "optional path to export the scenario table as CSV")
	situationCSV := flag.String("situations-csv", "", "optional path to export the trade sequence as CSV")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)

	path := *policyPath
	if path == "" {
		path = cfg.PolicyPath
	}
	balance := *balanceCents
	if balance == 0 {
		balance = cfg.AccountBalanceCents
	}

	// 3. Load and resolve the policy
	policy, err := policyfile.Load(path)
	if err != nil {
		appLogger.Error(context.Background(), err, "Failed to load policy", map[string]interface{}{"path": path})
		log.Fatalf("FATAL: Failed to load policy: %v", err)
	}

	eff := risk.Resolve(*policy, balance)
	situations := risk.BuildSituations(*policy, eff)
	tree := risk.BuildTree(situations, cfg.RewardRatio, policy.LossRecovery, policy.GainMode, eff.RiskCents, policy.LossRecovery.StopAfterSequence)
	summary := risk.Summarize(tree)

	fmt.Printf("Policy: %s (balance %s)\n\n", policy.Name, domain.FormatUSD(balance))

	fmt.Println("Effective values:")
	fmt.Printf("  Base risk:     %s\n", domain.FormatUSD(eff.RiskCents))
	fmt.Printf("  Daily loss:    %s\n", domain.FormatUSD(eff.DailyLossCents))
	if eff.WeeklyLossCents != nil {
		fmt.Printf("  Weekly loss:   %s\n", domain.FormatUSD(*eff.WeeklyLossCents))
	}
	fmt.Printf("  Monthly loss:  %s\n", domain.FormatUSD(eff.MonthlyLossCents))
	if eff.DailyProfitTargetCents != nil {
		fmt.Printf("  Daily target:  %s\n", domain.FormatUSD(*eff.DailyProfitTargetCents))
	}

	fmt.Println("\nWorst-case trade sequence:")
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  trade\trisk\tlabel\tworst case total")
	for _, s := range situations {
		fmt.Fprintf(tw, "  T%d\t%s\t%s\t%s\n",
			s.TradeNumber, domain.FormatUSD(s.RiskCents), s.RiskLabel, domain.FormatUSD(s.WorstCaseTotalCents))
	}
	tw.Flush()

	fmt.Println("\nOutcome tree:")
	printTree(tree.Root, "")

	fmt.Println("\nScenarios:")
	tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  path\tprobability\ttotal\tstatus")
	for _, row := range summary.Rows {
		fmt.Fprintf(tw, "  %s\t%.4f\t%s\t%s\n",
			row.PathPattern, row.Probability, domain.FormatUSD(row.TotalPnlCents), row.Status)
	}
	tw.Flush()

	fmt.Printf("\nExpected value: %s\n", domain.FormatUSD(summary.ExpectedValueCents))
	fmt.Printf("Best case:      %s\n", domain.FormatUSD(summary.BestCaseCents))
	fmt.Printf("Worst case:     %s\n", domain.FormatUSD(summary.WorstCaseCents))
	fmt.Printf("P(profit):      %.4f\n", summary.ProfitProbability)
	fmt.Printf("P(loss):        %.4f\n", summary.LossProbability)
	if summary.UnresolvedProbability > 0 {
		fmt.Printf("P(unresolved):  %.4f\n", summary.UnresolvedProbability)
	}

	if *situationCSV != "" || *scenarioCSV != "" {
		fmt.Println()
	}
	if *scenarioCSV != "" {
		if err := utils.WriteScenariosToCSV(summary.Rows, *scenarioCSV); err != nil {
			log.Fatalf("FATAL: Failed to write scenario CSV: %v", err)
		}
		fmt.Printf("Scenario table written to %s\n", *scenarioCSV)
	}
	if *situationCSV != "" {
		if err := utils.WriteSituationsToCSV(situations, *situationCSV); err != nil {
			log.Fatalf("FATAL: Failed to write situations CSV: %v", err)
		}
		fmt.Printf("Trade sequence written to %s\n", *situationCSV)
	}
}

// printTree writes an indented outline of the outcome tree, loss branch first.
func printTree(node *domain.TreeNode, indent string) {
	if node == nil {
		return
	}
	if node.IsLeaf() {
		fmt.Printf("%s[%s] %s p=%.4f (%s)\n",
			indent, node.PathPattern, domain.FormatUSD(node.TotalPnlCents), node.Probability, node.Status)
		return
	}
	fmt.Printf("%sT%d risk %s\n", indent, node.TradeNumber, domain.FormatUSD(node.RiskCents))
	printTree(node.Loss, indent+"  ")
	printTree(node.Gain, indent+"  ")
}
