package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"riskPlanner/config"
	"riskPlanner/internal/adapters/logger"
	"riskPlanner/internal/adapters/policyfile"
	"riskPlanner/internal/adapters/sqlite"
	"riskPlanner/internal/app"
	"riskPlanner/internal/domain"
)

func main() {
	policyPath := flag.String("policy", "", "path to the policy document (defaults to POLICY_PATH)")
	balanceCents := flag.Int64("balance", 0, "account balance in cents (defaults to ACCOUNT_BALANCE_CENTS)")
	store := flag.Bool("store-policy", false, "also save the policy document in the database")
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

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	// 4. Load the policy and commit the plan
	policy, err := policyfile.Load(path)
	if err != nil {
		appLogger.Error(context.Background(), err, "Failed to load policy", map[string]interface{}{"path": path})
		log.Fatalf("FATAL: Failed to load policy: %v", err)
	}

	service, err := app.NewPlannerService(cfg, appLogger, repo, repo, nil)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize planner service: %v", err)
	}

	ctx := context.Background()
	if *store {
		id, err := service.StorePolicy(ctx, policy)
		if err != nil {
			log.Fatalf("FATAL: Failed to store policy: %v", err)
		}
		fmt.Printf("Stored policy %q with ID %d\n", policy.Name, id)
	}

	record, err := service.CommitPlan(ctx, policy, balance)
	if err != nil {
		log.Fatalf("FATAL: Failed to commit plan: %v", err)
	}

	fmt.Printf("Committed plan %s\n", record.ID)
	fmt.Printf("  Policy:         %s\n", record.PolicyName)
	fmt.Printf("  Balance:        %s\n", domain.FormatUSD(record.AccountBalanceCents))
	fmt.Printf("  Base risk:      %s (%.2f%%)\n", domain.FormatUSD(record.RiskCents), record.RiskPercent)
	fmt.Printf("  Daily loss:     %s (%.2f%%)\n", domain.FormatUSD(record.DailyLossCents), record.DailyLossPercent)
	fmt.Printf("  Monthly loss:   %s (%.2f%%)\n", domain.FormatUSD(record.MonthlyLossCents), record.MonthlyLossPercent)
	fmt.Printf("  Expected value: %s over %d scenarios\n", domain.FormatUSD(record.ExpectedValueCents), record.LeafCount)
	fmt.Printf("  Worst case:     %s\n", domain.FormatUSD(record.WorstCaseCents))
}
