package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"riskPlanner/internal/domain"
	"riskPlanner/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.PolicyRepository and ports.PlanRepository
// interfaces using SQLite. Policies are stored as whole JSON documents so the
// schema never chases the policy shape.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/risk_planner.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS policies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		document TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		policy_name TEXT NOT NULL,
		account_balance_cents INTEGER NOT NULL,
		risk_cents INTEGER NOT NULL,
		daily_loss_cents INTEGER NOT NULL,
		weekly_loss_cents INTEGER NULL,
		monthly_loss_cents INTEGER NOT NULL,
		daily_profit_target_cents INTEGER NULL,
		risk_percent REAL NOT NULL,
		daily_loss_percent REAL NOT NULL,
		weekly_loss_percent REAL NULL,
		monthly_loss_percent REAL NOT NULL,
		daily_profit_target_percent REAL NULL,
		expected_value_cents INTEGER NOT NULL,
		worst_case_cents INTEGER NOT NULL,
		leaf_count INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	-- Add indexes for common lookups
	CREATE INDEX IF NOT EXISTS idx_policies_name_updated_at ON policies (name, updated_at);
	CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans (created_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// --- ports.PolicyRepository ---

// CreatePolicy saves a new policy document and returns its assigned ID.
func (r *Repository) CreatePolicy(ctx context.Context, name string, policy *domain.RiskPolicy) (int64, error) {
	if policy == nil {
		return 0, fmt.Errorf("%w: policy is nil", ports.ErrInvalidRequest)
	}
	doc, err := json.Marshal(policy)
	if err != nil {
		return 0, fmt.Errorf("%w: marshal policy: %v", ports.ErrInvalidRequest, err)
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO policies (name, document, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, string(doc), now, now)
	if err != nil {
		r.logger.Error(ctx, err, "Failed to insert policy", map[string]interface{}{"name": name})
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Policy created", map[string]interface{}{"id": id, "name": name})
	return id, nil
}

// UpdatePolicy replaces the document stored under the given ID.
func (r *Repository) UpdatePolicy(ctx context.Context, id int64, policy *domain.RiskPolicy) error {
	if policy == nil {
		return fmt.Errorf("%w: policy is nil", ports.ErrInvalidRequest)
	}
	doc, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("%w: marshal policy: %v", ports.ErrInvalidRequest, err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE policies SET document = ?, updated_at = ? WHERE id = ?`,
		string(doc), time.Now().UTC(), id)
	if err != nil {
		r.logger.Error(ctx, err, "Failed to update policy", map[string]interface{}{"id": id})
		return fmt.Errorf("%w: %v", ports.ErrUpdateFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrUpdateFailed, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: policy id %d", ports.ErrNotFound, id)
	}
	return nil
}

// FindPolicyByID retrieves a stored policy by ID. Returns nil, nil if not found.
func (r *Repository) FindPolicyByID(ctx context.Context, id int64) (*domain.StoredPolicy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, document, created_at, updated_at FROM policies WHERE id = ?`, id)
	return r.scanPolicy(ctx, row)
}

// FindPolicyByName retrieves the most recently updated policy with the given
// name. Returns nil, nil if not found.
func (r *Repository) FindPolicyByName(ctx context.Context, name string) (*domain.StoredPolicy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, document, created_at, updated_at FROM policies WHERE name = ? ORDER BY updated_at DESC LIMIT 1`, name)
	return r.scanPolicy(ctx, row)
}

// FindAllPolicies retrieves all stored policies, newest first.
func (r *Repository) FindAllPolicies(ctx context.Context) ([]*domain.StoredPolicy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, document, created_at, updated_at FROM policies ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var policies []*domain.StoredPolicy
	for rows.Next() {
		stored, err := r.scanPolicyRow(ctx, rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return policies, nil
}

// DeletePolicy removes a stored policy.
func (r *Repository) DeletePolicy(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM policies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrDeleteFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrDeleteFailed, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: policy id %d", ports.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanPolicy(ctx context.Context, row *sql.Row) (*domain.StoredPolicy, error) {
	stored, err := r.scanPolicyRow(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return stored, err
}

func (r *Repository) scanPolicyRow(ctx context.Context, row rowScanner) (*domain.StoredPolicy, error) {
	var stored domain.StoredPolicy
	var doc string
	if err := row.Scan(&stored.ID, &stored.Name, &doc, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	if err := json.Unmarshal([]byte(doc), &stored.Policy); err != nil {
		r.logger.Error(ctx, err, "Stored policy document is unreadable", map[string]interface{}{"id": stored.ID})
		return nil, fmt.Errorf("%w: unmarshal policy %d: %v", ports.ErrPolicyMalformed, stored.ID, err)
	}
	return &stored, nil
}

// --- ports.PlanRepository ---

// CreatePlan saves a committed plan record.
func (r *Repository) CreatePlan(ctx context.Context, plan *domain.PlanRecord) error {
	if plan == nil || plan.ID == "" {
		return fmt.Errorf("%w: plan record requires an ID", ports.ErrInvalidRequest)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO plans (
			id, policy_name, account_balance_cents,
			risk_cents, daily_loss_cents, weekly_loss_cents, monthly_loss_cents, daily_profit_target_cents,
			risk_percent, daily_loss_percent, weekly_loss_percent, monthly_loss_percent, daily_profit_target_percent,
			expected_value_cents, worst_case_cents, leaf_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.PolicyName, plan.AccountBalanceCents,
		plan.RiskCents, plan.DailyLossCents, nullableInt(plan.WeeklyLossCents), plan.MonthlyLossCents, nullableInt(plan.DailyProfitTargetCents),
		plan.RiskPercent, plan.DailyLossPercent, nullableFloat(plan.WeeklyLossPercent), plan.MonthlyLossPercent, nullableFloat(plan.DailyProfitTargetPercent),
		plan.ExpectedValueCents, plan.WorstCaseCents, plan.LeafCount, plan.CreatedAt.UTC())
	if err != nil {
		r.logger.Error(ctx, err, "Failed to insert plan", map[string]interface{}{"id": plan.ID})
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Plan committed", map[string]interface{}{"id": plan.ID, "policy": plan.PolicyName})
	return nil
}

// FindPlanByID retrieves a plan record by ID. Returns nil, nil if not found.
func (r *Repository) FindPlanByID(ctx context.Context, id string) (*domain.PlanRecord, error) {
	row := r.db.QueryRowContext(ctx, selectPlanColumns+` WHERE id = ?`, id)
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return plan, err
}

// FindRecentPlans retrieves the most recently committed plans, up to a limit.
func (r *Repository) FindRecentPlans(ctx context.Context, limit int) ([]*domain.PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, selectPlanColumns+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var plans []*domain.PlanRecord
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return plans, nil
}

const selectPlanColumns = `
	SELECT id, policy_name, account_balance_cents,
		risk_cents, daily_loss_cents, weekly_loss_cents, monthly_loss_cents, daily_profit_target_cents,
		risk_percent, daily_loss_percent, weekly_loss_percent, monthly_loss_percent, daily_profit_target_percent,
		expected_value_cents, worst_case_cents, leaf_count, created_at
	FROM plans`

func scanPlan(row rowScanner) (*domain.PlanRecord, error) {
	var plan domain.PlanRecord
	var weeklyCents, targetCents sql.NullInt64
	var weeklyPct, targetPct sql.NullFloat64

	err := row.Scan(
		&plan.ID, &plan.PolicyName, &plan.AccountBalanceCents,
		&plan.RiskCents, &plan.DailyLossCents, &weeklyCents, &plan.MonthlyLossCents, &targetCents,
		&plan.RiskPercent, &plan.DailyLossPercent, &weeklyPct, &plan.MonthlyLossPercent, &targetPct,
		&plan.ExpectedValueCents, &plan.WorstCaseCents, &plan.LeafCount, &plan.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}

	if weeklyCents.Valid {
		plan.WeeklyLossCents = &weeklyCents.Int64
	}
	if targetCents.Valid {
		plan.DailyProfitTargetCents = &targetCents.Int64
	}
	if weeklyPct.Valid {
		plan.WeeklyLossPercent = &weeklyPct.Float64
	}
	if targetPct.Valid {
		plan.DailyProfitTargetPercent = &targetPct.Float64
	}
	return &plan, nil
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
