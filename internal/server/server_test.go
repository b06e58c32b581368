package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"riskPlanner/config"
	"riskPlanner/internal/adapters/logger"
	"riskPlanner/internal/adapters/sqlite"
	"riskPlanner/internal/app"
	"riskPlanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := &mockLogger{}
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		QuoteAsset:          "USDT",
		AccountBalanceCents: 1_000_000,
		RewardRatio:         2.0,
		LogLevel:            logger.LevelError,
	}
	svc, err := app.NewPlannerService(cfg, log, repo, repo, nil)
	require.NoError(t, err)

	return New(svc, log)
}

func testPolicyJSON() map[string]interface{} {
	return map[string]interface{}{
		"name":       "conservative",
		"base_trade": map[string]interface{}{"risk_cents": 50000},
		"risk_sizing": map[string]interface{}{
			"kind":               "percent_of_balance",
			"percent_of_balance": map[string]interface{}{"risk_percent": 2},
		},
		"loss_recovery": map[string]interface{}{
			"sequence": []interface{}{
				map[string]interface{}{
					"risk_calculation": map[string]interface{}{"kind": "percent_of_base", "percent": 50},
				},
			},
			"stop_after_sequence": true,
		},
		"gain_mode": map[string]interface{}{
			"kind":          "single_target",
			"single_target": map[string]interface{}{"daily_target_cents": 40000},
		},
		"cascading_limits": map[string]interface{}{
			"daily_loss_cents":   100000,
			"monthly_loss_cents": 500000,
			"mode":               "absolute",
		},
	}
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreview_InlinePolicy(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/preview", map[string]interface{}{
		"policy":                testPolicyJSON(),
		"account_balance_cents": 1_000_000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview app.PlanPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, "conservative", preview.PolicyName)
	assert.Equal(t, int64(1_000_000), preview.AccountBalanceCents)
	assert.Equal(t, int64(20000), preview.Effective.RiskCents)
	assert.NotNil(t, preview.Tree)
	assert.InDelta(t, 1.0, preview.Summary.TotalProbability, 1e-9)
}

func TestPreview_DefaultBalance(t *testing.T) {
	srv := newTestServer(t)

	// No balance in the request: the configured override applies.
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/preview", map[string]interface{}{
		"policy": testPolicyJSON(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview app.PlanPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, int64(1_000_000), preview.AccountBalanceCents)
}

func TestPreview_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "neither policy nor name", body: map[string]interface{}{}},
		{name: "both policy and name", body: map[string]interface{}{
			"policy":      testPolicyJSON(),
			"policy_name": "conservative",
		}},
		{name: "invalid policy", body: map[string]interface{}{
			"policy": map[string]interface{}{"name": "bad"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/v1/preview", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestPreview_StoredPolicyNotFound(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/api/v1/preview", map[string]interface{}{
		"policy_name": "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPolicyStoreAndPreviewByName(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/policies", testPolicyJSON())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/policies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Policies []*domain.StoredPolicy `json:"policies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Policies, 1)
	assert.Equal(t, "conservative", listing.Policies[0].Name)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/preview", map[string]interface{}{
		"policy_name":           "conservative",
		"account_balance_cents": 2_000_000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview app.PlanPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	// 2% of $20,000.00
	assert.Equal(t, int64(40000), preview.Effective.RiskCents)
}

func TestCommitAndListPlans(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/plans", map[string]interface{}{
		"policy":                testPolicyJSON(),
		"account_balance_cents": 1_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var record domain.PlanRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Len(t, record.ID, 26)
	assert.Equal(t, int64(20000), record.RiskCents)
	assert.Equal(t, 2.0, record.RiskPercent)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/plans?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Plans []*domain.PlanRecord `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Plans, 1)
	assert.Equal(t, record.ID, listing.Plans[0].ID)
}

func TestRecentPlans_BadLimit(t *testing.T) {
	srv := newTestServer(t)
	for _, limit := range []string{"abc", "0", "-3"} {
		rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/v1/plans?limit=%s", limit), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
