package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"riskPlanner/internal/adapters/policyfile"
	"riskPlanner/internal/app"
	"riskPlanner/internal/domain"
	"riskPlanner/internal/ports"

	"github.com/gin-gonic/gin"
)

// Server exposes the planner over HTTP.
type Server struct {
	service *app.PlannerService
	logger  ports.Logger
	engine  *gin.Engine
}

// New builds the HTTP server and registers its routes.
func New(service *app.PlannerService, logger ports.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{service: service, logger: logger, engine: engine}

	engine.GET("/healthz", s.health)

	api := engine.Group("/api/v1")
	{
		api.POST("/preview", s.preview)
		api.POST("/plans", s.commitPlan)
		api.GET("/plans", s.recentPlans)
		api.GET("/policies", s.listPolicies)
		api.POST("/policies", s.storePolicy)
	}

	return s
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and blocks until it fails or the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": addr})

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// previewRequest carries either an inline policy document or the name of a
// stored one. When AccountBalanceCents is nil the server uses the balance the
// service is configured with (exchange or override).
type previewRequest struct {
	Policy              *domain.RiskPolicy `json:"policy"`
	PolicyName          string             `json:"policy_name"`
	AccountBalanceCents *int64             `json:"account_balance_cents"`
}

func (s *Server) resolvePreview(c *gin.Context) (*app.PlanPreview, *domain.RiskPolicy, bool) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, nil, false
	}
	if (req.Policy == nil) == (req.PolicyName == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of policy or policy_name is required"})
		return nil, nil, false
	}

	ctx := c.Request.Context()

	balance, err := s.balanceFor(ctx, req.AccountBalanceCents)
	if err != nil {
		s.writeError(c, err)
		return nil, nil, false
	}

	policy := req.Policy
	if policy == nil {
		stored, err := s.service.FindPolicy(ctx, req.PolicyName)
		if err != nil {
			s.writeError(c, err)
			return nil, nil, false
		}
		policy = &stored.Policy
	}

	if err := policyfile.Validate(policy); err != nil {
		s.writeError(c, err)
		return nil, nil, false
	}
	preview, err := s.service.Preview(ctx, policy, balance)
	if err != nil {
		s.writeError(c, err)
		return nil, nil, false
	}
	return preview, policy, true
}

func (s *Server) balanceFor(ctx context.Context, override *int64) (int64, error) {
	if override != nil {
		return *override, nil
	}
	return s.service.AccountBalanceCents(ctx)
}

func (s *Server) preview(c *gin.Context) {
	preview, _, ok := s.resolvePreview(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) commitPlan(c *gin.Context) {
	preview, policy, ok := s.resolvePreview(c)
	if !ok {
		return
	}

	record, err := s.service.CommitPlan(c.Request.Context(), policy, preview.AccountBalanceCents)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) recentPlans(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	plans, err := s.service.RecentPlans(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) listPolicies(c *gin.Context) {
	policies, err := s.service.ListPolicies(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policies": policies})
}

func (s *Server) storePolicy(c *gin.Context) {
	var policy domain.RiskPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := policyfile.Validate(&policy); err != nil {
		s.writeError(c, err)
		return
	}

	id, err := s.service.StorePolicy(c.Request.Context(), &policy)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "name": policy.Name})
}

// writeError maps application errors to HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ports.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ports.ErrInvalidRequest),
		errors.Is(err, ports.ErrPolicyMalformed),
		errors.Is(err, ports.ErrPolicyInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, ports.ErrExchangeUnavailable),
		errors.Is(err, ports.ErrConnectionFailed),
		errors.Is(err, ports.ErrRateLimited):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), err, "request failed", map[string]interface{}{
			"path": c.FullPath(),
		})
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
