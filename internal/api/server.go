// Package api exposes the gateway's HTTP surface.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trader-gateway/internal/backend"
	"trader-gateway/internal/dashboard"
	"trader-gateway/internal/monitor"
	"trader-gateway/internal/provision"
	"trader-gateway/pkg/cache"
	"trader-gateway/pkg/secrets"
)

// Deps carries everything the server needs.
type Deps struct {
	Backend      *backend.Client
	Orchestrator *provision.Orchestrator
	Aggregator   *dashboard.Aggregator
	Registry     *provision.Registry
	Sealer       *secrets.Sealer // nil disables secret sealing
	Metrics      *monitor.SystemMetrics
	Log          *logrus.Logger

	RequestTimeout time.Duration
	LeaderboardTTL time.Duration
	DashboardTTL   time.Duration
	Version        string
}

// Server wires HTTP endpoints around the provisioning orchestrator and the
// read-side aggregator.
type Server struct {
	Router *gin.Engine

	backend      *backend.Client
	orchestrator *provision.Orchestrator
	aggregator   *dashboard.Aggregator
	registry     *provision.Registry
	sealer       *secrets.Sealer
	metrics      *monitor.SystemMetrics
	cache        *cache.TTLCache
	log          *logrus.Logger

	leaderboardTTL time.Duration
	dashboardTTL   time.Duration
	version        string
}

// NewServer builds the router with the full middleware stack.
func NewServer(deps Deps) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(deps.Log, deps.Metrics))
	r.Use(RateLimitMiddleware(deps.Log))
	r.Use(TimeoutMiddleware(orDuration(deps.RequestTimeout, 30*time.Second)))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:         r,
		backend:        deps.Backend,
		orchestrator:   deps.Orchestrator,
		aggregator:     deps.Aggregator,
		registry:       deps.Registry,
		sealer:         deps.Sealer,
		metrics:        deps.Metrics,
		cache:          cache.New(),
		log:            deps.Log,
		leaderboardTTL: deps.LeaderboardTTL,
		dashboardTTL:   deps.DashboardTTL,
		version:        deps.Version,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)

	api := s.Router.Group("/api")
	{
		api.GET("/system/status", s.getSystemStatus)
		api.GET("/metrics", s.getMetrics)

		// Auth endpoints proxy straight to the backend (no local auth)
		auth := api.Group("/auth")
		{
			auth.POST("/login", s.proxy("POST", "/api/login"))
			auth.POST("/register", s.proxy("POST", "/api/register"))
			auth.POST("/logout", s.proxy("POST", "/api/logout"))
		}

		// Public read paths
		api.GET("/supported-models", s.proxy("GET", "/api/supported-models"))
		api.GET("/system-config", s.proxy("GET", "/api/system-config"))
		api.GET("/venues", s.getVenues)
		explorer := api.Group("/explorer")
		{
			explorer.GET("/leaderboard", s.getLeaderboard)
			explorer.GET("/positions", s.getExplorerPositions)
		}

		// Protected API: a bearer token must be present before any upstream
		// call is attempted; validation itself is the backend's job.
		protected := api.Group("")
		protected.Use(RequireAuth())
		{
			protected.GET("/traders", s.listTraders)
			protected.POST("/traders", s.createTrader)
			protected.GET("/traders/:id/dashboard", s.getDashboard)
			protected.GET("/traders/:id/config", s.getTraderConfig)
			protected.PUT("/traders/:id", s.updateTrader)
			protected.POST("/traders/:id/start", s.startTrader)
			protected.POST("/traders/:id/stop", s.stopTrader)
			protected.DELETE("/traders/:id", s.deleteTrader)
			protected.PUT("/traders/:id/prompt", s.updateTraderPrompt)

			protected.GET("/models", s.listModels)
			protected.PUT("/models/:id", s.updateModel)
			protected.GET("/exchanges", s.listExchanges)

			// Mechanical pass-through reads keyed by trader_id
			protected.GET("/account", s.proxyWithQuery("GET", "/api/account"))
			protected.GET("/positions", s.proxyWithQuery("GET", "/api/positions"))
			protected.GET("/equity-history", s.proxyWithQuery("GET", "/api/equity-history"))
			protected.GET("/performance", s.proxyWithQuery("GET", "/api/performance"))
			protected.GET("/statistics", s.proxyWithQuery("GET", "/api/statistics"))
			protected.GET("/decisions", s.proxyWithQuery("GET", "/api/decisions"))
			protected.GET("/decisions/latest", s.proxyWithQuery("GET", "/api/decisions/latest"))

			protected.GET("/prompt-templates", s.proxy("GET", "/api/prompt-templates"))
			protected.GET("/prompt-templates/:name", s.proxyNamed("GET", "/api/prompt-templates"))
			protected.PUT("/prompt-templates/:name", s.proxyNamed("PUT", "/api/prompt-templates"))
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok", "version": s.version})
}

func (s *Server) getSystemStatus(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"version": s.version,
		"metrics": s.metrics.Snapshot(),
	})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(200, s.metrics.Snapshot())
}

func (s *Server) getVenues(c *gin.Context) {
	ids := s.registry.IDs()
	venues := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		v, _ := s.registry.Get(id)
		venues = append(venues, gin.H{
			"id":     v.ID,
			"name":   v.Name,
			"wallet": v.Wallet,
		})
	}
	c.JSON(200, gin.H{"venues": venues})
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
