// Package api exposes the help desk over HTTP: the /api/v1 REST surface, the
// /mcp JSON-RPC endpoint, and the health and metrics probes.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/mcp"
	"github.com/helpdesk-io/helpdesk-ce/internal/middleware"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/search"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

// Deps are the domain collaborators the handlers dispatch to.
type Deps struct {
	Tickets   *service.TicketService
	Analytics *service.AnalyticsService
	Export    *service.ExportService
	Search    *search.Orchestrator
	Refs      *repository.ReferenceRepository
}

// Server owns the HTTP surface. Build it once at startup; Router and Run are
// safe to call from tests and main respectively.
type Server struct {
	cfg     *config.Config
	db      *database.DB
	deps    Deps
	jwt     *auth.JWTManager
	started time.Time
}

func NewServer(cfg *config.Config, db *database.DB, deps Deps) *Server {
	s := &Server{cfg: cfg, db: db, deps: deps, started: time.Now()}
	if cfg.Auth.JWT.Enabled {
		s.jwt = auth.NewJWTManager(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.AccessTokenTTL)
	}
	return s
}

// Router builds the gin engine with the full route tree and middleware chain.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.Metrics(),
	)

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var guards []gin.HandlerFunc
	if s.cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(s.cfg.RateLimit.RequestsPerSecond, s.cfg.RateLimit.Burst)
		guards = append(guards, limiter.Limit())
	}
	if s.jwt != nil {
		guards = append(guards, middleware.NewAuthMiddleware(s.jwt).RequireAuth())
	}

	mcpRoutes := engine.Group("/mcp", guards...)
	mcpRoutes.POST("", s.handleMCP)
	mcpRoutes.GET("", s.handleMCPInfo)

	v1 := engine.Group("/api/v1", guards...)

	v1.GET("/ticket/:id", s.handleGetTicket)
	v1.POST("/ticket", s.handleCreateTicket)
	v1.PUT("/ticket/:id", s.handleUpdateTicket)
	v1.DELETE("/ticket/:id", s.handleDeleteTicket)
	v1.GET("/ticket/:id/messages", s.handleListMessages)
	v1.POST("/ticket/:id/messages", s.handleAddMessage)
	v1.GET("/ticket/:id/attachments", s.handleListAttachments)

	v1.GET("/tickets", s.handleListTickets)
	v1.GET("/tickets/search", s.handleSearchTickets)
	v1.POST("/tickets/bulk_update", s.handleBulkUpdate)

	ref := v1.Group("/reference")
	ref.GET("/statuses", s.handleStatuses)
	ref.GET("/sites", s.handleSites)
	ref.GET("/categories", s.handleCategories)
	ref.GET("/assets", s.handleAssets)
	ref.GET("/vendors", s.handleVendors)

	analytics := v1.Group("/analytics")
	analytics.GET("/status_breakdown", s.handleStatusBreakdown)
	analytics.GET("/open_by_site", s.handleOpenBySite)
	analytics.GET("/sla_breaches", s.handleSLABreaches)
	analytics.GET("/open_by_user", s.handleOpenByUser)
	analytics.GET("/waiting_on_user", s.handleWaitingOnUser)
	analytics.GET("/workload", s.handleWorkload)
	analytics.GET("/snapshot", s.handleSnapshot)
	analytics.GET("/stats", s.handleStats)
	analytics.GET("/sla_metrics", s.handleSLAMetrics)
	analytics.GET("/export", s.handleAnalyticsExport)

	return engine
}

// Run serves until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	if !s.cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[api] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	log.Printf("[api] shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) mcpDeps() mcp.Deps {
	return mcp.Deps{
		Tickets:   s.deps.Tickets,
		Analytics: s.deps.Analytics,
		Search:    s.deps.Search,
		Refs:      s.deps.Refs,
	}
}
