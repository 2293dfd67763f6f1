package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/api"
	"github.com/helpdesk-io/helpdesk-ce/internal/auth"
	"github.com/helpdesk-io/helpdesk-ce/internal/cache"
	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/fieldmap"
	"github.com/helpdesk-io/helpdesk-ce/internal/jobs"
	"github.com/helpdesk-io/helpdesk-ce/internal/mcp"
	"github.com/helpdesk-io/helpdesk-ce/internal/relevance"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/search"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
	"github.com/helpdesk-io/helpdesk-ce/internal/sla"
	"github.com/helpdesk-io/helpdesk-ce/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Help desk ticketing backend",
	Long: `Help desk ticketing backend.

Serves a REST API and an MCP JSON-RPC endpoint over a shared ticket store,
with full-text relevance ranking, semantic filter mapping, and SLA tracking.`,
	Version: version.String(),
}

var configFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serve starts the REST API and the MCP JSON-RPC endpoint on one listener.

The process connects to the configured database, applies any missing schema
migrations, and shuts down cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Migrate creates any missing tables, indexes, and seed rows for the
configured database, then exits. It is safe to run repeatedly.`,
	RunE: runMigrate,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered MCP tools",
	Run:   runTools,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a JWT for API access",
	Long: `Token signs a bearer token with the configured JWT secret so that
agents and scripts can call the API when authentication is enabled.`,
	RunE: runToken,
}

var (
	tokenEmailFlag string
	tokenNameFlag  string
	tokenTTLFlag   time.Duration
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to helpdesk.yaml (default: ./helpdesk.yaml, then /etc/helpdesk)")

	tokenCmd.Flags().StringVar(&tokenEmailFlag, "email", "", "Email address the token is issued to")
	tokenCmd.Flags().StringVar(&tokenNameFlag, "name", "", "Display name embedded in the token (defaults to the email)")
	tokenCmd.Flags().DurationVar(&tokenTTLFlag, "ttl", 0, "Token lifetime (defaults to auth.jwt.access_token_ttl)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, dbOptions(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	store, local, err := buildCache(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	refs := repository.NewReferenceRepository(db, store)
	tickets := repository.NewTicketRepository(db, refs)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	slaCalc := sla.NewCalculator(cfg.SLA.BusinessHours)
	var vectors relevance.VectorCache
	if cfg.Search.CacheVectors {
		vectors = cache.NewVectorCache(store, cfg.Redis.TTL)
	}
	ranker := relevance.NewRanker(relevance.Config{}, vectors, slaCalc)
	resolver := fieldmap.NewResolver()

	ticketSvc := service.NewTicketService(tickets, resolver, ranker)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, tickets, slaCalc, cfg.SLA.BreachDays)
	orchestrator := search.New(search.Config{
		DefaultDays:  cfg.Search.DefaultDays,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		MaxBulkLimit: cfg.Search.MaxBulkLimit,
		CandidateCap: cfg.Search.CandidateCap,
	}, tickets, resolver, ranker)

	server := api.NewServer(cfg, db, api.Deps{
		Tickets:   ticketSvc,
		Analytics: analyticsSvc,
		Export:    service.NewExportService(),
		Search:    orchestrator,
		Refs:      refs,
	})

	if cfg.Jobs.Enabled {
		scheduler := jobs.NewScheduler()
		if local != nil {
			if err := scheduler.Add(jobs.NewCacheSweep(local, cfg.Jobs.CacheSweepSpec)); err != nil {
				return err
			}
		}
		if err := scheduler.Add(jobs.NewSLAScan(analyticsSvc, cfg.SLA.BreachDays, cfg.Jobs.SLAScanSpec)); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	return server.Run(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, dbOptions(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	fmt.Printf("schema up to date (%s)\n", cfg.Database.Driver)
	return nil
}

func runTools(cmd *cobra.Command, args []string) {
	fmt.Printf("%d tools registered\n\n", len(mcp.ToolRegistry))
	for _, t := range mcp.ToolRegistry {
		fmt.Printf("  %-26s %s\n", t.Name, t.Description)
	}
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if tokenEmailFlag == "" {
		return fmt.Errorf("--email is required")
	}
	if cfg.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is not configured")
	}

	name := tokenNameFlag
	if name == "" {
		name = tokenEmailFlag
	}
	ttl := tokenTTLFlag
	if ttl <= 0 {
		ttl = cfg.Auth.JWT.AccessTokenTTL
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, ttl).GenerateToken(tokenEmailFlag, name)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func dbOptions(cfg *config.Config) database.Options {
	return database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}

// buildCache returns the shared cache store plus the local cache when one is
// in use, so the sweep job only runs against a cache that needs sweeping.
// Redis expires its own keys.
func buildCache(cfg *config.Config) (cache.Store, *cache.LocalCache, error) {
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:       cfg.Redis.Addr(),
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			DefaultTTL: cfg.Redis.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, nil, nil
	}
	local := cache.NewLocalCache(4096, cfg.Redis.TTL)
	return local, local, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
