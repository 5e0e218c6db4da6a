package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/capirelay-lab/project-capirelay/internal/audit"
	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	corecfg "github.com/capirelay-lab/project-capirelay/internal/core/config"
	"github.com/capirelay-lab/project-capirelay/internal/core/storage"
	"github.com/capirelay-lab/project-capirelay/internal/core/storage/postgres"
	"github.com/capirelay-lab/project-capirelay/internal/dispatch"
	"github.com/capirelay-lab/project-capirelay/internal/gating"
	"github.com/capirelay-lab/project-capirelay/internal/hooks"
	"github.com/capirelay-lab/project-capirelay/internal/migrations"
	"github.com/capirelay-lab/project-capirelay/internal/pipeline"
	"github.com/capirelay-lab/project-capirelay/internal/pricing"
	"github.com/capirelay-lab/project-capirelay/internal/server"
	"github.com/capirelay-lab/project-capirelay/internal/trigger"
	"github.com/capirelay-lab/project-capirelay/internal/web"
)

func main() {
	configPath := flag.String("config", "capirelay.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"push_mode", cfg.Tracking.PushMode,
		"tracking_enabled", cfg.Tracking.Enabled,
		"log_events", cfg.Tracking.LogEvents)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	catalog, err := postgres.NewCatalogAdapter(dbAdapter.DB())
	if err != nil {
		slog.Error("Failed to initialize catalog adapter", "error", err)
		os.Exit(1)
	}
	defer catalog.Close()

	// auditAdapter is nil when the tracking_log table is absent; the
	// recorder then degrades to a no-op.
	auditAdapter, err := postgres.NewAuditAdapter(dbAdapter.DB())
	if err != nil {
		slog.Error("Failed to initialize audit adapter", "error", err)
		os.Exit(1)
	}
	var auditStore storage.AuditStore
	if auditAdapter != nil {
		auditStore = auditAdapter
		defer auditAdapter.Close()
	}

	// 3. Build the Event Pipeline
	registry := hooks.NewRegistry()
	// Extension hooks register here, before the pipeline serves triggers.

	resolver := pricing.NewResolver(pricing.Context{})
	builder := pipeline.NewBuilder(resolver, registry, cfg.Tracking.AdjustmentTypes)

	client := dispatch.NewClient(cfg.Meta.BaseURL, cfg.Meta.SendTimeoutDuration())
	recorder := audit.NewRecorder(auditStore)
	dispatcher := dispatch.NewDispatcher(client, recorder)

	tracker := trigger.NewTracker(gating.NewPolicy(), builder, dispatcher, cfg.Tracking)

	// 4. Initialize Web Service
	accountResolver := func(*http.Request) *commerce.Account {
		// Session integration lives in the embedding storefront; the relay
		// itself treats every browser caller as anonymous.
		return nil
	}
	webSvc := web.NewService(tracker, catalog, accountResolver, cfg.Server.MaxBodySizeMB)

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	webSvc.RegisterRoutes(srv.Engine)

	// 6. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Audit.RetentionEnabled && auditStore != nil {
		maxAge, _ := cfg.Audit.MaxAgeDuration()
		interval, _ := cfg.Audit.SweepIntervalDuration()
		sweeper := audit.NewSweeper(auditStore, interval, maxAge, cfg.Audit.PruneBatchSize)
		g.Go(func() error {
			return sweeper.Start(gctx)
		})
	} else {
		slog.Info("Audit retention sweeper disabled")
	}

	g.Go(func() error {
		// HTTP server blocks until ctx is cancelled.
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
