package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerly/internal/amqp"
	"github.com/MrJamesThe3rd/ledgerly/internal/cache"
	"github.com/MrJamesThe3rd/ledgerly/internal/company"
	companyStore "github.com/MrJamesThe3rd/ledgerly/internal/company/store"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/dashboard"
	"github.com/MrJamesThe3rd/ledgerly/internal/database"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	ledgerlyHttp "github.com/MrJamesThe3rd/ledgerly/internal/http"
	authHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/auth"
	companyHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/company"
	dashboardHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/dashboard"
	exportHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/export"
	ledgerHandler "github.com/MrJamesThe3rd/ledgerly/internal/http/ledger"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/ledgerly/internal/ledger/store"
)

const shutdownTimeout = 15 * time.Second

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.ConnectionString()); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	db, err := database.New(cfg.ConnectionString(), database.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	bus := event.NewBus()

	summaries := cache.NewLRU[*dashboard.Summary](cfg.Cache.Size, cfg.Cache.TTL)
	janitor := cache.NewJanitor(summaries)
	janitor.Start(ctx, cfg.Cache.CleanupInterval)
	defer janitor.Stop()

	if cfg.AMQP.URL != "" {
		client, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		defer client.Close()

		bus.Subscribe(client.Forward)
		slog.Info("forwarding ledger events", "exchange", cfg.AMQP.Exchange)
	}

	var (
		ledgers = ledgerStore.New(db)

		ledgerService    = ledger.NewService(ledgers, bus)
		companyService   = company.NewService(companyStore.New(db), bus)
		dashboardService = dashboard.NewService(ledgers, dashboard.WithCache(summaries))
		importService    = importer.NewService()
		exportService    = export.NewService(ledgerService, dashboardService)
	)

	bus.Subscribe(dashboardService.Invalidate)

	issuer := authHandler.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	router := ledgerlyHttp.New(ledgerlyHttp.Handlers{
		Auth:      authHandler.NewHandler(companyService, issuer),
		Company:   companyHandler.NewHandler(companyService),
		Projects:  ledgerHandler.NewProjectHandler(ledgerService, dashboardService, importService),
		Payments:  ledgerHandler.NewPaymentHandler(ledgerService),
		Expenses:  ledgerHandler.NewExpenseHandler(ledgerService),
		Team:      ledgerHandler.NewTeamHandler(ledgerService),
		Dashboard: dashboardHandler.NewHandler(dashboardService),
		Export:    exportHandler.NewHandler(exportService),
	}, authHandler.Middleware(issuer, companyService), cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           http.TimeoutHandler(router, cfg.Server.Timeout, "request timed out"),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "name", cfg.App.Name, "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
