package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sipico/microtales/internal/api"
	"github.com/sipico/microtales/internal/config"
	"github.com/sipico/microtales/internal/metrics"
	"github.com/sipico/microtales/internal/storage"
	"github.com/sipico/microtales/internal/tales"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownTimeout = 30 * time.Second
	tokenSweepInterval    = time.Hour
)

// components holds the initialized application components.
type components struct {
	logger         *slog.Logger
	logLevel       *slog.LevelVar
	store          *storage.SQLiteStorage
	svc            *tales.Service
	registry       *prometheus.Registry
	apiRouter      http.Handler
	metricsHandler http.Handler
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API and metrics servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			c, err := initializeComponents(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer func() {
				if err := c.store.Close(); err != nil {
					c.logger.Error("failed to close storage", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := bootstrapAdmin(ctx, c, cfg); err != nil {
				return err
			}

			c.logger.Info("MicroTales starting",
				"version", version,
				"listen_addr", cfg.ListenAddr,
				"metrics_listen_addr", cfg.MetricsListenAddr,
				"log_level", cfg.LogLevel,
			)

			return serve(ctx, c,
				createServer(cfg.ListenAddr, c.apiRouter),
				createServer(cfg.MetricsListenAddr, c.metricsHandler),
			)
		},
	}
}

// newLogger returns a JSON logger writing to w whose level can be changed at
// runtime through the returned LevelVar.
func newLogger(level string, w io.Writer) (*slog.Logger, *slog.LevelVar, error) {
	parsed, ok := api.ParseLevel(level)
	if !ok {
		return nil, nil, fmt.Errorf("invalid log level %q", level)
	}
	logLevel := new(slog.LevelVar)
	logLevel.Set(parsed)
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
	return logger, logLevel, nil
}

// openService opens the database and builds the domain service on it.
func openService(cfg *config.Config, logger *slog.Logger) (*storage.SQLiteStorage, *tales.Service, error) {
	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, tales.NewService(store, logger), nil
}

// initializeComponents sets up every component the servers need.
func initializeComponents(cfg *config.Config, logOut io.Writer) (*components, error) {
	logger, logLevel, err := newLogger(cfg.LogLevel, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	store, svc, err := openService(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Init(registry, version); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	h := api.NewHandler(svc, store, api.Options{
		SessionSecret:      []byte(cfg.SessionSecret),
		SecureCookies:      cfg.SecureCookies,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		LogLevel:           logLevel,
		Logger:             logger,
	})

	return &components{
		logger:         logger,
		logLevel:       logLevel,
		store:          store,
		svc:            svc,
		registry:       registry,
		apiRouter:      h.NewRouter(),
		metricsHandler: metrics.Handler(registry),
	}, nil
}

// bootstrapAdmin creates the configured admin account while none exists.
func bootstrapAdmin(ctx context.Context, c *components, cfg *config.Config) error {
	if cfg.AdminEmail == "" {
		state, err := c.svc.BootstrapState(ctx)
		if err != nil {
			return fmt.Errorf("failed to read bootstrap state: %w", err)
		}
		if state == tales.StateUnconfigured {
			c.logger.Warn("no admin account exists; set ADMIN_EMAIL and ADMIN_PASSWORD to create one")
		}
		return nil
	}

	account, err := c.svc.BootstrapAdmin(ctx, tales.SignUpInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	switch {
	case errors.Is(err, tales.ErrAlreadyConfigured):
		c.logger.Info("admin bootstrap skipped, an admin already exists")
		return nil
	case err != nil:
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	c.logger.Info("admin account bootstrapped", "account_id", account.ID)
	return nil
}

// createServer creates an HTTP server with the standard timeouts.
func createServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs the servers and the token sweeper until ctx is cancelled or one
// of them fails, then shuts the servers down gracefully.
func serve(ctx context.Context, c *components, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		g.Go(func() error {
			c.logger.Info("Server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		sweepTokens(gctx, c.svc, c.logger, tokenSweepInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			c.logger.Info("Received signal, shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown of %s: %w", srv.Addr, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		c.logger.Info("Server shut down gracefully")
		return nil
	})

	return g.Wait()
}

// sweepTokens deletes expired tokens every interval until ctx is done.
func sweepTokens(ctx context.Context, svc *tales.Service, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepExpiredTokens(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("token sweep failed", "error", err)
				}
				continue
			}
			metrics.RecordTokensSwept(n)
		}
	}
}
