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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Appraisal/internal/api"
	"github.com/MikeSquared-Agency/Appraisal/internal/config"
	"github.com/MikeSquared-Agency/Appraisal/internal/hermes"
	"github.com/MikeSquared-Agency/Appraisal/internal/logging"
	"github.com/MikeSquared-Agency/Appraisal/internal/monitor"
	"github.com/MikeSquared-Agency/Appraisal/internal/scoring"
	"github.com/MikeSquared-Agency/Appraisal/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the appraisal API and metrics servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return exitError(3, "failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()
	logger.Info("database ready")

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	thresholds := thresholdsFrom(cfg)
	if err := thresholds.Validate(); err != nil {
		return exitError(3, "invalid thresholds: %v", err)
	}
	appraiser := scoring.NewAppraiser(db, hermesClient, thresholds, cfg.Scoring.HistoryLimit, logger)

	mon := monitor.New(db, hermesClient, cfg, logger)
	if err := mon.SetupSubscriptions(); err != nil {
		logger.Warn("failed to subscribe to anomaly events", "error", err)
	}
	mon.Start(ctx)
	defer mon.Stop()
	logger.Info("monitor started", "stats_interval", cfg.StatsInterval())

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(db, appraiser, mon, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []struct {
		name string
		s    *http.Server
	}{{"API", apiServer}, {"metrics", metricsServer}} {
		g.Go(func() error {
			logger.Info(srv.name+" server starting", "addr", srv.s.Addr)
			if err := srv.s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", srv.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
