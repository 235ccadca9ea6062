package app

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

	"golang.org/x/sync/errgroup"

	"floodguard/internal/clock"
	"floodguard/internal/config"
	"floodguard/internal/escalation"
	"floodguard/internal/metrics"
	"floodguard/internal/policy"
	"floodguard/internal/repository"
	"floodguard/internal/service"
	"floodguard/internal/tracker"
	"floodguard/internal/transport/httpapi"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.logger.Info("Starting floodguard")

	db, err := repository.Open(a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}

	clk := clock.System()
	violationRepo := repository.NewViolationRepository(db)
	policyRepo := repository.NewChatPolicyRepository(db, a.cfg.EnablePolicyCache, clk)
	warningRepo := repository.NewWarningRepository(db)

	trk := tracker.New(a.cfg.MaxMessages, a.cfg.Window())
	exemptions := policy.NewExemptions(a.cfg.AdminIDs, a.cfg.WhitelistedIDs)
	engine := escalation.NewEngine(a.logger, violationRepo, a.cfg.EscalationDurations, a.cfg.Lookback())

	svc := service.NewModerationService(a.logger, a.cfg, clk, trk, exemptions, engine, violationRepo, policyRepo, warningRepo)
	svc.StartMetricsUpdater(ctx)
	svc.StartMaintenance(ctx)

	metricsSrv := metrics.NewServer(a.logger, a.cfg.MetricsAddr)
	go func() {
		if err := metricsSrv.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()

	apiSrv := httpapi.NewServer(a.logger, svc, a.cfg.APIAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := apiSrv.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("API server shutdown failed", "error", err)
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Metrics server shutdown failed", "error", err)
		}
		return nil
	})

	return g.Wait()
}
