package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nurpe/opsdesk/internal/access"
	"github.com/nurpe/opsdesk/internal/auth"
	"github.com/nurpe/opsdesk/internal/cache"
	"github.com/nurpe/opsdesk/internal/config"
	"github.com/nurpe/opsdesk/internal/db"
	"github.com/nurpe/opsdesk/internal/excel"
	httphandler "github.com/nurpe/opsdesk/internal/http"
	"github.com/nurpe/opsdesk/internal/http/middleware"
	"github.com/nurpe/opsdesk/internal/logger"
	"github.com/nurpe/opsdesk/internal/movement"
	"github.com/nurpe/opsdesk/internal/pdf"
	"github.com/nurpe/opsdesk/internal/repository"
	"github.com/nurpe/opsdesk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to init new relic, continuing without it")
			nrApp = nil
		}
	}

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profiles, closeCache, err := newProfileCache(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init profile cache")
	}
	defer closeCache()

	userRepo := repository.NewUserRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	auditRepo := repository.NewAuditRepository(database)

	resolver := access.NewResolver(access.DashboardPolicy(cfg.Access.DashboardPolicy), log)
	analyzer := movement.NewAnalyzer(movement.Thresholds{
		JitterFloorKm: cfg.Movement.JitterFloorKm,
		GapCeiling:    cfg.Movement.GapCeiling,
		StopRadiusKm:  cfg.Movement.StopRadiusKm,
		MinStop:       cfg.Movement.MinStop,
	})

	auditService := service.NewAuditService(auditRepo, log)
	accessService := service.NewAccessService(userRepo, profiles, resolver, auditService, log)
	movementService := service.NewMovementService(
		vehicleRepo,
		analyzer,
		excel.NewGenerator(),
		pdf.NewGenerator(),
		auditService,
		cfg,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(accessService, movementService, auditService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, httphandler.RouterConfig{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log,
		NewRelic:       nrApp,
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting opsdesk service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newProfileCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Cache[access.Profile], func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("profile cache backed by redis")
		return cache.NewRedis[access.Profile](client, "opsdesk:profile:", cfg.Cache.TTL), func() { _ = client.Close() }, nil
	default:
		memory := cache.NewMemory[access.Profile](cfg.Cache.TTL, cache.SystemClock)
		go purgeLoop(ctx, memory, cfg.Cache.TTL, log)
		return memory, func() {}, nil
	}
}

func purgeLoop(ctx context.Context, memory *cache.Memory[access.Profile], every time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := memory.Purge(); n > 0 {
				log.Debug().Int("evicted", n).Msg("purged expired profiles")
			}
		}
	}
}
