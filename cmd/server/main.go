package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/config"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/infra"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/metrics"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/middleware"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/repository"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/router"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/service"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/tier"
	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/worker"

	"github.com/bsm/redislock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	overrides, err := tier.ParseOverrides(cfg.TierOverrides)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TIER_OVERRIDES")
	}
	if err := tier.Configure(overrides); err != nil {
		log.Fatal().Err(err).Msg("invalid tier policy")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Background work stops when ctx is cancelled at shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	pool := worker.NewPool(rdb, map[string]worker.Handler{
		worker.JobEmail: worker.NewEmailWorker(mailer, infra.NewCircuitBreaker(infra.DefaultCBConfig())),
	}, worker.DefaultMaxAttempts)
	pool.Start(ctx, cfg.WorkerPoolSize)

	stockSvc := service.NewStockService(
		repository.NewProductRepository(db),
		repository.NewStockRepository(db),
		repository.NewMovementRepository(db),
		m,
		cfg.StockMaxRetries,
	)
	worker.StartLowStockCron(ctx, worker.LowStockCronConfig{
		Reporter:   stockSvc,
		Queue:      worker.NewDispatcher(rdb),
		Metrics:    m,
		StaffEmail: cfg.StaffNotifyEmail,
		Interval:   cfg.LowStockInterval,
		Locker:     redislock.New(rdb),
	})

	apiLimiter := middleware.NewLimiter(cfg.RateLimit, time.Minute)
	loginLimiter := middleware.LoginLimiter()
	apiLimiter.StartPurge(ctx, "api")
	loginLimiter.StartPurge(ctx, "login")

	r := router.New(cfg, router.Infra{
		DB:           db,
		Redis:        rdb,
		Metrics:      m,
		Gatherer:     reg,
		APILimiter:   apiLimiter,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("garden center backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
