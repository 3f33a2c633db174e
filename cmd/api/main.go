package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/api"
	"github.com/baharkarakas/h2credits-backend/internal/auth"
	"github.com/baharkarakas/h2credits-backend/internal/config"
	"github.com/baharkarakas/h2credits-backend/internal/db"
	"github.com/baharkarakas/h2credits-backend/internal/logger"
	"github.com/baharkarakas/h2credits-backend/internal/metrics"
	"github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/baharkarakas/h2credits-backend/internal/repository/memory"
	"github.com/baharkarakas/h2credits-backend/internal/repository/postgres"
	"github.com/baharkarakas/h2credits-backend/internal/services"
	"github.com/baharkarakas/h2credits-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	metrics.Init()
	wp := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueue)
	defer wp.Stop()

	deps := services.Deps{
		Store:   store,
		Pool:    wp,
		Timeout: cfg.CommerceTimeout,
		Log:     log,
	}
	svc := api.Services{
		Users:         services.NewUserService(deps),
		Credits:       services.NewCreditService(deps, cfg.MarketCacheTTL),
		Listing:       services.NewListingService(deps),
		Trading:       services.NewTradingService(deps),
		Bids:          services.NewBidService(deps),
		Partnerships:  services.NewPartnershipService(deps),
		Notifications: services.NewNotificationService(deps),
	}
	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if cfg.Env == "prod" && (cfg.JWTAccessSecret == "changeme-access" || cfg.JWTRefreshSecret == "changeme-refresh") {
		log.Warn("default JWT secrets in use")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(cfg, svc, tm),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "store", cfg.StoreDriver, "workers", cfg.WorkerCount)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

// openStore selects the ledger store named by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	case "postgres", "":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return postgres.NewStore(pool), pool.Close, nil
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
	}
}
