// @title           Account Service API
// @version         1.0
// @description     Registration, approval and password management for portal accounts.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/quod-portal/account-service/docs"
	"github.com/quod-portal/account-service/internal/api"
	"github.com/quod-portal/account-service/internal/api/handler"
	"github.com/quod-portal/account-service/internal/core/ports"
	"github.com/quod-portal/account-service/internal/core/service"
	"github.com/quod-portal/account-service/internal/infrastructure/db/mongo"
	"github.com/quod-portal/account-service/internal/infrastructure/db/postgres"
	"github.com/quod-portal/account-service/internal/infrastructure/db/redis"
	"github.com/quod-portal/account-service/internal/infrastructure/notify"
	"github.com/quod-portal/account-service/internal/infrastructure/queue"
	"github.com/quod-portal/account-service/internal/pkg/config"
	"github.com/quod-portal/account-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "account-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Account store ---
	repo, storePing, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("account store unavailable")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.StoreDriver).Msg("account store ready")

	// --- Redis ---
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	defer rdb.Close()

	// --- Notifications ---
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, newNotifier(cfg, log), log)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	// --- Services ---
	accounts := service.NewAccountService(
		repo,
		redis.NewResetTokenStore(rdb),
		dispatcher,
		service.AccountOptions{
			AdminEmail: cfg.Accounts.AdminEmail,
			PortalURL:  cfg.Accounts.PortalURL,
			ResetTTL:   cfg.Accounts.ResetTTL,
		},
		log,
	)
	auth := service.NewAuthService(repo, cfg.JWTSecret, cfg.JWTTTL)

	router := api.NewRouter(api.Deps{
		Accounts:  accounts,
		Auth:      auth,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
		Health: map[string]handler.PingFunc{
			cfg.StoreDriver: storePing,
			"redis":         func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	workerCancel()
	dispatcher.Wait()
	log.Info().Msg("stopped")
}

// openStore connects the configured account store and returns it with a
// readiness ping and a close func.
func openStore(ctx context.Context, cfg *config.Config) (ports.AccountRepository, handler.PingFunc, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, nil, err
		}
		repo := mongo.NewAccountRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return repo, ping, closeFn, nil

	default:
		db, err := postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		closeFn := func() { _ = db.Close() }
		return postgres.NewAccountRepository(db), db.PingContext, closeFn, nil
	}
}

func newNotifier(cfg *config.Config, log zerolog.Logger) ports.Notifier {
	if cfg.Notify.SendGridAPIKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY not set, notifications are only logged")
		return notify.NewLogNotifier(log)
	}
	return notify.NewSendGridNotifier(notify.SendGridConfig{
		APIKey:   cfg.Notify.SendGridAPIKey,
		FromName: cfg.Notify.FromName,
		FromAddr: cfg.Notify.FromAddress,
	})
}
