// Package main runs the Evanio checkout service.
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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evanio/checkout-service/internal/api"
	"github.com/evanio/checkout-service/internal/api/handler"
	"github.com/evanio/checkout-service/internal/core/service"
	"github.com/evanio/checkout-service/internal/infrastructure/db/mongo"
	"github.com/evanio/checkout-service/internal/infrastructure/db/redis"
	"github.com/evanio/checkout-service/internal/infrastructure/gateway"
	"github.com/evanio/checkout-service/internal/infrastructure/queue"
	"github.com/evanio/checkout-service/internal/pkg/config"
	"github.com/evanio/checkout-service/pkg/logger"
)

const appName = "evanio-checkout"

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Checkout and session backend for the Evanio storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: appName,
		Version: Version,
	})

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     appName,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}()

	checkouts := mongo.NewCheckoutRepository(db, cfg.Mongo.CheckoutRetention)
	events := mongo.NewEventRepository(db)
	if err := checkouts.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := events.EnsureIndexes(ctx); err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, events, log)
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Stop()

	client := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, log)
	sessions := service.NewSessionManager(
		gateway.NewAuthClient(client),
		redis.NewSessionStorage(rdb, cfg.Redis.SessionTTL),
		log,
	)
	checkoutService := service.NewCheckoutService(
		checkouts,
		events,
		dispatcher,
		gateway.NewOrderClient(client),
		sessions,
		redis.NewSubmitGuard(rdb, cfg.SubmitLockTTL),
		log,
	)

	e := api.NewRouter(api.Deps{
		Sessions:  sessions,
		Checkouts: checkoutService,
		Health: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		DeviceSecret:   []byte(cfg.JWTSecret),
		DeviceTokenTTL: cfg.DeviceTokenTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("starting checkout server")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	})

	return g.Wait()
}
