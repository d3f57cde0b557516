package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/cache"
	"github.com/Dasieloski/habaluna-storefront/internal/checkout"
	"github.com/Dasieloski/habaluna-storefront/internal/config"
	storehttp "github.com/Dasieloski/habaluna-storefront/internal/http"
	"github.com/Dasieloski/habaluna-storefront/internal/logging"
	"github.com/Dasieloski/habaluna-storefront/internal/stock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logging.New(cfg.ServiceName, cfg.Debug)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, backend.ContextTokens{}, log)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	snapshots := cache.NewRedisCache(rdb)

	var events checkout.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher := checkout.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer publisher.Close()
		events = publisher
	}

	sessions := storehttp.NewSessions(storehttp.Deps{
		Backend:   client,
		Snapshots: snapshots,
		Validator: stock.NewValidator(client, log),
		Events:    events,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           storehttp.NewRouter(sessions, cfg.BackendTimeout+time.Second, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stopCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
