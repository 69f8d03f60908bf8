package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	cataloghttp "github.com/shopworks/order-service/internal/catalog/infrastructure/http"
	catalogpg "github.com/shopworks/order-service/internal/catalog/infrastructure/postgres"
	orderhttp "github.com/shopworks/order-service/internal/order/infrastructure/http"
	orderpg "github.com/shopworks/order-service/internal/order/infrastructure/postgres"

	catalogapp "github.com/shopworks/order-service/internal/catalog/application"
	"github.com/shopworks/order-service/internal/config"
	"github.com/shopworks/order-service/internal/expiration"
	expirationpg "github.com/shopworks/order-service/internal/expiration/postgres"
	orderapp "github.com/shopworks/order-service/internal/order/application"
	"github.com/shopworks/order-service/pkg/clock"
	"github.com/shopworks/order-service/pkg/idempotency"
	"github.com/shopworks/order-service/pkg/logging"
	"github.com/shopworks/order-service/pkg/shutdown"
	"github.com/shopworks/order-service/pkg/tracing"
)

func main() {
	log := logging.New()
	cfg := config.Load()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "order-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	defer writer.Close()

	// Stores
	productRepo := catalogpg.NewRepository(log, pool)
	orderRepo := orderpg.NewRepository(log, pool)
	taskStore := expirationpg.NewStore(log, pool)

	// Application services
	clk := clock.Real()
	catalogSvc := catalogapp.NewService(log, productRepo)
	orderSvc := orderapp.NewService(log, orderRepo, productRepo, clk, cfg.ExpirationWindow)

	// Expiration pipeline
	dispatcher := expiration.NewDispatcher(log, writer, cfg.ExpirationTopic)
	scheduler := expiration.NewScheduler(log, taskStore, dispatcher, clk, cfg.SweepInterval, cfg.TaskMaxRetry)
	dedup := idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	consumer := expiration.NewConsumer(log, cfg.KafkaBrokers, cfg.ExpirationTopic, cfg.ConsumerGroup, cfg.DLQTopic, orderSvc, writer, dedup)

	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.Error("scheduler stopped with error", "err", err)
		}
	}()
	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped with error", "err", err)
			cancel()
		}
	}()

	// HTTP
	r := chi.NewRouter()
	orderhttp.NewHandler(log, orderSvc).Register(r)
	cataloghttp.NewHandler(log, catalogSvc).Register(r)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("order-service shutdown complete")
}
