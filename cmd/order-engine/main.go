package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	invdomain "github.com/dmehra2102/bookstore-order-engine/internal/inventory/domain"
	"github.com/dmehra2102/bookstore-order-engine/internal/inventory/ledger"
	invpg "github.com/dmehra2102/bookstore-order-engine/internal/inventory/postgres"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/application"
	orderhttp "github.com/dmehra2102/bookstore-order-engine/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/bookstore-order-engine/internal/order/infrastructure/kafka"
	"github.com/dmehra2102/bookstore-order-engine/internal/order/infrastructure/memory"
	orderpg "github.com/dmehra2102/bookstore-order-engine/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/bookstore-order-engine/pkg/idempotency"
	"github.com/dmehra2102/bookstore-order-engine/pkg/logging"
	"github.com/dmehra2102/bookstore-order-engine/pkg/outbox"
	"github.com/dmehra2102/bookstore-order-engine/pkg/shutdown"
	"github.com/dmehra2102/bookstore-order-engine/pkg/tracing"
)

func main() {
	_ = godotenv.Load()
	log := logging.New(logging.ParseLevel(env("LOG_LEVEL", "info")))

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Configuration
	pgURL := env("PG_URL", "")
	redisAddr := env("REDIS_ADDR", "")
	kafkaBrokers := []string{env("KAFKA_ADDR", "localhost:9092")}
	otlpAddr := env("OTLP_ADDR", "localhost:4318")
	httpAddr := env("HTTP_ADDR", ":8080")
	outboxTopic := env("OUTBOX_TOPIC", "order.events")
	stockFile := env("STOCK_FILE", "")

	tp, err := tracing.Init(ctx, "order-engine", otlpAddr, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var (
		stockLedger application.StockLedger
		orderStore  application.OrderStore
	)

	if pgURL != "" {
		pool, err := pgxpool.New(ctx, pgURL)
		if err != nil {
			log.Error("pg connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		invRepo := invpg.NewRepository(log, pool)
		orderRepo := orderpg.NewRepository(log, pool)
		if err := invRepo.EnsureSchema(ctx); err != nil {
			log.Error("inventory schema failed", "err", err)
			os.Exit(1)
		}
		if err := orderRepo.EnsureSchema(ctx); err != nil {
			log.Error("order schema failed", "err", err)
			os.Exit(1)
		}
		if stockFile != "" {
			seed, err := loadStock(stockFile)
			if err != nil {
				log.Error("stock seed failed", "file", stockFile, "err", err)
				os.Exit(1)
			}
			if err := invRepo.Seed(ctx, seed); err != nil {
				log.Error("stock seed failed", "err", err)
				os.Exit(1)
			}
		}
		stockLedger = invRepo
		orderStore = orderRepo

		// Outbox relay: announces committed orders on Kafka.
		writer := orderkafka.NewWriter(kafkaBrokers)
		defer writer.Close()
		store := orderpg.NewOutboxStore(log, pool)
		dispatch := outbox.NewDispatcher(log, writer, outboxTopic)
		relay := outbox.NewRelay(log, store, dispatch, "order-engine-relay")
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	} else {
		seed := []invdomain.BookStock{}
		if stockFile != "" {
			s, err := loadStock(stockFile)
			if err != nil {
				log.Error("stock seed failed", "file", stockFile, "err", err)
				os.Exit(1)
			}
			seed = s
		}
		log.Info("running with in-memory ledger and store", "books", len(seed))
		stockLedger = ledger.New(log, seed)
		orderStore = memory.NewStore()
	}

	processor := application.NewProcessor(log, stockLedger, orderStore)
	handler := orderhttp.NewHandler(log, processor)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		idem := idempotency.NewStore(rdb, 24*time.Hour)
		r.Use(idempotency.Middleware(log, idem))
	}
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("order-engine shutdown complete")
}

func loadStock(path string) ([]invdomain.BookStock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []invdomain.BookStock
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
