package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/abcretail/backoffice/pkg/idempotency"
	"github.com/abcretail/backoffice/pkg/logging"
	"github.com/abcretail/backoffice/pkg/outbox"
	"github.com/abcretail/backoffice/pkg/shutdown"
	"github.com/abcretail/backoffice/pkg/tracing"

	"github.com/abcretail/backoffice/internal/blob"
	catalogapp "github.com/abcretail/backoffice/internal/catalog/application"
	cataloghttp "github.com/abcretail/backoffice/internal/catalog/infrastructure/http"
	catalogtable "github.com/abcretail/backoffice/internal/catalog/infrastructure/table"
	"github.com/abcretail/backoffice/internal/config"
	"github.com/abcretail/backoffice/internal/notify"
	notifykafka "github.com/abcretail/backoffice/internal/notify/kafka"
	orderapp "github.com/abcretail/backoffice/internal/order/application"
	orderhttp "github.com/abcretail/backoffice/internal/order/infrastructure/http"
	ordertable "github.com/abcretail/backoffice/internal/order/infrastructure/table"
	"github.com/abcretail/backoffice/internal/store"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "backoffice", cfg.OTLPEndpoint, log)
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

	tableStore := store.NewPostgres(log, pool)
	if err := tableStore.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "err", err)
		os.Exit(1)
	}
	outboxStore := store.NewOutboxStore(log, tableStore)

	writer := notifykafka.NewWriter([]string{cfg.KafkaAddr})
	defer writer.Close()

	dispatch := outbox.NewDispatcher(log, writer)
	relay := outbox.NewRelay(log, outboxStore, dispatch, "backoffice-relay")

	emitter := notify.NewEmitter(log, outboxStore, cfg.OrderTopic, cfg.StockTopic)
	blobs := blob.NewFilesystem(cfg.BlobDir, cfg.BlobBaseURL)

	productRepo := catalogtable.NewProductRepository(tableStore)
	customerRepo := catalogtable.NewCustomerRepository(tableStore)
	orderRepo := ordertable.NewOrderRepository(tableStore)

	catalogSvc := catalogapp.NewService(log, productRepo, customerRepo, emitter, blobs)
	orderSvc := orderapp.NewService(log, orderRepo, productRepo, customerRepo, emitter, blobs, orderapp.Options{
		LegacyEditStock: cfg.LegacyEditStock,
		MaxAttempts:     cfg.StockRetryMax,
	})

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	r := chi.NewRouter()
	r.Use(idempotency.Middleware(log, idem))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/orders", orderhttp.NewHandler(log, orderSvc).Routes())
	r.Mount("/", cataloghttp.NewHandler(log, catalogSvc).Routes())
	r.Handle("/blobs/*", http.StripPrefix("/blobs/", http.FileServer(http.Dir(cfg.BlobDir))))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("backoffice shutdown complete")
}
