package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/config"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/logger"
	"github.com/ariefcatur/go-catalog-orders/internal/memstore"
	"github.com/ariefcatur/go-catalog-orders/internal/metrics"
	"github.com/ariefcatur/go-catalog-orders/internal/notify"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/ariefcatur/go-catalog-orders/internal/postgres"
	"github.com/ariefcatur/go-catalog-orders/internal/pricing"
	"github.com/ariefcatur/go-catalog-orders/internal/redisx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// backend is implemented by both *postgres.Store and *memstore.Store.
type backend interface {
	customer.Store
	Catalog() catalog.Store
	Orders() orders.Store
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", cfg.ServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store backend
	switch cfg.Store {
	case config.StoreMemory:
		log.Info("using in-memory store")
		store = memstore.New()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresConns)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(db); err != nil {
				log.Fatal("db migrate", zap.Error(err))
			}
		}
		store = postgres.New(db)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
	prod.Start(ctx)

	// Services
	catalogSvc := &catalog.Service{Store: store.Catalog(), Log: log, Metrics: m}
	agg := &pricing.Aggregator{
		Catalog: catalogSvc,
		Cache:   &redisx.PriceCache{RDB: rdb, TTL: cfg.PricingCacheTTL},
		Log:     log,
		Metrics: m,
	}
	proc := &orders.Processor{
		Store: store.Orders(),
		Notifiers: []orders.Notifier{
			&notify.KafkaNotifier{Producer: prod, ServiceName: cfg.ServiceName, AdminEmail: cfg.Notification.AdminEmail},
			&notify.AuditNotifier{Log: log},
		},
		Log:     log,
		Metrics: m,
	}

	router := httpx.NewRouter(log, reg)
	(&httpx.CatalogHandler{Catalog: catalogSvc, Pricing: agg}).Register(router)
	(&httpx.OrdersHandler{Orders: proc, Customers: &customer.Service{Store: store}}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop accepting, flush the buffer
	prod.WaitClosed() // drain
	cancel()
}
