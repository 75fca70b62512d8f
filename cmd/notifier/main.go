package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-catalog-orders/internal/config"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/logger"
	"github.com/ariefcatur/go-catalog-orders/internal/notify"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/ariefcatur/go-catalog-orders/internal/redisx"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	service := cfg.ServiceName + "-notifier"
	log = log.With(zap.String("service", service))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	d := &notify.Dispatcher{
		Sender:   &notify.LogSender{Log: log.Named("sender")},
		Dedup:    &redisx.Deduper{RDB: rdb, Service: service},
		SenderID: cfg.Notification.SMSSenderID,
		Log:      log,
	}

	n := cfg.Notification
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, n.Group, orders.TopicOrderPlaced, n.Workers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("notifier consumer started",
			zap.String("group", n.Group), zap.String("topic", orders.TopicOrderPlaced), zap.Int("workers", n.Workers))
		if err := cons.Start(ctx, d.HandleOrderPlaced); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	<-done
}
