package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"orderpipeline/internal/config"
	"orderpipeline/internal/infrastructure/kafka"
	"orderpipeline/internal/infrastructure/logger"
	"orderpipeline/internal/infrastructure/metrics"
	"orderpipeline/internal/infrastructure/mysql"
	"orderpipeline/internal/messaging"
	"orderpipeline/internal/order"
	"orderpipeline/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	m := metrics.New()
	kafkaClient := kafka.NewClient(cfg.Kafka.Brokers)

	var writer kafka.MessageWriter = messaging.NewDiscardWriter(zapLogger)
	if cfg.Kafka.Enabled() {
		w := kafkaClient.NewWriter()
		defer w.Close()
		writer = w
	} else {
		zapLogger.Warn("KAFKA_BROKERS not set, outbound messages are discarded and no orders are consumed")
	}

	gateway := messaging.NewKafkaGateway(writer, m, zapLogger)
	orderModule := order.NewModule(db, cfg, gateway, m, zapLogger)

	router := server.NewRouter(orderModule.Controller, m, zapLogger)
	srv := server.New(cfg.Server, router, zapLogger)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	if cfg.Kafka.Enabled() {
		reader := kafkaClient.NewReader(cfg.Kafka.InboundTopic, cfg.Kafka.GroupID)
		defer reader.Close()

		orderConsumer := orderModule.NewConsumer(reader)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := orderConsumer.Run(consumerCtx); err != nil {
				zapLogger.Error("order consumer error", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	stopConsumer()
	wg.Wait()

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
