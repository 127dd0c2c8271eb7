package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/config"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/logger"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, "5gla-sensor-integration")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting 5gla sensor integration service",
		zap.String("http_addr", cfg.Server.Addr),
		zap.String("fiware_broker", cfg.Fiware.BrokerURL),
		zap.Bool("subscriptions_enabled", cfg.Fiware.SubscriptionsEnabled),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
	)

	integrationService, err := service.NewIntegrationService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create integration service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := integrationService.Start(ctx); err != nil {
			zapLogger.Fatal("Failed to start integration service", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := integrationService.Stop(shutdownCtx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
