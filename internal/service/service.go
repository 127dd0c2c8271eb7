// Package service is the composition root: it wires configuration,
// storage, broker clients, vendor adapters and the API surfaces into
// one runnable unit.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/config"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/consumer"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/credentials"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/database"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/fiware"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/groups"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/httpapi"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imaging"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/mqtt"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/vendors"
)

// IntegrationService owns every long-lived component of the process.
type IntegrationService struct {
	cfg    *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client

	scheduler  *imports.Scheduler
	httpServer *http.Server
}

func NewIntegrationService(cfg *config.Config, logger *zap.Logger) (*IntegrationService, error) {
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	tenantsRepo := repository.NewPostgresTenantsRepo(db)
	groupsRepo := repository.NewPostgresGroupsRepo(db)
	transactionsRepo := repository.NewPostgresTransactionsRepo(db)
	imagesRepo := repository.NewPostgresImagesRepo(db)
	stationaryRepo := repository.NewPostgresStationaryImagesRepo(db)
	watermarksRepo := repository.NewPostgresWatermarksRepo(db)

	entityClient := fiware.NewEntityClient(cfg.Fiware.BrokerURL, logger)
	subscriptionClient := fiware.NewSubscriptionClient(cfg.Fiware.BrokerURL, cfg.Fiware.NotificationURLs, logger)

	resolver := groups.NewResolver(groupsRepo, logger)
	credentialCache := credentials.NewCache(
		credentials.NewRedisStore(redisClient),
		time.Duration(cfg.Credentials.TTLMinutes)*time.Minute,
		logger,
	)

	adapters := []imports.Adapter{
		vendors.NewSoilScoutAdapter(
			vendors.NewSoilScoutClient(cfg.SoilScout.URL, cfg.SoilScout.Username, cfg.SoilScout.Password, logger),
			resolver, entityClient, logger,
		),
		vendors.NewWeenatAdapter(
			vendors.NewWeenatClient(cfg.Weenat.URL, cfg.Weenat.APIToken, logger),
			resolver, entityClient, logger,
		),
		vendors.NewAgvolutionAdapter(
			vendors.NewAgvolutionClient(cfg.Agvolution.URL, cfg.Agvolution.APIToken, logger),
			resolver, entityClient, logger,
		),
		vendors.NewSensoterraAdapter(
			vendors.NewSensoterraClient(cfg.Sensoterra.URL, cfg.Sensoterra.Username, cfg.Sensoterra.Password, credentialCache, logger),
			resolver, entityClient, logger,
		),
		vendors.NewFarm21Adapter(
			vendors.NewFarm21Client(cfg.Farm21.URL, cfg.Farm21.APIToken, logger),
			resolver, entityClient, logger,
		),
	}

	monitor := imports.NewMonitor()
	runner := imports.NewRunner(
		tenantsRepo, watermarksRepo, adapters, monitor,
		time.Duration(cfg.Imports.LookbackDays)*24*time.Hour,
		logger,
	)
	scheduler := imports.NewScheduler(runner, time.Duration(cfg.Imports.IntervalMinutes)*time.Minute, logger)

	imagingService := imaging.NewService(
		transactionsRepo, imagesRepo, stationaryRepo,
		imaging.NewFilesystemStorage(cfg.ImageStorage.Root, logger),
		entityClient, logger,
	)

	router := httpapi.NewRouter(logger)
	router.RegisterMaintenanceRoutes(httpapi.NewMaintenanceHandler(
		subscriptionClient, tenantsRepo, scheduler, monitor,
		cfg.Fiware.SubscriptionsEnabled, logger,
	))
	router.RegisterImageRoutes(httpapi.NewImageHandler(imagingService, tenantsRepo, logger))
	router.RegisterTransactionRoutes(httpapi.NewTransactionHandler(imagingService, tenantsRepo, logger))

	svc := &IntegrationService{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.NewClient(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		cameraConsumer := consumer.NewCameraConsumer(imagingService, tenantsRepo, logger)
		if err := mqttClient.Subscribe(consumer.SubscriptionPattern, 1, cameraConsumer.HandleMessage); err != nil {
			mqttClient.Disconnect()
			db.Close()
			return nil, err
		}
		svc.mqttClient = mqttClient
	}

	return svc, nil
}

// Start launches the import scheduler and serves the API until the
// listener fails or Stop is called.
func (s *IntegrationService) Start(ctx context.Context) error {
	s.scheduler.Start(ctx)
	s.logger.Info("Serving API",
		zap.String("addr", s.cfg.Server.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the service down in reverse start order.
func (s *IntegrationService) Stop(ctx context.Context) error {
	s.scheduler.Stop()
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if err := s.redisClient.Close(); err != nil {
		s.logger.Warn("Failed to close redis client", zap.Error(err))
	}
	return s.db.Close()
}
