package main

import (
	assethandler "gearbase/internal/assets/handler"
	assetrepository "gearbase/internal/assets/repository"
	assetservice "gearbase/internal/assets/service"
	assetvalidator "gearbase/internal/assets/validator"
	"gearbase/internal/bookings/handler"
	"gearbase/internal/bookings/repository"
	"gearbase/internal/bookings/service"
	"gearbase/internal/bookings/validator"
	bulkhandler "gearbase/internal/bulk/handler"
	bulkservice "gearbase/internal/bulk/service"
	"gearbase/internal/events"
	"gearbase/pkg/app"
	"gearbase/pkg/config"
	"gearbase/pkg/kafka"
	kafka_config "gearbase/pkg/kafka/config"
	kafka_middleware "gearbase/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

	publisher := initPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Warn("Failed to close event publisher", "error", err)
		}
	}()

	bookingService, assetService, bulkService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, cfg.Log),
		assethandler.NewAssetHandler(assetService, cfg.Log),
		bulkhandler.NewBulkHandler(bulkService, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) (service.BookingService, assetservice.AssetService, bulkservice.BulkService) {
	assetRepo := assetrepository.NewMongoAssetRepository(cfg)
	assetService := assetservice.NewAssetService(assetRepo, assetvalidator.NewAssetValidator(cfg.Log), cfg)

	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewAssetLockRepository(cfg)
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		assetRepo,
		bookingValidator,
		publisher,
		cfg,
	)

	bulkService := bulkservice.NewBulkService(bookingRepo, bookingService, bookingValidator, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return bookingService, assetService, bulkService
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Event publishing disabled")
		return events.NewNopPublisher()
	}

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.EventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())

	cfg.Log.Info("Event publishing enabled", "topic", cfg.EventsTopic)
	return events.NewKafkaPublisher(producer, cfg.Log)
}
