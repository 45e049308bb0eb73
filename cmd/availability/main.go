package main

import (
	"agenda/internal/availability/cache"
	"agenda/internal/availability/events"
	"agenda/internal/availability/handler"
	"agenda/internal/availability/repository"
	"agenda/internal/availability/service"
	"agenda/internal/availability/validator"
	"agenda/pkg/app"
	"agenda/pkg/config"
	"agenda/pkg/kafka"
	kafka_config "agenda/pkg/kafka/config"
	kafka_middleware "agenda/pkg/kafka/middleware"
)

const ServiceName = "availability"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Availability service")
	availabilityService := initServices(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewAvailabilityHandler(availabilityService, cfg.Log))
	if cfg.KafkaEnabled {
		initInvalidationConsumer(cfg, serverApp, availabilityService)
	}
	serverApp.Run()
}

func initServices(cfg *config.Config) service.AvailabilityService {
	slotCache := cache.NewNoopSlotCache()
	if cfg.Client.Redis != nil {
		slotCache = cache.NewRedisSlotCache(cfg.Client.Redis, cfg.SlotsCacheTTL)
	}

	availabilityService := service.NewAvailabilityService(
		repository.NewMongoSnapshotRepository(cfg),
		slotCache,
		validator.NewAvailabilityValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Availability service initialized",
		"database", cfg.MongoDatabaseName,
		"granularity_minutes", cfg.SlotGranularityMinutes,
		"slot_cache", cfg.Client.Redis != nil,
	)
	return availabilityService
}

// initInvalidationConsumer drops cached listings when bookings change.
func initInvalidationConsumer(cfg *config.Config, serverApp *app.Application, availabilityService service.AvailabilityService) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	log := cfg.Log.Component("kafka")
	invalidator := events.NewCacheInvalidator(availabilityService, cfg.Log)
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.BookingEventsTopic,
		kafkaCfg.ConsumerGroup,
		kafkaCfg.BookingEventsDLQ,
		invalidator.Handle,
		log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	serverApp.AddWorker(consumer.Start)
	serverApp.OnShutdown(func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events consumer", "error", err)
		}
	})
}
