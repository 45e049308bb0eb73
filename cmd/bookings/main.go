package main

import (
	"agenda/internal/availability/cache"
	availabilityrepo "agenda/internal/availability/repository"
	"agenda/internal/bookings/events"
	"agenda/internal/bookings/handler"
	"agenda/internal/bookings/repository"
	"agenda/internal/bookings/service"
	"agenda/internal/bookings/validator"
	"agenda/pkg/app"
	"agenda/pkg/config"
	"agenda/pkg/kafka"
	kafka_config "agenda/pkg/kafka/config"
	kafka_middleware "agenda/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication()
	bookingService := initServices(cfg, serverApp)
	serverApp.SetApp(cfg, handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) service.BookingService {
	slotCache := cache.NewNoopSlotCache()
	if cfg.Client.Redis != nil {
		slotCache = cache.NewRedisSlotCache(cfg.Client.Redis, cfg.SlotsCacheTTL)
	}

	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewBookingLockRepository(cfg),
		availabilityrepo.NewMongoSnapshotRepository(cfg),
		slotCache,
		initPublisher(cfg, serverApp),
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"lock_ttl", cfg.BookingLockTTL,
		"kafka_enabled", cfg.KafkaEnabled,
	)
	return bookingService
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	log := cfg.Log.Component("kafka")
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, kafkaCfg.BookingEventsDLQ, log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())

	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events producer", "error", err)
		}
	})
	return events.NewKafkaPublisher(producer)
}
