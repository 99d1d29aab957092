package main

import (
	"tixgate/internal/ticketing/handler"
	"tixgate/internal/ticketing/notify"
	"tixgate/internal/ticketing/repository"
	"tixgate/internal/ticketing/service"
	"tixgate/internal/ticketing/validator"
	"tixgate/pkg/app"
	"tixgate/pkg/config"
	kafka_config "tixgate/pkg/kafka/config"
)

const ServiceName = "ticketing"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Ticketing service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ticketingHandler := initHandlers(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(ticketingHandler)
	serverApp.Run()
}

func initHandlers(cfg *config.Config) *handler.TicketingHandler {
	requestValidator := validator.NewRequestValidator(cfg.MaxTicketsPerBooking, cfg.Log)

	eventRepo := repository.NewMongoEventRepository(cfg)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	waitlistRepo := repository.NewMongoWaitlistRepository(cfg)
	lockRepo := repository.NewMongoEventLockRepository(cfg)

	var notifier service.Notifier
	kafkaNotifier, err := notify.NewKafkaNotifier(kafka_config.Load(), cfg.Log)
	if err != nil {
		// Promotions still work without the notification side channel.
		cfg.Log.Warn("Kafka notifier unavailable, promotions will not be published", "error", err)
	} else {
		notifier = kafkaNotifier
	}

	availabilityService := service.NewAvailabilityService(eventRepo, bookingRepo, waitlistRepo, cfg)
	admissionService := service.NewAdmissionService(eventRepo, bookingRepo, waitlistRepo, lockRepo, requestValidator, cfg)
	waitlistService := service.NewWaitlistService(eventRepo, bookingRepo, waitlistRepo, lockRepo, requestValidator, cfg)
	promotionService := service.NewPromotionService(eventRepo, bookingRepo, waitlistRepo, lockRepo, notifier, cfg)
	bookingService := service.NewBookingService(eventRepo, bookingRepo, lockRepo, promotionService, cfg)

	cfg.Log.Info("Ticketing services initialized", "database", cfg.MongoDatabaseName)

	return handler.NewTicketingHandler(
		handler.NewBookingHandler(availabilityService, admissionService, bookingService, cfg.Log),
		handler.NewWaitlistHandler(waitlistService, promotionService, cfg.Log),
	)
}
