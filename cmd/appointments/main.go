package main

import (
	"clinicflow/internal/appointments/handler"
	"clinicflow/internal/appointments/repository"
	"clinicflow/internal/appointments/service"
	"clinicflow/internal/appointments/validator"
	"clinicflow/internal/notifications"
	"clinicflow/internal/providers"
	"clinicflow/internal/scheduling"
	"clinicflow/pkg/app"
	"clinicflow/pkg/config"
	"clinicflow/pkg/kafka"
	kafka_config "clinicflow/pkg/kafka/config"
	kafka_middleware "clinicflow/pkg/kafka/middleware"
)

const ServiceName = "appointments"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.SlotLockBackend == config.SlotLockRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Appointments service")
	serverApp := app.NewApplication()
	appointmentHandler := initServices(cfg, serverApp)
	serverApp.SetApp(cfg, appointmentHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) *handler.AppointmentHandler {
	appointmentValidator := validator.NewAppointmentValidator(cfg.Log)
	appointmentRepo := repository.NewMongoAppointmentRepository(cfg)

	var locker repository.SlotLocker
	if cfg.SlotLockBackend == config.SlotLockRedis {
		locker = repository.NewRedisSlotLocker(cfg.Client.Redis, ServiceName)
	} else {
		locker = repository.NewMongoSlotLocker(cfg)
	}

	defaultWindow, err := scheduling.ParseWindow(cfg.DefaultWorkStart, cfg.DefaultWorkEnd)
	if err != nil {
		cfg.Log.Fatal("Invalid default working window", "error", err)
	}
	directory, err := providers.NewDirectory(
		providers.NewMongoSource(cfg),
		defaultWindow,
		cfg.ProviderCacheSize,
		cfg.ProviderCacheTTL,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create provider directory", "error", err)
	}

	dispatcher, events := initNotifications(cfg, serverApp)

	bookingService := service.NewBookingService(
		appointmentRepo,
		locker,
		appointmentValidator,
		directory,
		events,
		cfg,
	)
	bulkService := service.NewBulkService(bookingService, dispatcher, appointmentValidator, cfg)
	resolutionService := service.NewResolutionService(bookingService, directory, resolutionOrder(cfg.ResolutionOrder), cfg)

	cfg.Log.Info("Appointment services initialized",
		"database", cfg.MongoDatabaseName,
		"slot_lock_backend", cfg.SlotLockBackend,
		"events_enabled", cfg.EventsEnabled,
		"resolution_order", cfg.ResolutionOrder,
	)
	return handler.NewAppointmentHandler(bookingService, bulkService, resolutionService, cfg.Log)
}

func resolutionOrder(name string) scheduling.Less {
	if name == config.ResolutionConfirmedFirst {
		return scheduling.ConfirmedFirst
	}
	return scheduling.CreationOrder
}

func initNotifications(cfg *config.Config, serverApp *app.Application) (service.NotificationDispatcher, service.EventPublisher) {
	if !cfg.EventsEnabled {
		cfg.Log.Warn("Events disabled, reminders are unavailable and schedule events are only logged")
		return notifications.DisabledDispatcher{}, notifications.NewLogEventPublisher(cfg.Log)
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	reminders := newProducer(cfg, kafkaCfg, cfg.RemindersTopic)
	scheduleEvents := newProducer(cfg, kafkaCfg, cfg.ScheduleEventsTopic)
	serverApp.OnShutdown(func() {
		for _, p := range []*kafka.Producer{reminders, scheduleEvents} {
			if err := p.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "topic", p.Topic(), "error", err)
			}
		}
	})

	return notifications.NewKafkaDispatcher(reminders, ServiceName, cfg.Log),
		notifications.NewKafkaEventPublisher(scheduleEvents, ServiceName, cfg.Log)
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, topic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	return producer
}
