package main

import (
	bidconsumer "drivebid/internal/bids/consumer"
	bidhandler "drivebid/internal/bids/handler"
	bidrepo "drivebid/internal/bids/repository"
	bidservice "drivebid/internal/bids/service"
	bidvalidator "drivebid/internal/bids/validator"
	bookinghandler "drivebid/internal/bookings/handler"
	bookingrepo "drivebid/internal/bookings/repository"
	bookingservice "drivebid/internal/bookings/service"
	"drivebid/internal/notify"
	vehiclerepo "drivebid/internal/vehicles/repository"
	"drivebid/pkg/app"
	"drivebid/pkg/clock"
	"drivebid/pkg/config"
	"drivebid/pkg/kafka"
	kafka_config "drivebid/pkg/kafka/config"
)

const ServiceName = "marketplace"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BidTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.BidTopic, cfg.ConsumerGroupID, cfg.BidDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	defer consumer.Close()

	cfg.Log.Info("Starting marketplace service")

	bidRepo := bidrepo.NewMongoBidRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	vehicleRepo := vehiclerepo.NewMongoVehicleRepository(cfg)
	validator := bidvalidator.NewBidValidator(cfg.Log)

	var notifier notify.Notifier
	if cfg.NotifyURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifyURL, cfg.NotifyTimeout, cfg.Log)
	} else {
		cfg.Log.Warn("No notification URL configured, booking notifications disabled")
		notifier = notify.NewNoopNotifier()
	}

	bidService := bidservice.NewBidService(
		bidRepo,
		bookingRepo,
		vehicleRepo,
		validator,
		producer,
		notifier,
		cfg,
	)
	settlementService := bookingservice.NewSettlementService(
		bookingRepo,
		vehicleRepo,
		clock.System(),
		cfg,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		bidhandler.NewHealthHandler(cfg.Client.Mongo.Client, consumer, cfg.Log),
		bidhandler.NewBidHandler(bidService, cfg.Log),
		bookinghandler.NewBookingHandler(settlementService, cfg.Log),
	)
	serverApp.AddWorker(bidconsumer.NewBidConsumer(consumer, bidRepo, validator, cfg))
	serverApp.Run()
}
