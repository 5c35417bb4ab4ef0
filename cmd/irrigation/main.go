package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/decision"
	"github.com/agrosense/irrigation-server/internal/protocol"
	"github.com/agrosense/irrigation-server/internal/queue"
	"github.com/agrosense/irrigation-server/internal/settings"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/telemetry"
	"github.com/agrosense/irrigation-server/pkg/config"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.Info("Starting Irrigation Control Service...")

	db, err := store.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	log.Info("Connected to database")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	log.Info("Connected to Redis")

	thresholds := settings.NewStore(redisClient)
	states := decision.NewStateStore(redisClient)

	eventProducer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer eventProducer.Close()

	controller := decision.NewController(states, db, eventProducer, log)

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings, "irrigation-group")
	defer consumer.Close()

	log.Info("Irrigation Control Service is running")

	go func() {
		for {
			msg, err := consumer.Consume(ctx)
			if err != nil {
				log.WithError(err).Error("Failed to consume message")
				continue
			}

			reading, err := protocol.DecodeReadingMessage(msg.Value)
			if err != nil {
				log.WithError(err).Warn("Skipping undecodable message")
				if err := consumer.Commit(ctx, msg); err != nil {
					log.WithError(err).Error("Failed to commit offset")
				}
				continue
			}

			if err := evaluate(ctx, controller, thresholds, reading, log); err != nil {
				log.WithError(err).WithField("field", reading.FieldID).Error("Evaluation failed")
			}

			if err := consumer.Commit(ctx, msg); err != nil {
				log.WithError(err).Error("Failed to commit offset")
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down gracefully...")
}

// evaluate runs one reading through the decision pipeline using the
// field's stored thresholds. The decision always uses the raw reading,
// never an aggregated value.
func evaluate(ctx context.Context, controller *decision.Controller, thresholds *settings.Store, reading *protocol.ReadingMessage, log *logrus.Logger) error {
	cfg, err := thresholds.Get(ctx, reading.FieldID)
	if err != nil {
		return err
	}

	at, err := time.Parse(time.RFC3339, reading.Data.Timestamp)
	if err != nil {
		log.WithFields(logrus.Fields{
			"field":     reading.FieldID,
			"timestamp": reading.Data.Timestamp,
		}).Warn("Unparseable reading timestamp, using receive time")
		at = reading.ReceivedAt
	}

	current := telemetry.CurrentMoisture{
		Moisture1: valueOrZero(reading.Data.Moisture1),
		Moisture2: valueOrZero(reading.Data.Moisture2),
		At:        at,
	}

	return controller.Evaluate(ctx, reading.FieldID, reading.Farm, current, cfg)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
