package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/notification"
	"github.com/agrosense/irrigation-server/internal/protocol"
	"github.com/agrosense/irrigation-server/internal/queue"
	"github.com/agrosense/irrigation-server/pkg/config"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.Info("Starting Notification Service...")

	notifier := notification.NewEmailNotifier(&cfg.SMTP, log)
	if err := notifier.TestConnection(); err != nil {
		log.WithError(err).Warn("SMTP connection check failed, notifications will be logged only")
	}

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, "notification-group")
	defer consumer.Close()

	ctx := context.Background()
	log.Info("Notification Service is running")

	go func() {
		for {
			msg, err := consumer.Consume(ctx)
			if err != nil {
				log.WithError(err).Error("Failed to consume message")
				continue
			}

			event, err := protocol.DecodeIrrigationEvent(msg.Value)
			if err != nil {
				log.WithError(err).Warn("Skipping undecodable event")
				if err := consumer.Commit(ctx, msg); err != nil {
					log.WithError(err).Error("Failed to commit offset")
				}
				continue
			}

			if err := notifier.SendEventNotification(event); err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"field": event.FieldID,
					"type":  event.Type,
				}).Error("Failed to send notification")
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
