package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/connection"
	"github.com/agrosense/irrigation-server/internal/queue"
	"github.com/agrosense/irrigation-server/internal/server"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/timer"
	"github.com/agrosense/irrigation-server/pkg/config"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.Info("Starting Irrigation Ingest Server...")

	db, err := store.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	log.Info("Connected to database")

	if err := db.RunMigrations("migrations"); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	if err := queue.CreateTopic(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicReadings,
		cfg.Kafka.NumPartitions,
		1,
	); err != nil {
		log.WithError(err).Warn("Topic creation failed (may already exist)")
	}
	if err := queue.CreateTopic(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicEvents,
		1, // events stay ordered on a single partition
		1,
	); err != nil {
		log.WithError(err).Warn("Topic creation failed (may already exist)")
	}

	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings)
	defer producer.Close()
	log.Info("Kafka producer initialized")

	connManager := connection.NewManager(cfg.TCPServer.MaxConnections)
	timerManager := timer.NewManager()
	timerManager.Start()
	defer timerManager.Stop()

	tcpServer := server.NewTCPServer(&cfg.TCPServer, connManager, timerManager, producer, log)
	if err := tcpServer.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start TCP server")
	}
	defer tcpServer.Stop()

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings, "db-writer-group")
	defer consumer.Close()

	batchWriter := queue.NewBatchWriter(consumer, db, 100, 5*time.Second, log)
	if err := batchWriter.Start(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to start batch writer")
	}
	defer batchWriter.Stop()
	log.Info("Database writer started")

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := connManager.Stats()
			log.WithFields(logrus.Fields{
				"connections":    stats.TotalConnections,
				"maxConnections": stats.MaxConnections,
				"uniqueFields":   stats.UniqueFields,
				"pendingTimers":  timerManager.Pending(),
			}).Info("Server statistics")
		}
	}()

	log.WithField("port", cfg.TCPServer.Port).Info("Irrigation Ingest Server is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down gracefully...")
}
