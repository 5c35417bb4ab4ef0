package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/dashboard"
	"github.com/agrosense/irrigation-server/internal/refresh"
	"github.com/agrosense/irrigation-server/internal/settings"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/weather"
	"github.com/agrosense/irrigation-server/pkg/config"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.Info("Starting Dashboard Backend...")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	log.Info("Connected to Redis")

	fieldID := cfg.Dashboard.FieldID
	service := dashboard.NewService(db, log)

	// The initial load is retryable: a transient database error should
	// not kill the backend before it ever serves data.
	var snap *dashboard.Snapshot
	for {
		snap, err = service.Load(fieldID)
		if err == nil {
			break
		}
		log.WithError(err).Warn("Initial load failed, retrying in 5s")
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}
	}

	view := service.View(snap)
	log.WithFields(logrus.Fields{
		"field":    fieldID,
		"month":    snap.Selection.MonthKey,
		"days":     len(view.Weekly),
		"readings": len(view.Daily),
	}).Info("Dashboard snapshot ready")

	current := dashboard.NewCurrentView()
	controller := refresh.NewController(
		fieldID,
		cfg.Refresh.Interval,
		db,
		weather.NewClient(&cfg.Weather, log),
		settings.NewStore(redisClient),
		current,
		log,
	)
	go controller.Run(ctx)
	defer controller.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Refresh.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				state, ok := current.Get()
				if !ok {
					continue
				}
				log.WithFields(logrus.Fields{
					"moisture1":  state.Moisture.Moisture1,
					"moisture2":  state.Moisture.Moisture2,
					"condition":  state.Weather.Condition,
					"irrigation": state.Decision.Active,
					"reason":     state.Decision.Reason,
				}).Info("Live state")
			}
		}
	}()

	log.Info("Dashboard Backend is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down gracefully...")
}
