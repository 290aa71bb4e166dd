package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/itinerary/config"
	"github.com/Domenick1991/itinerary/internal/cache"
	"github.com/Domenick1991/itinerary/internal/database"
	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/Domenick1991/itinerary/internal/logging"
	"github.com/Domenick1991/itinerary/internal/notify"
	"github.com/Domenick1991/itinerary/internal/repository"
	"github.com/Domenick1991/itinerary/internal/service/deletion"
	"github.com/Domenick1991/itinerary/internal/settings"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format).WithField("component", "worker")

	if cfg.Database.Driver == "memory" {
		logger.Fatal("the worker needs a shared database; database.driver is memory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Open(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	var opts []deletion.DeletionServiceOption
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.GroupsCacheTTL(), cfg.SessionTTL())
		defer redisCache.Close()
		opts = append(opts, deletion.WithLock(redisCache))
	}
	deletionService := deletion.NewDeletionService(repository.NewDeletionRepository(pool), cfg.ConfirmationTTL(), logger, opts...)

	if len(cfg.Kafka.Brokers) > 0 {
		settingsStore, err := settings.Open(cfg.Settings.Path)
		if err != nil {
			logger.Fatalf("open settings: %v", err)
		}
		defer settingsStore.Close()
		prefs := settings.NewService(settingsStore, cfg.Settings.Locale, nil, logger)
		notifier := notify.NewNotifier(prefs, logger)

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		go func() {
			err := consumer.ConsumeEvents(ctx, func(ctx context.Context, event kafka.Event) error {
				if err := notifier.Send(ctx, event); err != nil {
					logger.WithError(err).WithField("entity_id", event.EntityID).Warn("notification dropped")
				}
				return nil
			}, func(msg kafkaGo.Message, err error) {
				logger.WithError(err).WithField("offset", msg.Offset).Warn("skipping undecodable event")
			})
			if err != nil && ctx.Err() == nil {
				logger.WithError(err).Error("consumer stopped")
			}
		}()
	}

	expireTicker := time.NewTicker(cfg.SweepInterval())
	defer expireTicker.Stop()

	logger.Info("worker started")
	for {
		select {
		case <-expireTicker.C:
			expired, err := deletionService.ExpirePending(ctx)
			if err != nil {
				logger.WithError(err).Error("expire deletion requests")
				continue
			}
			if len(expired) > 0 {
				logger.WithField("count", len(expired)).Info("expired deletion requests")
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
