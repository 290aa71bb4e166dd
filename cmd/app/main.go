package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/itinerary/api"
	"github.com/Domenick1991/itinerary/config"
	"github.com/Domenick1991/itinerary/internal/bootstrap"
	"github.com/Domenick1991/itinerary/internal/cache"
	"github.com/Domenick1991/itinerary/internal/database"
	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/events"
	"github.com/Domenick1991/itinerary/internal/form"
	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/Domenick1991/itinerary/internal/logging"
	"github.com/Domenick1991/itinerary/internal/onlineticket"
	"github.com/Domenick1991/itinerary/internal/repository"
	"github.com/Domenick1991/itinerary/internal/repository/memory"
	"github.com/Domenick1991/itinerary/internal/service/deletion"
	"github.com/Domenick1991/itinerary/internal/service/documents"
	"github.com/Domenick1991/itinerary/internal/service/imports"
	"github.com/Domenick1991/itinerary/internal/service/passes"
	"github.com/Domenick1991/itinerary/internal/service/reservations"
	"github.com/Domenick1991/itinerary/internal/service/trips"
	"github.com/Domenick1991/itinerary/internal/settings"
	"github.com/Domenick1991/itinerary/internal/storage"
	"github.com/sirupsen/logrus"
)

type repositories struct {
	reservations repository.ReservationRepository
	groups       repository.TripGroupRepository
	passes       repository.PassRepository
	documents    repository.DocumentRepository
	deletions    repository.DeletionRepository
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repos  repositories
		checks []bootstrap.Check
	)
	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore()
		repos = repositories{store.Reservations, store.TripGroups, store.Passes, store.Documents, store.Deletions}
		logger.Warn("using in-memory storage, data is lost on exit")
	default:
		pool, err := database.Open(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		repos = repositories{
			reservations: repository.NewReservationRepository(pool),
			groups:       repository.NewTripGroupRepository(pool),
			passes:       repository.NewPassRepository(pool),
			documents:    repository.NewDocumentRepository(pool),
			deletions:    repository.NewDeletionRepository(pool),
		}
		checks = append(checks, pool.Ping)
	}

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("open document storage: %v", err)
	}

	settingsStore, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		logger.Fatalf("open settings: %v", err)
	}
	defer settingsStore.Close()

	vendors := onlineticket.NewRegistry(
		onlineticket.NewDBVendor(cfg.Vendors.DBEndpoint, cfg.VendorTimeout(), logger),
		onlineticket.NewSNCFVendor(cfg.Vendors.SNCFEndpoint, cfg.VendorTimeout(), logger),
	)
	settingsService := settings.NewService(settingsStore, cfg.Settings.Locale, vendors.IDs(), logger)

	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		publisher = events.NewPublisher(producer, cfg.Kafka.EventsTopic, logger,
			events.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))
	}

	var (
		sessions     imports.SessionStore = cache.NewMemorySessions()
		tripOpts                          = []trips.TripServiceOption{trips.WithPublisher(publisher)}
		deletionOpts []deletion.DeletionServiceOption
	)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.GroupsCacheTTL(), cfg.SessionTTL())
		defer redisCache.Close()
		sessions = redisCache
		tripOpts = append(tripOpts, trips.WithCache(redisCache))
		deletionOpts = append(deletionOpts, deletion.WithLock(redisCache))
		checks = append(checks, redisCache.Ping)
	}

	documentService := documents.NewDocumentService(repos.documents, blobs, cfg.Storage.MaxDocument, logger)
	reservationService := reservations.NewReservationService(repos.reservations, repos.groups, documentService, logger,
		reservations.WithPublisher(publisher))
	tripService := trips.NewTripService(repos.groups, repos.reservations, reservationService, logger, tripOpts...)
	reservationService.SetGroupTracker(tripService)
	passService := passes.NewPassService(repos.passes, documentService, logger, passes.WithPublisher(publisher))

	deletionOpts = append(deletionOpts,
		deletion.WithDeleter(domain.EntityTripGroup, tripService),
		deletion.WithDeleter(domain.EntityReservation, reservationService),
		deletion.WithDeleter(domain.EntityPass, passService),
		deletion.WithDeleter(domain.EntityDocument, reservationService.DocumentRemover()),
	)
	deletionService := deletion.NewDeletionService(repos.deletions, cfg.ConfirmationTTL(), logger, deletionOpts...)

	importService := imports.NewImportService(sessions, reservationService, passService, tripService, logger,
		imports.WithVendors(vendors),
		imports.WithSources(settingsService),
		imports.WithSessionTTL(cfg.SessionTTL()),
	)

	if err := tripService.Rescan(ctx); err != nil {
		logger.WithError(err).Warn("initial trip grouping failed")
	}

	router := api.NewRouter(api.Handlers{
		Trips:        api.NewTripHandler(tripService, reservationService, deletionService),
		Reservations: api.NewReservationHandler(reservationService, deletionService),
		Documents:    api.NewDocumentHandler(documentService, deletionService),
		Passes:       api.NewPassHandler(passService, deletionService),
		Imports:      api.NewImportHandler(importService),
		Deletions:    api.NewDeletionHandler(deletionService),
		Settings:     api.NewSettingsHandler(settingsService),
		Forms:        api.NewFormHandler(form.New()),
	}, logger, cfg.HTTP.CORSOrigins)

	if err := bootstrap.Run(ctx, cfg, router, logger, checks...); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
