package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tabshare/tabshare/internal/domain"
	"github.com/tabshare/tabshare/internal/infrastructure/configs"
	"github.com/tabshare/tabshare/internal/infrastructure/events"
	"github.com/tabshare/tabshare/internal/infrastructure/identity"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
	"github.com/tabshare/tabshare/internal/infrastructure/messaging"
	"github.com/tabshare/tabshare/internal/infrastructure/metrics"
	"github.com/tabshare/tabshare/internal/infrastructure/ratelimiter"
	memrepo "github.com/tabshare/tabshare/internal/infrastructure/repository"
	"github.com/tabshare/tabshare/internal/infrastructure/tracing"
	"github.com/tabshare/tabshare/internal/infrastructure/ws"
	"github.com/tabshare/tabshare/internal/persistence/db"
	"github.com/tabshare/tabshare/internal/persistence/repository"
	"github.com/tabshare/tabshare/internal/presentation/api"
	authHandler "github.com/tabshare/tabshare/internal/presentation/handler/auth"
	"github.com/tabshare/tabshare/internal/presentation/handler/health"
	"github.com/tabshare/tabshare/internal/presentation/handler/messages"
	"github.com/tabshare/tabshare/internal/presentation/handler/proofs"
	"github.com/tabshare/tabshare/internal/presentation/handler/rooms"
)

const (
	serviceName = "tabshare-api"
	version     = "1.0.0"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())
	logger.Init()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	store, roomDirectory, userRepository, auditRepository, cleanup := buildStorage(ctx, cfg)
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	core := ws.NewCore(store, logger, m)
	go core.Run()

	sequencer := ws.NewSequencer(store, core, logger)

	var rabbitmq *messaging.RabbitMQ
	if cfg.AMQP.Enabled {
		rabbitmq, err = messaging.NewRabbitMQ(cfg.AMQP.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		log.Println("Starting RabbitMQ connection")

		if auditRepository != nil {
			auditConsumer := events.NewAuditConsumer(rabbitmq, auditRepository)
			go func() {
				if err := auditConsumer.Listen(); err != nil {
					logger.Error(logging.RabbitMQ, logging.ExternalService, "audit consumer stopped", map[logging.ExtraKey]any{
						logging.ErrorMessage: err.Error(),
					})
				}
			}()
		}
	}
	roomPublisher := events.NewRoomPublisher(rabbitmq)

	provider := identity.NewProvider(cfg.Identity.Secret, cfg.Identity.TokenTTL)

	healthH := health.NewHandler(version)
	authH := authHandler.NewHandler(userRepository, provider)
	roomsH := rooms.NewHandler(roomDirectory, userRepository, core, sequencer, roomPublisher, logger, cfg.Timeline)
	messagesH := messages.NewHandler(roomDirectory, store, sequencer)
	proofsH := proofs.NewHandler(roomDirectory, store, sequencer, roomPublisher, logger)

	var cache ratelimiter.GetterSetter
	if cfg.RateLimiter.RedisAddr != "" {
		cache = ratelimiter.NewRedis(cfg.RateLimiter.RedisAddr)
	}
	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		Cache:            cache,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(*cfg, authH, roomsH, messagesH, proofsH, healthH, provider, logger, rl, registry)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

// buildStorage wires the configured storage driver. The memory driver exists
// for local runs and tests; everything durable goes through mongo.
func buildStorage(ctx context.Context, cfg *configs.Config) (
	domain.TimelineStore,
	domain.RoomDirectory,
	domain.UserRepository,
	domain.RoomAuditRepository,
	func(),
) {
	switch cfg.Storage.Driver {
	case "mongo":
		client, err := db.NewMongoClient(ctx, &db.MongoConfig{
			URI:               cfg.Storage.MongoURI,
			Database:          cfg.Storage.MongoDatabase,
			ConnectionTimeout: cfg.Storage.Timeout,
		})
		if err != nil {
			log.Fatal(err)
		}

		database := db.GetDatabase(client, &db.MongoConfig{
			URI:      cfg.Storage.MongoURI,
			Database: cfg.Storage.MongoDatabase,
		})

		if err := repository.EnsureTimelineIndexes(ctx, database); err != nil {
			log.Fatalf("Failed to create timeline indexes: %v", err)
		}
		if err := repository.EnsureUserIndexes(ctx, database); err != nil {
			log.Fatalf("Failed to create user indexes: %v", err)
		}

		audit := repository.NewRoomAuditRepository(database)
		if err := audit.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create audit indexes: %v", err)
		}

		cleanup := func() {
			if err := db.DisconnectMongo(context.Background(), client); err != nil {
				log.Printf("Failed to disconnect mongo: %v", err)
			}
		}

		return repository.NewTimelineStore(database, cfg.Timeline.SnapshotLimit),
			repository.NewRoomDirectory(database),
			repository.NewUserRepository(database),
			audit,
			cleanup

	case "memory":
		return memrepo.NewInMemoryTimelineStore(int(cfg.Timeline.SnapshotLimit)),
			memrepo.NewInMemoryRoomDirectory(),
			memrepo.NewInMemoryUserRepository(),
			nil,
			func() {}

	default:
		log.Fatalf("Unknown storage driver: %q", cfg.Storage.Driver)
		return nil, nil, nil, nil, nil
	}
}
