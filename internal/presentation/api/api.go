package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tabshare/tabshare/internal/infrastructure/configs"
	"github.com/tabshare/tabshare/internal/infrastructure/identity"
	"github.com/tabshare/tabshare/internal/infrastructure/logging"
	"github.com/tabshare/tabshare/internal/infrastructure/ratelimiter"
	authHandler "github.com/tabshare/tabshare/internal/presentation/handler/auth"
	healthHandler "github.com/tabshare/tabshare/internal/presentation/handler/health"
	messagesHandler "github.com/tabshare/tabshare/internal/presentation/handler/messages"
	proofsHandler "github.com/tabshare/tabshare/internal/presentation/handler/proofs"
	roomsHandler "github.com/tabshare/tabshare/internal/presentation/handler/rooms"
)

type Application struct {
	config          configs.Config
	authHandler     *authHandler.Handler
	roomsHandler    *roomsHandler.Handler
	messagesHandler *messagesHandler.Handler
	proofsHandler   *proofsHandler.Handler
	healthHandler   *healthHandler.Handler
	provider        *identity.Provider
	logger          logging.Logger
	ratelimiter     ratelimiter.Limiter
	registry        *prometheus.Registry
}

func NewApplication(
	config configs.Config,
	authHandler *authHandler.Handler,
	roomsHandler *roomsHandler.Handler,
	messagesHandler *messagesHandler.Handler,
	proofsHandler *proofsHandler.Handler,
	healthHandler *healthHandler.Handler,
	provider *identity.Provider,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
	registry *prometheus.Registry,
) *Application {
	return &Application{
		config:          config,
		authHandler:     authHandler,
		roomsHandler:    roomsHandler,
		messagesHandler: messagesHandler,
		proofsHandler:   proofsHandler,
		healthHandler:   healthHandler,
		provider:        provider,
		logger:          logger,
		ratelimiter:     ratelimiter,
		registry:        registry,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)
	r.Use(app.loggerMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.authHandler.SignupHandler)
			r.Post("/login", app.authHandler.LoginHandler)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Use(app.requireAuth)

			r.Post("/", app.roomsHandler.CreateRoomHandler)
			r.Get("/", app.roomsHandler.ListRoomsHandler)
			r.Get("/{roomId}", app.roomsHandler.GetRoomHandler)
			r.Post("/{roomId}/join", app.roomsHandler.JoinRoomHandler)
			r.Get("/{roomId}/ws", app.roomsHandler.SessionHandler)

			r.Post("/{roomId}/messages", app.messagesHandler.CreateMessageHandler)
			r.Get("/{roomId}/messages", app.messagesHandler.ListMessagesHandler)

			r.Post("/{roomId}/proofs", app.proofsHandler.CreateProofHandler)
			r.Get("/{roomId}/proofs", app.proofsHandler.ListProofsHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return otelhttp.NewHandler(r, "tabshare.http")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Startup, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Startup, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
