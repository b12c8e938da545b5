package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	authhandler "carrental/internal/auth/handler"
	authservice "carrental/internal/auth/service"
	"carrental/internal/auth/token"
	carshandler "carrental/internal/cars/handler"
	carsservice "carrental/internal/cars/service"
	healthhandler "carrental/internal/health/handler"
	"carrental/internal/rentals/events"
	rentalshandler "carrental/internal/rentals/handler"
	rentalsservice "carrental/internal/rentals/service"
	reviewshandler "carrental/internal/reviews/handler"
	reviewsservice "carrental/internal/reviews/service"
	usershandler "carrental/internal/users/handler"
	usersservice "carrental/internal/users/service"
	"carrental/pkg/config"
	"carrental/pkg/contracts"
	"carrental/pkg/kafka"
	kafka_middleware "carrental/pkg/kafka/middleware"
	"carrental/pkg/middleware"
)

type Application struct {
	cfg              *config.Config
	storage          *Storage
	publisher        kafka.Publisher
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.RateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
}

// NewApplication opens storage, builds every service and handler and
// configures the HTTP server. Call Close when Run is not used.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	storage, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		_ = storage.Close(ctx)
		return nil, err
	}

	a := &Application{
		cfg:       cfg,
		storage:   storage,
		publisher: publisher,
	}
	a.setHealthHandler(healthhandler.NewHealthHandler(storage.Ready, cfg.Log))
	a.setAppHandler(a.buildHandlers()...)
	a.setAppServer()
	return a, nil
}

func newPublisher(cfg *config.Config) (kafka.Publisher, error) {
	if !cfg.KafkaEnabled() {
		cfg.Log.Info("Kafka brokers not configured, rental events disabled")
		return kafka.NopPublisher{}, nil
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaRentalTopic,
		MaxAttempts:  cfg.KafkaProducerMaxAttempts,
		BatchTimeout: cfg.KafkaProducerBatchTimout,
		RequireAcks:  cfg.KafkaProducerRequireAcks,
		Compression:  cfg.KafkaProducerCompression,
		Async:        cfg.KafkaProducerAsync,
	}, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	cfg.Log.Info("Kafka producer configured", "topic", cfg.KafkaRentalTopic, "brokers", cfg.KafkaBrokers)
	return producer, nil
}

func (a *Application) buildHandlers() []contracts.Handler {
	cfg := a.cfg
	s := a.storage

	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.AllowLegacyTokens)
	identity := authservice.NewIdentityResolver(s.Users, tokens, cfg.Log)

	authService := authservice.NewAuthService(s.Users, tokens, cfg)
	userService := usersservice.NewUserService(s.Users, identity, tokens, cfg)
	carLocker := rentalsservice.NewCarLocker(s.Locks, cfg.RentalLockTTL, cfg.Log)
	carService := carsservice.NewCarService(s.Cars, s.Rentals, carLocker, identity, cfg)
	rentalService := rentalsservice.NewRentalService(
		s.Rentals,
		carService,
		s.Users,
		identity,
		carLocker,
		events.NewPublisher(a.publisher, cfg.Log),
		cfg,
	)
	reviewService := reviewsservice.NewReviewService(s.Reviews, carService, s.Rentals, identity, cfg)
	cfg.Log.Info("Services initialized", "storage_backend", cfg.StorageBackend)

	return []contracts.Handler{
		authhandler.NewAuthHandler(authService, cfg.Log),
		usershandler.NewUserHandler(userService, cfg.Log),
		carshandler.NewCarHandler(carService, cfg.Log),
		rentalshandler.NewRentalHandler(rentalService, cfg.Log),
		reviewshandler.NewReviewHandler(reviewService, cfg.Log),
	}
}

func (a *Application) setHealthHandler(h contracts.Handler) {
	healthRouter := httprouter.New()
	h.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers ...contracts.Handler) {
	cfg := a.cfg
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewRateLimiter(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		rateLimitKey(cfg),
		cfg.Log,
	)

	// Recovery → Logging → MaxSize → ContentType → RateLimit → Timeout → Idempotency → Router
	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	cfg.Log.Info("Application endpoints configured with full middleware stack")
}

// rateLimitKey keys on the peer address unless trusted proxies are set.
func rateLimitKey(cfg *config.Config) middleware.KeyExtractor {
	if len(cfg.TrustedProxies) == 0 {
		return middleware.ClientIP
	}
	extract, err := middleware.TrustedProxyClientIP(cfg.TrustedProxies)
	if err != nil {
		cfg.Log.Error("Ignoring trusted proxies", "error", err)
		return middleware.ClientIP
	}
	return extract
}

func (a *Application) setAppServer() {
	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Storage() *Storage {
	return a.storage
}

// Handler is the complete request pipeline served by Run.
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)
	return mux
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.Close()
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.Close()
	a.cfg.Log.Info("Server stopped gracefully")
}

// Close stops background workers and releases the producer and the
// storage connection.
func (a *Application) Close() {
	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()

	if producer, ok := a.publisher.(*kafka.Producer); ok {
		stats := producer.Stats()
		a.cfg.Log.Info("Kafka producer stats",
			"messages", stats.Messages,
			"errors", stats.Errors,
			"retries", stats.Retries,
		)
	}
	if err := a.publisher.Close(); err != nil {
		a.cfg.Log.Error("Failed to close kafka producer", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.storage.Close(ctx); err != nil {
		a.cfg.Log.Error("Failed to disconnect storage", "error", err)
	}
	a.cfg.Log.Info("Background workers stopped")
}
