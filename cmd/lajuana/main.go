package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lajuana/internal/app/commands"
	calendarapp "lajuana/internal/app/handlers/calendar"
	"lajuana/internal/app/middleware"
	"lajuana/internal/app/policies"
	"lajuana/internal/app/queries"
	authsvc "lajuana/internal/app/services/auth"
	domainauth "lajuana/internal/domain/auth"
	"lajuana/internal/domain/shared/events"
	"lajuana/internal/infra/broker/kafka"
	"lajuana/internal/infra/config"
	mongostore "lajuana/internal/infra/db/mongo"
	"lajuana/internal/infra/hospitable"
	ginserver "lajuana/internal/infra/http/gin"
	"lajuana/internal/infra/obs"
	"lajuana/internal/infra/security"
	"lajuana/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV"), "").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogFile)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "property_id", cfg.Hospitable.PropertyID)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	closers  []func(context.Context) error
}

func (a application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var app application
	checks := map[string]obs.Check{}

	client := hospitable.NewClient(cfg.Hospitable.BaseURL, cfg.Hospitable.PropertyID, cfg.Hospitable.Token, cfg.Hospitable.Timeout, logger)
	if cfg.Hospitable.Token == "" {
		logger.Warn("hospitable token missing; calendar requests will fail")
	}
	checks["hospitable"] = func(context.Context) error {
		if cfg.Hospitable.Token == "" {
			return hospitable.ErrMissingToken
		}
		return nil
	}

	var (
		sessions    domainauth.SessionStore     = memory.NewSessionStore()
		idempotency middleware.IdempotencyStore = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	)
	if cfg.MongoURI != "" {
		db, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return app, fmt.Errorf("mongo: %w", err)
		}
		app.closers = append(app.closers, db.Close)
		checks["mongo"] = db.Ping
		if sessions, err = mongostore.NewSessionStore(ctx, db.DB); err != nil {
			return app, fmt.Errorf("mongo sessions: %w", err)
		}
		if idempotency, err = mongostore.NewIdempotencyStore(ctx, db.DB, cfg.IdempotencyTTL); err != nil {
			return app, fmt.Errorf("mongo idempotency: %w", err)
		}
		logger.Info("mongo stores enabled", "database", cfg.MongoDB)
	}

	var notifier policies.ChangeNotifier = memory.NewNotifier(logger)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return app, fmt.Errorf("kafka: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		notifier = &kafka.Notifier{Publisher: producer, TopicPrefix: cfg.KafkaTopicPrefix}
		logger.Info("kafka notifications enabled", "brokers", cfg.KafkaBrokers)
	}

	hasher := security.BcryptHasher{}
	passwordHash, err := adminPasswordHash(cfg, hasher)
	if err != nil {
		return app, err
	}
	if passwordHash == "" {
		logger.Warn("admin password not configured; admin login disabled")
	}
	auth := &authsvc.Service{
		Admin:      authsvc.Admin{Username: cfg.AdminUsername, PasswordHash: passwordHash},
		Sessions:   sessions,
		Passwords:  hasher,
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
		Equal:      security.EqualStrings,
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	calendarapp.Register(commandBus, queryBus,
		&calendarapp.Mutations{Provider: client, PropertyID: cfg.Hospitable.PropertyID, Logger: logger},
		calendarapp.Reads{
			Calendar:  &calendarapp.GetCalendarHandler{Provider: client, Logger: logger},
			Occupancy: &calendarapp.GetOccupancyHandler{Provider: client, Logger: logger},
			Quote: &calendarapp.QuoteStayHandler{
				Provider:    client,
				Logger:      logger,
				DefaultRate: cfg.DefaultNightlyRate,
				Currency:    cfg.Currency,
			},
		},
	)

	validator := middleware.NewStructValidator()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Authorization(auth),
		middleware.Idempotency(idempotency, nil),
		middleware.Publish(notifier, events.JSONEncoder{}, logger),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(auth),
	)

	app.health = obs.HealthHandlers{Checks: checks}
	app.handlers = ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{
			Queries:     queryBusWithMiddleware,
			Logger:      logger,
			HorizonDays: cfg.AvailabilityHorizonDays,
		},
		Calendar: ginserver.CalendarHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Auth: ginserver.AuthHandler{
			Service:      auth,
			Logger:       logger,
			SecureCookie: cfg.Production(),
		},
		AuthMiddleware: ginserver.AuthMiddleware{Service: auth, Logger: logger}.Handle,
	}
	return app, nil
}

// adminPasswordHash prefers an explicit hash; a plain ADMIN_PASSWORD is
// hashed once at startup and never kept.
func adminPasswordHash(cfg config.Config, hasher security.BcryptHasher) (string, error) {
	if cfg.AdminPasswordHash != "" {
		if !security.IsHash(cfg.AdminPasswordHash) {
			return "", errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")
		}
		return cfg.AdminPasswordHash, nil
	}
	if cfg.AdminPassword == "" {
		return "", nil
	}
	if security.IsHash(cfg.AdminPassword) {
		return cfg.AdminPassword, nil
	}
	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return hash, nil
}
