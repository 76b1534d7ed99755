package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "time/tzdata"

	"condobook/internal/app/commands"
	agendaapp "condobook/internal/app/handlers/agenda"
	amenityapp "condobook/internal/app/handlers/amenities"
	bookingapp "condobook/internal/app/handlers/booking"
	"condobook/internal/app/middleware"
	appoutbox "condobook/internal/app/outbox"
	"condobook/internal/app/policies"
	"condobook/internal/app/queries"
	"condobook/internal/app/reminders"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/locale"
	"condobook/internal/infra/config"
	ginserver "condobook/internal/infra/http/gin"
	"condobook/internal/infra/obs"
	"condobook/internal/infra/outbox"
	"condobook/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("dev").Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" && cfg.StorageDriver == config.StorageMemory {
		fixturesPath = filepath.Join("data", "amenities.json")
	}
	if err := app.loadAmenityFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("amenity fixtures load failed", "error", err, "path", fixturesPath)
	}

	go func() {
		if err := app.worker.Run(ctx); err != nil {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()
	go func() {
		if err := app.sweeper.Start(ctx); err != nil {
			logger.Error("reminder sweeper stopped", "error", err)
		}
	}()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "notify", cfg.NotifyTransport)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	commands commands.Bus
	worker   *outbox.Worker
	sweeper  *reminders.Sweeper
	checks   map[string]obs.Check
	closers  []func(context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("resource close failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}

	cal, err := locale.New(cfg.CommunityTZ, cfg.CommunityLocale)
	if err != nil {
		return nil, err
	}
	clock := policies.SystemClock{}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, store.closers...)
	for name, check := range store.checks {
		app.checks[name] = check
	}

	transport, err := openTransport(cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	app.closers = append(app.closers, transport.closers...)

	var uploader policies.Uploader
	if cfg.S3Enabled {
		client, err := s3.NewClient(s3.Config{
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicEndpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			UseSSL:        cfg.S3UseSSL,
		}, logger)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		uploader = client
		app.checks["s3"] = client.Ping
	}

	workflow := bookingapp.Workflow{
		UoWFactory: store.factory,
		Policy:     domaincalendar.NewAdmissionPolicy(clock, cal),
		Notifier:   transport.notifier,
		Outbox:     store.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Logger:     logger,
	}
	reader := agendaapp.Reader{UoWFactory: store.factory, Clock: clock, Locale: cal, Logger: logger}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, amenityapp.CreateAmenityKey, &amenityapp.CreateAmenityHandler{
		UoWFactory: store.factory, Clock: clock, Logger: logger,
	})
	commands.RegisterHandler(commandBus, amenityapp.UpdateAmenityKey, &amenityapp.UpdateAmenityHandler{
		UoWFactory: store.factory, Clock: clock, Logger: logger,
	})
	commands.RegisterHandler(commandBus, amenityapp.DeleteAmenityKey, &amenityapp.DeleteAmenityHandler{
		UoWFactory: store.factory, Clock: clock, Logger: logger,
	})
	commands.RegisterHandler(commandBus, amenityapp.UploadAmenityPhotoKey, &amenityapp.UploadAmenityPhotoHandler{
		UoWFactory: store.factory, Uploader: uploader, Clock: clock, Logger: logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingKey, &bookingapp.RequestBookingHandler{Workflow: workflow})
	commands.RegisterHandler(commandBus, bookingapp.EditItemKey, &bookingapp.EditItemHandler{Workflow: workflow})
	commands.RegisterHandler(commandBus, bookingapp.UpdateStatusKey, &bookingapp.UpdateStatusHandler{Workflow: workflow})
	commands.RegisterHandler(commandBus, bookingapp.CancelItemKey, &bookingapp.CancelItemHandler{Workflow: workflow})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, amenityapp.ListAmenitiesKey, &amenityapp.ListAmenitiesHandler{UoWFactory: store.factory, Logger: logger})
	queries.RegisterHandler(queryBus, amenityapp.GetAmenityKey, &amenityapp.GetAmenityHandler{UoWFactory: store.factory})
	queries.RegisterHandler(queryBus, agendaapp.GetAgendaKey, &agendaapp.GetAgendaHandler{Reader: reader})
	queries.RegisterHandler(queryBus, agendaapp.ListAllKey, &agendaapp.ListAllHandler{Reader: reader})
	queries.RegisterHandler(queryBus, agendaapp.ListMineKey, &agendaapp.ListMineHandler{Reader: reader})
	queries.RegisterHandler(queryBus, agendaapp.ListBulletinKey, &agendaapp.ListBulletinHandler{Reader: reader})
	queries.RegisterHandler(queryBus, agendaapp.GetItemKey, &agendaapp.GetItemHandler{Reader: reader})

	validator := middleware.NewStructValidator()
	authorizer := policies.RoleAuthorizer{}
	app.commands = middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Authorization(authorizer),
		middleware.Validation(validator),
		middleware.Idempotency(store.idempotency, nil),
		middleware.OutboxFlush(store.outbox, logger),
		middleware.Transaction(store.factory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryAuthorization(authorizer),
		middleware.QueryValidation(validator),
	)

	app.handlers = ginserver.Handlers{
		Amenities: ginserver.AmenityHandler{Commands: app.commands, Queries: queryBusWithMiddleware},
		Bookings:  ginserver.BookingHandler{Commands: app.commands},
		Agenda:    ginserver.AgendaHandler{Queries: queryBusWithMiddleware},
	}
	app.worker = &outbox.Worker{
		Relay:       store.relay,
		Producer:    transport.events,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	app.sweeper = &reminders.Sweeper{
		UoWFactory: store.factory,
		Notifier:   transport.notifier,
		Clock:      clock,
		Logger:     logger,
		Interval:   cfg.ReminderInterval,
	}
	return app, nil
}
