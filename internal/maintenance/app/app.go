package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/traceline/internal/maintenance/http"
	"github.com/aussiebroadwan/traceline/internal/maintenance/lock"
	"github.com/aussiebroadwan/traceline/internal/maintenance/report"
	"github.com/aussiebroadwan/traceline/internal/maintenance/service"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/drivers/postgres"
	"github.com/aussiebroadwan/traceline/internal/maintenance/store/drivers/sqlite"
	"github.com/aussiebroadwan/traceline/pkg/jwtx"
	"github.com/aussiebroadwan/traceline/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application wires the store, job runner, scheduler and admin HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	redis  *redis.Client
	locker lock.Locker

	runner    *service.Runner
	schedules []service.Schedule
	scheduler *service.Scheduler

	server *http.Server
	router *httpapi.Router
}

// Option customises New.
type Option func(*options)

type options struct {
	logOutput io.Writer
}

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// New creates an Application with all dependencies initialized. Nothing is
// started until Run.
func New(cfg Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "maintenance",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  o.logOutput,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initLock(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.initJobs()
	if err := app.initHTTP(); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

func (app *Application) Logger() *slog.Logger    { return app.logger }
func (app *Application) Runner() *service.Runner { return app.runner }
func (app *Application) Store() store.Store      { return app.db }
func (app *Application) Handler() http.Handler   { return app.router }

// Run starts the scheduler and the HTTP server and blocks until a shutdown
// signal or a server error.
func (app *Application) Run() error {
	if app.scheduler != nil {
		app.scheduler.Start()
	}

	app.logger.Info("maintenance service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops the HTTP server, waits for running jobs and closes
// connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down maintenance service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("maintenance service stopped")
	return nil
}

// Close releases the store and lock connections without touching the HTTP
// server. One-shot callers use it instead of Shutdown.
func (app *Application) Close() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStore opens the configured database driver and applies migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		st, err = postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DatabaseMaxOpenConns,
			MaxIdleConns:    cfg.DatabaseMaxOpenConns,
			ConnMaxLifetime: time.Hour,
		})
	case DriverSQLite:
		st, err = sqlite.NewStore(cfg.SQLiteDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return st, nil
}

func (app *Application) initDatabase(ctx context.Context) error {
	st, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return err
	}
	app.db = st
	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initLock(ctx context.Context) error {
	if app.cfg.RedisURL == "" {
		app.locker = lock.NewLocal()
		app.logger.Info("job lock is process local")
		return nil
	}

	client, err := lock.NewRedisClient(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect job lock backend: %w", err)
	}
	app.redis = client
	app.locker = lock.NewRedis(client, "", app.logger)
	app.logger.Info("job lock backed by redis")
	return nil
}

func (app *Application) initJobs() {
	audit := service.NewAuditSink(app.db, app.logger)

	sinks := report.Multi{report.LogSink{Logger: app.logger}}
	if app.cfg.AMQPURL != "" {
		sinks = append(sinks, report.NewAMQPSink(app.cfg.AMQPURL, app.cfg.ReportQueue))
		app.logger.Info("weekly report publishing enabled", "queue", app.cfg.ReportQueue)
	}

	app.runner = service.NewRunner(app.locker, app.cfg.JobLockTTL, app.logger,
		&service.WhitelistJob{
			Store:     app.db,
			Audit:     audit,
			Logger:    app.logger,
			Retention: app.cfg.WhitelistRetention,
		},
		&service.SessionJob{
			Store:  app.db,
			Audit:  audit,
			Logger: app.logger,
		},
		&service.ActivityJob{
			Store:  app.db,
			Audit:  audit,
			Logger: app.logger,
			Window: app.cfg.ActivityWindow,
		},
		&service.ReportJob{
			Store:  app.db,
			Audit:  audit,
			Logger: app.logger,
			Sink:   sinks,
			Window: app.cfg.ReportWindow,
		},
	)

	app.schedules = []service.Schedule{
		{Job: service.JobCleanupExpiredWhitelists, Interval: app.cfg.WhitelistInterval},
		{Job: service.JobCleanupExpiredSessions, Interval: app.cfg.SessionInterval},
		{Job: service.JobUpdateFactoryActiveStatus, Interval: app.cfg.ActivityInterval},
		{Job: service.JobGenerateWeeklyReport, Interval: app.cfg.ReportInterval},
	}

	if app.cfg.SchedulerEnabled {
		app.scheduler = service.NewScheduler(app.runner, app.logger, app.schedules...)
		app.scheduler.JobTimeout = app.cfg.JobTimeout
	}
}

func (app *Application) initHTTP() error {
	var verifier jwtx.Verifier
	if app.cfg.AdminJWTSecret != "" {
		v, err := jwtx.NewVerifierHS256([]byte(app.cfg.AdminJWTSecret), app.cfg.AdminJWTIssuer, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize admin token verifier: %w", err)
		}
		verifier = v
	}

	router := httpapi.NewRouter(verifier, BuildVersion, app.db, app.runner, app.logger)
	if app.scheduler != nil {
		router.Schedules = app.schedules
	}
	if r, ok := app.locker.(*lock.Redis); ok {
		router.Lock = r
	}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
