package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/config"
	httptransport "github.com/example/classroom-booking/internal/http"
	"github.com/example/classroom-booking/internal/lock"
	"github.com/example/classroom-booking/internal/persistence"
	"github.com/example/classroom-booking/internal/persistence/postgres"
	"github.com/example/classroom-booking/internal/persistence/sqlite"
	"github.com/example/classroom-booking/internal/reminder"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger, nil); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired service graph.
type app struct {
	handler   http.Handler
	reminders *reminder.Scheduler
	closers   []func() error
	logger    *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (_ *app, err error) {
	if now == nil {
		now = time.Now
	}
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closeLocker != nil {
		a.closers = append(a.closers, closeLocker)
	}

	idGenerator := uuid.NewString

	classrooms := application.NewClassroomServiceWithLogger(store, store, idGenerator, now, cfg.Location, logger)
	bookings := application.NewBookingServiceWithLogger(store, store, store, locker, idGenerator, now, logger)
	notifications := application.NewNotificationService(store, logger)
	reminders := application.NewReminderService(store, store, store, idGenerator, now, application.ReminderOptions{
		Location:  cfg.Location,
		Lookahead: cfg.ReminderLookahead,
		Logger:    logger,
	})

	a.reminders, err = reminder.New(reminders, reminder.Options{
		Schedule: cfg.ReminderSchedule,
		Location: cfg.Location,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Verifier:      httptransport.NewTokenVerifier(cfg.JWTSecret, now),
		Classrooms:    httptransport.NewClassroomHandler(classrooms, logger),
		Bookings:      httptransport.NewBookingHandler(bookings, cfg.Location, now, logger),
		Notifications: httptransport.NewNotificationHandler(notifications, logger),
		Middleware:    []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
		Logger:        logger,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

func openStore(ctx context.Context, cfg config.Config) (persistence.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		storage, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, err
		}
		return storage, nil
	case config.DriverSQLite, "":
		storage, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, err
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// newLocker uses Redis when an address is configured so several replicas share one
// lock space, and an in-process mutex otherwise.
func newLocker(ctx context.Context, cfg config.Config, logger *slog.Logger) (lock.Locker, func() error, error) {
	if cfg.RedisAddr == "" {
		return lock.NewKeyedMutex(), nil, nil
	}
	client, err := lock.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(client, cfg.LockTTL, logger), client.Close, nil
}

// run serves HTTP and the reminder schedule until ctx is cancelled. When listener is nil
// the configured port is used.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, listener net.Listener) error {
	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.reminders.Run(gctx)
	})
	g.Go(func() error {
		var serveErr error
		if listener != nil {
			logger.Info("room booking API listening", "addr", listener.Addr().String())
			serveErr = server.Serve(listener)
		} else {
			logger.Info("room booking API listening", "addr", server.Addr)
			serveErr = server.ListenAndServe()
		}
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
