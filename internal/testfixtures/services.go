package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/lock"
	"github.com/example/classroom-booking/internal/persistence"
)

// ServiceFactory builds application services over one store with a shared
// deterministic clock and identifier sequence.
type ServiceFactory struct {
	Store       persistence.Store
	Clock       *Clock
	IDGenerator *IDGenerator
	Locker      lock.Locker
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory wires defaults around store: ReferenceTime, UTC, an
// in-process locker and a discarding logger.
func NewServiceFactory(store persistence.Store, opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Store:       store,
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Locker:      lock.NewKeyedMutex(),
		Location:    time.UTC,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = time.UTC
	}
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Clock = clock }
}

func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.IDGenerator = generator }
}

func WithLocker(locker lock.Locker) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Locker = locker }
}

func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Location = loc }
}

func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(f *ServiceFactory) { f.Logger = logger }
}

func (f *ServiceFactory) ClassroomService() *application.ClassroomService {
	return application.NewClassroomServiceWithLogger(
		f.Store,
		f.Store,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Location,
		f.Logger,
	)
}

func (f *ServiceFactory) BookingService() *application.BookingService {
	return application.NewBookingServiceWithLogger(
		f.Store,
		f.Store,
		f.Store,
		f.Locker,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

func (f *ServiceFactory) NotificationService() *application.NotificationService {
	return application.NewNotificationService(f.Store, f.Logger)
}

// ReminderService uses the default lookahead when lookahead is zero.
func (f *ServiceFactory) ReminderService(lookahead time.Duration) *application.ReminderService {
	return application.NewReminderService(
		f.Store,
		f.Store,
		f.Store,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		application.ReminderOptions{Location: f.Location, Lookahead: lookahead, Logger: f.Logger},
	)
}
