package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Verifier      *TokenVerifier
	Classrooms    *ClassroomHandler
	Bookings      *BookingHandler
	Notifications *NotificationHandler
	Middleware    []func(http.Handler) http.Handler
	Logger        *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier, cfg.Logger))
		adminOnly := RequireAdmin(cfg.Logger)

		if cfg.Classrooms != nil {
			r.Route("/classrooms", func(r chi.Router) {
				r.Get("/", cfg.Classrooms.List)
				r.Get("/levels", cfg.Classrooms.Levels)
				r.Get("/{id}", cfg.Classrooms.Get)
				r.With(adminOnly).Post("/", cfg.Classrooms.Create)
				r.With(adminOnly).Delete("/{id}", cfg.Classrooms.Delete)
			})
		}

		if cfg.Bookings != nil {
			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", cfg.Bookings.Create)
				r.Get("/my", cfg.Bookings.ListMine)
				r.Get("/my.ics", cfg.Bookings.Calendar)
				r.Put("/{id}/cancel", cfg.Bookings.Cancel)

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/admin", cfg.Bookings.ListAll)
					r.Get("/admin/pending", cfg.Bookings.ListPending)
					r.Get("/admin/report.xlsx", cfg.Bookings.Report)
					r.Put("/admin/{id}/approve", cfg.Bookings.Decide)
					r.Put("/{id}/refund", cfg.Bookings.Refund)
				})
			})
		}

		if cfg.Notifications != nil {
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", cfg.Notifications.List)
				r.Delete("/{id}", cfg.Notifications.Delete)
			})
		}
	})

	return r
}
