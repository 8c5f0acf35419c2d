package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/brk3/habitkit/internal/config"
	"github.com/brk3/habitkit/internal/dates"
	"github.com/brk3/habitkit/internal/logger"
	"github.com/brk3/habitkit/internal/storage"
	"github.com/brk3/habitkit/internal/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg     *config.Config
	store   storage.Store
	tracker *tracker.Tracker
}

func New(cfg *config.Config, store storage.Store, clock dates.Clock) (*Server, error) {
	if store == nil {
		return nil, errors.New("server needs a store")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if clock == nil {
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		clock = dates.SystemClock{Location: loc}
	}
	logger.Info("Creating server", "auth_enabled", cfg.AuthEnabled, "storage_driver", cfg.Storage.Driver)
	return &Server{
		cfg:     cfg,
		store:   store,
		tracker: tracker.New(store, clock),
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/version", s.getVersionInfo)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.AuthEnabled {
			r.Use(s.authMiddleware)
		}
		r.Use(s.userAwareMetricsMiddleware)

		r.Route("/auth/api_keys", func(r chi.Router) {
			r.Post("/", s.generateAPIKey)
			r.Get("/", s.listAPIKeys)
		})

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.listHabits)
			r.Post("/", s.createHabit)
			r.Get("/archived", s.listArchivedHabits)
			r.Get("/today", s.getTodayProgress)

			r.Route("/{habit_id}", func(r chi.Router) {
				r.Get("/", s.getHabit)
				r.Put("/", s.updateHabit)
				r.Delete("/", s.deleteHabit)
				r.Post("/archive", s.archiveHabit)
				r.Post("/unarchive", s.unarchiveHabit)
				r.Get("/logs", s.listLogs)
				r.Post("/toggle", s.toggleHabit)
				r.Post("/increment", s.incrementHabit)
				r.Post("/decrement", s.decrementHabit)
				r.Get("/progress", s.getProgress)
				r.Get("/summary", s.getHabitSummary)
				r.Get("/series", s.getHabitSeries)
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", s.getStats)
			r.Get("/series", s.getOverallSeries)
			r.Get("/at-risk", s.getAtRisk)
		})

		r.Get("/export", s.exportHabits)
		r.Post("/import", s.importHabits)
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
