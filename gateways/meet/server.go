package meet

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	config "github.com/meetpulse/backend/config/meet"
	coachClient "github.com/meetpulse/backend/gateways/meet/clients/coach"
	firefliesClient "github.com/meetpulse/backend/gateways/meet/clients/fireflies"
	"github.com/meetpulse/backend/gateways/meet/handler"
	"github.com/meetpulse/backend/gateways/meet/monitor"
	"github.com/meetpulse/backend/pkg/gen"
	"github.com/meetpulse/backend/services/analytics/storage"
	"github.com/meetpulse/backend/services/analytics/usecase"
)

type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	monitor *monitor.MeetingMonitor
	handler *handler.Handler
}

func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	log.Info("creating new meet server")
	log.Debug("server config",
		slog.Int("port", cfg.Port),
		slog.Bool("fireflies_api_key_set", cfg.FirefliesAPIKey != ""),
		slog.String("coach_service_url", cfg.CoachService.Url),
		slog.Int("coach_service_port", cfg.CoachService.Port),
		slog.Int("recent_window_size", cfg.Analytics.RecentWindowSize))

	fireflies := firefliesClient.New(cfg.FirefliesAPIKey)
	coach := coachClient.New(&cfg.CoachService)

	stg := storage.New(gen.UUID())
	analytics := usecase.New(stg, usecase.Options{
		RecentWindowSize:      cfg.Analytics.RecentWindowSize,
		InterruptionGapMaxSec: cfg.Analytics.InterruptionGapMaxSec,
		SilenceMinSec:         cfg.Analytics.SilenceMinSec,
		UnderrepresentedShare: cfg.Analytics.LiveShareThreshold,
		DominantShareAlert:    cfg.Analytics.DominantShareAlert,
		MinSegmentWidthPct:    cfg.Analytics.MinSegmentWidthPct,
	})

	mon := monitor.New(fireflies, coach, analytics, stg, cfg.Analytics.SummaryShareThreshold, log)
	h := handler.New(mon, cfg.JWTSecret, log)

	log.Info("meet server instance created successfully")
	return &Server{
		cfg:     cfg,
		log:     log,
		monitor: mon,
		handler: h,
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting meet server")

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.handler.RegisterRoutes(router)
	s.log.Info("routes registered successfully")

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info("meet gateway started", slog.String("address", srv.Addr))
		err := srv.ListenAndServe()
		if err != nil {
			s.log.Error("ListenAndServe error", slog.String("error", err.Error()))
		}
		serverErrors <- err
	}()

	select {
	case err := <-serverErrors:
		s.log.Error("server error received", slog.String("error", err.Error()))
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		s.log.Info("start shutdown", slog.String("signal", sig.String()))
		return s.stop(srv)
	case <-ctx.Done():
		s.log.Info("closing server due to context cancellation")
		return s.stop(srv)
	}
}

func (s *Server) stop(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info("shutting down HTTP server gracefully")
	if err := srv.Shutdown(ctx); err != nil {
		s.log.Error("graceful shutdown failed", slog.String("error", err.Error()))
		s.log.Warn("forcing server close")
		srv.Close()
		return fmt.Errorf("failed to gracefully shutdown server: %w", err)
	}

	s.log.Info("server shutdown completed successfully")
	return nil
}
