package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/domain/ports/repository"
	"telegram-classifieds-notify/internal/usecase"
)

// Server exposes the operator API, health and metrics endpoints, and the
// Telegram webhook callback when webhook inbound mode is enabled.
type Server struct {
	notifyUC    usecase.NotifyUseCase
	dstRepo     repository.DestinationRepository
	auth        *AuthManager
	updates     UpdateHandler // nil when inbound mode is polling
	webhookPath string
	log         *zerolog.Logger
}

func NewServer(
	notifyUC usecase.NotifyUseCase,
	dstRepo repository.DestinationRepository,
	auth *AuthManager,
	updates UpdateHandler,
	webhookPath string,
	logger *zerolog.Logger,
) *Server {
	compLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		notifyUC:    notifyUC,
		dstRepo:     dstRepo,
		auth:        auth,
		updates:     updates,
		webhookPath: webhookPath,
		log:         &compLog,
	}
}

// Router builds the chi mux. Split from Run so tests can drive the routes
// with httptest without binding a port.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if s.updates != nil {
		r.Post(s.webhookPath, s.webhookHandler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/notify", notifyHandler(s.notifyUC))
		r.Post("/notify/async", notifyAsyncHandler(s.notifyUC))
		r.Get("/destinations", destinationsListHandler(s.dstRepo))
		r.Put("/destinations/{key}", destinationsUpsertHandler(s.dstRepo))
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", port).Msg("Starting web server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
