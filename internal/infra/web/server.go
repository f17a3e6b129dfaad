package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"telegram-shop-bot/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ReadinessReporter is implemented by the Telegram transport.
type ReadinessReporter interface {
	Ready() bool
}

type ServerConfig struct {
	Port           int
	APIKey         string
	RequestTimeout time.Duration
	Version        string
}

// Server is the admin HTTP API.
type Server struct {
	pricing   usecase.PricingUseCase
	broadcast usecase.BroadcastUseCase
	settings  usecase.SettingsUseCase
	engine    ReadinessReporter
	auth      *AuthManager
	cfg       ServerConfig
	log       *zerolog.Logger
	started   time.Time
	srv       *http.Server
}

func NewServer(
	pricing usecase.PricingUseCase,
	broadcast usecase.BroadcastUseCase,
	settings usecase.SettingsUseCase,
	engine ReadinessReporter,
	auth *AuthManager,
	cfg ServerConfig,
	logger *zerolog.Logger,
) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	l := logger.With().Str("component", "AdminServer").Logger()
	return &Server{
		pricing:   pricing,
		broadcast: broadcast,
		settings:  settings,
		engine:    engine,
		auth:      auth,
		cfg:       cfg,
		log:       &l,
		started:   time.Now(),
	}
}

// Routes builds the chi router with the middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", s.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/status", s.handleStatus)
			r.Post("/broadcast", s.handleBroadcast)
			r.Get("/products/{id}/tiers", s.handleListTiers)
			r.Post("/products/{id}/tiers", s.handleCreateTier)
			r.Put("/tiers/{id}", s.handleUpdateTier)
			r.Delete("/tiers/{id}", s.handleDeleteTier)
			r.Put("/commands/{slot}", s.handleSaveCommand)
		})
	})
	return r
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.cfg.Port).Msg("admin server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) validAPIKey(key string) bool {
	if s.cfg.APIKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) == 1
}
