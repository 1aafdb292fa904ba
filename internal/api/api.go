// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Luca5Eckert/media-recommendation-system/internal/logging"
	"github.com/Luca5Eckert/media-recommendation-system/internal/metrics"
	"github.com/Luca5Eckert/media-recommendation-system/internal/profile"
	"github.com/Luca5Eckert/media-recommendation-system/internal/scorer"
)

// ProfileReader is the read-side surface of the profile store the API
// needs. Satisfied by any profile.Store.
type ProfileReader interface {
	Load(ctx context.Context, userID string) (*profile.UserProfile, error)
}

// Scorer ranks media for a profile. Satisfied by *scorer.Client. Nil when
// the scoring service is not configured.
type Scorer interface {
	Score(ctx context.Context, userProfile *profile.UserProfile, limit int) (*scorer.ScoreResponse, error)
}

// Config holds HTTP server settings.
type Config struct {
	Host            string
	Port            int
	Timeout         time.Duration
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// DefaultConfig returns production defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Timeout:         30 * time.Second,
		RateLimitReqs:   100,
		RateLimitWindow: time.Minute,
	}
}

// Server exposes the read API: profiles, recommendations, health and
// metrics. All writes flow through the event streams, never through HTTP.
type Server struct {
	config  Config
	handler *Handler
	http    *http.Server
	logger  zerolog.Logger
}

// NewServer creates the API server. The scorer may be nil, in which case
// the recommendations endpoint reports the upstream as unavailable.
// Health checks, when given, feed the /healthz component report.
func NewServer(cfg Config, profiles ProfileReader, scoring Scorer, checks ...HealthCheck) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimitReqs <= 0 {
		cfg.RateLimitReqs = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}

	s := &Server{
		config:  cfg,
		handler: NewHandler(profiles, scoring, checks...),
		logger:  logging.With().Str("component", "api").Logger(),
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  2 * cfg.Timeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestDuration)

	r.Get("/healthz", s.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			s.config.RateLimitReqs,
			s.config.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		r.Get("/users/{userID}/profile", s.handler.UserProfile)
		r.Get("/users/{userID}/recommendations", s.handler.Recommendations)
	})

	return r
}

// requestDuration records per-endpoint latency.
func requestDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		metrics.APIRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Serve blocks until the context is canceled or the listener fails.
// Shutdown drains in-flight requests up to the configured timeout.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}
