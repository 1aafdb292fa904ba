// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Luca5Eckert/media-recommendation-system/internal/logging"
	"github.com/Luca5Eckert/media-recommendation-system/internal/metrics"
	"github.com/Luca5Eckert/media-recommendation-system/internal/profile"
	"github.com/Luca5Eckert/media-recommendation-system/internal/scorer"
)

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 100
)

// HealthCheck probes one component for the health endpoint.
type HealthCheck struct {
	Name  string
	Check func() bool
}

// Handler implements the API endpoints.
type Handler struct {
	profiles ProfileReader
	scoring  Scorer
	checks   []HealthCheck
	logger   zerolog.Logger
}

// NewHandler creates the endpoint handler set.
func NewHandler(profiles ProfileReader, scoring Scorer, checks ...HealthCheck) *Handler {
	return &Handler{
		profiles: profiles,
		scoring:  scoring,
		checks:   checks,
		logger:   logging.With().Str("component", "api-handler").Logger(),
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status     string            `json:"status"`
	Time       string            `json:"time"`
	Components map[string]string `json:"components,omitempty"`
}

// Health reports liveness and per-component health. Any failing component
// degrades the overall status to 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Components = make(map[string]string, len(h.checks))
		for _, check := range h.checks {
			if check.Check() {
				resp.Components[check.Name] = "ok"
				continue
			}
			resp.Components[check.Name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	h.respond(w, r, status, resp)
}

// UserProfile returns the aggregated taste profile for a user. A user who
// has never interacted has no profile and gets a 404.
func (h *Handler) UserProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondError(w, r, http.StatusBadRequest, "invalid_request", "user ID is required")
		return
	}

	userProfile, err := h.profiles.Load(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			h.respondError(w, r, http.StatusNotFound, "profile_not_found", "no profile exists for this user")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load profile")
		h.respondError(w, r, http.StatusInternalServerError, "internal_error", "failed to load profile")
		return
	}

	h.respond(w, r, http.StatusOK, userProfile)
}

// Recommendations returns ranked media for a user via the external
// scoring service. Scoring outages surface as 502, never as corrupt or
// empty-but-OK results.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondError(w, r, http.StatusBadRequest, "invalid_request", "user ID is required")
		return
	}

	limit := defaultRecommendationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxRecommendationLimit {
			h.respondError(w, r, http.StatusBadRequest, "invalid_request",
				"limit must be an integer between 1 and "+strconv.Itoa(maxRecommendationLimit))
			return
		}
		limit = parsed
	}

	if h.scoring == nil {
		h.respondError(w, r, http.StatusBadGateway, "upstream_unavailable", "scoring service is not configured")
		return
	}

	userProfile, err := h.profiles.Load(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			h.respondError(w, r, http.StatusNotFound, "profile_not_found", "no profile exists for this user")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load profile")
		h.respondError(w, r, http.StatusInternalServerError, "internal_error", "failed to load profile")
		return
	}

	result, err := h.scoring.Score(r.Context(), userProfile, limit)
	if err != nil {
		if errors.Is(err, scorer.ErrUpstreamUnavailable) {
			h.respondError(w, r, http.StatusBadGateway, "upstream_unavailable", "scoring service is unavailable")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("scoring request failed")
		h.respondError(w, r, http.StatusInternalServerError, "internal_error", "scoring request failed")
		return
	}

	h.respond(w, r, http.StatusOK, result)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
	metrics.APIRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.respond(w, r, status, errorResponse{Error: code, Message: message})
}
