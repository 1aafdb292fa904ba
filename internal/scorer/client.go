// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package scorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Luca5Eckert/media-recommendation-system/internal/logging"
	"github.com/Luca5Eckert/media-recommendation-system/internal/metrics"
	"github.com/Luca5Eckert/media-recommendation-system/internal/profile"
)

// ErrUpstreamUnavailable is returned when the scoring service cannot be
// reached, times out, rejects the request, or returns a malformed response.
// Callers should surface this as a temporary condition, not corrupt state.
var ErrUpstreamUnavailable = errors.New("scoring service unavailable")

// ScoredMedia is a single ranked recommendation from the scoring service.
type ScoredMedia struct {
	MediaID string  `json:"mediaId"`
	Score   float64 `json:"score"`
}

// ScoreRequest is the payload sent to the scoring service. The profile
// snapshot is embedded rather than referenced so the scorer needs no access
// to the profile store.
type ScoreRequest struct {
	UserID  string          `json:"userId"`
	Profile *ProfileSummary `json:"userProfile"`
	Limit   int             `json:"limit"`
}

// ProfileSummary is the subset of a user profile the scoring model consumes.
type ProfileSummary struct {
	GenreScores          map[string]float64 `json:"genreScores"`
	InteractedMediaIDs   []string           `json:"interactedMediaIds"`
	TotalLikes           int64              `json:"totalLikes"`
	TotalDislikes        int64              `json:"totalDislikes"`
	TotalWatches         int64              `json:"totalWatches"`
	TotalEngagementScore float64            `json:"totalEngagementScore"`
}

// ScoreResponse is the ranked result returned by the scoring service.
type ScoreResponse struct {
	UserID          string        `json:"userId"`
	Recommendations []ScoredMedia `json:"recommendations"`
	Count           int           `json:"count"`
}

// Config holds scoring client configuration.
type Config struct {
	// BaseURL is the scoring service endpoint, without trailing slash.
	BaseURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that open
	// the circuit breaker.
	FailureThreshold uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32
}

// DefaultConfig returns production defaults for the scoring client.
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		FailureThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		MaxRequests:      3,
	}
}

// Client calls the external scoring service with circuit breaker
// protection. A tripped breaker fails fast with ErrUpstreamUnavailable
// instead of stacking requests against a dead upstream.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*ScoreResponse]
	logger  zerolog.Logger
}

// NewClient creates a scoring client. Returns an error when the base URL
// is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("scorer base URL cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	logger := logging.With().Str("component", "scorer").Logger()

	settings := gobreaker.Settings{
		Name:        "scorer",
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ScorerBreakerState.Set(breakerStateValue(to))
			logger.Warn().Str("from", from.String()).Str("to", to.String()).
				Msg("scorer circuit breaker state changed")
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*ScoreResponse](settings),
		logger:  logger,
	}, nil
}

// Score ranks media for the given profile. The profile is read, never
// mutated. Returns ErrUpstreamUnavailable for any transport, timeout,
// non-2xx or decode failure, and when the breaker is open.
func (c *Client) Score(ctx context.Context, userProfile *profile.UserProfile, limit int) (*ScoreResponse, error) {
	if userProfile == nil {
		return nil, errors.New("profile cannot be nil")
	}
	if limit <= 0 {
		limit = 10
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*ScoreResponse, error) {
		return c.doScore(ctx, userProfile, limit)
	})
	metrics.ScorerRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ScorerRequestErrors.WithLabelValues("breaker_open").Inc()
			return nil, fmt.Errorf("%w: circuit breaker open", ErrUpstreamUnavailable)
		}
		return nil, err
	}
	return resp, nil
}

// BreakerState returns the current breaker state for monitoring.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) doScore(ctx context.Context, userProfile *profile.UserProfile, limit int) (*ScoreResponse, error) {
	interacted := make([]string, 0, len(userProfile.InteractedMediaIDs))
	for mediaID := range userProfile.InteractedMediaIDs {
		interacted = append(interacted, mediaID)
	}

	reqBody := ScoreRequest{
		UserID: userProfile.UserID,
		Profile: &ProfileSummary{
			GenreScores:          userProfile.GenreScores,
			InteractedMediaIDs:   interacted,
			TotalLikes:           userProfile.TotalLikes,
			TotalDislikes:        userProfile.TotalDislikes,
			TotalWatches:         userProfile.TotalWatches,
			TotalEngagementScore: userProfile.TotalEngagementScore,
		},
		Limit: limit,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		metrics.ScorerRequestErrors.WithLabelValues("encode").Inc()
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		metrics.ScorerRequestErrors.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		metrics.ScorerRequestErrors.WithLabelValues("status").Inc()
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUpstreamUnavailable, httpResp.StatusCode)
	}

	var scoreResp ScoreResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&scoreResp); err != nil {
		metrics.ScorerRequestErrors.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUpstreamUnavailable, err)
	}

	if scoreResp.UserID != userProfile.UserID {
		metrics.ScorerRequestErrors.WithLabelValues("mismatch").Inc()
		return nil, fmt.Errorf("%w: response user %q does not match request user %q",
			ErrUpstreamUnavailable, scoreResp.UserID, userProfile.UserID)
	}

	return &scoreResp, nil
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
