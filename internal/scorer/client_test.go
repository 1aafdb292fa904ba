// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package scorer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Luca5Eckert/media-recommendation-system/internal/profile"
)

func testProfile() *profile.UserProfile {
	p := profile.NewUserProfile("user-1")
	p.GenreScores["THRILLER"] = 2.0
	p.InteractedMediaIDs["media-1"] = true
	p.TotalLikes = 1
	p.TotalEngagementScore = 4.0
	return p
}

func newTestClient(t *testing.T, baseURL string, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = baseURL
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(DefaultConfig()); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestClient_ScoreSuccess(t *testing.T) {
	var gotReq ScoreRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := ScoreResponse{
			UserID: "user-1",
			Recommendations: []ScoredMedia{
				{MediaID: "media-9", Score: 0.92},
				{MediaID: "media-4", Score: 0.81},
			},
			Count: 2,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, DefaultConfig())
	resp, err := client.Score(context.Background(), testProfile(), 2)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}

	if gotReq.UserID != "user-1" || gotReq.Limit != 2 {
		t.Errorf("request not forwarded: %+v", gotReq)
	}
	if gotReq.Profile == nil || gotReq.Profile.GenreScores["THRILLER"] != 2.0 {
		t.Errorf("profile snapshot missing from request: %+v", gotReq.Profile)
	}
	if len(resp.Recommendations) != 2 || resp.Recommendations[0].MediaID != "media-9" {
		t.Errorf("unexpected recommendations: %+v", resp.Recommendations)
	}
}

func TestClient_ScoreRejectsNilProfile(t *testing.T) {
	client := newTestClient(t, "http://localhost:9", DefaultConfig())
	if _, err := client.Score(context.Background(), nil, 10); err == nil {
		t.Error("expected error for nil profile")
	}
}

func TestClient_ScoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, DefaultConfig())
	_, err := client.Score(context.Background(), testProfile(), 10)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_ScoreMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, DefaultConfig())
	_, err := client.Score(context.Background(), testProfile(), 10)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_ScoreUserMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ScoreResponse{UserID: "someone-else"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, DefaultConfig())
	_, err := client.Score(context.Background(), testProfile(), 10)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := Config{
		Timeout:          time.Second,
		FailureThreshold: 3,
		BreakerTimeout:   time.Minute,
		MaxRequests:      1,
	}
	client := newTestClient(t, srv.URL, cfg)

	for i := 0; i < 3; i++ {
		if _, err := client.Score(context.Background(), testProfile(), 10); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}
	if client.BreakerState() != "open" {
		t.Fatalf("expected open breaker, got %s", client.BreakerState())
	}

	// The open breaker fails fast without touching the upstream.
	before := requests
	_, err := client.Score(context.Background(), testProfile(), 10)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if requests != before {
		t.Errorf("breaker should have short-circuited, got %d extra requests", requests-before)
	}
}

func TestClient_ScoreDefaultsLimit(t *testing.T) {
	var gotLimit int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotLimit = req.Limit
		_ = json.NewEncoder(w).Encode(ScoreResponse{UserID: "user-1"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, DefaultConfig())
	if _, err := client.Score(context.Background(), testProfile(), 0); err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if gotLimit != 10 {
		t.Errorf("expected default limit 10, got %d", gotLimit)
	}
}

func TestBreakerStateValue(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tt := range tests {
		if got := breakerStateValue(tt.state); got != tt.want {
			t.Errorf("breakerStateValue(%v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
