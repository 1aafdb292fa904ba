// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Luca5Eckert/media-recommendation-system/internal/profile"
	"github.com/Luca5Eckert/media-recommendation-system/internal/scorer"
)

type fakeProfiles struct {
	profiles map[string]*profile.UserProfile
	loadErr  error
}

func (f *fakeProfiles) Load(ctx context.Context, userID string) (*profile.UserProfile, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

type fakeScorer struct {
	resp     *scorer.ScoreResponse
	err      error
	gotLimit int
}

func (f *fakeScorer) Score(ctx context.Context, userProfile *profile.UserProfile, limit int) (*scorer.ScoreResponse, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestServer(t *testing.T, profiles ProfileReader, scoring Scorer) *httptest.Server {
	t.Helper()
	s := NewServer(DefaultConfig(), profiles, scoring)
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t, &fakeProfiles{}, nil)

	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("expected ok, got %s", health.Status)
	}
}

func TestHandler_HealthDegraded(t *testing.T) {
	s := NewServer(DefaultConfig(), &fakeProfiles{}, nil,
		HealthCheck{Name: "nats", Check: func() bool { return true }},
		HealthCheck{Name: "event-router", Check: func() bool { return false }},
	)
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)

	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "degraded" {
		t.Errorf("expected degraded, got %s", health.Status)
	}
	if health.Components["nats"] != "ok" || health.Components["event-router"] != "down" {
		t.Errorf("unexpected components: %v", health.Components)
	}
}

func TestHandler_UserProfileFound(t *testing.T) {
	p := profile.NewUserProfile("user-1")
	p.GenreScores["DRAMA"] = 0.75
	p.TotalWatches = 1
	srv := newTestServer(t, &fakeProfiles{profiles: map[string]*profile.UserProfile{"user-1": p}}, nil)

	resp, body := get(t, srv.URL+"/api/v1/users/user-1/profile")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var got profile.UserProfile
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if got.UserID != "user-1" || got.GenreScores["DRAMA"] != 0.75 {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestHandler_UserProfileNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeProfiles{}, nil)

	resp, body := get(t, srv.URL+"/api/v1/users/ghost/profile")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if apiErr.Error != "profile_not_found" {
		t.Errorf("unexpected error code %s", apiErr.Error)
	}
}

func TestHandler_UserProfileStorageFailure(t *testing.T) {
	srv := newTestServer(t, &fakeProfiles{loadErr: errors.New("disk on fire")}, nil)

	resp, _ := get(t, srv.URL+"/api/v1/users/user-1/profile")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestHandler_Recommendations(t *testing.T) {
	p := profile.NewUserProfile("user-1")
	scoring := &fakeScorer{resp: &scorer.ScoreResponse{
		UserID:          "user-1",
		Recommendations: []scorer.ScoredMedia{{MediaID: "media-7", Score: 0.9}},
		Count:           1,
	}}
	srv := newTestServer(t, &fakeProfiles{profiles: map[string]*profile.UserProfile{"user-1": p}}, scoring)

	resp, body := get(t, srv.URL+"/api/v1/users/user-1/recommendations?limit=5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if scoring.gotLimit != 5 {
		t.Errorf("expected limit 5, got %d", scoring.gotLimit)
	}
	var got scorer.ScoreResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Count != 1 || got.Recommendations[0].MediaID != "media-7" {
		t.Errorf("unexpected response: %+v", got)
	}
}

func TestHandler_RecommendationsBadLimit(t *testing.T) {
	p := profile.NewUserProfile("user-1")
	srv := newTestServer(t, &fakeProfiles{profiles: map[string]*profile.UserProfile{"user-1": p}}, &fakeScorer{})

	for _, limit := range []string{"0", "-1", "101", "abc"} {
		resp, _ := get(t, srv.URL+"/api/v1/users/user-1/recommendations?limit="+limit)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit %q: expected 400, got %d", limit, resp.StatusCode)
		}
	}
}

func TestHandler_RecommendationsNoScorerConfigured(t *testing.T) {
	p := profile.NewUserProfile("user-1")
	srv := newTestServer(t, &fakeProfiles{profiles: map[string]*profile.UserProfile{"user-1": p}}, nil)

	resp, body := get(t, srv.URL+"/api/v1/users/user-1/recommendations")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if apiErr.Error != "upstream_unavailable" {
		t.Errorf("unexpected error code %s", apiErr.Error)
	}
}

func TestHandler_RecommendationsUpstreamDown(t *testing.T) {
	p := profile.NewUserProfile("user-1")
	scoring := &fakeScorer{err: scorer.ErrUpstreamUnavailable}
	srv := newTestServer(t, &fakeProfiles{profiles: map[string]*profile.UserProfile{"user-1": p}}, scoring)

	resp, _ := get(t, srv.URL+"/api/v1/users/user-1/recommendations")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestHandler_RecommendationsProfileMissing(t *testing.T) {
	srv := newTestServer(t, &fakeProfiles{}, &fakeScorer{})

	resp, _ := get(t, srv.URL+"/api/v1/users/ghost/recommendations")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
