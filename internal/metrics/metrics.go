// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package metrics provides Prometheus metrics for the recommendation
// pipeline: event consumption, profile aggregation, feature store, DLQ
// depth, and the external scorer client. Metrics are exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event consumption metrics

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrs_events_consumed_total",
			Help: "Total number of events consumed from the streams",
		},
		[]string{"topic"},
	)

	EventsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrs_events_applied_total",
			Help: "Total number of interaction events merged into profiles",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrs_events_dropped_total",
			Help: "Total number of events dropped without retry",
		},
		[]string{"reason"}, // "validation", "decode"
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrs_events_failed_total",
			Help: "Total number of event handler failures returned for retry",
		},
		[]string{"topic", "error"},
	)

	// Profile store metrics

	ProfileCASConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrs_profile_cas_conflicts_total",
			Help: "Total number of optimistic version conflicts on profile saves",
		},
	)

	ProfileCASExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrs_profile_cas_exhausted_total",
			Help: "Total number of events that exceeded the CAS retry bound",
		},
	)

	// Feature store metrics

	MediaLookupMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrs_media_lookup_misses_total",
			Help: "Total number of interaction events referencing media absent from the feature store",
		},
	)

	FeatureUpserts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrs_feature_upserts_total",
			Help: "Total number of media feature upserts",
		},
	)

	FeatureEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrs_feature_evictions_total",
			Help: "Total number of media feature evictions",
		},
	)

	// Dead-letter metrics

	DLQEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrs_dlq_entries_total",
			Help: "Total number of events routed to the dead-letter queue",
		},
		[]string{"category"},
	)

	DLQDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mrs_dlq_depth",
			Help: "Current number of persisted dead-letter entries",
		},
	)

	// Scorer client metrics

	ScorerRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mrs_scorer_request_duration_seconds",
			Help:    "Duration of requests to the external scoring service",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ScorerRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrs_scorer_request_errors_total",
			Help: "Total number of failed scorer requests",
		},
		[]string{"reason"}, // "status", "transport", "decode", "breaker_open"
	)

	ScorerBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mrs_scorer_breaker_state",
			Help: "Scorer circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrs_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrs_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)
