// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package scorer is the HTTP client for the external ML scoring service.
//
// The client sends a profile snapshot and receives ranked media. All
// failure modes (transport errors, timeouts, non-2xx responses, malformed
// bodies) collapse into ErrUpstreamUnavailable, so callers see exactly one
// retriable condition and never partial results.
//
// A circuit breaker guards the upstream: after a configured number of
// consecutive failures the breaker opens and requests fail fast without
// touching the network, then a half-open probe decides whether to close
// it again. Breaker state is exported as a gauge metric.
package scorer
