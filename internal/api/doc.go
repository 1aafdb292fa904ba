// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package api exposes the read-side HTTP surface: user profiles,
// recommendations, health and Prometheus metrics. Writes never go through
// HTTP; all state changes arrive on the event streams. Endpoints under
// /api/v1 are rate limited per client IP.
package api
