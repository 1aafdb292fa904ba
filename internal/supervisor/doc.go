// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package supervisor builds the suture supervision tree: a root
// supervisor with messaging and API child layers, so a crashing event
// router restarts without tearing down the HTTP server and vice versa.
// The services subpackage adapts the concrete components to
// suture.Service.
package supervisor
