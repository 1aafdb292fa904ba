// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package features implements the media feature store: a keyed cache of
// per-media genre tags and popularity, materialized from the media
// lifecycle stream and read by profile aggregation.
//
// Interaction events may reference media whose creation event has not
// arrived yet (cross-stream ordering is not guaranteed), so Get returns
// ErrMediaNotFound rather than a zero value; the caller treats that as a
// recoverable condition.
package features

import (
	"context"
	"errors"
	"time"
)

// ErrMediaNotFound is returned by Get when no feature record exists for
// the media ID. This is a retriable condition: the creation event may
// simply not have been consumed yet.
var ErrMediaNotFound = errors.New("media feature not found")

// MediaFeature is the per-media record owned by the feature store.
// Read-only to every other component.
type MediaFeature struct {
	MediaID         string    `json:"mediaId"`
	Genres          []string  `json:"genres"`
	PopularityScore float64   `json:"popularityScore"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Store is the feature store contract. Upsert and Evict are idempotent;
// both are driven by at-least-once media lifecycle events.
type Store interface {
	// Upsert creates or overwrites the feature record for a media ID.
	Upsert(ctx context.Context, feature *MediaFeature) error

	// Evict removes the feature record. No-op if absent.
	Evict(ctx context.Context, mediaID string) error

	// Get returns the feature record or ErrMediaNotFound.
	Get(ctx context.Context, mediaID string) (*MediaFeature, error)
}
