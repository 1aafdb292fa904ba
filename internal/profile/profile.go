// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package profile implements per-user aggregate preference state: the
// UserProfile record, the versioned store with compare-and-swap writes,
// and the aggregator that merges interaction events into profiles.
package profile

import (
	"time"

	"github.com/Luca5Eckert/media-recommendation-system/internal/events"
	"github.com/Luca5Eckert/media-recommendation-system/internal/features"
)

// UserProfile is the accumulated preference state for one user.
// Created lazily on the first interaction; mutated only by the aggregator;
// never deleted by this subsystem.
type UserProfile struct {
	UserID string `json:"userId"`

	// Version is the optimistic concurrency token. It strictly increases
	// with every successful save; a save against a stale version is
	// rejected by the store.
	Version uint64 `json:"version"`

	// GenreScores accumulates the weighted contribution of every processed
	// event whose media carried the genre. Keys are dynamic.
	GenreScores map[string]float64 `json:"genreScores"`

	// InteractedMediaIDs is append-only. A later media deletion does not
	// retroactively remove the id.
	InteractedMediaIDs map[string]bool `json:"interactedMediaIds"`

	TotalLikes           int64     `json:"totalLikes"`
	TotalDislikes        int64     `json:"totalDislikes"`
	TotalWatches         int64     `json:"totalWatches"`
	TotalEngagementScore float64   `json:"totalEngagementScore"`
	LastUpdated          time.Time `json:"lastUpdated"`
}

// NewUserProfile creates a fresh profile with zeroed counters and version 0.
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		GenreScores:        make(map[string]float64),
		InteractedMediaIDs: make(map[string]bool),
	}
}

// Merge folds one interaction event into the profile using the feature
// record of the referenced media. The operation is a commutative
// accumulation: replaying the same set of events in any order yields the
// same scores. Replaying a duplicate event double-counts; deduplication,
// when wanted, happens upstream in the stream layer.
func (p *UserProfile) Merge(feature *features.MediaFeature, event *events.InteractionEvent, now time.Time) {
	weight := event.Type.Weight()

	for _, genre := range feature.Genres {
		p.GenreScores[genre] += weight
	}

	p.InteractedMediaIDs[feature.MediaID] = true

	switch event.Type {
	case events.InteractionLike:
		p.TotalLikes++
	case events.InteractionDislike:
		p.TotalDislikes++
	case events.InteractionWatch:
		p.TotalWatches++
	}

	p.TotalEngagementScore += weight * (1 + event.Value)
	p.LastUpdated = now
}

// Clone returns a deep copy. The aggregator merges into a copy so a failed
// CAS leaves the loaded profile untouched for the retry.
func (p *UserProfile) Clone() *UserProfile {
	clone := *p
	clone.GenreScores = make(map[string]float64, len(p.GenreScores))
	for k, v := range p.GenreScores {
		clone.GenreScores[k] = v
	}
	clone.InteractedMediaIDs = make(map[string]bool, len(p.InteractedMediaIDs))
	for k := range p.InteractedMediaIDs {
		clone.InteractedMediaIDs[k] = true
	}
	return &clone
}
