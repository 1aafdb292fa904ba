// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Luca5Eckert/media-recommendation-system/internal/events"
	"github.com/Luca5Eckert/media-recommendation-system/internal/features"
	"github.com/Luca5Eckert/media-recommendation-system/internal/logging"
	"github.com/Luca5Eckert/media-recommendation-system/internal/metrics"
)

// ErrConcurrencyExhausted is returned when a merge could not be persisted
// within the configured number of CAS attempts. The caller decides whether
// to redeliver or route to the dead-letter path.
var ErrConcurrencyExhausted = errors.New("optimistic concurrency retries exhausted")

// DefaultMaxCASRetries bounds the internal reload-and-remerge loop.
// Under the per-user ordering guarantee conflicts only occur during
// consumer rebalances, so a small bound suffices.
const DefaultMaxCASRetries = 4

// AggregatorConfig holds aggregator tuning.
type AggregatorConfig struct {
	// MaxCASRetries is the number of save attempts per event before
	// surfacing ErrConcurrencyExhausted. Default: DefaultMaxCASRetries.
	MaxCASRetries int
}

// Aggregator applies interaction events to user profiles.
//
// For each event it resolves the referenced media's features, loads (or
// lazily creates) the user's profile, merges the event, and persists the
// result through the store's versioned write. On a version conflict the
// latest profile is reloaded and the merge repeated, bounded by
// MaxCASRetries.
type Aggregator struct {
	features   features.Store
	profiles   Store
	maxRetries int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAggregator creates an aggregator over the given stores.
func NewAggregator(featureStore features.Store, profileStore Store, cfg AggregatorConfig) *Aggregator {
	retries := cfg.MaxCASRetries
	if retries <= 0 {
		retries = DefaultMaxCASRetries
	}
	return &Aggregator{
		features:   featureStore,
		profiles:   profileStore,
		maxRetries: retries,
		now:        time.Now,
		logger:     logging.With().Str("component", "aggregator").Logger(),
	}
}

// Apply merges one interaction event into the acting user's profile and
// returns the persisted profile.
//
// Error contract:
//   - *events.ValidationError: malformed event, drop without side effects
//   - features.ErrMediaNotFound: retriable, redeliver with backoff
//   - ErrConcurrencyExhausted: retriable, CAS bound exceeded
func (a *Aggregator) Apply(ctx context.Context, event *events.InteractionEvent) (*UserProfile, error) {
	if event == nil {
		return nil, &events.ValidationError{Field: "event", Message: "nil"}
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if event.ClampValue() {
		a.logger.Warn().
			Str("event_id", event.ID).
			Float64("value", event.Value).
			Msg("interaction value outside [-1,1], clamped")
	}

	feature, err := a.features.Get(ctx, event.MediaID)
	if err != nil {
		if errors.Is(err, features.ErrMediaNotFound) {
			metrics.MediaLookupMisses.Inc()
			return nil, fmt.Errorf("media %s: %w", event.MediaID, err)
		}
		return nil, fmt.Errorf("load media feature: %w", err)
	}

	for attempt := 0; attempt < a.maxRetries; attempt++ {
		current, err := a.profiles.Load(ctx, event.UserID)
		if errors.Is(err, ErrProfileNotFound) {
			current = NewUserProfile(event.UserID)
		} else if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}

		merged := current.Clone()
		merged.Merge(feature, event, a.now().UTC())

		err = a.profiles.Save(ctx, merged)
		if errors.Is(err, ErrVersionConflict) {
			metrics.ProfileCASConflicts.Inc()
			a.logger.Debug().
				Str("user_id", event.UserID).
				Int("attempt", attempt+1).
				Msg("version conflict, reloading profile")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}

		metrics.EventsApplied.Inc()
		a.logger.Debug().
			Str("user_id", event.UserID).
			Str("media_id", event.MediaID).
			Str("type", string(event.Type)).
			Uint64("version", merged.Version).
			Msg("profile updated")
		return merged, nil
	}

	metrics.ProfileCASExhausted.Inc()
	return nil, fmt.Errorf("user %s after %d attempts: %w",
		event.UserID, a.maxRetries, ErrConcurrencyExhausted)
}

// OnMediaCreated upserts the media's feature record.
// Idempotent; driven by the at-least-once media lifecycle stream.
func (a *Aggregator) OnMediaCreated(ctx context.Context, event *events.MediaCreatedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return a.features.Upsert(ctx, &features.MediaFeature{
		MediaID:         event.MediaID,
		Genres:          event.Genres,
		PopularityScore: event.PopularityScore,
		UpdatedAt:       a.now().UTC(),
	})
}

// OnMediaDeleted evicts the media's feature record. Idempotent.
func (a *Aggregator) OnMediaDeleted(ctx context.Context, event *events.MediaDeletedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return a.features.Evict(ctx, event.MediaID)
}
