// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package features

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process map.
// Used in tests and single-process development mode; records do not
// survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	features map[string]MediaFeature
}

// NewMemoryStore creates an empty in-memory feature store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{features: make(map[string]MediaFeature)}
}

// Upsert creates or overwrites the feature record.
func (s *MemoryStore) Upsert(_ context.Context, feature *MediaFeature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *feature
	stored.Genres = append([]string(nil), feature.Genres...)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	s.features[feature.MediaID] = stored
	return nil
}

// Evict removes the feature record. No-op if absent.
func (s *MemoryStore) Evict(_ context.Context, mediaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.features, mediaID)
	return nil
}

// Get returns a copy of the feature record or ErrMediaNotFound.
func (s *MemoryStore) Get(_ context.Context, mediaID string) (*MediaFeature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.features[mediaID]
	if !ok {
		return nil, ErrMediaNotFound
	}

	feature := stored
	feature.Genres = append([]string(nil), stored.Genres...)
	return &feature, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.features)
}

var _ Store = (*MemoryStore)(nil)
