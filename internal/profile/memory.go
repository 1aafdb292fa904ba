// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package profile

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implements Store with an in-process map guarded by a mutex.
// The CAS semantics match BadgerStore; used in tests and development mode.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]*UserProfile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*UserProfile)}
}

// Load returns a deep copy of the latest profile or ErrProfileNotFound.
func (s *MemoryStore) Load(_ context.Context, userID string) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return stored.Clone(), nil
}

// Save writes the profile via CAS and increments profile.Version on success.
func (s *MemoryStore) Save(_ context.Context, profile *UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("profile with user id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.profiles[profile.UserID]
	if !ok {
		if profile.Version != 0 {
			return ErrVersionConflict
		}
	} else if stored.Version != profile.Version {
		return ErrVersionConflict
	}

	next := profile.Clone()
	next.Version = profile.Version + 1
	s.profiles[profile.UserID] = next

	profile.Version++
	return nil
}

var _ Store = (*MemoryStore)(nil)
