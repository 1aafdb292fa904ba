// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package profile

import (
	"context"
	"errors"
)

// ErrProfileNotFound is returned by Load when no profile exists for the user.
var ErrProfileNotFound = errors.New("user profile not found")

// ErrVersionConflict is returned by Save when the stored version no longer
// matches the version the caller read. The caller reloads and re-merges.
var ErrVersionConflict = errors.New("profile version conflict")

// Store is the durable, versioned profile store contract.
//
// Save performs a compare-and-swap on Version: the write succeeds only if
// the stored version equals profile.Version, and the stored record then
// carries Version+1. A profile with Version 0 saves only if no record
// exists yet. Blind overwrites are never performed.
type Store interface {
	// Load returns the latest profile or ErrProfileNotFound.
	Load(ctx context.Context, userID string) (*UserProfile, error)

	// Save writes the profile via CAS. On success profile.Version is
	// incremented to the stored value; on a stale version it returns
	// ErrVersionConflict and stored state is unchanged.
	Save(ctx context.Context, profile *UserProfile) error
}
