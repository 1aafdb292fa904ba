// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package profile maintains per-user taste profiles aggregated from
// interaction events.
//
// A UserProfile is a pure aggregate: genre scores, engagement counters and
// the set of media the user has interacted with. Profiles are created
// lazily on a user's first interaction and updated by merging one event at
// a time.
//
// # Merge Semantics
//
// Each interaction type carries a fixed base weight:
//
//	LIKE     +2.0
//	DISLIKE  -2.0
//	WATCH    +0.75
//
// Merging an event against the media's features applies, in order:
//
//   - GenreScores[g] += weight for every genre g of the media
//   - InteractedMediaIDs gains the media ID (append-only, never removed)
//   - the per-type counter increments
//   - TotalEngagementScore += weight * (1 + event value)
//
// Merge is commutative over event sets: any arrival order of the same
// events produces the same profile, because every step is an independent
// accumulation. Merge is NOT idempotent: a redelivered event is counted
// again. Deduplication, when wanted, belongs to the consumer layer.
//
// # Versioning and Concurrency
//
// Store.Save is a compare-and-set on Profile.Version. A Save with a stale
// version returns ErrVersionConflict and leaves the store untouched;
// version 0 means "create, fail if the profile already exists". Versions
// increase by exactly one per successful save, so a profile's version
// equals the number of writes it has absorbed.
//
// The Aggregator drives the load-merge-save loop, retrying version
// conflicts up to a bounded number of attempts before giving up with
// ErrConcurrencyExhausted. Callers treat that error as retriable: the
// event is redelivered and tried again later.
//
// # Storage
//
// Two Store implementations are provided: BadgerStore for production,
// where badger transaction conflicts double as CAS failures, and
// MemoryStore for tests.
package profile
