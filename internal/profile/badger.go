// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// profileKeyPrefix namespaces profile records inside the shared BadgerDB.
const profileKeyPrefix = "profile:"

// BadgerStore implements Store using BadgerDB.
//
// The compare-and-swap runs inside a single badger read-write transaction:
// the stored version is read, compared against the caller's version, and
// the new record written, all under the transaction's serializable
// isolation. Two overlapping saves for the same user cannot both commit
// against the same base version.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed profile store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Load returns the latest profile or ErrProfileNotFound.
func (s *BadgerStore) Load(_ context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// Save writes the profile via CAS and increments profile.Version on success.
func (s *BadgerStore) Save(_ context.Context, profile *UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("profile with user id required")
	}

	key := []byte(profileKeyPrefix + profile.UserID)

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// First write for this user: only version 0 may create.
			if profile.Version != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return fmt.Errorf("get profile: %w", err)
		default:
			var stored struct {
				Version uint64 `json:"version"`
			}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			}); err != nil {
				return fmt.Errorf("decode stored version: %w", err)
			}
			if stored.Version != profile.Version {
				return ErrVersionConflict
			}
		}

		next := profile.Clone()
		next.Version = profile.Version + 1

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		// Two transactions raced on the same key; surfaces as the same
		// condition the version check guards against.
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}

	profile.Version++
	return nil
}

var _ Store = (*BadgerStore)(nil)
