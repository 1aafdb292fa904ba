// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// featureKeyPrefix namespaces feature records inside the shared BadgerDB.
const featureKeyPrefix = "feature:"

// BadgerStore implements Store using BadgerDB for durable storage.
// Feature records survive restarts, so a consumer does not have to replay
// the media stream from the beginning after a crash.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed feature store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Upsert creates or overwrites the feature record.
func (s *BadgerStore) Upsert(_ context.Context, feature *MediaFeature) error {
	if feature == nil || feature.MediaID == "" {
		return fmt.Errorf("feature with media id required")
	}
	if feature.UpdatedAt.IsZero() {
		feature.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(feature)
	if err != nil {
		return fmt.Errorf("marshal feature: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(featureKeyPrefix+feature.MediaID), data)
	})
}

// Evict removes the feature record. Deleting an absent key is a no-op in
// badger, which gives the idempotency the lifecycle stream requires.
func (s *BadgerStore) Evict(_ context.Context, mediaID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(featureKeyPrefix + mediaID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete feature: %w", err)
		}
		return nil
	})
}

// Get returns the feature record or ErrMediaNotFound.
func (s *BadgerStore) Get(_ context.Context, mediaID string) (*MediaFeature, error) {
	var feature MediaFeature

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(featureKeyPrefix + mediaID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrMediaNotFound
		}
		if err != nil {
			return fmt.Errorf("get feature: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &feature)
		})
	})
	if err != nil {
		return nil, err
	}

	return &feature, nil
}

var _ Store = (*BadgerStore)(nil)
