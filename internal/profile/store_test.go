// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package profile

import (
	"context"
	"errors"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
)

func openTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})
	return db
}

// casContract runs the versioned-write checks shared by both stores.
func casContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// Unknown user is a typed error.
	if _, err := store.Load(ctx, "user-1"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	// First save must carry version 0 and bumps to 1.
	p := NewUserProfile("user-1")
	p.GenreScores["ACTION"] = 2.0
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("initial save failed: %v", err)
	}
	if p.Version != 1 {
		t.Errorf("expected version 1 after first save, got %d", p.Version)
	}

	loaded, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Version != 1 || loaded.GenreScores["ACTION"] != 2.0 {
		t.Errorf("unexpected loaded profile: %+v", loaded)
	}

	// Save against the current version succeeds and increments.
	loaded.GenreScores["ACTION"] = 4.0
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if loaded.Version != 2 {
		t.Errorf("expected version 2, got %d", loaded.Version)
	}

	// A stale version is rejected and leaves the stored profile untouched.
	stale := loaded.Clone()
	stale.Version = 1
	stale.GenreScores["ACTION"] = -100
	if err := store.Save(ctx, stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	current, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load after conflict failed: %v", err)
	}
	if current.Version != 2 || current.GenreScores["ACTION"] != 4.0 {
		t.Errorf("conflicting save mutated stored profile: %+v", current)
	}

	// Creating an already-existing user with version 0 conflicts too.
	fresh := NewUserProfile("user-1")
	if err := store.Save(ctx, fresh); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict for duplicate create, got %v", err)
	}
}

func TestMemoryStore_CASContract(t *testing.T) {
	casContract(t, NewMemoryStore())
}

func TestBadgerStore_CASContract(t *testing.T) {
	casContract(t, NewBadgerStore(openTestBadger(t)))
}

func TestStore_VersionMonotonic(t *testing.T) {
	for name, store := range map[string]Store{
		"memory": NewMemoryStore(),
		"badger": NewBadgerStore(openTestBadger(t)),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p := NewUserProfile("user-1")
			last := uint64(0)
			for i := 0; i < 10; i++ {
				if err := store.Save(ctx, p); err != nil {
					t.Fatalf("save %d failed: %v", i, err)
				}
				if p.Version <= last {
					t.Fatalf("version did not increase: %d after %d", p.Version, last)
				}
				last = p.Version
			}
		})
	}
}

func TestMemoryStore_SaveRejectsEmptyUser(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(context.Background(), &UserProfile{}); err == nil {
		t.Error("expected error for profile without user id")
	}
	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("expected error for nil profile")
	}
}
