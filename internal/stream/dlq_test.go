// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
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

func TestBadgerDLQStore_SaveGetDelete(t *testing.T) {
	store := NewBadgerDLQStore(openTestBadger(t))
	ctx := context.Background()

	entry := &DLQEntry{
		EventID:       "evt-1",
		OriginalTopic: "interactions.3",
		Handler:       "interactions-3",
		Payload:       []byte(`{"id":"evt-1"}`),
		Reason:        "media feature not yet available",
		Category:      CategoryMediaMissing,
		FailedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.EventID != entry.EventID || got.OriginalTopic != entry.OriginalTopic ||
		got.Category != CategoryMediaMissing || string(got.Payload) != string(entry.Payload) {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := store.Delete(ctx, "evt-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "evt-1"); !errors.Is(err, ErrDLQEntryNotFound) {
		t.Errorf("expected ErrDLQEntryNotFound, got %v", err)
	}

	// Deleting a missing entry is fine.
	if err := store.Delete(ctx, "evt-1"); err != nil {
		t.Errorf("second delete failed: %v", err)
	}
}

func TestBadgerDLQStore_SaveRejectsInvalid(t *testing.T) {
	store := NewBadgerDLQStore(openTestBadger(t))
	ctx := context.Background()

	if err := store.Save(ctx, nil); err == nil {
		t.Error("expected error for nil entry")
	}
	if err := store.Save(ctx, &DLQEntry{}); err == nil {
		t.Error("expected error for entry without event id")
	}
}

func TestBadgerDLQStore_ListAndCount(t *testing.T) {
	store := NewBadgerDLQStore(openTestBadger(t))
	ctx := context.Background()

	for _, id := range []string{"evt-1", "evt-2", "evt-3"} {
		err := store.Save(ctx, &DLQEntry{
			EventID:  id,
			Reason:   "test",
			FailedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestBadgerDLQStore_DeleteExpired(t *testing.T) {
	store := NewBadgerDLQStore(openTestBadger(t))
	ctx := context.Background()
	now := time.Now().UTC()

	old := &DLQEntry{EventID: "old", FailedAt: now.Add(-48 * time.Hour)}
	fresh := &DLQEntry{EventID: "fresh", FailedAt: now}
	for _, e := range []*DLQEntry{old, fresh} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("save %s: %v", e.EventID, err)
		}
	}

	deleted, err := store.DeleteExpired(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrDLQEntryNotFound) {
		t.Error("expected old entry removed")
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh entry must survive: %v", err)
	}
}

func TestDLQConsumer_HandlePersistsPoisonedMessage(t *testing.T) {
	store := NewBadgerDLQStore(openTestBadger(t))
	consumer := NewDLQConsumer(store)
	ctx := context.Background()

	msg := message.NewMessage("evt-1", []byte(`{"id":"evt-1","userId":"user-1"}`))
	msg.Metadata.Set(middleware.ReasonForPoisonedKey, "profile write contention: retries exhausted")
	msg.Metadata.Set(middleware.PoisonedTopicKey, "interactions.2")
	msg.Metadata.Set(middleware.PoisonedHandlerKey, "interactions-2")

	if err := consumer.Handle(msg); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	entry, err := store.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("entry not persisted: %v", err)
	}
	if entry.OriginalTopic != "interactions.2" || entry.Handler != "interactions-2" {
		t.Errorf("metadata not captured: %+v", entry)
	}
	if entry.Category != CategoryConcurrency {
		t.Errorf("expected concurrency category, got %s", entry.Category)
	}
	if len(entry.Payload) == 0 {
		t.Error("expected payload preserved for replay")
	}
}
