// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Luca5Eckert/media-recommendation-system/internal/logging"
	"github.com/Luca5Eckert/media-recommendation-system/internal/metrics"
)

// ErrDLQEntryNotFound is returned when no dead letter entry exists for an ID.
var ErrDLQEntryNotFound = errors.New("dead letter entry not found")

const dlqKeyPrefix = "dlq:"

// DLQEntry records a message that exhausted its retries and was routed to
// the dead letter topic. The payload is kept verbatim so an operator can
// replay the event once the underlying failure is resolved.
type DLQEntry struct {
	// EventID is the message UUID, which for interaction events equals the
	// event's own ID.
	EventID string `json:"eventId"`

	// OriginalTopic is the topic the message was consumed from before it
	// was poisoned.
	OriginalTopic string `json:"originalTopic"`

	// Handler is the router handler that gave up on the message.
	Handler string `json:"handler"`

	// Payload is the original message payload, untouched.
	Payload []byte `json:"payload"`

	// Reason is the final error that poisoned the message.
	Reason string `json:"reason"`

	// Category classifies the failure for metrics and triage.
	Category ErrorCategory `json:"category"`

	// FailedAt is when the entry was recorded.
	FailedAt time.Time `json:"failedAt"`
}

// DLQStore persists dead letter entries so they survive restarts.
type DLQStore interface {
	// Save persists an entry, overwriting any existing entry with the same ID.
	Save(ctx context.Context, entry *DLQEntry) error

	// Get retrieves an entry by event ID. Returns ErrDLQEntryNotFound when
	// no entry exists.
	Get(ctx context.Context, eventID string) (*DLQEntry, error)

	// Delete removes an entry by event ID. Deleting a missing entry is not
	// an error.
	Delete(ctx context.Context, eventID string) error

	// List returns all entries ordered by key.
	List(ctx context.Context) ([]*DLQEntry, error)

	// DeleteExpired removes entries recorded before the cutoff and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)

	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int64, error)
}

// BadgerDLQStore implements DLQStore on a badger keyspace under "dlq:".
type BadgerDLQStore struct {
	db *badger.DB
}

// NewBadgerDLQStore creates a badger-backed dead letter store.
func NewBadgerDLQStore(db *badger.DB) *BadgerDLQStore {
	return &BadgerDLQStore{db: db}
}

func dlqKey(eventID string) []byte {
	return []byte(dlqKeyPrefix + eventID)
}

// Save persists a dead letter entry.
func (s *BadgerDLQStore) Save(ctx context.Context, entry *DLQEntry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}
	if entry.EventID == "" {
		return errors.New("entry event ID cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dead letter entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dlqKey(entry.EventID), data)
	})
	if err != nil {
		return fmt.Errorf("save dead letter entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by event ID.
func (s *BadgerDLQStore) Get(ctx context.Context, eventID string) (*DLQEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry DLQEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dlqKey(eventID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrDLQEntryNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrDLQEntryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load dead letter entry: %w", err)
	}
	return &entry, nil
}

// Delete removes an entry. Missing entries are ignored.
func (s *BadgerDLQStore) Delete(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dlqKey(eventID))
	})
	if err != nil {
		return fmt.Errorf("delete dead letter entry: %w", err)
	}
	return nil
}

// List returns all persisted entries.
func (s *BadgerDLQStore) List(ctx context.Context) ([]*DLQEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []*DLQEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(dlqKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry DLQEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list dead letter entries: %w", err)
	}
	return entries, nil
}

// DeleteExpired removes entries recorded before the cutoff.
func (s *BadgerDLQStore) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, entry := range entries {
		if !entry.FailedAt.Before(olderThan) {
			continue
		}
		if err := s.Delete(ctx, entry.EventID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Count returns the number of persisted entries.
func (s *BadgerDLQStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(dlqKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count dead letter entries: %w", err)
	}
	return count, nil
}

// DLQConsumer drains the dead letter topic into persistent storage. The
// poison queue middleware attaches the original topic, handler and failure
// reason as message metadata; the consumer records them so operators can
// inspect and replay failed events after the fault is fixed.
type DLQConsumer struct {
	store  DLQStore
	logger zerolog.Logger
}

// NewDLQConsumer creates a consumer that persists poisoned messages.
func NewDLQConsumer(store DLQStore) *DLQConsumer {
	return &DLQConsumer{
		store:  store,
		logger: logging.With().Str("component", "dlq-consumer").Logger(),
	}
}

// Register wires the dead letter handler into the router.
func (c *DLQConsumer) Register(router *Router, subscriber *Subscriber, topic string) {
	router.AddConsumerHandler("dead-letter", topic, subscriber.Messages(), c.Handle)
}

// Handle persists a single poisoned message. It never returns an error for
// a malformed message; a message that cannot be persisted is retried.
func (c *DLQConsumer) Handle(msg *message.Message) error {
	reason := msg.Metadata.Get(middleware.ReasonForPoisonedKey)
	originalTopic := msg.Metadata.Get(middleware.PoisonedTopicKey)
	handler := msg.Metadata.Get(middleware.PoisonedHandlerKey)

	entry := &DLQEntry{
		EventID:       msg.UUID,
		OriginalTopic: originalTopic,
		Handler:       handler,
		Payload:       append([]byte(nil), msg.Payload...),
		Reason:        reason,
		Category:      categoryFromReason(reason),
		FailedAt:      time.Now().UTC(),
	}

	if err := c.store.Save(msg.Context(), entry); err != nil {
		c.logger.Error().Err(err).Str("event_id", entry.EventID).
			Msg("failed to persist dead letter entry")
		return NewRetryableError("persist dead letter entry", CategoryStorage, err)
	}

	metrics.DLQEntries.WithLabelValues(entry.Category.String()).Inc()
	if count, err := c.store.Count(msg.Context()); err == nil {
		metrics.DLQDepth.Set(float64(count))
	}

	c.logger.Warn().
		Str("event_id", entry.EventID).
		Str("original_topic", originalTopic).
		Str("handler", handler).
		Str("category", entry.Category.String()).
		Str("reason", reason).
		Msg("event routed to dead letter store")

	return nil
}

// categoryFromReason maps the poison reason string back onto an error
// category. The reason is the formatted error from the failing handler, so
// substring matching is the best available signal.
func categoryFromReason(reason string) ErrorCategory {
	switch {
	case containsAny(reason, "media feature", "not yet available", "not found"):
		return CategoryMediaMissing
	case containsAny(reason, "contention", "conflict", "concurrency"):
		return CategoryConcurrency
	case containsAny(reason, "invalid", "validation", "malformed", "parse"):
		return CategoryValidation
	case containsAny(reason, "badger", "storage", "database", "disk"):
		return CategoryStorage
	default:
		return CategoryUnknown
	}
}
