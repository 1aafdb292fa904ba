// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package events defines the canonical event types exchanged over the
// interaction and media lifecycle streams, together with the interaction
// weight table used by profile aggregation.
package events

import (
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// InteractionType classifies a user's recorded action against a media item.
type InteractionType string

const (
	// InteractionLike indicates an explicit positive signal.
	InteractionLike InteractionType = "LIKE"
	// InteractionDislike indicates an explicit negative signal.
	InteractionDislike InteractionType = "DISLIKE"
	// InteractionWatch indicates a playback event.
	InteractionWatch InteractionType = "WATCH"
)

// interactionWeights is the scoring weight per interaction type.
// These are the tuned constants of the aggregation model; changing them
// changes every profile built from that point on.
var interactionWeights = map[InteractionType]float64{
	InteractionLike:    2.0,
	InteractionDislike: -2.0,
	InteractionWatch:   0.75,
}

// Weight returns the scoring weight for the interaction type.
// Unknown types weigh zero.
func (t InteractionType) Weight() float64 {
	return interactionWeights[t]
}

// Valid reports whether the type is a known interaction type.
func (t InteractionType) Valid() bool {
	_, ok := interactionWeights[t]
	return ok
}

// Value bounds for InteractionEvent.Value. The upstream engagement service
// does not constrain the intensity value, so the contract is fixed here:
// values are clamped into [-1, +1] at validation time.
const (
	MinInteractionValue = -1.0
	MaxInteractionValue = 1.0
)

// InteractionEvent is a user's recorded action against a media item,
// consumed from the interaction stream. Events are keyed by UserID so all
// events for one user land on the same partition subject.
type InteractionEvent struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	MediaID   string          `json:"mediaId"`
	Type      InteractionType `json:"type"`
	Value     float64         `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewInteractionEvent creates an event with a unique ID and current timestamp.
func NewInteractionEvent(userID, mediaID string, typ InteractionType, value float64) *InteractionEvent {
	return &InteractionEvent{
		ID:        uuid.New().String(),
		UserID:    userID,
		MediaID:   mediaID,
		Type:      typ,
		Value:     value,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks required fields and returns a ValidationError on failure.
func (e *InteractionEvent) Validate() error {
	if e == nil {
		return &ValidationError{Field: "event", Message: "nil"}
	}
	if e.ID == "" {
		return &ValidationError{Field: "id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "userId", Message: "required"}
	}
	if e.MediaID == "" {
		return &ValidationError{Field: "mediaId", Message: "required"}
	}
	if !e.Type.Valid() {
		return &ValidationError{Field: "type", Message: "unknown interaction type"}
	}
	return nil
}

// ClampValue forces Value into the documented [-1, +1] contract.
// Returns true when the value had to be adjusted.
func (e *InteractionEvent) ClampValue() bool {
	switch {
	case e.Value < MinInteractionValue:
		e.Value = MinInteractionValue
		return true
	case e.Value > MaxInteractionValue:
		e.Value = MaxInteractionValue
		return true
	default:
		return false
	}
}

// MediaCreatedEvent announces a media item entering the catalog.
// Keyed by MediaID; consumed into the feature store.
type MediaCreatedEvent struct {
	MediaID         string    `json:"mediaId"`
	Genres          []string  `json:"genres"`
	PopularityScore float64   `json:"popularityScore,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Validate checks required fields.
func (e *MediaCreatedEvent) Validate() error {
	if e == nil {
		return &ValidationError{Field: "event", Message: "nil"}
	}
	if e.MediaID == "" {
		return &ValidationError{Field: "mediaId", Message: "required"}
	}
	return nil
}

// MediaDeletedEvent announces a media item leaving the catalog.
type MediaDeletedEvent struct {
	MediaID   string    `json:"mediaId"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks required fields.
func (e *MediaDeletedEvent) Validate() error {
	if e == nil {
		return &ValidationError{Field: "event", Message: "nil"}
	}
	if e.MediaID == "" {
		return &ValidationError{Field: "mediaId", Message: "required"}
	}
	return nil
}

// ValidationError represents a field validation error. Per the error
// taxonomy these events are dropped and logged, never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NATS subjects. Interaction events are spread over partition subjects so
// that per-user ordering holds within a partition while partitions are
// consumed concurrently; media lifecycle events need no relative ordering.
const (
	// TopicInteractionsPrefix is the prefix for interaction partition subjects.
	TopicInteractionsPrefix = "interactions"
	// TopicMediaCreated carries media creation events.
	TopicMediaCreated = "media.created"
	// TopicMediaDeleted carries media deletion events.
	TopicMediaDeleted = "media.deleted"
	// TopicDLQInteractions receives interaction events that exhausted retries.
	TopicDLQInteractions = "dlq.interactions"
)

// InteractionTopic returns the partition subject for a user's interaction
// events: interactions.<partition>, with the partition derived from a
// stable hash of the user ID.
func InteractionTopic(userID string, partitions int) string {
	return TopicInteractionsPrefix + "." + strconv.Itoa(PartitionFor(userID, partitions))
}

// PartitionFor maps a user ID onto one of n partitions using FNV-1a.
// The mapping is stable across processes, which is what pins a user's
// events to one consumer.
func PartitionFor(userID string, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(userID)) //nolint:errcheck // fnv.Write never fails
	return int(h.Sum32() % uint32(partitions))
}
