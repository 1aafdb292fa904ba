// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package events

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer handles event encoding/decoding for stream messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// MarshalInteraction converts an interaction event to JSON bytes.
// The event is validated before encoding.
func (s *Serializer) MarshalInteraction(event *InteractionEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalInteraction converts JSON bytes to an interaction event.
func (s *Serializer) UnmarshalInteraction(data []byte) (*InteractionEvent, error) {
	var event InteractionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}

// MarshalMediaCreated converts a media creation event to JSON bytes.
func (s *Serializer) MarshalMediaCreated(event *MediaCreatedEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalMediaCreated converts JSON bytes to a media creation event.
func (s *Serializer) UnmarshalMediaCreated(data []byte) (*MediaCreatedEvent, error) {
	var event MediaCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}

// MarshalMediaDeleted converts a media deletion event to JSON bytes.
func (s *Serializer) MarshalMediaDeleted(event *MediaDeletedEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalMediaDeleted converts JSON bytes to a media deletion event.
func (s *Serializer) UnmarshalMediaDeleted(data []byte) (*MediaDeletedEvent, error) {
	var event MediaDeletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}
