// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package events defines the wire-level event types, their validation
// rules and the topic layout.
//
// InteractionEvent records a user acting on a media item (LIKE, DISLIKE
// or WATCH) with an intensity value in [-1, 1]. MediaCreatedEvent and
// MediaDeletedEvent track the media catalog. All events serialize as
// JSON with camelCase field names.
//
// Topic names are owned here so producers and consumers cannot drift:
// interaction events are partitioned across interactions.<N> subjects by
// an FNV-1a hash of the user ID, media lifecycle events use media.created
// and media.deleted, and poisoned events land on dlq.interactions.
package events
