// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package stream wires the event pipeline: NATS JetStream transport,
// Watermill routing, handler registration and the dead letter store.
//
// # Topology
//
// Three JetStream streams carry all traffic:
//
//	INTERACTIONS  interactions.>   user interaction events, partitioned
//	MEDIA_CATALOG media.>          media lifecycle events
//	DEAD_LETTER   dlq.>            events that exhausted their retries
//
// Interaction subjects are partitioned by user: an event for user U is
// published to interactions.<fnv1a(U) mod partitions>. One router handler
// is registered per partition, so events for the same user are processed
// in order while distinct users proceed in parallel. Media lifecycle
// events flow on their own stream and carry no ordering relationship to
// interactions.
//
// # Delivery and Failure Handling
//
// Consumers are durable with explicit acks, so delivery is at-least-once.
// The router wraps every handler with Recoverer, exponential-backoff Retry
// and a PoisonQueue. Handlers classify failures:
//
//   - validation and decode failures are dropped and acked; retrying a
//     malformed event can never succeed
//   - missing media features, write contention and storage errors return
//     a RetryableError carrying an ErrorCategory
//
// A message that exhausts its retries is poisoned onto dlq.interactions
// with the original topic, handler and reason in its metadata. The
// DLQConsumer drains that topic into a badger-backed DLQStore so failed
// events survive restarts and can be replayed once the gap closes, for
// example after the missing media.created event arrives.
//
// # Embedded Broker
//
// EmbeddedServer runs an in-process nats-server with JetStream for
// single-binary deployments; production points the same code at an
// external cluster via config.
package stream
