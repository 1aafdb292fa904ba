// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import "time"

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   1 << 30,  // 1GB
		JetStreamMaxStore: 10 << 30, // 10GB
	}
}

// SubscriberConfig holds durable JetStream subscriber configuration.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration

	// StreamName binds the subscriber to an existing stream. Required for
	// wildcard topics because stream names cannot contain wildcards and
	// auto-provisioning would try to create one named after the topic.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for a subscriber.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "profile-aggregator",
		QueueGroup:       "aggregators",
		SubscribersCount: 1, // One consumer per partition preserves per-user order
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    512,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool //nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for a publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// StreamConfig defines one JetStream stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// InteractionStreamConfig returns the interaction event stream definition.
// Subjects are partitioned (interactions.0 .. interactions.N-1) so that one
// durable consumer per partition sees a user's events in emission order.
func InteractionStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "INTERACTIONS",
		Subjects:        []string{"interactions.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        5 << 30, // 5GB
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// MediaStreamConfig returns the media lifecycle stream definition.
func MediaStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "MEDIA_CATALOG",
		Subjects:        []string{"media.>"},
		MaxAge:          30 * 24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// DLQStreamConfig returns the dead-letter stream definition.
func DLQStreamConfig() StreamConfig {
	return StreamConfig{
		Name:     "DEAD_LETTER",
		Subjects: []string{"dlq.>"},
		MaxAge:   14 * 24 * time.Hour,
		MaxBytes: 1 << 30,
		MaxMsgs:  -1,
		Replicas: 1,
	}
}

// RouterConfig holds configuration for the Watermill router wrapper.
type RouterConfig struct {
	// CloseTimeout is how long to wait for in-flight handlers on close.
	CloseTimeout time.Duration

	// Retry configuration for transient handler failures.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond rate-limits message processing (0 = disabled).
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages that exhaust retries.
	PoisonQueueTopic string

	// DeduplicationEnabled drops redelivered events whose ID was already
	// processed within DeduplicationTTL. Off by default: duplicate
	// accumulation is the documented at-least-once behavior.
	DeduplicationEnabled bool
	DeduplicationTTL     time.Duration
}

// DefaultRouterConfig returns production defaults for the router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
		PoisonQueueTopic:     "dlq.interactions",
		DeduplicationEnabled: false,
		DeduplicationTTL:     5 * time.Minute,
	}
}
