// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"context"
	"errors"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/Luca5Eckert/media-recommendation-system/internal/events"
	"github.com/Luca5Eckert/media-recommendation-system/internal/features"
	"github.com/Luca5Eckert/media-recommendation-system/internal/logging"
	"github.com/Luca5Eckert/media-recommendation-system/internal/metrics"
	"github.com/Luca5Eckert/media-recommendation-system/internal/profile"
)

// ProfileApplier is the aggregation surface the handlers drive.
// Satisfied by *profile.Aggregator.
type ProfileApplier interface {
	Apply(ctx context.Context, event *events.InteractionEvent) (*profile.UserProfile, error)
	OnMediaCreated(ctx context.Context, event *events.MediaCreatedEvent) error
	OnMediaDeleted(ctx context.Context, event *events.MediaDeletedEvent) error
}

// Consumer binds stream topics to the profile aggregator.
//
// Error policy per handler invocation:
//   - malformed payload or failed validation: drop and ack; redelivery
//     cannot fix a malformed event
//   - missing media feature: return a RetryableError so the router backs
//     off and redelivers; the media creation event may not have arrived yet
//   - exhausted CAS retries: retryable, same treatment
//   - anything else from the stores: retryable with storage category
//
// Messages that exhaust the router's retries land on the DLQ topic.
type Consumer struct {
	applier    ProfileApplier
	serializer *events.Serializer
	partitions int
	logger     zerolog.Logger
}

// NewConsumer creates a consumer over the given applier.
func NewConsumer(applier ProfileApplier, partitions int) *Consumer {
	if partitions <= 0 {
		partitions = 1
	}
	return &Consumer{
		applier:    applier,
		serializer: events.NewSerializer(),
		partitions: partitions,
		logger:     logging.With().Str("component", "consumer").Logger(),
	}
}

// Register wires all handlers into the router: one handler per interaction
// partition subject plus the two media lifecycle handlers. Within a single
// instance, one handler per partition keeps a user's events on a single
// goroutine in emission order. With multiple instances sharing the queue
// group, a partition's messages are spread across members; versioned writes
// and the commutative merge keep profiles correct, but strict per-user
// ordering then requires giving each instance a disjoint partition set.
// Interactions and media lifecycle events live on separate streams, so each
// gets its own stream-bound subscriber.
func (c *Consumer) Register(router *Router, interactions, media *Subscriber) {
	for p := 0; p < c.partitions; p++ {
		topic := events.TopicInteractionsPrefix + "." + strconv.Itoa(p)
		router.AddConsumerHandler(
			"interactions-"+strconv.Itoa(p),
			topic,
			interactions.Messages(),
			c.handleInteraction(topic),
		)
	}

	router.AddConsumerHandler(
		"media-created",
		events.TopicMediaCreated,
		media.Messages(),
		c.handleMediaCreated,
	)
	router.AddConsumerHandler(
		"media-deleted",
		events.TopicMediaDeleted,
		media.Messages(),
		c.handleMediaDeleted,
	)
}

func (c *Consumer) handleInteraction(topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		metrics.EventsConsumed.WithLabelValues(topic).Inc()

		event, err := c.serializer.UnmarshalInteraction(msg.Payload)
		if err != nil {
			metrics.EventsDropped.WithLabelValues("decode").Inc()
			c.logger.Error().Err(err).Str("message_uuid", msg.UUID).
				Msg("undecodable interaction event dropped")
			return nil
		}

		_, err = c.applier.Apply(msg.Context(), event)
		switch {
		case err == nil:
			return nil

		case isValidationError(err):
			metrics.EventsDropped.WithLabelValues("validation").Inc()
			c.logger.Warn().Err(err).Str("event_id", event.ID).
				Msg("invalid interaction event dropped")
			return nil

		case errors.Is(err, features.ErrMediaNotFound):
			metrics.EventsFailed.WithLabelValues(topic, "media_not_found").Inc()
			return NewRetryableError("media feature not yet available", CategoryMediaMissing, err)

		case errors.Is(err, profile.ErrConcurrencyExhausted):
			metrics.EventsFailed.WithLabelValues(topic, "concurrency_exhausted").Inc()
			return NewRetryableError("profile write contention", CategoryConcurrency, err)

		default:
			metrics.EventsFailed.WithLabelValues(topic, "storage").Inc()
			return NewRetryableError("apply interaction", CategoryStorage, err)
		}
	}
}

func (c *Consumer) handleMediaCreated(msg *message.Message) error {
	metrics.EventsConsumed.WithLabelValues(events.TopicMediaCreated).Inc()

	event, err := c.serializer.UnmarshalMediaCreated(msg.Payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("decode").Inc()
		c.logger.Error().Err(err).Str("message_uuid", msg.UUID).
			Msg("undecodable media created event dropped")
		return nil
	}

	if err := c.applier.OnMediaCreated(msg.Context(), event); err != nil {
		if isValidationError(err) {
			metrics.EventsDropped.WithLabelValues("validation").Inc()
			c.logger.Warn().Err(err).Msg("invalid media created event dropped")
			return nil
		}
		metrics.EventsFailed.WithLabelValues(events.TopicMediaCreated, "storage").Inc()
		return NewRetryableError("upsert media feature", CategoryStorage, err)
	}

	metrics.FeatureUpserts.Inc()
	return nil
}

func (c *Consumer) handleMediaDeleted(msg *message.Message) error {
	metrics.EventsConsumed.WithLabelValues(events.TopicMediaDeleted).Inc()

	event, err := c.serializer.UnmarshalMediaDeleted(msg.Payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues("decode").Inc()
		c.logger.Error().Err(err).Str("message_uuid", msg.UUID).
			Msg("undecodable media deleted event dropped")
		return nil
	}

	if err := c.applier.OnMediaDeleted(msg.Context(), event); err != nil {
		if isValidationError(err) {
			metrics.EventsDropped.WithLabelValues("validation").Inc()
			c.logger.Warn().Err(err).Msg("invalid media deleted event dropped")
			return nil
		}
		metrics.EventsFailed.WithLabelValues(events.TopicMediaDeleted, "storage").Inc()
		return NewRetryableError("evict media feature", CategoryStorage, err)
	}

	metrics.FeatureEvictions.Inc()
	return nil
}

func isValidationError(err error) bool {
	var validationErr *events.ValidationError
	return errors.As(err, &validationErr)
}
