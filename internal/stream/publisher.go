// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/Luca5Eckert/media-recommendation-system/internal/events"
)

// Publisher wraps a Watermill NATS publisher with reconnection handling.
// The profile aggregation pipeline publishes only to the DLQ; the
// convenience event methods exist for producing services and tooling.
type Publisher struct {
	publisher  message.Publisher
	serializer *events.Serializer
	mu         sync.RWMutex
	closed     bool
	logger     watermill.LoggerAdapter
}

// NewPublisher creates a JetStream publisher.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Publisher connection lost", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Publisher reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			// Streams are provisioned up front by the StreamManager.
			AutoProvision: false,
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &Publisher{
		publisher:  pub,
		serializer: events.NewSerializer(),
		logger:     logger,
	}, nil
}

// Publish sends a raw message to the topic.
func (p *Publisher) Publish(_ context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("publisher closed")
	}
	return p.publisher.Publish(topic, msg)
}

// Messages exposes the underlying watermill publisher for middleware that
// needs one (the poison queue).
func (p *Publisher) Messages() message.Publisher {
	return p.publisher
}

// PublishInteraction serializes and publishes an interaction event to its
// partition subject.
func (p *Publisher) PublishInteraction(ctx context.Context, event *events.InteractionEvent, partitions int) error {
	data, err := p.serializer.MarshalInteraction(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(event.ID, data)
	return p.Publish(ctx, events.InteractionTopic(event.UserID, partitions), msg)
}

// PublishMediaCreated serializes and publishes a media creation event.
func (p *Publisher) PublishMediaCreated(ctx context.Context, event *events.MediaCreatedEvent) error {
	data, err := p.serializer.MarshalMediaCreated(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return p.Publish(ctx, events.TopicMediaCreated, msg)
}

// PublishMediaDeleted serializes and publishes a media deletion event.
func (p *Publisher) PublishMediaDeleted(ctx context.Context, event *events.MediaDeletedEvent) error {
	data, err := p.serializer.MarshalMediaDeleted(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return p.Publish(ctx, events.TopicMediaDeleted, msg)
}

// Close shuts down the publisher. Idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
