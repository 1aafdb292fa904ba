// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/Luca5Eckert/media-recommendation-system/internal/cache"
)

// Router wraps the Watermill router with pre-configured middleware:
// panic recovery, exponential-backoff retry for retryable failures, and
// poison-queue routing for messages that exhaust their retries.
type Router struct {
	router    *message.Router
	config    RouterConfig
	logger    watermill.LoggerAdapter
	poisonPub message.Publisher
	running   bool
	handlers  map[string]*message.Handler
}

// eventIDDeduplicator adapts the LRU cache to the watermill Deduplicator
// middleware's ExpiringKeyRepository.
type eventIDDeduplicator struct {
	cache *cache.LRUCache
}

func (d *eventIDDeduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	return d.cache.IsDuplicate(key), nil
}

// NewRouter creates a router with the middleware stack wired.
// poisonPublisher may be nil to disable the dead-letter path (tests).
func NewRouter(cfg *RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:    wmRouter,
		config:    *cfg,
		logger:    logger,
		poisonPub: poisonPublisher,
		handlers:  make(map[string]*message.Handler),
	}
	if err := r.installMiddleware(); err != nil {
		return nil, err
	}
	return r, nil
}

// installMiddleware assembles the chain, outer to inner: recover panics,
// retry transient failures with backoff, throttle, drop duplicates,
// poison-queue messages that exhaust their retries.
func (r *Router) installMiddleware() error {
	cfg := r.config

	r.router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          r.logger,
	}
	r.router.AddMiddleware(retry.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		r.router.AddMiddleware(middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second).Middleware)
	}

	if cfg.DeduplicationEnabled {
		dedup := middleware.Deduplicator{
			KeyFactory: func(msg *message.Message) (string, error) {
				return msg.UUID, nil
			},
			Repository: &eventIDDeduplicator{cache: cache.NewLRUCache(10000, cfg.DeduplicationTTL)},
		}
		r.router.AddMiddleware(dedup.Middleware)
	}

	if r.poisonPub != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(r.poisonPub, cfg.PoisonQueueTopic)
		if err != nil {
			return fmt.Errorf("create poison queue middleware: %w", err)
		}
		r.router.AddMiddleware(poisonQueue)
	}

	return nil
}

// AddConsumerHandler registers a handler that consumes without publishing.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
	r.handlers[name] = h
	return h
}

// Run starts the router and blocks until context cancellation or Close.
func (r *Router) Run(ctx context.Context) error {
	r.running = true
	defer func() { r.running = false }()
	return r.router.Run(ctx)
}

// Running returns a channel that closes once the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether the router is processing messages.
func (r *Router) IsRunning() bool {
	return r.running
}

// Close gracefully stops the router, waiting up to CloseTimeout for
// in-flight handlers.
func (r *Router) Close() error {
	return r.router.Close()
}
