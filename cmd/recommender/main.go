// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Command recommender runs the profile aggregation service: it consumes
// interaction and media lifecycle events from NATS JetStream, maintains
// versioned user taste profiles in badger, and serves them over HTTP
// together with recommendations from the external scoring service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/nats-io/nats.go"

	"github.com/Luca5Eckert/media-recommendation-system/internal/api"
	"github.com/Luca5Eckert/media-recommendation-system/internal/config"
	"github.com/Luca5Eckert/media-recommendation-system/internal/features"
	"github.com/Luca5Eckert/media-recommendation-system/internal/logging"
	"github.com/Luca5Eckert/media-recommendation-system/internal/profile"
	"github.com/Luca5Eckert/media-recommendation-system/internal/scorer"
	"github.com/Luca5Eckert/media-recommendation-system/internal/stream"
	"github.com/Luca5Eckert/media-recommendation-system/internal/supervisor"
	"github.com/Luca5Eckert/media-recommendation-system/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("partitions", cfg.Aggregator.Partitions).
		Str("store_path", cfg.Store.Path).
		Bool("embedded_broker", cfg.NATS.EmbeddedServer).
		Msg("Starting media recommender")

	// Storage. Feature cache, profiles and dead letter entries share one
	// badger database under distinct key prefixes.
	badgerOpts := badger.DefaultOptions(cfg.Store.Path).WithLogger(nil)
	if cfg.Store.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open badger database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing badger database")
		}
	}()

	featureStore := features.NewBadgerStore(db)
	profileStore := profile.NewBadgerStore(db)
	dlqStore := stream.NewBadgerDLQStore(db)

	aggregator := profile.NewAggregator(featureStore, profileStore, profile.AggregatorConfig{
		MaxCASRetries: cfg.Aggregator.MaxCASRetries,
	})

	// Messaging. The embedded broker, when enabled, must be up before any
	// subscriber connects, so it starts here rather than under the tree.
	natsURL := cfg.NATS.URL
	var broker *stream.EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		serverCfg := stream.DefaultServerConfig()
		serverCfg.Port = cfg.NATS.Port
		serverCfg.StoreDir = cfg.NATS.StoreDir
		broker, err = stream.NewEmbeddedServer(&serverCfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
		}
		natsURL = broker.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	nc, err := nats.Connect(natsURL, nats.RetryOnFailedConnect(true), nats.MaxReconnects(-1))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer nc.Close()

	streams, err := stream.NewStreamManager(nc)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create stream manager")
	}
	provisionCtx, provisionCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := streams.EnsureAll(provisionCtx); err != nil {
		provisionCancel()
		logging.Fatal().Err(err).Msg("Failed to provision JetStream streams")
	}
	provisionCancel()

	wmLogger := logging.NewWatermillAdapter()

	interactionsSub, err := newSubscriber(cfg, natsURL, "INTERACTIONS", "interactions", wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create interactions subscriber")
	}
	defer closeQuietly("interactions subscriber", interactionsSub.Close)

	mediaSub, err := newSubscriber(cfg, natsURL, "MEDIA_CATALOG", "media", wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create media subscriber")
	}
	defer closeQuietly("media subscriber", mediaSub.Close)

	dlqSub, err := newSubscriber(cfg, natsURL, "DEAD_LETTER", "dlq", wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create dead letter subscriber")
	}
	defer closeQuietly("dead letter subscriber", dlqSub.Close)

	publisher, err := stream.NewPublisher(stream.DefaultPublisherConfig(natsURL), wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create publisher")
	}
	defer closeQuietly("publisher", publisher.Close)

	routerCfg := stream.DefaultRouterConfig()
	routerCfg.CloseTimeout = cfg.NATS.CloseTimeout
	routerCfg.RetryMaxRetries = cfg.NATS.RetryCount
	routerCfg.RetryInitialInterval = cfg.NATS.RetryInitialInterval
	routerCfg.RetryMaxInterval = cfg.NATS.RetryMaxInterval
	routerCfg.ThrottlePerSecond = cfg.NATS.ThrottlePerSecond
	routerCfg.DeduplicationEnabled = cfg.NATS.DeduplicationEnabled
	routerCfg.DeduplicationTTL = cfg.NATS.DeduplicationTTL

	router, err := stream.NewRouter(&routerCfg, publisher.Messages(), wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event router")
	}

	consumer := stream.NewConsumer(aggregator, cfg.Aggregator.Partitions)
	consumer.Register(router, interactionsSub, mediaSub)

	dlqConsumer := stream.NewDLQConsumer(dlqStore)
	dlqConsumer.Register(router, dlqSub, "dlq.>")

	// Scoring service client, optional.
	var scoring api.Scorer
	if cfg.Scorer.Enabled {
		client, err := scorer.NewClient(scorer.Config{
			BaseURL:          cfg.Scorer.URL,
			Timeout:          cfg.Scorer.Timeout,
			FailureThreshold: cfg.Scorer.FailureThreshold,
			BreakerTimeout:   cfg.Scorer.BreakerTimeout,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create scorer client")
		}
		scoring = client
	}

	apiServer := api.NewServer(api.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Timeout:         cfg.Server.Timeout,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	}, profileStore, scoring,
		api.HealthCheck{Name: "event-router", Check: router.IsRunning},
		api.HealthCheck{Name: "nats", Check: nc.IsConnected},
		api.HealthCheck{Name: "store", Check: func() bool { return !db.IsClosed() }},
	)

	// Supervision.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if broker != nil {
		tree.AddMessagingService(services.NewBrokerService(brokerAdapter{broker}))
	}
	tree.AddMessagingService(services.NewRouterService(router))
	tree.AddAPIService(services.NewHTTPService(apiServer))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", apiServer.Addr()).Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Shutdown complete")
}

// newSubscriber builds a stream-bound subscriber with a distinct durable
// name per stream so consumer state never crosses streams.
func newSubscriber(cfg *config.Config, url, streamName, durableSuffix string, logger watermill.LoggerAdapter) (*stream.Subscriber, error) {
	subCfg := stream.DefaultSubscriberConfig(url)
	subCfg.DurableName = cfg.NATS.DurableName + "-" + durableSuffix
	subCfg.QueueGroup = cfg.NATS.QueueGroup + "-" + durableSuffix
	subCfg.AckWaitTimeout = cfg.NATS.AckWait
	subCfg.MaxDeliver = cfg.NATS.MaxDeliver
	subCfg.CloseTimeout = cfg.NATS.CloseTimeout
	subCfg.StreamName = streamName
	return stream.NewSubscriber(&subCfg, logger)
}

func closeQuietly(name string, fn func() error) {
	if err := fn(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Error during shutdown")
	}
}

// brokerAdapter narrows EmbeddedServer's context-taking Shutdown to the
// supervised broker interface.
type brokerAdapter struct {
	server *stream.EmbeddedServer
}

func (a brokerAdapter) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.server.Shutdown(ctx)
}

func (a brokerAdapter) IsRunning() bool {
	return a.server.IsRunning()
}
