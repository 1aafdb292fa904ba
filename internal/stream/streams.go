// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamManager provisions the JetStream streams the pipeline depends on:
// INTERACTIONS, MEDIA_CATALOG, and DEAD_LETTER.
type StreamManager struct {
	js jetstream.JetStream
	nc *nats.Conn
}

// NewStreamManager creates a stream manager over an open NATS connection.
func NewStreamManager(nc *nats.Conn) (*StreamManager, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &StreamManager{js: js, nc: nc}, nil
}

// EnsureStream creates or updates one stream.
func (m *StreamManager) EnsureStream(ctx context.Context, cfg StreamConfig) (jetstream.Stream, error) {
	if cfg.Name == "" || len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("%w: stream name and subjects required", ErrInvalidConfig)
	}

	replicas := cfg.Replicas
	if replicas <= 0 {
		replicas = 1
	}

	streamCfg := jetstream.StreamConfig{
		Name:        cfg.Name,
		Subjects:    cfg.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxBytes:    cfg.MaxBytes,
		MaxMsgs:     cfg.MaxMsgs,
		Duplicates:  cfg.DuplicateWindow,
		Replicas:    replicas,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
		AllowDirect: true,
	}

	if _, err := m.js.Stream(ctx, cfg.Name); err == nil {
		stream, err := m.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
		return stream, nil
	}

	stream, err := m.js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", cfg.Name, err)
	}
	return stream, nil
}

// EnsureAll provisions the three pipeline streams.
func (m *StreamManager) EnsureAll(ctx context.Context) error {
	for _, cfg := range []StreamConfig{
		InteractionStreamConfig(),
		MediaStreamConfig(),
		DLQStreamConfig(),
	} {
		if _, err := m.EnsureStream(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

// StreamInfo returns the current state of a named stream.
func (m *StreamManager) StreamInfo(ctx context.Context, name string) (*jetstream.StreamInfo, error) {
	stream, err := m.js.Stream(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get stream %s: %w", name, err)
	}
	return stream.Info(ctx)
}
