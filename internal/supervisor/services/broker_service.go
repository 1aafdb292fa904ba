// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package services

import (
	"context"
	"errors"
)

// Broker matches the embedded NATS server lifecycle. Satisfied by
// *stream.EmbeddedServer.
type Broker interface {
	Shutdown()
	IsRunning() bool
}

// BrokerService keeps the embedded broker alive for the lifetime of the
// supervision tree. The broker starts before the tree so subscribers can
// connect during wiring; this service only watches health and shuts the
// broker down when the tree stops.
type BrokerService struct {
	broker Broker
	name   string
}

// NewBrokerService wraps an embedded broker as a supervised service.
func NewBrokerService(broker Broker) *BrokerService {
	return &BrokerService{broker: broker, name: "embedded-broker"}
}

// Serve implements suture.Service.
func (s *BrokerService) Serve(ctx context.Context) error {
	if !s.broker.IsRunning() {
		return errors.New("embedded broker is not running")
	}

	<-ctx.Done()
	s.broker.Shutdown()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *BrokerService) String() string {
	return s.name
}
