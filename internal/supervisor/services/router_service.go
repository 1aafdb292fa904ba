// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package services

import (
	"context"
	"fmt"
)

// EventRouter matches the stream router lifecycle. Satisfied by
// *stream.Router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterService runs the event router under supervision. The router's
// Run blocks until the context is canceled, so the service simply
// delegates and closes on the way out.
type RouterService struct {
	router EventRouter
	name   string
}

// NewRouterService wraps an event router as a supervised service.
func NewRouterService(router EventRouter) *RouterService {
	return &RouterService{router: router, name: "event-router"}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if closeErr := s.router.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("event router failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *RouterService) String() string {
	return s.name
}
