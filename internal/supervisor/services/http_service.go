// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package services

import (
	"context"
)

// ContextServer matches context-aware server lifecycles. Satisfied by
// *api.Server, whose Serve blocks until the context is canceled and
// drains in-flight requests on the way out.
type ContextServer interface {
	Serve(ctx context.Context) error
}

// HTTPService runs the API server under supervision.
type HTTPService struct {
	server ContextServer
	name   string
}

// NewHTTPService wraps a context-aware server as a supervised service.
func NewHTTPService(server ContextServer) *HTTPService {
	return &HTTPService{server: server, name: "http-server"}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	return s.server.Serve(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *HTTPService) String() string {
	return s.name
}
