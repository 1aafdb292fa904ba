// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package config loads application configuration with koanf.
//
// Sources are layered, later layers winning: struct defaults, an optional
// YAML file (first match of config.yaml, config.yml, the /etc variants,
// or the path in MRS_CONFIG_PATH), then MRS_-prefixed environment
// variables. The first underscore after the prefix selects the section:
//
//	MRS_SERVER_PORT           -> server.port
//	MRS_NATS_RETRY_COUNT      -> nats.retry_count
//	MRS_AGGREGATOR_PARTITIONS -> aggregator.partitions
//
// The loaded Config is validated with go-playground/validator struct tags
// plus cross-field rules, and is immutable afterwards.
package config
