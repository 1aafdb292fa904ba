// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

// Package features caches media feature data (genres, popularity) keyed
// by media ID. The cache is populated from media lifecycle events and
// joined against interaction events during aggregation; a lookup miss is
// the typed ErrMediaNotFound so consumers can distinguish "not ingested
// yet" from storage failure.
package features
