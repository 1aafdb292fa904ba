// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"errors"
	"strings"
)

// ErrInvalidConfig is returned when stream configuration is invalid.
var ErrInvalidConfig = errors.New("invalid stream configuration")

// ErrorCategory categorizes handler failures for DLQ routing and metrics.
type ErrorCategory int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown ErrorCategory = iota
	// CategoryMediaMissing indicates the referenced media is absent from
	// the feature store.
	CategoryMediaMissing
	// CategoryConcurrency indicates exhausted optimistic write retries.
	CategoryConcurrency
	// CategoryValidation indicates a malformed event.
	CategoryValidation
	// CategoryStorage indicates a store operation failure.
	CategoryStorage
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryMediaMissing:
		return "media_missing"
	case CategoryConcurrency:
		return "concurrency"
	case CategoryValidation:
		return "validation"
	case CategoryStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// RetryableError wraps a transient handler failure. The router retries
// these with backoff; exhausting retries routes the message to the DLQ.
type RetryableError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewRetryableError creates a retryable error.
func NewRetryableError(message string, category ErrorCategory, cause error) *RetryableError {
	return &RetryableError{Message: message, Category: category, Cause: cause}
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *RetryableError) Unwrap() error { return e.Cause }

// PermanentError wraps an unrecoverable handler failure (malformed
// payload). These skip retries and go straight to the DLQ.
type PermanentError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewPermanentError creates a permanent error.
func NewPermanentError(message string, category ErrorCategory, cause error) *PermanentError {
	return &PermanentError{Message: message, Category: category, Cause: cause}
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *PermanentError) Unwrap() error { return e.Cause }

// IsRetryableError checks if the error is retryable.
func IsRetryableError(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// IsPermanentError checks if the error is permanent (non-retryable).
func IsPermanentError(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}

// containsAny reports whether s contains any of the substrings,
// case-insensitively.
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// CategoryOf extracts the error category from a handler error chain.
func CategoryOf(err error) ErrorCategory {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return retryable.Category
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return permanent.Category
	}
	return CategoryUnknown
}
