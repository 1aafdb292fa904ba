// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package stream

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{CategoryUnknown, "unknown"},
		{CategoryMediaMissing, "media_missing"},
		{CategoryConcurrency, "concurrency"},
		{CategoryValidation, "validation"},
		{CategoryStorage, "storage"},
		{ErrorCategory(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.category.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestRetryableError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewRetryableError("apply interaction", CategoryStorage, cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.Error() != "apply interaction: boom" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	bare := NewRetryableError("no cause", CategoryUnknown, nil)
	if bare.Error() != "no cause" {
		t.Errorf("unexpected message: %q", bare.Error())
	}
}

func TestIsRetryableError(t *testing.T) {
	retryable := NewRetryableError("transient", CategoryConcurrency, nil)
	permanent := NewPermanentError("broken", CategoryValidation, nil)

	if !IsRetryableError(retryable) {
		t.Error("expected retryable")
	}
	if IsRetryableError(permanent) {
		t.Error("permanent must not be retryable")
	}
	if !IsPermanentError(permanent) {
		t.Error("expected permanent")
	}
	if IsPermanentError(retryable) {
		t.Error("retryable must not be permanent")
	}

	// Wrapping preserves classification.
	wrapped := fmt.Errorf("handler: %w", retryable)
	if !IsRetryableError(wrapped) {
		t.Error("expected wrapped error to stay retryable")
	}
}

func TestCategoryOf(t *testing.T) {
	if got := CategoryOf(NewRetryableError("x", CategoryMediaMissing, nil)); got != CategoryMediaMissing {
		t.Errorf("expected media_missing, got %s", got)
	}
	if got := CategoryOf(NewPermanentError("x", CategoryValidation, nil)); got != CategoryValidation {
		t.Errorf("expected validation, got %s", got)
	}
	if got := CategoryOf(errors.New("plain")); got != CategoryUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
}

func TestCategoryFromReason(t *testing.T) {
	tests := []struct {
		reason string
		want   ErrorCategory
	}{
		{"media feature not yet available: media m-1", CategoryMediaMissing},
		{"profile write contention: retries exhausted", CategoryConcurrency},
		{"invalid interaction event", CategoryValidation},
		{"badger write failed", CategoryStorage},
		{"something else entirely", CategoryUnknown},
	}
	for _, tt := range tests {
		if got := categoryFromReason(tt.reason); got != tt.want {
			t.Errorf("categoryFromReason(%q) = %s, want %s", tt.reason, got, tt.want)
		}
	}
}
