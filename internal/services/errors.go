// Package services defines the business logic for posts, likes, comments,
// and on-demand enrichment. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPostNotFound indicates that the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrEmptyText is returned when a post or translation request carries
	// no text.
	ErrEmptyText = errors.New("text is empty")

	// ErrEmptyAuthor is returned when a post creation request carries no
	// author.
	ErrEmptyAuthor = errors.New("user is empty")

	// ErrEmptyComment is returned when a comment body is blank.
	ErrEmptyComment = errors.New("comment is empty")

	// ErrEmptyPrompt is returned when a generation request carries no prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrEmptyTarget is returned when a translation request names no target
	// language.
	ErrEmptyTarget = errors.New("target language is empty")

	// ErrEnrichmentUnavailable indicates that an on-demand enrichment
	// (translation, generation) produced no reply in time. It is never
	// returned from post creation: there, enrichment is fire-and-forget.
	ErrEnrichmentUnavailable = errors.New("enrichment backend unavailable")
)

// RateLimitedError is returned when an author posts again inside the
// cooldown window. RetryAfter is the remaining wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfterSeconds())
}

// RetryAfterSeconds returns the remaining wait rounded up to whole seconds,
// suitable for a Retry-After header.
func (e *RateLimitedError) RetryAfterSeconds() int {
	s := int((e.RetryAfter + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
