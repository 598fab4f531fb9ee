// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These constants form the machine-readable half of every error envelope
// written by fail(). Generic codes mirror common HTTP status semantics;
// domain codes cover outcomes a status alone cannot convey, such as an
// enrichment backend being down or a rate-limited post attempt.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "too_many_requests",
//	  "message": "posting cooldown active",
//	  "retry_after_seconds": 3600
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed          = "create_failed"
	ErrCodeListFailed            = "list_failed"
	ErrCodeUploadFailed          = "upload_failed"
	ErrCodeUnprocessable         = "unprocessable"
	ErrCodeEnrichmentUnavailable = "enrichment_unavailable"
	ErrCodeMethodNotAllowed      = "method_not_allowed"
)
