// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// helpers for common HTTP patterns. The goal is to guarantee uniform responses
// for both success and failure cases, making the API predictable and
// machine-friendly.
//
// All error responses return an ErrorResponse with a stable `code`. fail()
// centralizes error formatting and logs 5xx responses with request context;
// ok() and noContent() keep success responses uniform across handlers. Rate
// limited responses additionally carry a Retry-After header (see
// failRateLimited).
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "id": 17, "user": "alice", "text": "hello world" }
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
// RequestID echoes the X-Request-ID header so server logs can be correlated
// with client-side errors; Code is one of the errors.go constants.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
	// Seconds to wait before retrying; set on 429 responses only
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty" example:"3600"`
}

// fail aborts the request with a structured error envelope. Server errors
// (>=500) are logged with the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for callers outside this package,
// such as the router's NoRoute and NoMethod handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failRateLimited writes a 429 with both the Retry-After header and the
// retry_after_seconds envelope field.
func failRateLimited(c *gin.Context, seconds int) {
	c.Header("Retry-After", strconv.Itoa(seconds))
	resp := ErrorResponse{
		RequestID:         c.Writer.Header().Get("X-Request-ID"),
		Code:              ErrCodeRateLimited,
		Message:           "posting cooldown active",
		RetryAfterSeconds: seconds,
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
}

// ok serializes body as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 for operations with no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
