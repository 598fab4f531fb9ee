// Package services – EnrichService
//
// This file implements the EnrichService, the synchronous façade over the
// request/response enrichment kinds (translation, text generation). A call
// publishes a request onto the queue, registers a waiter keyed by request
// id, and blocks until the worker's reply arrives on the response subject
// or the timeout fires. Timeouts and broker failures surface as
// ErrEnrichmentUnavailable.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/queue"
)

// EnrichService brokers on-demand translation and generation requests.
type EnrichService struct {
	// Queue receives the requests.
	Queue queue.Publisher
	// Replies routes worker responses back to waiting callers.
	Replies *queue.Replies
	// Timeout bounds the wait for a single reply.
	Timeout time.Duration
}

// NewEnrichService constructs an EnrichService.
func NewEnrichService(q queue.Publisher, r *queue.Replies, timeout time.Duration) *EnrichService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EnrichService{Queue: q, Replies: r, Timeout: timeout}
}

// Translate requests a translation of text into target. An empty source
// asks the worker to auto-detect the language. The returned response may
// carry a non-empty Error (unsupported pair, untranslatable input) which
// the caller surfaces to the client; transport-level failures return
// ErrEnrichmentUnavailable instead.
func (s *EnrichService) Translate(ctx context.Context, text, source, target string) (*queue.TranslateResponse, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if target == "" {
		return nil, ErrEmptyTarget
	}
	req := queue.TranslateRequest{
		RequestID:  uuid.NewString(),
		Text:       text,
		SourceLang: source,
		TargetLang: target,
	}
	body, err := s.roundTrip(ctx, queue.KindTranslate, req.RequestID, req)
	if err != nil {
		return nil, err
	}
	var resp queue.TranslateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("malformed translate response")
		return nil, ErrEnrichmentUnavailable
	}
	return &resp, nil
}

// Generate requests text completing prompt. maxNewTokens <= 0 lets the
// worker apply its default budget.
func (s *EnrichService) Generate(ctx context.Context, prompt string, maxNewTokens int) (*queue.GenerateResponse, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	req := queue.GenerateRequest{
		RequestID:    uuid.NewString(),
		Prompt:       prompt,
		MaxNewTokens: maxNewTokens,
	}
	body, err := s.roundTrip(ctx, queue.KindGenerate, req.RequestID, req)
	if err != nil {
		return nil, err
	}
	var resp queue.GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("malformed generate response")
		return nil, ErrEnrichmentUnavailable
	}
	return &resp, nil
}

// roundTrip publishes req on the kind's subject and waits for the matching
// reply. The waiter is registered before publishing so a fast worker cannot
// reply into a void.
func (s *EnrichService) roundTrip(ctx context.Context, kind queue.Kind, requestID string, req any) ([]byte, error) {
	if s.Queue == nil || s.Replies == nil {
		return nil, ErrEnrichmentUnavailable
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ch, cancel := s.Replies.Register(requestID)
	defer cancel()

	if err := s.Queue.Publish(ctx, kind.Subject(), body); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("publish enrichment request failed")
		return nil, ErrEnrichmentUnavailable
	}

	timer := time.NewTimer(s.Timeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		return nil, ErrEnrichmentUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
