package enrich

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/queue"
)

// defaultMaxNewTokens bounds generation when the request does not set a
// budget.
const defaultMaxNewTokens = 128

// Generator produces text completing a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error)
}

// GenerateWorker processes generation requests with the same reply
// discipline as TranslateWorker: every well-formed request gets exactly one
// response, and only a failed reply publish requeues the request.
type GenerateWorker struct {
	Publisher queue.Publisher
	Generator Generator
}

// NewGenerateWorker constructs a GenerateWorker.
func NewGenerateWorker(p queue.Publisher, g Generator) *GenerateWorker {
	return &GenerateWorker{Publisher: p, Generator: g}
}

// Handle implements queue.Handler for generation requests.
func (w *GenerateWorker) Handle(ctx context.Context, body []byte) queue.Decision {
	var req queue.GenerateRequest
	if err := json.Unmarshal(body, &req); err != nil || req.RequestID == "" {
		log.Warn().Err(err).Msg("generate: malformed request dropped")
		return queue.Drop
	}
	return w.reply(ctx, w.process(ctx, req))
}

func (w *GenerateWorker) process(ctx context.Context, req queue.GenerateRequest) queue.GenerateResponse {
	resp := queue.GenerateResponse{RequestID: req.RequestID}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		resp.Error = "prompt is empty"
		return resp
	}
	if w.Generator == nil {
		resp.Error = "generation backend not configured"
		return resp
	}

	budget := req.MaxNewTokens
	if budget <= 0 {
		budget = defaultMaxNewTokens
	}
	out, err := w.Generator.Generate(ctx, prompt, budget)
	if err != nil {
		log.Warn().Err(err).Str("request_id", req.RequestID).Msg("generate: backend failed")
		resp.Error = "generation failed"
		return resp
	}

	// Models tend to trail off; cap the reply at a few whole sentences.
	resp.Text = limitSentences(out, maxOutputSentences)
	return resp
}

func (w *GenerateWorker) reply(ctx context.Context, resp queue.GenerateResponse) queue.Decision {
	body, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Str("request_id", resp.RequestID).Msg("generate: marshal response")
		return queue.Drop
	}
	if err := w.Publisher.Publish(ctx, queue.KindGenerate.ResponseSubject(), body); err != nil {
		log.Warn().Err(err).Str("request_id", resp.RequestID).Msg("generate: publish response failed")
		return queue.Retry
	}
	return queue.Ack
}
