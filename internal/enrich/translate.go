package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/queue"
)

// Translator translates one chunk of text between a supported language
// pair.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// TranslateWorker processes translation requests and publishes a reply for
// every well-formed request, carrying either the translated text or an
// error message. Only the reply publish itself can trigger a redelivery;
// a computed result must not be lost to a transient broker hiccup.
type TranslateWorker struct {
	Publisher  queue.Publisher
	Translator Translator
}

// NewTranslateWorker constructs a TranslateWorker.
func NewTranslateWorker(p queue.Publisher, t Translator) *TranslateWorker {
	return &TranslateWorker{Publisher: p, Translator: t}
}

// Handle implements queue.Handler for translation requests.
func (w *TranslateWorker) Handle(ctx context.Context, body []byte) queue.Decision {
	var req queue.TranslateRequest
	if err := json.Unmarshal(body, &req); err != nil || req.RequestID == "" {
		log.Warn().Err(err).Msg("translate: malformed request dropped")
		return queue.Drop
	}
	return w.reply(ctx, w.process(ctx, req))
}

func (w *TranslateWorker) process(ctx context.Context, req queue.TranslateRequest) queue.TranslateResponse {
	resp := queue.TranslateResponse{RequestID: req.RequestID, TargetLang: req.TargetLang}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		resp.Error = "nothing to translate"
		return resp
	}

	source := req.SourceLang
	if source == "" {
		source = DetectLanguage(text)
		resp.DetectedLang = source
	}
	resp.SourceLang = source

	if source == req.TargetLang {
		resp.TranslatedText = text
		return resp
	}
	if !SupportedPair(source, req.TargetLang) {
		resp.Error = fmt.Sprintf("unsupported language pair %s -> %s", langName(source), langName(req.TargetLang))
		return resp
	}
	if w.Translator == nil {
		resp.Error = "translation backend not configured"
		return resp
	}

	var parts []string
	for _, chunk := range chunkSentences(text) {
		out, err := w.Translator.Translate(ctx, chunk, source, req.TargetLang)
		if err != nil {
			log.Warn().Err(err).Str("request_id", req.RequestID).Msg("translate: backend failed")
			resp.Error = "translation failed"
			return resp
		}
		parts = append(parts, strings.TrimSpace(out))
	}
	resp.TranslatedText = strings.Join(parts, " ")
	return resp
}

// reply publishes resp on the response subject. A failed publish requeues
// the request.
func (w *TranslateWorker) reply(ctx context.Context, resp queue.TranslateResponse) queue.Decision {
	body, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Str("request_id", resp.RequestID).Msg("translate: marshal response")
		return queue.Drop
	}
	if err := w.Publisher.Publish(ctx, queue.KindTranslate.ResponseSubject(), body); err != nil {
		log.Warn().Err(err).Str("request_id", resp.RequestID).Msg("translate: publish response failed")
		return queue.Retry
	}
	return queue.Ack
}
