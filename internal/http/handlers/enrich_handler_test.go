package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tbourn/go-social-backend/internal/queue"
	"github.com/tbourn/go-social-backend/internal/services"
)

func TestTranslate_OK(t *testing.T) {
	enrich := &fakeEnrich{
		translateFn: func(_ context.Context, text, source, target string) (*queue.TranslateResponse, error) {
			if text != "guten morgen" || source != "" || target != "en" {
				t.Fatalf("translate args: %q %q %q", text, source, target)
			}
			return &queue.TranslateResponse{
				TranslatedText: "good morning",
				DetectedLang:   "de",
				SourceLang:     "de",
				TargetLang:     "en",
			}, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{enrich: enrich})

	w := doJSON(t, r, http.MethodPost, "/translate", `{"text":"guten morgen","target_lang":"en"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp TranslateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.TranslatedText != "good morning" || resp.DetectedLang != "de" || resp.TargetLang != "en" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTranslate_DefaultTargetIsEnglish(t *testing.T) {
	var gotTarget string
	enrich := &fakeEnrich{
		translateFn: func(_ context.Context, text, source, target string) (*queue.TranslateResponse, error) {
			gotTarget = target
			return &queue.TranslateResponse{TranslatedText: text, SourceLang: "en", TargetLang: target}, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{enrich: enrich})

	w := doJSON(t, r, http.MethodPost, "/translate", `{"text":"hello"}`)
	if w.Code != http.StatusOK || gotTarget != "en" {
		t.Fatalf("status=%d target=%q", w.Code, gotTarget)
	}
}

func TestTranslate_Validation(t *testing.T) {
	r := newHandlerRouter(t, handlerDeps{})

	// binding failures
	for _, body := range []string{`{"target_lang":"en"}`, `{"text":`} {
		w := doJSON(t, r, http.MethodPost, "/translate", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d", body, w.Code)
		}
	}

	// service-level validation
	enrich := &fakeEnrich{
		translateFn: func(context.Context, string, string, string) (*queue.TranslateResponse, error) {
			return nil, services.ErrEmptyTarget
		},
	}
	r = newHandlerRouter(t, handlerDeps{enrich: enrich})
	w := doJSON(t, r, http.MethodPost, "/translate", `{"text":"hi","target_lang":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank target: status=%d", w.Code)
	}
}

func TestTranslate_WorkerError_Unprocessable(t *testing.T) {
	enrich := &fakeEnrich{
		translateFn: func(context.Context, string, string, string) (*queue.TranslateResponse, error) {
			return &queue.TranslateResponse{Error: "translation between German and Spanish is not supported"}, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{enrich: enrich})

	w := doJSON(t, r, http.MethodPost, "/translate", `{"text":"hola","source_lang":"de","target_lang":"es"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeUnprocessable {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestTranslate_QueueDown_ServiceUnavailable(t *testing.T) {
	enrich := &fakeEnrich{
		translateFn: func(context.Context, string, string, string) (*queue.TranslateResponse, error) {
			return nil, services.ErrEnrichmentUnavailable
		},
	}
	r := newHandlerRouter(t, handlerDeps{enrich: enrich})

	w := doJSON(t, r, http.MethodPost, "/translate", `{"text":"hi","target_lang":"en"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeEnrichmentUnavailable {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestGenerate_OK(t *testing.T) {
	enrich := &fakeEnrich{
		generateFn: func(_ context.Context, prompt string, maxNewTokens int) (*queue.GenerateResponse, error) {
			if prompt != "write a caption" || maxNewTokens != 64 {
				t.Fatalf("generate args: %q %d", prompt, maxNewTokens)
			}
			return &queue.GenerateResponse{Text: "a golden caption"}, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{enrich: enrich})

	w := doJSON(t, r, http.MethodPost, "/generate", `{"prompt":"write a caption","max_new_tokens":64}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.GeneratedText != "a golden caption" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGenerate_Validation(t *testing.T) {
	r := newHandlerRouter(t, handlerDeps{})
	w := doJSON(t, r, http.MethodPost, "/generate", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}

	enrich := &fakeEnrich{
		generateFn: func(context.Context, string, int) (*queue.GenerateResponse, error) {
			return nil, services.ErrEmptyPrompt
		},
	}
	r = newHandlerRouter(t, handlerDeps{enrich: enrich})
	w = doJSON(t, r, http.MethodPost, "/generate", `{"prompt":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank prompt: status=%d", w.Code)
	}
}

func TestGenerate_WorkerError_Unprocessable(t *testing.T) {
	enrich := &fakeEnrich{
		generateFn: func(context.Context, string, int) (*queue.GenerateResponse, error) {
			return &queue.GenerateResponse{Error: "generation backend not configured"}, nil
		},
	}
	r := newHandlerRouter(t, handlerDeps{enrich: enrich})

	w := doJSON(t, r, http.MethodPost, "/generate", `{"prompt":"hello"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGenerate_QueueDown_ServiceUnavailable(t *testing.T) {
	enrich := &fakeEnrich{
		generateFn: func(context.Context, string, int) (*queue.GenerateResponse, error) {
			return nil, services.ErrEnrichmentUnavailable
		},
	}
	r := newHandlerRouter(t, handlerDeps{enrich: enrich})

	w := doJSON(t, r, http.MethodPost, "/generate", `{"prompt":"hello"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}
