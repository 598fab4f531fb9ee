package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tbourn/go-social-backend/internal/queue"
)

// cannedGenerator returns a fixed completion.
type cannedGenerator struct {
	out       string
	err       error
	gotPrompt string
	gotBudget int
}

func (g *cannedGenerator) Generate(_ context.Context, prompt string, maxNewTokens int) (string, error) {
	g.gotPrompt = prompt
	g.gotBudget = maxNewTokens
	if g.err != nil {
		return "", g.err
	}
	return g.out, nil
}

func generateJob(t *testing.T, req queue.GenerateRequest) []byte {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return body
}

func TestGenerateWorker_RepliesWithText(t *testing.T) {
	pub := newCapturePublisher()
	gen := &cannedGenerator{out: "Once upon a time."}
	w := NewGenerateWorker(pub, gen)

	job := generateJob(t, queue.GenerateRequest{RequestID: "g1", Prompt: "tell a story", MaxNewTokens: 32})
	if d := w.Handle(context.Background(), job); d != queue.Ack {
		t.Fatalf("decision = %v, want ack", d)
	}
	if gen.gotPrompt != "tell a story" || gen.gotBudget != 32 {
		t.Errorf("backend got prompt=%q budget=%d", gen.gotPrompt, gen.gotBudget)
	}

	var resp queue.GenerateResponse
	pub.lastResponse(t, queue.KindGenerate.ResponseSubject(), &resp)
	if resp.RequestID != "g1" || resp.Text != "Once upon a time." || resp.Error != "" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestGenerateWorker_DefaultTokenBudget(t *testing.T) {
	pub := newCapturePublisher()
	gen := &cannedGenerator{out: "ok."}
	w := NewGenerateWorker(pub, gen)

	job := generateJob(t, queue.GenerateRequest{RequestID: "g2", Prompt: "hi"})
	if d := w.Handle(context.Background(), job); d != queue.Ack {
		t.Fatalf("decision = %v, want ack", d)
	}
	if gen.gotBudget != defaultMaxNewTokens {
		t.Errorf("budget = %d, want %d", gen.gotBudget, defaultMaxNewTokens)
	}
}

func TestGenerateWorker_CapsSentences(t *testing.T) {
	pub := newCapturePublisher()
	gen := &cannedGenerator{out: "One. Two. Three. Four. Five. Six. Seven."}
	w := NewGenerateWorker(pub, gen)

	job := generateJob(t, queue.GenerateRequest{RequestID: "g3", Prompt: "ramble"})
	if d := w.Handle(context.Background(), job); d != queue.Ack {
		t.Fatalf("decision = %v, want ack", d)
	}

	var resp queue.GenerateResponse
	pub.lastResponse(t, queue.KindGenerate.ResponseSubject(), &resp)
	if resp.Text != "One. Two. Three. Four. Five." {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestGenerateWorker_EmptyPromptErrorReply(t *testing.T) {
	pub := newCapturePublisher()
	w := NewGenerateWorker(pub, &cannedGenerator{out: "x"})

	job := generateJob(t, queue.GenerateRequest{RequestID: "g4", Prompt: "   "})
	if d := w.Handle(context.Background(), job); d != queue.Ack {
		t.Fatalf("decision = %v, want ack", d)
	}

	var resp queue.GenerateResponse
	pub.lastResponse(t, queue.KindGenerate.ResponseSubject(), &resp)
	if resp.Error != "prompt is empty" {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestGenerateWorker_BackendErrors(t *testing.T) {
	pub := newCapturePublisher()
	w := NewGenerateWorker(pub, &cannedGenerator{err: errors.New("model offline")})

	job := generateJob(t, queue.GenerateRequest{RequestID: "g5", Prompt: "hi"})
	if d := w.Handle(context.Background(), job); d != queue.Ack {
		t.Fatalf("decision = %v, want ack", d)
	}
	var resp queue.GenerateResponse
	pub.lastResponse(t, queue.KindGenerate.ResponseSubject(), &resp)
	if resp.Error != "generation failed" {
		t.Errorf("Error = %q", resp.Error)
	}

	// No backend at all.
	w = NewGenerateWorker(pub, nil)
	if d := w.Handle(context.Background(), generateJob(t, queue.GenerateRequest{RequestID: "g6", Prompt: "hi"})); d != queue.Ack {
		t.Fatalf("decision = %v, want ack", d)
	}
	pub.lastResponse(t, queue.KindGenerate.ResponseSubject(), &resp)
	if resp.Error != "generation backend not configured" {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestGenerateWorker_MalformedRequestDropped(t *testing.T) {
	w := NewGenerateWorker(newCapturePublisher(), nil)
	if d := w.Handle(context.Background(), []byte("{{")); d != queue.Drop {
		t.Errorf("decision = %v, want drop", d)
	}
}
