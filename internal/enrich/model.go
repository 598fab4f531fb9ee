package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ModelClient calls an external inference service over HTTP. One endpoint
// serves all three model tasks under /sentiment, /translate, and /generate.
// It implements Scorer, Translator, and Generator.
type ModelClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewModelClient constructs a ModelClient for the given base URL.
func NewModelClient(baseURL string) *ModelClient {
	return &ModelClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Score implements Scorer via POST /sentiment.
func (c *ModelClient) Score(ctx context.Context, text string) (string, float64, error) {
	var out struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	err := c.post(ctx, "/sentiment", map[string]any{"text": text}, &out)
	if err != nil {
		return "", 0, err
	}
	return out.Label, out.Score, nil
}

// Translate implements Translator via POST /translate.
func (c *ModelClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	err := c.post(ctx, "/translate", map[string]any{
		"text":        text,
		"source_lang": source,
		"target_lang": target,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}

// Generate implements Generator via POST /generate.
func (c *ModelClient) Generate(ctx context.Context, prompt string, maxNewTokens int) (string, error) {
	var out struct {
		GeneratedText string `json:"generated_text"`
	}
	err := c.post(ctx, "/generate", map[string]any{
		"prompt":         prompt,
		"max_new_tokens": maxNewTokens,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.GeneratedText, nil
}

func (c *ModelClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("model %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("model %s: status %d: %s", path, resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
