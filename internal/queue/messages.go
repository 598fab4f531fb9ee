// Package queue – wire payloads.
//
// One explicit struct per job kind, JSON-encoded. Optional results use
// pointer-free zero values plus an Error field; consumers must tolerate
// unknown fields (schema may grow).
package queue

// ThumbnailJob asks the thumbnail worker to resize the image of a post.
type ThumbnailJob struct {
	PostID    int64  `json:"post_id"`
	ImagePath string `json:"image_path"`
}

// SentimentJob asks the sentiment worker to score the text of a post.
type SentimentJob struct {
	PostID int64  `json:"post_id"`
	Text   string `json:"text"`
}

// TranslateRequest asks the translation worker for an on-demand translation.
// RequestID correlates the reply on the response subject.
type TranslateRequest struct {
	RequestID  string `json:"request_id"`
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"` // empty = auto-detect
	TargetLang string `json:"target_lang"`
}

// TranslateResponse is the translation worker's reply.
type TranslateResponse struct {
	RequestID      string `json:"request_id"`
	TranslatedText string `json:"translated_text,omitempty"`
	DetectedLang   string `json:"detected_lang,omitempty"`
	SourceLang     string `json:"source_lang,omitempty"`
	TargetLang     string `json:"target_lang,omitempty"`
	Error          string `json:"error,omitempty"`
}

// GenerateRequest asks the generation worker for text completing a prompt.
type GenerateRequest struct {
	RequestID    string `json:"request_id"`
	Prompt       string `json:"prompt"`
	MaxNewTokens int    `json:"max_new_tokens,omitempty"`
}

// GenerateResponse is the generation worker's reply.
type GenerateResponse struct {
	RequestID string `json:"request_id"`
	Text      string `json:"generated_text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// envelope is the minimal shape shared by all responses; the reply registry
// uses it to route a message to its waiting caller.
type envelope struct {
	RequestID string `json:"request_id"`
}
