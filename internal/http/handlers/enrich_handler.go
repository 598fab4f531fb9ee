// Enrichment HTTP handlers.
//
// Translation and generation are synchronous from the client's point of
// view but are executed by queue workers: the handler publishes a request,
// blocks on the correlated response, and maps worker-side failures to
// HTTP 422 and transport failures to HTTP 503.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// TranslateRequest is the JSON payload for a translation call. TargetLang
// defaults to English when omitted.
type TranslateRequest struct {
	Text       string `json:"text" binding:"required" example:"guten morgen"`
	SourceLang string `json:"source_lang,omitempty" example:"de"`
	TargetLang string `json:"target_lang,omitempty" example:"en"`
}

// TranslateResponse is the JSON result of a translation call.
type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
	DetectedLang   string `json:"detected_lang,omitempty"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
}

// GenerateRequest is the JSON payload for a text generation call.
type GenerateRequest struct {
	Prompt       string `json:"prompt" binding:"required" example:"write a caption about sunsets"`
	MaxNewTokens int    `json:"max_new_tokens,omitempty" example:"128"`
}

// GenerateResponse is the JSON result of a text generation call.
type GenerateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// enrichError maps enrichment service errors shared by translate and
// generate to HTTP responses.
func enrichError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyText),
		errors.Is(err, services.ErrEmptyTarget),
		errors.Is(err, services.ErrEmptyPrompt):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrEnrichmentUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeEnrichmentUnavailable, "enrichment backend unavailable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// Translate godoc
// @ID          translatePost
// @Summary     Translate text
// @Description Translates text between English and a supported language. The
// @Description source language is detected when source_lang is omitted.
// @Tags        Enrichment
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.TranslateRequest  true  "Translation request"
// @Success     200  {object}  handlers.TranslateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse  "Unsupported language pair or backend failure"
// @Failure     503  {object}  handlers.ErrorResponse  "Enrichment backend unavailable"
// @Router      /translate [post]
func (h *Handlers) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text is required")
		return
	}
	if req.TargetLang == "" {
		req.TargetLang = "en"
	}

	resp, err := h.enrich.Translate(c.Request.Context(), req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		enrichError(c, err)
		return
	}
	if resp.Error != "" {
		fail(c, http.StatusUnprocessableEntity, ErrCodeUnprocessable, resp.Error)
		return
	}
	ok(c, http.StatusOK, TranslateResponse{
		TranslatedText: resp.TranslatedText,
		DetectedLang:   resp.DetectedLang,
		SourceLang:     resp.SourceLang,
		TargetLang:     resp.TargetLang,
	})
}

// Generate godoc
// @ID          generateText
// @Summary     Generate text from a prompt
// @Tags        Enrichment
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.GenerateRequest  true  "Generation request"
// @Success     200  {object}  handlers.GenerateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse  "Backend failure"
// @Failure     503  {object}  handlers.ErrorResponse  "Enrichment backend unavailable"
// @Router      /generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt is required")
		return
	}

	resp, err := h.enrich.Generate(c.Request.Context(), req.Prompt, req.MaxNewTokens)
	if err != nil {
		enrichError(c, err)
		return
	}
	if resp.Error != "" {
		fail(c, http.StatusUnprocessableEntity, ErrCodeUnprocessable, resp.Error)
		return
	}
	ok(c, http.StatusOK, GenerateResponse{GeneratedText: resp.Text})
}
