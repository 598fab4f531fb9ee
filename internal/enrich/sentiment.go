package enrich

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/queue"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// Scorer classifies a text's sentiment. Implementations return one of the
// domain.Sentiment* labels and a confidence in [0,1].
type Scorer interface {
	Score(ctx context.Context, text string) (label string, score float64, err error)
}

// SentimentWorker processes sentiment jobs. Empty text and scorer failures
// both degrade to NEUTRAL with score 0.5 so every processed post ends up
// labeled; only malformed payloads are dropped.
type SentimentWorker struct {
	DB     *gorm.DB
	Scorer Scorer
}

// NewSentimentWorker constructs a SentimentWorker.
func NewSentimentWorker(db *gorm.DB, s Scorer) *SentimentWorker {
	return &SentimentWorker{DB: db, Scorer: s}
}

// Handle implements queue.Handler for sentiment jobs.
func (w *SentimentWorker) Handle(ctx context.Context, body []byte) queue.Decision {
	var job queue.SentimentJob
	if err := json.Unmarshal(body, &job); err != nil {
		log.Warn().Err(err).Msg("sentiment: malformed job dropped")
		return queue.Drop
	}

	label, score := domain.SentimentNeutral, 0.5
	if text := strings.TrimSpace(job.Text); text != "" {
		l, s, err := w.Scorer.Score(ctx, text)
		if err != nil {
			log.Warn().Err(err).Int64("post_id", job.PostID).Msg("sentiment: scorer failed, writing neutral")
		} else {
			label, score = l, s
		}
	}

	if err := repo.SetSentiment(ctx, w.DB, job.PostID, label, score); err != nil {
		log.Warn().Err(err).Int64("post_id", job.PostID).Msg("sentiment: store result failed")
		return queue.Ack
	}

	log.Info().Int64("post_id", job.PostID).Str("label", label).Float64("score", score).Msg("sentiment scored")
	return queue.Ack
}

// LexiconScorer is a deterministic word-list classifier used when no model
// endpoint is configured. It counts positive and negative token hits; the
// majority wins and the score reflects how one-sided the hits are. No hits
// means NEUTRAL at 0.5.
type LexiconScorer struct{}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "awesome": {}, "excellent": {}, "love": {},
	"loved": {}, "like": {}, "liked": {}, "happy": {}, "amazing": {},
	"wonderful": {}, "best": {}, "nice": {}, "fantastic": {}, "beautiful": {},
	"enjoy": {}, "enjoyed": {}, "fun": {}, "cool": {}, "perfect": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "hate": {}, "hated": {},
	"sad": {}, "angry": {}, "worst": {}, "horrible": {}, "poor": {},
	"boring": {}, "ugly": {}, "disappointing": {}, "disappointed": {},
	"broken": {}, "annoying": {}, "useless": {}, "wrong": {}, "fail": {},
	"failed": {},
}

// Score implements Scorer.
func (LexiconScorer) Score(_ context.Context, text string) (string, float64, error) {
	var pos, neg int
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}

	total := pos + neg
	if total == 0 || pos == neg {
		return domain.SentimentNeutral, 0.5, nil
	}
	diff := pos - neg
	if diff < 0 {
		diff = -diff
	}
	score := 0.5 + 0.5*float64(diff)/float64(total)
	if pos > neg {
		return domain.SentimentPositive, score, nil
	}
	return domain.SentimentNegative, score, nil
}
