// Package services – PostService
//
// This file implements the PostService, which coordinates the synchronous
// half of the posting pipeline: input validation, the per-author cooldown
// (enforced atomically with the insert at the repository level), hashtag
// extraction and persistence, and the fire-and-forget fan-out of enrichment
// jobs onto the queue.
//
// Enqueue failures never fail a create: the post is already committed, so
// a broker outage degrades enrichment, not posting. Such failures are
// logged and swallowed.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/hashtag"
	"github.com/tbourn/go-social-backend/internal/queue"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// PostRepo defines the repository contract required by PostService.
type PostRepo interface {
	// CreatePost inserts a post and charges the author's cooldown in one
	// transaction. On an active cooldown it returns repo.ErrCooldownActive
	// and the remaining wait.
	CreatePost(ctx context.Context, db *gorm.DB, author, text, image string, window time.Duration, now time.Time) (*domain.Post, time.Duration, error)

	// GetPost fetches a post by id.
	GetPost(ctx context.Context, db *gorm.DB, id int64) (*domain.Post, error)

	// GetAllPosts returns all posts, newest first.
	GetAllPosts(ctx context.Context, db *gorm.DB) ([]domain.Post, error)

	// GetLatestPost returns the most recent post.
	GetLatestPost(ctx context.Context, db *gorm.DB) (*domain.Post, error)

	// SearchPostsByUser returns posts by exact author match, newest first.
	SearchPostsByUser(ctx context.Context, db *gorm.DB, user string) ([]domain.Post, error)

	// SearchPostsByText returns posts containing the query, newest first.
	SearchPostsByText(ctx context.Context, db *gorm.DB, query string) ([]domain.Post, error)

	// SearchPostsByTag returns posts carrying the tag (case-insensitive).
	SearchPostsByTag(ctx context.Context, db *gorm.DB, tag string) ([]domain.Post, error)

	// AttachTags associates normalized tag names with a post.
	AttachTags(ctx context.Context, db *gorm.DB, postID int64, names []string) error

	// ListTags returns a post's tag names, ascending.
	ListTags(ctx context.Context, db *gorm.DB, postID int64) ([]string, error)

	// ListPostsWithoutSentiment returns posts missing a sentiment label.
	ListPostsWithoutSentiment(ctx context.Context, db *gorm.DB) ([]domain.Post, error)

	// DeleteAllPosts wipes the posts table and resets ids.
	DeleteAllPosts(ctx context.Context, db *gorm.DB) error
}

// MediaChecker reports whether an image reference points to a file this
// instance stores locally and can therefore thumbnail.
type MediaChecker interface {
	IsUploadedImage(ref string) bool
}

// PostService provides post-level operations: creation with cooldown and
// enrichment fan-out, lookups, search, and the sentiment backfill.
type PostService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the post repository used by this service.
	Repo PostRepo
	// Queue receives enrichment jobs. May be nil in setups without a broker;
	// posts are then created without enrichment.
	Queue queue.Publisher
	// Media decides which images qualify for thumbnail jobs.
	Media MediaChecker

	// CooldownWindow is the minimum gap between two posts by one author.
	CooldownWindow time.Duration
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewPostService constructs a PostService.
func NewPostService(db *gorm.DB, r PostRepo, q queue.Publisher, m MediaChecker, cooldown time.Duration) *PostService {
	return &PostService{
		DB:             db,
		Repo:           r,
		Queue:          q,
		Media:          m,
		CooldownWindow: cooldown,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new post, attaches its tags, and enqueues
// enrichment jobs. Tags are the union of the explicit list and the hashtags
// found in the text, normalized to lowercase.
//
// A second post by the same author inside the cooldown window fails with
// *RateLimitedError carrying the remaining wait.
func (s *PostService) Create(ctx context.Context, author, text, image string, tags []string) (*domain.Post, error) {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	if author == "" {
		return nil, ErrEmptyAuthor
	}
	if text == "" {
		return nil, ErrEmptyText
	}

	p, retry, err := s.Repo.CreatePost(ctx, s.DB, author, text, image, s.CooldownWindow, s.Now())
	if err != nil {
		if errors.Is(err, repo.ErrCooldownActive) {
			return nil, &RateLimitedError{RetryAfter: retry}
		}
		return nil, err
	}

	if merged := hashtag.Merge(tags, text); len(merged) > 0 {
		if err := s.Repo.AttachTags(ctx, s.DB, p.ID, merged); err != nil {
			log.Warn().Err(err).Int64("post_id", p.ID).Msg("attach tags failed")
		} else {
			p.Tags = make([]domain.Tag, 0, len(merged))
			for _, name := range merged {
				p.Tags = append(p.Tags, domain.Tag{Name: name})
			}
		}
	}

	s.enqueueEnrichment(ctx, p)
	return p, nil
}

// enqueueEnrichment publishes the post's enrichment jobs. Every post gets a
// sentiment job; posts with a locally stored image additionally get a
// thumbnail job. Failures are logged, never propagated.
func (s *PostService) enqueueEnrichment(ctx context.Context, p *domain.Post) {
	if s.Queue == nil {
		return
	}
	s.publishJob(ctx, queue.KindSentiment, queue.SentimentJob{PostID: p.ID, Text: p.Text})
	if p.Image != "" && s.Media != nil && s.Media.IsUploadedImage(p.Image) {
		s.publishJob(ctx, queue.KindThumbnail, queue.ThumbnailJob{PostID: p.ID, ImagePath: p.Image})
	}
}

func (s *PostService) publishJob(ctx context.Context, kind queue.Kind, job any) {
	body, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("marshal enrichment job")
		return
	}
	if err := s.Queue.Publish(ctx, kind.Subject(), body); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("enqueue enrichment job failed")
	}
}

// Get returns a post by id, or ErrPostNotFound.
func (s *PostService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	p, err := s.Repo.GetPost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.Repo.GetAllPosts(ctx, s.DB)
}

// Latest returns the most recent post, or ErrPostNotFound when there are
// no posts yet.
func (s *PostService) Latest(ctx context.Context) (*domain.Post, error) {
	p, err := s.Repo.GetLatestPost(ctx, s.DB)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// SearchByUser returns posts authored by user (exact match).
func (s *PostService) SearchByUser(ctx context.Context, user string) ([]domain.Post, error) {
	return s.Repo.SearchPostsByUser(ctx, s.DB, strings.TrimSpace(user))
}

// SearchByText returns posts whose body contains query, case-insensitive.
func (s *PostService) SearchByText(ctx context.Context, query string) ([]domain.Post, error) {
	return s.Repo.SearchPostsByText(ctx, s.DB, strings.TrimSpace(query))
}

// SearchByTag returns posts carrying the tag. Lookup is case-insensitive
// because stored tags are lowercase.
func (s *PostService) SearchByTag(ctx context.Context, tag string) ([]domain.Post, error) {
	return s.Repo.SearchPostsByTag(ctx, s.DB, strings.TrimSpace(tag))
}

// Tags returns the tag names attached to a post, ascending.
func (s *PostService) Tags(ctx context.Context, postID int64) ([]string, error) {
	return s.Repo.ListTags(ctx, s.DB, postID)
}

// Reset wipes all posts (cascading to likes, comments, and tag links) and
// resets the id sequence. Test/ops path only.
func (s *PostService) Reset(ctx context.Context) error {
	return s.Repo.DeleteAllPosts(ctx, s.DB)
}

// BackfillSentiment enqueues a sentiment job for every post that has no
// label yet and returns the number of jobs published.
func (s *PostService) BackfillSentiment(ctx context.Context) (int, error) {
	if s.Queue == nil {
		return 0, ErrEnrichmentUnavailable
	}
	posts, err := s.Repo.ListPostsWithoutSentiment(ctx, s.DB)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range posts {
		body, err := json.Marshal(queue.SentimentJob{PostID: p.ID, Text: p.Text})
		if err != nil {
			continue
		}
		if err := s.Queue.Publish(ctx, queue.KindSentiment.Subject(), body); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
