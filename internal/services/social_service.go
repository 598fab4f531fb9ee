// Package services – SocialService
//
// This file implements the SocialService, which manages interactions on
// existing posts: likes (idempotent per user) and comments (append-only,
// returned oldest first). Every operation first checks that the target post
// exists so handlers can map a missing post to 404 uniformly.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// SocialRepo defines the repository contract required by SocialService.
type SocialRepo interface {
	// GetPost fetches a post by id; used for existence checks.
	GetPost(ctx context.Context, db *gorm.DB, id int64) (*domain.Post, error)

	// AddLike records a like, reporting false when it already existed.
	AddLike(ctx context.Context, db *gorm.DB, postID int64, user string, now time.Time) (bool, error)

	// RemoveLike deletes a like; absent likes are a no-op.
	RemoveLike(ctx context.Context, db *gorm.DB, postID int64, user string) error

	// CountLikes returns the number of likes on a post.
	CountLikes(ctx context.Context, db *gorm.DB, postID int64) (int64, error)

	// IsLiked reports whether user has liked the post.
	IsLiked(ctx context.Context, db *gorm.DB, postID int64, user string) (bool, error)

	// AddComment appends a comment to a post.
	AddComment(ctx context.Context, db *gorm.DB, postID int64, user, text string, now time.Time) (*domain.Comment, error)

	// ListComments returns a post's comments, oldest first.
	ListComments(ctx context.Context, db *gorm.DB, postID int64) ([]domain.Comment, error)

	// CountComments returns the number of comments on a post.
	CountComments(ctx context.Context, db *gorm.DB, postID int64) (int64, error)
}

// SocialService provides like and comment operations on posts.
type SocialService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the social repository used by this service.
	Repo SocialRepo

	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewSocialService constructs a SocialService.
func NewSocialService(db *gorm.DB, r SocialRepo) *SocialService {
	return &SocialService{
		DB:   db,
		Repo: r,
		Now:  func() time.Time { return time.Now().UTC() },
	}
}

// ensurePost maps a missing post to ErrPostNotFound.
func (s *SocialService) ensurePost(ctx context.Context, postID int64) error {
	if _, err := s.Repo.GetPost(ctx, s.DB, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// Like records user's like on a post. Liking twice is a no-op; the returned
// bool reports whether the like was newly added.
func (s *SocialService) Like(ctx context.Context, postID int64, user string) (bool, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return false, ErrEmptyAuthor
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return false, err
	}
	return s.Repo.AddLike(ctx, s.DB, postID, user, s.Now())
}

// Unlike removes user's like from a post. Removing an absent like is a
// no-op.
func (s *SocialService) Unlike(ctx context.Context, postID int64, user string) error {
	user = strings.TrimSpace(user)
	if user == "" {
		return ErrEmptyAuthor
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return err
	}
	return s.Repo.RemoveLike(ctx, s.DB, postID, user)
}

// LikeInfo returns the like count on a post and whether viewer has liked
// it. An empty viewer yields liked=false without a lookup.
func (s *SocialService) LikeInfo(ctx context.Context, postID int64, viewer string) (int64, bool, error) {
	count, err := s.Repo.CountLikes(ctx, s.DB, postID)
	if err != nil {
		return 0, false, err
	}
	viewer = strings.TrimSpace(viewer)
	if viewer == "" {
		return count, false, nil
	}
	liked, err := s.Repo.IsLiked(ctx, s.DB, postID, viewer)
	if err != nil {
		return 0, false, err
	}
	return count, liked, nil
}

// Comment appends a comment to a post.
func (s *SocialService) Comment(ctx context.Context, postID int64, user, text string) (*domain.Comment, error) {
	user = strings.TrimSpace(user)
	text = strings.TrimSpace(text)
	if user == "" {
		return nil, ErrEmptyAuthor
	}
	if text == "" {
		return nil, ErrEmptyComment
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.Repo.AddComment(ctx, s.DB, postID, user, text, s.Now())
}

// Comments returns a post's comments, oldest first.
func (s *SocialService) Comments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.Repo.ListComments(ctx, s.DB, postID)
}

// CountComments returns the number of comments on a post.
func (s *SocialService) CountComments(ctx context.Context, postID int64) (int64, error) {
	return s.Repo.CountComments(ctx, s.DB, postID)
}
