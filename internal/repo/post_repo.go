// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model
// and the Result Sink writes performed by the enrichment workers.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a post is not found, lookup functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - SetThumbnail and SetSentiment are deliberate exceptions: updating a post
//     that no longer exists is a no-op, not an error. Enrichment results can
//     arrive after a post was removed, and the workers must not fail on that.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrCooldownActive is returned by CreatePost when the author posted within
// the cooldown window. The accompanying duration tells how long to wait.
var ErrCooldownActive = errors.New("author cooldown active")

// CreatePost inserts a new Post row and upserts the author's cooldown
// timestamp. The cooldown check, the insert, and the timestamp write run in
// one transaction, so two concurrent requests from the same author cannot
// both pass the window check.
//
// On an active cooldown it returns ErrCooldownActive together with the time
// remaining until the author may post again.
//
// When the posts table is empty the identity counter is reset first, so ids
// restart at 1 after a bulk wipe.
func CreatePost(ctx context.Context, db *gorm.DB, author, text, image string, window time.Duration, now time.Time) (*domain.Post, time.Duration, error) {
	p := &domain.Post{
		Image:     image,
		Text:      text,
		Author:    author,
		CreatedAt: now,
	}
	var remaining time.Duration
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if window > 0 {
			var cd domain.Cooldown
			err := tx.First(&cd, "author = ?", author).Error
			switch {
			case err == nil:
				if wait := cd.LastPostAt.Add(window).Sub(now); wait > 0 {
					remaining = wait
					return ErrCooldownActive
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// first post by this author
			default:
				return err
			}
		}
		var count int64
		if err := tx.Model(&domain.Post{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			resetPostSequence(tx)
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "author"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_post_at"}),
		}).Create(&domain.Cooldown{Author: author, LastPostAt: now}).Error
	})
	if err != nil {
		return nil, remaining, err
	}
	return p, 0, nil
}

// GetPost fetches a single post by id, or ErrNotFound if missing.
func GetPost(ctx context.Context, db *gorm.DB, id int64) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAllPosts returns all posts ordered by creation time descending
// (most recent first).
func GetAllPosts(ctx context.Context, db *gorm.DB) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// GetLatestPost returns the most recent post, or ErrNotFound when the table
// is empty.
func GetLatestPost(ctx context.Context, db *gorm.DB) (*domain.Post, error) {
	var p domain.Post
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchPostsByUser returns all posts authored by user, newest first.
func SearchPostsByUser(ctx context.Context, db *gorm.DB, user string) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("author = ?", user).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// SearchPostsByText returns posts whose body contains the query,
// case-insensitive, newest first.
func SearchPostsByText(ctx context.Context, db *gorm.DB, query string) ([]domain.Post, error) {
	var out []domain.Post
	pattern := "%" + strings.ToLower(query) + "%"
	err := db.WithContext(ctx).
		Where("lower(text) LIKE ?", pattern).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// SetThumbnail writes the generated thumbnail reference onto a post.
// It is the Result Sink for the thumbnail worker: a single-row conditional
// update, last-write-wins, and a silent no-op when the post no longer exists.
func SetThumbnail(ctx context.Context, db *gorm.DB, postID int64, ref string) error {
	return db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", postID).
		Update("thumbnail", ref).Error
}

// SetSentiment writes the sentiment label and score onto a post.
// Same Result Sink semantics as SetThumbnail: missing post is a no-op.
func SetSentiment(ctx context.Context, db *gorm.DB, postID int64, label string, score float64) error {
	return db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", postID).
		Updates(map[string]any{
			"sentiment_label": label,
			"sentiment_score": score,
		}).Error
}

// ListPostsWithoutSentiment returns the ids and bodies of posts that have no
// sentiment label yet (backfill path).
func ListPostsWithoutSentiment(ctx context.Context, db *gorm.DB) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("sentiment_label IS NULL").
		Order("id asc").
		Find(&out).Error
	return out, err
}

// DeleteAllPosts wipes the posts table and resets the identity counter so
// the next post gets id 1 again. Test/ops path only; cascades remove likes,
// comments, and tag associations.
func DeleteAllPosts(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM posts").Error; err != nil {
			return err
		}
		resetPostSequence(tx)
		return nil
	})
}

// resetPostSequence rewinds the posts identity counter. Dialect-specific and
// best-effort: on a fresh SQLite file the sequence table may not exist yet.
func resetPostSequence(tx *gorm.DB) {
	switch tx.Dialector.Name() {
	case "sqlite":
		_ = tx.Exec("DELETE FROM sqlite_sequence WHERE name = 'posts'").Error
	case "postgres":
		_ = tx.Exec(fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), 1, false)", "posts")).Error
	}
}
