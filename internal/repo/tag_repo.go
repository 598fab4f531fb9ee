// Package repo – tags and post↔tag associations.
//
// Tag names reaching this layer are already normalized (trimmed, lowercase);
// see the hashtag package. Names are globally deduplicated via a unique
// index, and the post_tags join rows are inserted idempotently, so attaching
// the same tag twice is harmless.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// AttachTags associates the named tags with postID, creating tag rows as
// needed. Empty names are skipped; duplicate associations are ignored.
func AttachTags(ctx context.Context, db *gorm.DB, postID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			if name == "" {
				continue
			}
			var tag domain.Tag
			if err := tx.Where("name = ?", name).
				FirstOrCreate(&tag, domain.Tag{Name: name}).Error; err != nil {
				return err
			}
			// ON CONFLICT DO NOTHING is valid on both sqlite and postgres.
			if err := tx.Exec("INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING", postID, tag.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListTags returns the tag names attached to postID, sorted alphabetically.
func ListTags(ctx context.Context, db *gorm.DB, postID int64) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Model(&domain.Tag{}).
		Joins("JOIN post_tags pt ON pt.tag_id = tags.id").
		Where("pt.post_id = ?", postID).
		Order("tags.name asc").
		Pluck("tags.name", &names).Error
	return names, err
}

// SearchPostsByTag returns posts carrying the given tag, newest first.
// Stored names are lowercase; the query is folded on the SQL side, so the
// lookup is case-insensitive regardless of caller input.
func SearchPostsByTag(ctx context.Context, db *gorm.DB, tag string) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Model(&domain.Post{}).
		Distinct().
		Joins("JOIN post_tags pt ON pt.post_id = posts.id").
		Joins("JOIN tags t ON t.id = pt.tag_id").
		Where("t.name = lower(?)", tag).
		Order("posts.created_at desc, posts.id desc").
		Find(&out).Error
	return out, err
}
