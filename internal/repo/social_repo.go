// Package repo – likes and comments.
//
// Likes are idempotent both ways: adding an existing like and removing a
// missing one are silent no-ops. Comments are append-only and listed in
// chronological order.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// AddLike records that user liked postID. Returns true when a new like was
// inserted, false when the pair already existed (no error either way).
func AddLike(ctx context.Context, db *gorm.DB, postID int64, user string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&domain.Like{PostID: postID, UserID: user, CreatedAt: now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveLike deletes user's like on postID. Removing a like that does not
// exist is a no-op.
func RemoveLike(ctx context.Context, db *gorm.DB, postID int64, user string) error {
	return db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, user).
		Delete(&domain.Like{}).Error
}

// CountLikes returns the number of likes on postID.
func CountLikes(ctx context.Context, db *gorm.DB, postID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("post_id = ?", postID).
		Count(&n).Error
	return n, err
}

// IsLiked reports whether user has liked postID.
func IsLiked(ctx context.Context, db *gorm.DB, postID int64, user string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Like{}).
		Where("post_id = ? AND user_id = ?", postID, user).
		Count(&n).Error
	return n > 0, err
}

// AddComment appends a comment to postID and returns the stored row.
func AddComment(ctx context.Context, db *gorm.DB, postID int64, user, text string, now time.Time) (*domain.Comment, error) {
	c := &domain.Comment{
		PostID:    postID,
		UserID:    user,
		Text:      text,
		CreatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns all comments on postID ordered by creation time
// ascending (oldest first).
func ListComments(ctx context.Context, db *gorm.DB, postID int64) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// CountComments returns the number of comments on postID.
func CountComments(ctx context.Context, db *gorm.DB, postID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("post_id = ?", postID).
		Count(&n).Error
	return n, err
}
