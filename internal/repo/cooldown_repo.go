// Package repo – cooldown persistence.
//
// A Cooldown row holds the timestamp of an author's most recent successful
// post; there is at most one row per author. The write side lives inside
// CreatePost (same transaction as the post insert); this file only provides
// the read and the standalone upsert used by tests and ops tooling.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// GetCooldown fetches the cooldown record for an author, or ErrNotFound when
// the author has never posted.
func GetCooldown(ctx context.Context, db *gorm.DB, author string) (*domain.Cooldown, error) {
	var c domain.Cooldown
	if err := db.WithContext(ctx).First(&c, "author = ?", author).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCooldown sets the author's last-post timestamp, inserting or
// replacing the single row for that author.
func UpsertCooldown(ctx context.Context, db *gorm.DB, author string, at time.Time) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "author"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_post_at"}),
	}).Create(&domain.Cooldown{Author: author, LastPostAt: at}).Error
}
