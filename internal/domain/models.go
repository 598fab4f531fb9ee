// Package domain defines the persistence models for posts, likes, comments,
// tags, and per-author posting cooldowns. These types are mapped with GORM
// and form the core data layer of the social backend.
package domain

import (
	"time"
)

// Sentiment labels written by the sentiment enrichment worker.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// Post represents a single user post. A post is created synchronously with
// its image reference and text; the thumbnail and sentiment columns start
// NULL and are filled in later by the enrichment workers. Reads of a post at
// any time reflect whatever enrichment has completed so far.
//
// Fields:
//   - ID: monotonically increasing integer primary key, assigned at creation.
//   - Image: reference to the original image (upload path or external URL).
//   - Thumbnail: URL path of the generated thumbnail; nil until the
//     thumbnail worker has written it.
//   - Text: post body.
//   - Author: identifier of the posting user; indexed for per-user search.
//   - SentimentLabel / SentimentScore: nil until the sentiment worker has
//     written them; label is one of POSITIVE/NEGATIVE/NEUTRAL, score in [0,1].
//   - Tags: many-to-many tag associations via the post_tags join table.
type Post struct {
	ID             int64      `json:"id"              gorm:"primaryKey;autoIncrement"`
	Image          string     `json:"image"           gorm:"type:text;not null"`
	Thumbnail      *string    `json:"thumbnail"       gorm:"type:text"`
	Text           string     `json:"text"            gorm:"type:text;not null"`
	Author         string     `json:"user"            gorm:"column:author;type:varchar(64);not null;index:idx_posts_author"`
	SentimentLabel *string    `json:"sentiment_label" gorm:"type:varchar(16)"`
	SentimentScore *float64   `json:"sentiment_score"`
	CreatedAt      time.Time  `json:"created_at"`

	Tags []Tag `json:"-" gorm:"many2many:post_tags;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Like records that a user liked a post. The (post_id, user_id) pair is
// unique; adding an existing like and removing a missing one are both no-ops
// at the repository layer.
type Like struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	PostID    int64     `json:"post_id"    gorm:"not null;index:idx_likes_post;uniqueIndex:ux_likes_post_user,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_likes_post_user,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	// Post is the liked post. Likes are cascade-deleted with their post.
	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string { return "likes" }

// Comment is an append-only remark on a post, ordered by creation time
// ascending when listed.
type Comment struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	PostID    int64     `json:"post_id"    gorm:"not null;index:idx_comments_post"`
	UserID    string    `json:"user"       gorm:"column:author;type:varchar(64);not null"`
	Text      string    `json:"text"       gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	// Post is the commented post. Comments are cascade-deleted with it.
	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Tag is a deduplicated, lowercase tag name shared across posts through the
// post_tags join table. Normalization happens before persistence; the
// repository only ever sees lowercase names.
type Tag struct {
	ID   int64  `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(64);not null;uniqueIndex:ux_tags_name"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Cooldown holds the timestamp of an author's most recent successful post.
// There is at most one row per author; it is upserted in the same transaction
// as the post insert so the rate gate and the write cannot drift apart.
type Cooldown struct {
	Author     string    `json:"user"         gorm:"primaryKey;type:varchar(64)"`
	LastPostAt time.Time `json:"last_post_at" gorm:"not null"`
}

// TableName returns the database table name for Cooldown.
func (Cooldown) TableName() string { return "user_last_post" }
