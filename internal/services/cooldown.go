// Package services – CooldownGate
//
// This file implements the read side of the posting cooldown: a query that
// tells a client whether an author may post right now and, if not, how long
// to wait. The write side (charging the cooldown) happens inside the post
// insert transaction in the repository so concurrent creates cannot both
// pass.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CooldownRepo defines the repository contract required by CooldownGate.
type CooldownRepo interface {
	// GetCooldown fetches the author's last-post timestamp, or
	// gorm.ErrRecordNotFound for authors that never posted.
	GetCooldown(ctx context.Context, db *gorm.DB, author string) (*domain.Cooldown, error)
}

// CooldownGate answers "can this author post now" queries.
type CooldownGate struct {
	// DB is the GORM handle used for lookups.
	DB *gorm.DB
	// Repo is the cooldown repository used by this gate.
	Repo CooldownRepo

	// Window is the minimum gap between two posts by one author.
	Window time.Duration
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewCooldownGate constructs a CooldownGate.
func NewCooldownGate(db *gorm.DB, r CooldownRepo, window time.Duration) *CooldownGate {
	return &CooldownGate{
		DB:     db,
		Repo:   r,
		Window: window,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Status reports whether author may post now and, when not, the remaining
// wait rounded up to whole seconds. Authors with no posting history may
// always post.
func (g *CooldownGate) Status(ctx context.Context, author string) (bool, int, error) {
	cd, err := g.Repo.GetCooldown(ctx, g.DB, author)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, 0, nil
		}
		return false, 0, err
	}
	wait := cd.LastPostAt.Add(g.Window).Sub(g.Now())
	if wait <= 0 {
		return true, 0, nil
	}
	secs := int((wait + time.Second - 1) / time.Second)
	return false, secs, nil
}
