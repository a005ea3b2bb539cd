// Package ranking answers the read-only latest, popular and trending queries.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/pagination"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"gorm.io/gorm"
)

const (
	DefaultLatestLimit   = 10
	DefaultPopularLimit  = 5
	DefaultTrendingLimit = 5
	DefaultTrendingDays  = 7
)

type Engine struct {
	db           *gorm.DB
	maxPage      int
	trendingDays int
	now          func() time.Time
}

type Option func(*Engine)

// WithClock fixes the reference time of the trending window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithMaxPage(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPage = n
		}
	}
}

// WithTrendingDays sets the window used when a caller passes windowDays <= 0.
func WithTrendingDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.trendingDays = days
		}
	}
}

func NewEngine(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{db: db, maxPage: pagination.MaxSize, trendingDays: DefaultTrendingDays, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// published matches what the read path serves: a future published_at stays hidden.
func (e *Engine) published(ctx context.Context, ref tenant.Ref) *gorm.DB {
	return e.db.WithContext(ctx).Model(&models.PostModel{}).
		Scopes(tenant.Scope(ref)).
		Where("status = ?", models.PostPublished).
		Where("published_at <= ?", e.now())
}

func (e *Engine) find(q *gorm.DB, limit int, op string) ([]models.PostModel, error) {
	posts := []models.PostModel{}
	if err := q.Limit(pagination.ClampLimit(limit, e.maxPage)).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.Storage("query posts", err))
	}
	return posts, nil
}

// Latest orders published posts by publication time, newest first.
func (e *Engine) Latest(ctx context.Context, ref tenant.Ref, limit int) ([]models.PostModel, error) {
	q := e.published(ctx, ref).Order("published_at DESC").Order("id DESC")
	return e.find(q, limit, "latest")
}

// Popular orders published posts by lifetime views.
func (e *Engine) Popular(ctx context.Context, ref tenant.Ref, limit int) ([]models.PostModel, error) {
	q := e.published(ctx, ref).Order("views_total DESC").Order("id DESC")
	return e.find(q, limit, "popular")
}

// Trending orders posts published within the last windowDays by their
// weekly views. The window rolls with the clock.
func (e *Engine) Trending(ctx context.Context, ref tenant.Ref, windowDays, limit int) ([]models.PostModel, error) {
	if windowDays <= 0 {
		windowDays = e.trendingDays
	}
	since := e.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
	q := e.published(ctx, ref).
		Where("published_at >= ?", since).
		Order("views_weekly DESC").Order("id DESC")
	return e.find(q, limit, "trending")
}

// Pinned lists pinned published posts, newest first.
func (e *Engine) Pinned(ctx context.Context, ref tenant.Ref, limit int) ([]models.PostModel, error) {
	q := e.published(ctx, ref).Where("is_pinned = ?", true).Order("published_at DESC").Order("id DESC")
	return e.find(q, limit, "pinned")
}
