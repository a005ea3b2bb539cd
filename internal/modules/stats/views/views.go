// Package views records deduplicated post views and maintains the counters
// the ranking queries read.
package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mx-space/publisher/internal/models"
	"github.com/mx-space/publisher/internal/pkg/apperr"
	"github.com/mx-space/publisher/internal/pkg/session"
	"github.com/mx-space/publisher/internal/pkg/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrStorage      = apperr.ErrStorage
	ErrPostNotFound = fmt.Errorf("post %w", apperr.ErrNotFound)
	ErrNoSession    = errors.New("visit has no session markers")
)

// Visit is the request side of a view: who is looking and their session state.
type Visit struct {
	SessionID string
	ClientIP  string
	UserAgent string
	Referer   string
	Now       func() time.Time
	Markers   session.Markers
}

func (v Visit) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// MarkerKey is the session flag set once a post has been counted.
func MarkerKey(postID uint64) string {
	return "viewed_post_" + strconv.FormatUint(postID, 10)
}

type Counter struct {
	db     *gorm.DB
	logger *zap.Logger
}

type Option func(*Counter)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Counter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCounter(db *gorm.DB, opts ...Option) *Counter {
	c := &Counter{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("ViewCounter")
	return c
}

// Record counts one view of post per session. A repeat visit from the same
// session is a silent no-op. The event row and both counters are written in
// one transaction; the counters move by an in-database add.
func (c *Counter) Record(ctx context.Context, post *models.PostModel, visit Visit) error {
	if post == nil || post.ID == 0 {
		return ErrPostNotFound
	}
	if visit.Markers == nil {
		return ErrNoSession
	}

	key := MarkerKey(post.ID)
	fresh, err := visit.Markers.Set(ctx, key)
	if err != nil {
		return apperr.Storage("set view marker", err)
	}
	if !fresh {
		c.logger.Debug("duplicate view ignored",
			zap.Uint64("post_id", post.ID),
			zap.String("session", visit.SessionID),
		)
		return nil
	}

	event := models.PostViewModel{
		PostID:    post.ID,
		TenantID:  post.TenantID,
		SessionID: visit.SessionID,
		IPAddress: visit.ClientIP,
		UserAgent: visit.UserAgent,
		Referer:   visit.Referer,
		ViewedAt:  visit.now(),
	}
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return apperr.Storage("insert view event", err)
		}
		res := tx.Model(&models.PostModel{}).
			Where("id = ? AND tenant_id = ?", post.ID, post.TenantID).
			UpdateColumns(map[string]interface{}{
				"views_total":  gorm.Expr("views_total + ?", 1),
				"views_weekly": gorm.Expr("views_weekly + ?", 1),
			})
		if res.Error != nil {
			return apperr.Storage("increment view counters", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("record view failed", zap.Uint64("post_id", post.ID), zap.Error(err))
		return err
	}

	post.ViewsTotal++
	post.ViewsWeekly++
	return nil
}

// ResetWeekly zeroes views_weekly for every post of the tenant. The periodic
// caller owns the cadence.
func (c *Counter) ResetWeekly(ctx context.Context, ref tenant.Ref) (int64, error) {
	res := c.db.WithContext(ctx).Model(&models.PostModel{}).
		Scopes(tenant.Scope(ref)).
		Where("views_weekly <> 0").
		UpdateColumn("views_weekly", 0)
	if res.Error != nil {
		return 0, apperr.Storage("reset weekly views", res.Error)
	}
	c.logger.Info("weekly views reset",
		zap.Uint64("tenant_id", uint64(tenant.Resolve(ref))),
		zap.Int64("posts", res.RowsAffected),
	)
	return res.RowsAffected, nil
}

// CountEvents returns how many view events a post received since the given time.
func (c *Counter) CountEvents(ctx context.Context, ref tenant.Ref, postID uint64, since time.Time) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&models.PostViewModel{}).
		Scopes(tenant.Scope(ref)).
		Where("post_id = ? AND viewed_at >= ?", postID, since).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Storage("count view events", err)
	}
	return n, nil
}
