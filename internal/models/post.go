package models

import (
	"errors"
	"time"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostScheduled PostStatus = "scheduled"
)

var (
	ErrInvalidStatus     = errors.New("invalid post status")
	ErrInvalidTransition = errors.New("post status transition not allowed")
	ErrPublishedAtNeeded = errors.New("published post requires published_at")
	ErrScheduleInPast    = errors.New("scheduled_at must be in the future")
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostDraft, PostPublished, PostScheduled:
		return true
	}
	return false
}

// CanTransition reports whether a post may move from s to next.
// Once published a post never returns to draft or scheduled.
func (s PostStatus) CanTransition(next PostStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case PostDraft:
		return next == PostScheduled || next == PostPublished
	case PostScheduled:
		return next == PostPublished
	}
	return false
}

// PostModel is a tenant-owned content item.
type PostModel struct {
	Base
	TenantID        uint64     `json:"tenant_id"        gorm:"not null;uniqueIndex:idx_posts_tenant_slug,priority:1;index:idx_posts_tenant_status_published,priority:1;index:idx_posts_tenant_pinned,priority:1"`
	AuthorID        *uint64    `json:"author_id"`
	Title           string     `json:"title"            gorm:"not null"`
	Slug            string     `json:"slug"             gorm:"size:191;not null;uniqueIndex:idx_posts_tenant_slug,priority:2"`
	Excerpt         *string    `json:"excerpt"          gorm:"type:text"`
	Content         string     `json:"content"          gorm:"type:longtext;not null"`
	Status          PostStatus `json:"status"           gorm:"size:20;default:'draft';index:idx_posts_tenant_status_published,priority:2"`
	PublishedAt     *time.Time `json:"published_at"     gorm:"index:idx_posts_tenant_status_published,priority:3"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	MetaTitle       *string    `json:"meta_title"`
	MetaDescription *string    `json:"meta_description"`
	FeaturedImage   *string    `json:"featured_image"`
	ViewsTotal      int64      `json:"views_total"      gorm:"not null;default:0"`
	ViewsWeekly     int64      `json:"views_weekly"     gorm:"not null;default:0"`
	IsPinned        bool       `json:"is_pinned"        gorm:"default:false;index:idx_posts_tenant_pinned,priority:2"`

	Categories []CategoryModel `json:"categories,omitempty" gorm:"many2many:post_categories;joinForeignKey:PostID;joinReferences:CategoryID"`
	Tags       []TagModel      `json:"tags,omitempty"       gorm:"many2many:post_tags;joinForeignKey:PostID;joinReferences:TagID"`
}

func (PostModel) TableName() string { return "posts" }

// CheckTimestamps enforces the timestamp invariants of the current status.
// now is only consulted for scheduled posts.
func (p *PostModel) CheckTimestamps(now time.Time) error {
	switch p.Status {
	case PostPublished:
		if p.PublishedAt == nil {
			return ErrPublishedAtNeeded
		}
	case PostScheduled:
		if p.ScheduledAt == nil || !p.ScheduledAt.After(now) {
			return ErrScheduleInPast
		}
	case PostDraft:
	default:
		return ErrInvalidStatus
	}
	return nil
}
