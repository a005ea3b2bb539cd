package models

import "time"

// PostViewModel is one deduplicated view of a post. Rows are insert-only.
type PostViewModel struct {
	ID        uint64    `json:"id"         gorm:"primaryKey;autoIncrement"`
	PostID    uint64    `json:"post_id"    gorm:"not null;index:idx_post_views_post_viewed,priority:1"`
	TenantID  uint64    `json:"tenant_id"  gorm:"not null;index:idx_post_views_tenant_viewed,priority:1"`
	SessionID string    `json:"session_id" gorm:"size:191"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	Referer   string    `json:"referer"    gorm:"type:text"`
	ViewedAt  time.Time `json:"viewed_at"  gorm:"not null;index:idx_post_views_tenant_viewed,priority:2;index:idx_post_views_post_viewed,priority:2"`
}

func (PostViewModel) TableName() string { return "post_views" }
