package models

import "time"

// MediaModel records an asset stored through the ingestion pipeline.
type MediaModel struct {
	ID               uint64    `json:"id"                 gorm:"primaryKey;autoIncrement"`
	TenantID         uint64    `json:"tenant_id"          gorm:"not null;index"`
	PostID           *uint64   `json:"post_id"            gorm:"index"`
	FileName         string    `json:"file_name"          gorm:"not null"`
	Path             string    `json:"path"               gorm:"size:191;not null;index"`
	BackingStorePath string    `json:"backing_store_path" gorm:"type:text"`
	FileSize         int64     `json:"file_size"          gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created"`
	UpdatedAt        time.Time `json:"modified"`
}

func (MediaModel) TableName() string { return "medias" }
