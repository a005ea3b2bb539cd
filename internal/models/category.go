package models

// CategoryModel groups posts within a tenant.
type CategoryModel struct {
	Base
	TenantID    uint64 `json:"tenant_id"   gorm:"not null;uniqueIndex:idx_categories_tenant_slug,priority:1"`
	Name        string `json:"name"        gorm:"not null"`
	Slug        string `json:"slug"        gorm:"size:191;not null;uniqueIndex:idx_categories_tenant_slug,priority:2"`
	Description string `json:"description"`
}

func (CategoryModel) TableName() string { return "categories" }

// TagModel is a free-form label within a tenant.
type TagModel struct {
	Base
	TenantID uint64 `json:"tenant_id" gorm:"not null;uniqueIndex:idx_tags_tenant_slug,priority:1"`
	Name     string `json:"name"      gorm:"not null"`
	Slug     string `json:"slug"      gorm:"size:191;not null;uniqueIndex:idx_tags_tenant_slug,priority:2"`
}

func (TagModel) TableName() string { return "tags" }
