package models

import "github.com/mx-space/publisher/internal/pkg/tenant"

// TenantModel is the isolation boundary. Posts, categories and tags reference it
// exclusively through tenant_id.
type TenantModel struct {
	Base
	Name     string   `json:"name"      gorm:"not null"`
	Slug     string   `json:"slug"      gorm:"uniqueIndex;size:191;not null"`
	Domain   string   `json:"domain"    gorm:"uniqueIndex;size:191;not null"`
	Theme    string   `json:"theme"     gorm:"default:'default'"`
	LogoPath *string  `json:"logo_path"`
	Settings Settings `json:"settings"  gorm:"type:longtext;serializer:json"`
	IsActive bool     `json:"is_active" gorm:"default:true"`
}

func (TenantModel) TableName() string { return "tenants" }

// TenantID lets a resolved tenant be passed wherever a tenant.Ref is accepted.
func (t *TenantModel) TenantID() tenant.ID {
	if t == nil {
		return 0
	}
	return tenant.ID(t.ID)
}
