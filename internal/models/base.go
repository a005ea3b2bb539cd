package models

import (
	"time"

	"gorm.io/gorm"
)

// Base is the base model for all mutable entities.
// DeletedAt is the tombstone: default gorm queries skip rows where it is set.
type Base struct {
	ID        uint64         `json:"id"       gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `json:"created"`
	UpdatedAt time.Time      `json:"modified"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`
}

// Settings is an opaque key/value mapping stored as JSON.
type Settings map[string]interface{}
