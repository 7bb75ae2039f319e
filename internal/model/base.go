package model

import (
	"time"

	"gorm.io/gorm"
)

// Base carries the audit fields shared by every persisted entity.
//
// DeletedAt is a gorm soft-delete column: once set, the row is excluded from
// every query that does not explicitly call Unscoped. Rows are never removed.
// The *ByID fields reference users.id and stay nil for anonymous or system actions.
type Base struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedByID *uint          `json:"-" gorm:"index"`
	UpdatedAt   time.Time      `json:"updated_at"`
	UpdatedByID *uint          `json:"-"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
	DeletedByID *uint          `json:"-"`
	IsActive    bool           `json:"is_active" gorm:"not null;default:true"`
}

// IsDeleted reports whether the record carries a tombstone
func (b *Base) IsDeleted() bool {
	return b.DeletedAt.Valid
}
