package models

import (
	"time"

	"gorm.io/datatypes"
)

// Course is a mirrored entry of the upstream catalog.
type Course struct {
	BaseModel
	Name      string         `gorm:"not null;index" json:"name"`
	SourceID  *string        `gorm:"uniqueIndex" json:"sourceId,omitempty"`
	IsActive  bool           `gorm:"not null;default:true;index" json:"isActive"`
	SortOrder int            `gorm:"not null;default:0" json:"sortOrder"`
	SyncedAt  *time.Time     `json:"syncedAt,omitempty"`
	Upstream  datatypes.JSON `json:"-"`
}
