package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Thread stores the whole conversation state as one JSON document. The
// scalar columns duplicate parts of it for querying.
type Thread struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Workflow    string         `gorm:"size:64;index;not null"`
	Locale      string         `gorm:"size:8"`
	CurrentStep string         `gorm:"size:64"`
	Completed   bool           `gorm:"not null;default:false"`
	State       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (Thread) TableName() string {
	return "threads"
}
