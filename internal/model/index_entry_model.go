package model

import (
	"time"

	"gorm.io/datatypes"
)

// IndexEntry is a row in a per-corpus sqlite index file. The vector is kept
// as a JSON array since sqlite has no vector type.
type IndexEntry struct {
	Id          string         `gorm:"primaryKey;size:40"`
	SourceId    string         `gorm:"index;not null"`
	ContentHash string         `gorm:"size:40;not null"`
	Text        string         `gorm:"type:text"`
	Vector      datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (IndexEntry) TableName() string {
	return "index_entries"
}
