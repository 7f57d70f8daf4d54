package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type CorpusEntry struct {
	Corpus      string          `gorm:"primaryKey;size:128"`
	EntryId     string          `gorm:"primaryKey;size:40"`
	SourceId    string          `gorm:"index;not null"`
	ContentHash string          `gorm:"size:40;not null"`
	Text        string          `gorm:"type:text"`
	Embedding   pgvector.Vector `gorm:"type:vector"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (CorpusEntry) TableName() string {
	return "corpus_entries"
}
