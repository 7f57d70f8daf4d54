package model

import "time"

// CorpusManifest marks that a corpus has been opened for writing on the
// postgres backend, even if no entry was ever stored in it.
type CorpusManifest struct {
	Corpus    string    `gorm:"primaryKey;size:128"`
	Backend   string    `gorm:"size:32;not null"`
	BuiltAt   *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CorpusManifest) TableName() string {
	return "corpus_manifests"
}
