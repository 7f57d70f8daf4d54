package index

import (
	"context"
	"fmt"
	"time"

	"screening-onboarding-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PgVectorBackend stores every corpus in one corpus_entries table; the
// corpus_manifests row is the corpus artifact.
type PgVectorBackend struct {
	db *gorm.DB
}

func NewPgVectorBackend(db *gorm.DB) *PgVectorBackend {
	return &PgVectorBackend{db: db}
}

func (b *PgVectorBackend) Name() string { return "postgres" }

func (b *PgVectorBackend) Exists(ctx context.Context, corpus string) (bool, error) {
	var n int64
	err := b.db.WithContext(ctx).Model(&model.CorpusManifest{}).Where("corpus = ?", corpus).Count(&n).Error
	return n > 0, err
}

func (b *PgVectorBackend) Open(ctx context.Context, corpus string) (Store, error) {
	manifest := model.CorpusManifest{Corpus: corpus, Backend: b.Name()}
	if err := b.db.WithContext(ctx).Where(model.CorpusManifest{Corpus: corpus}).FirstOrCreate(&manifest).Error; err != nil {
		return nil, fmt.Errorf("register corpus %s: %w", corpus, err)
	}
	return &PgVectorStore{db: b.db, corpus: corpus}, nil
}

type PgVectorStore struct {
	db     *gorm.DB
	corpus string
}

func (s *PgVectorStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]model.CorpusEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, model.CorpusEntry{
			Corpus:      s.corpus,
			EntryId:     e.ID,
			SourceId:    e.SourceID,
			ContentHash: e.ContentHash,
			Text:        e.Text,
			Embedding:   pgvector.NewVector(e.Vector),
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, 100).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&model.CorpusManifest{}).Where("corpus = ?", s.corpus).Update("built_at", &now).Error
	})
}

func (s *PgVectorStore) Nearest(ctx context.Context, vec []float32, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, nil
	}
	var rows []model.CorpusEntry
	// <=> is cosine distance
	err := s.db.WithContext(ctx).
		Where("corpus = ?", s.corpus).
		Order(gorm.Expr("embedding <=> ?, created_at, entry_id", pgvector.NewVector(vec))).
		Limit(k).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{
			ID:          r.EntryId,
			SourceID:    r.SourceId,
			ContentHash: r.ContentHash,
			Text:        r.Text,
			Vector:      r.Embedding.Slice(),
		}
	}
	return entries, nil
}

func (s *PgVectorStore) All(ctx context.Context) ([]Entry, error) {
	var rows []model.CorpusEntry
	if err := s.db.WithContext(ctx).Where("corpus = ?", s.corpus).Order("created_at, entry_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{
			ID:          r.EntryId,
			SourceID:    r.SourceId,
			ContentHash: r.ContentHash,
			Text:        r.Text,
			Vector:      r.Embedding.Slice(),
		}
	}
	return entries, nil
}

func (s *PgVectorStore) Count(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CorpusEntry{}).Where("corpus = ?", s.corpus).Count(&n).Error
	return int(n), err
}

func (s *PgVectorStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("corpus = ?", s.corpus).Delete(&model.CorpusEntry{}).Error
}

// Close is a no-op; the connection pool belongs to the backend's owner.
func (s *PgVectorStore) Close() error { return nil }
