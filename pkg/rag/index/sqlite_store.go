package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"screening-onboarding-be/internal/model"
	"screening-onboarding-be/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sqliteFileName = "index.db"

// SQLiteBackend lays corpora out as <root>/<corpus>/index.db.
type SQLiteBackend struct {
	root string
}

func NewSQLiteBackend(root string) *SQLiteBackend {
	return &SQLiteBackend{root: root}
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Exists(ctx context.Context, corpus string) (bool, error) {
	info, err := os.Stat(filepath.Join(b.root, corpus))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (b *SQLiteBackend) Open(ctx context.Context, corpus string) (Store, error) {
	dir := filepath.Join(b.root, corpus)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}

	db, err := database.NewSQLiteDB(filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, fmt.Errorf("open sqlite index: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&model.IndexEntry{}); err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("migrate sqlite index: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

type SQLiteStore struct {
	db *gorm.DB
}

func (s *SQLiteStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]model.IndexEntry, 0, len(entries))
	for _, e := range entries {
		vec, err := json.Marshal(e.Vector)
		if err != nil {
			return fmt.Errorf("encode vector %s: %w", e.ID, err)
		}
		rows = append(rows, model.IndexEntry{
			Id:          e.ID,
			SourceId:    e.SourceID,
			ContentHash: e.ContentHash,
			Text:        e.Text,
			Vector:      vec,
		})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, 100).Error
}

// Nearest scans the whole corpus. Corpora are per-directory and small.
func (s *SQLiteStore) Nearest(ctx context.Context, vec []float32, k int) ([]Entry, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return rankNearest(entries, vec, k), nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]Entry, error) {
	var rows []model.IndexEntry
	if err := s.db.WithContext(ctx).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		var v []float32
		if err := json.Unmarshal(r.Vector, &v); err != nil {
			return nil, fmt.Errorf("decode vector %s: %w", r.Id, err)
		}
		entries = append(entries, Entry{
			ID:          r.Id,
			SourceID:    r.SourceId,
			ContentHash: r.ContentHash,
			Text:        r.Text,
			Vector:      v,
		})
	}
	return entries, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.IndexEntry{}).Count(&n).Error
	return int(n), err
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.IndexEntry{}).Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
