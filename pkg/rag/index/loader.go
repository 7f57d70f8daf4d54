package index

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/pkg/rag/chunker"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadDir reads every supported file under dir in lexical order. Files that
// cannot be read or decode to blank text are skipped with a warning. A
// missing dir yields no documents.
func LoadDir(ctx context.Context, dir string, log logger.ILogger) ([]chunker.Document, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		log.Warn("INDEX", "Source directory does not exist", map[string]interface{}{"dir": dir})
		return nil, nil
	}

	var docs []chunker.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			log.Warn("INDEX", "Skipping unreadable path", map[string]interface{}{"path": path, "error": walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ct, ok := chunker.ContentTypeFor(d.Name())
		if !ok {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn("INDEX", "Skipping unreadable file", map[string]interface{}{"path": path, "error": err.Error()})
			return nil
		}
		text := decodeText(raw)
		if strings.TrimSpace(text) == "" {
			log.Warn("INDEX", "Skipping empty file", map[string]interface{}{"path": path})
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		docs = append(docs, chunker.Document{
			SourceID:    filepath.ToSlash(rel),
			ContentType: ct,
			Text:        text,
		})
		return nil
	})
	return docs, err
}

// decodeText reads UTF-8 and falls back to Latin-1 for anything else.
func decodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	return string(out)
}
