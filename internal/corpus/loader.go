// Package corpus loads plain-text documents from a directory.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragline/internal/domain"
)

// Loader enumerates *.txt files in a directory and yields raw documents
// with sequential ids. Blank and unreadable files are skipped.
type Loader struct {
	logger *zap.Logger
}

// New creates a corpus loader.
func New(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads every *.txt file under dir. File order is directory-enumeration
// order. Files with blank content are logged and skipped; a read error on one
// file skips that file, not the whole load.
func (l *Loader) Load(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %s: %w", dir, err)
	}

	var docs []domain.Document
	id := 1
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Error("Failed to read document", zap.String("file", path), zap.Error(err))
			continue
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			l.logger.Warn("Skipping blank document", zap.String("file", path))
			continue
		}
		docs = append(docs, domain.Document{ID: strconv.Itoa(id), Content: content})
		l.logger.Info("Document loaded", zap.String("file", path), zap.String("id", strconv.Itoa(id)))
		id++
	}

	if len(docs) == 0 {
		l.logger.Warn("No documents loaded", zap.String("dir", dir))
	}
	return docs, nil
}
