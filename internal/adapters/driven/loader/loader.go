package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// extractFunc turns raw file bytes into text.
type extractFunc func(path string, content []byte) (string, error)

// Loader reads files from disk and extracts their text.
type Loader struct {
	extractors map[string]extractFunc
	log        *logger.Logger
}

// New creates a loader with every supported format registered.
func New(log *logger.Logger) *Loader {
	return &Loader{
		extractors: map[string]extractFunc{
			".txt":  extractText,
			".md":   extractText,
			".csv":  extractCSV,
			".html": extractHTML,
			".htm":  extractHTML,
			".docx": extractDOCX,
			".pdf":  extractPDF,
		},
		log: log,
	}
}

// Extensions returns the registered extensions, unsorted.
func (l *Loader) Extensions() []string {
	exts := make([]string, 0, len(l.extractors))
	for ext := range l.extractors {
		exts = append(exts, ext)
	}
	return exts
}

// Supports reports whether the file extension has an extractor.
func (l *Loader) Supports(path string) bool {
	_, ok := l.extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads the file at path and returns its text content.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := l.extractors[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file format %q: %w", ext, domain.ErrUnsupportedType)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text, err := extract(path, content)
	if err != nil {
		l.log.Warn("Text extraction failed for %s: %v", path, err)
		return "", err
	}

	l.log.Debug("Loaded %s (%s, %d chars)", path, strings.TrimPrefix(ext, "."), len(text))
	return text, nil
}
