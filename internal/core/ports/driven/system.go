package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// MemoryProbe reads process memory usage.
type MemoryProbe interface {
	Usage() (domain.MemoryUsage, error)
}

// DocumentLoader extracts plain text from a file.
type DocumentLoader interface {
	// Load returns the text content of the file at path.
	// Returns domain.ErrUnsupportedType for unknown extensions.
	Load(ctx context.Context, path string) (string, error)

	// Supports reports whether the loader handles the file extension.
	Supports(path string) bool
}
