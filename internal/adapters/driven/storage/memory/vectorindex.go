package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk

	// order keeps insertion order so equal distances sort stably.
	order []string
}

// NewVectorIndex creates an empty in-memory index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{chunks: make(map[string]domain.Chunk)}
}

// Add stores chunks. A repeated ID replaces the stored chunk.
func (v *VectorIndex) Add(_ context.Context, chunks []domain.Chunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range chunks {
		if _, exists := v.chunks[c.ID]; !exists {
			v.order = append(v.order, c.ID)
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		v.chunks[c.ID] = c
	}
	return nil
}

// ExistingIDs returns the subset of ids already stored.
func (v *VectorIndex) ExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	found := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := v.chunks[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

// Query returns up to n nearest chunks.
func (v *VectorIndex) Query(_ context.Context, embedding []float32, n int) ([]domain.SearchResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(v.order))
	for _, id := range v.order {
		c := v.chunks[id]
		results = append(results, domain.SearchResult{
			Text:     c.Text,
			Metadata: c.Metadata,
			Distance: domain.CosineDistance(embedding, c.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if n < 0 {
		n = 0
	}
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Reset removes every chunk.
func (v *VectorIndex) Reset(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.chunks = make(map[string]domain.Chunk)
	v.order = nil
	return nil
}

// DeleteByFileHash removes every chunk of one file.
func (v *VectorIndex) DeleteByFileHash(_ context.Context, fileHash string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.order[:0]
	for _, id := range v.order {
		if v.chunks[id].Metadata.FileHash == fileHash {
			delete(v.chunks, id)
			continue
		}
		kept = append(kept, id)
	}
	v.order = kept
	return nil
}

// Count returns the number of stored chunks.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks), nil
}

// Close is a no-op for the memory index.
func (v *VectorIndex) Close() error {
	return nil
}
