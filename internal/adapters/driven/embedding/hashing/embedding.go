// Package hashing provides an in-process embedding service based on feature
// hashing. It needs no network and produces identical vectors for identical
// text across runs.
package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/nlp"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-384"
	DefaultDimensions = 384
)

// Config holds configuration for the hashing embedder.
type Config struct {
	// Dimensions is the vector size (default: 384).
	Dimensions int

	// Model is the reported model name (default: hashing-384).
	Model string
}

// EmbeddingService hashes unigrams and bigrams into a signed, L2-normalised
// vector.
type EmbeddingService struct {
	dimensions int
	model      string
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &EmbeddingService{dimensions: cfg.Dimensions, model: cfg.Model}
}

// Embed returns one vector per text.
func (s *EmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	vec := make([]float64, s.dimensions)

	var terms []string
	for _, tok := range nlp.Tokens(text) {
		if !nlp.IsStopword(tok) {
			terms = append(terms, tok)
		}
	}
	for i, term := range terms {
		s.add(vec, term, 1)
		if i > 0 {
			s.add(vec, terms[i-1]+" "+term, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, s.dimensions)
	if norm == 0 {
		// Text without terms still needs a valid direction for cosine scoring.
		out[0] = 1
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := sum % uint64(s.dimensions) //nolint:gosec // dimensions is positive
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model name.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *EmbeddingService) Close() error {
	return nil
}
