// Package chunker provides a deterministic, sentence-aware text chunker.
package chunker

import (
	"strings"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// DefaultMinChunk is the length at or below which chunks are dropped.
const DefaultMinChunk = 50

// boundaryWindow is how far back from a chunk end a sentence break is searched.
const boundaryWindow = 100

// Processor splits text into overlapping chunks, preferring to end each chunk
// at a sentence boundary. The same input always yields the same chunks, which
// keeps content-addressed chunk identities stable.
type Processor struct {
	chunkSize int
	overlap   int
	minChunk  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithMinChunk sets the length at or below which chunks are dropped.
func WithMinChunk(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minChunk = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		minChunk:  DefaultMinChunk,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split cuts text into chunks. Text no longer than one chunk is returned whole.
// Whitespace inside chunks is collapsed to single spaces.
func (p *Processor) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)

	if n <= p.chunkSize {
		if chunk := normalise(text); chunk != "" {
			return []string{chunk}
		}
		return nil
	}

	chunks := make([]string, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0
	for start < n {
		end := start + p.chunkSize
		if end < n {
			end = p.sentenceEnd(runes, start, end)
		}

		chunk := normalise(string(runes[start:min(end, n)]))
		if len([]rune(chunk)) > p.minChunk {
			chunks = append(chunks, chunk)
		}

		next := end - p.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// sentenceEnd searches back from end for '.', '!' or '?' and returns the
// position just after it, or end when no break is close enough.
func (p *Processor) sentenceEnd(runes []rune, start, end int) int {
	floor := max(start+p.chunkSize-boundaryWindow, start)
	for i := end; i > floor; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return end
}

func normalise(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
