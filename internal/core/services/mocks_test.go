package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

type fakeProbe struct {
	mu  sync.Mutex
	rss float64
	err error
}

func (p *fakeProbe) Usage() (domain.MemoryUsage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.MemoryUsage{RSSMB: p.rss}, p.err
}

func (p *fakeProbe) set(rss float64) {
	p.mu.Lock()
	p.rss = rss
	p.mu.Unlock()
}

// fakeEmbedding maps each text to a vector derived from its length and first byte.
type fakeEmbedding struct {
	mu     sync.Mutex
	calls  int
	closed bool
	fail   func(texts []string) error
}

func (f *fakeEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		if err := f.fail(texts); err != nil {
			return nil, err
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		var first float32
		if len(t) > 0 {
			first = float32(t[0])
		}
		out[i] = []float32{float32(len(t)), first, 1}
	}
	return out, nil
}

func (f *fakeEmbedding) Dimensions() int              { return 3 }
func (f *fakeEmbedding) ModelName() string            { return "fake" }
func (f *fakeEmbedding) Ping(_ context.Context) error { return nil }

func (f *fakeEmbedding) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeGenerator struct {
	gen       domain.Generation
	fragments []string

	question string
	context  string
	results  []domain.SearchResult
	closed   bool
}

func (g *fakeGenerator) ProcessQuestion(
	_ context.Context,
	question, contextText string,
	results []domain.SearchResult,
	stream domain.StreamFunc,
) domain.Generation {
	g.question = question
	g.context = contextText
	g.results = results
	if stream != nil {
		for _, f := range g.fragments {
			stream(f)
		}
	}
	return g.gen
}

func (g *fakeGenerator) Kind() domain.GeneratorKind { return domain.GeneratorLocal }
func (g *fakeGenerator) Features() []string         { return []string{"tools"} }

func (g *fakeGenerator) Close() error {
	g.closed = true
	return nil
}

type fakeRecognizer struct {
	mu       sync.Mutex
	entities []string
	calls    int
}

func (r *fakeRecognizer) Entities(_ string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.entities
}

type fakeLoader struct {
	texts map[string]string
}

func (l *fakeLoader) Load(_ context.Context, path string) (string, error) {
	text, ok := l.texts[path]
	if !ok {
		return "", errors.New("unsupported file format: " + path)
	}
	return text, nil
}

func (l *fakeLoader) Supports(path string) bool {
	_, ok := l.texts[path]
	return ok
}

// lineSplitter returns each non-empty line as a chunk.
type lineSplitter struct{}

func (lineSplitter) Split(text string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if i > start {
				out = append(out, text[start:i])
			}
			start = i + 1
		}
	}
	return out
}
