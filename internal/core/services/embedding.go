package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// EmbeddingFactory constructs an embedding service on demand.
type EmbeddingFactory func() (driven.EmbeddingService, error)

// EmbeddingProvider lazily loads an embedding service and registers it with the
// resource budget. Each Embed call holds a model handle for its duration, so the
// budget can only evict the model between calls.
type EmbeddingProvider struct {
	factory EmbeddingFactory
	budget  *ResourceBudget
	name    string
	sizeMB  float64
	log     *logger.Logger

	mu  sync.Mutex
	svc driven.EmbeddingService
}

// NewEmbeddingProvider creates a provider. Nothing is loaded until first use.
// name is the budget registration key and sizeMB its approximate footprint.
func NewEmbeddingProvider(
	factory EmbeddingFactory,
	budget *ResourceBudget,
	name string,
	sizeMB float64,
	log *logger.Logger,
) *EmbeddingProvider {
	return &EmbeddingProvider{
		factory: factory,
		budget:  budget,
		name:    "embedding:" + name,
		sizeMB:  sizeMB,
		log:     log,
	}
}

// Name returns the budget registration key.
func (p *EmbeddingProvider) Name() string {
	return p.name
}

// Loaded reports whether the underlying service is currently instantiated.
func (p *EmbeddingProvider) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.svc != nil
}

// Embed maps texts to vectors, loading the model first if needed.
func (p *EmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	svc, handle, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	vectors, err := svc.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// Unload asks the budget to evict the model. It is a no-op when nothing is
// loaded, and fails with domain.ErrModelInUse while an Embed call is running.
func (p *EmbeddingProvider) Unload() error {
	if !p.Loaded() {
		return nil
	}
	return p.budget.UnloadModel(p.name)
}

func (p *EmbeddingProvider) acquire() (driven.EmbeddingService, *ModelHandle, error) {
	// Eviction runs other components' unloaders, which take their own locks,
	// so it must happen before p.mu is held.
	if !p.Loaded() && p.budget.ShouldUnloadModels() {
		evicted := p.budget.CleanupUnusedModels()
		p.log.Warn("Memory above %.0f MB, evicted %d idle models", p.budget.MaxMemoryMB(), len(evicted))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.svc != nil {
		handle, err := p.budget.Acquire(p.name)
		if err == nil {
			return p.svc, handle, nil
		}
		if !errors.Is(err, domain.ErrModelNotRegistered) {
			return nil, nil, err
		}
		// Evicted while its unloader waits for p.mu; that unloader closes the old instance.
		p.svc = nil
	}

	p.log.Debug("Loading embedding model %s", p.name)
	svc, err := p.factory()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	handle, err := p.budget.RegisterAndAcquire(p.name, p.sizeMB, func() { p.release(svc) })
	if err != nil {
		_ = svc.Close()
		return nil, nil, err
	}
	p.svc = svc
	return svc, handle, nil
}

// release is the budget's unloader for one loaded instance. It runs without
// the budget lock held.
func (p *EmbeddingProvider) release(svc driven.EmbeddingService) {
	p.mu.Lock()
	if p.svc == svc {
		p.svc = nil
	}
	p.mu.Unlock()

	if err := svc.Close(); err != nil {
		p.log.Warn("Closing embedding model %s: %v", p.name, err)
	}
}
