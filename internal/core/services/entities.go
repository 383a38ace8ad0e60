package services

import (
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// GazetteerBudgetName is the budget registration key of the optional entity model.
const GazetteerBudgetName = "nlp:gazetteer"

// RecognizerFactory loads an entity recogniser and reports its approximate size.
type RecognizerFactory func() (driven.EntityRecognizer, float64, error)

// EntityRecognizer serves entities from an optional heavyweight recogniser,
// loaded on first use and registered with the resource budget. When the
// recogniser cannot be loaded, or has been evicted and fails to reload, the
// fallback answers instead.
type EntityRecognizer struct {
	factory  RecognizerFactory
	fallback driven.EntityRecognizer
	budget   *ResourceBudget
	log      *logger.Logger

	mu     sync.Mutex
	rec    driven.EntityRecognizer
	failed bool
}

// Ensure EntityRecognizer implements the interface.
var _ driven.EntityRecognizer = (*EntityRecognizer)(nil)

// NewEntityRecognizer creates a lazy recogniser. A nil factory always uses fallback.
func NewEntityRecognizer(
	factory RecognizerFactory,
	fallback driven.EntityRecognizer,
	budget *ResourceBudget,
	log *logger.Logger,
) *EntityRecognizer {
	return &EntityRecognizer{factory: factory, fallback: fallback, budget: budget, log: log}
}

// Entities extracts entities from text.
func (r *EntityRecognizer) Entities(text string) []string {
	rec, handle := r.acquire()
	if rec == nil {
		return r.fallback.Entities(text)
	}
	defer handle.Release()
	return rec.Entities(text)
}

// Loaded reports whether the optional recogniser is in memory.
func (r *EntityRecognizer) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec != nil
}

func (r *EntityRecognizer) acquire() (driven.EntityRecognizer, *ModelHandle) {
	// Eviction runs other components' unloaders, which take their own locks,
	// so it must happen before r.mu is held.
	r.mu.Lock()
	load := r.factory != nil && !r.failed && r.rec == nil
	r.mu.Unlock()
	if load && r.budget.ShouldUnloadModels() {
		r.budget.CleanupUnusedModels()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.factory == nil || r.failed {
		return nil, nil
	}

	if r.rec != nil {
		handle, err := r.budget.Acquire(GazetteerBudgetName)
		if err != nil {
			return nil, nil
		}
		return r.rec, handle
	}

	rec, sizeMB, err := r.factory()
	if err != nil {
		r.failed = true
		r.log.Debug("Entity model unavailable, using built-in tagger: %v", err)
		return nil, nil
	}
	handle, err := r.budget.RegisterAndAcquire(GazetteerBudgetName, sizeMB, r.release)
	if err != nil {
		r.log.Debug("Entity model not registered: %v", err)
		return nil, nil
	}
	r.rec = rec
	return rec, handle
}

// release is the budget's unloader.
func (r *EntityRecognizer) release() {
	r.mu.Lock()
	r.rec = nil
	r.mu.Unlock()
}
