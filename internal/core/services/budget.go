package services

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// DefaultMaxMemoryMB is the resident-set ceiling used when none is configured.
const DefaultMaxMemoryMB = 2048

// ResourceBudget tracks heavyweight models and evicts them under memory pressure.
// Eviction is driven by explicit in-use counts: a model whose handles have all
// been released is reclaimable, a model with live handles is not.
type ResourceBudget struct {
	probe driven.MemoryProbe
	maxMB float64
	log   *logger.Logger

	mu     sync.Mutex
	models map[string]*registration
}

type registration struct {
	name   string
	sizeMB float64
	refs   int
	unload func()
}

// ModelHandle marks a registered model as in use until Release is called.
type ModelHandle struct {
	budget *ResourceBudget
	reg    *registration
	once   sync.Once
}

// NewResourceBudget creates a budget manager. probe may be nil, in which case
// memory is reported as zero and eviction never triggers.
func NewResourceBudget(probe driven.MemoryProbe, maxMemoryMB int, log *logger.Logger) *ResourceBudget {
	if maxMemoryMB <= 0 {
		maxMemoryMB = DefaultMaxMemoryMB
	}
	return &ResourceBudget{
		probe:  probe,
		maxMB:  float64(maxMemoryMB),
		log:    log,
		models: make(map[string]*registration),
	}
}

// MaxMemoryMB returns the configured ceiling.
func (b *ResourceBudget) MaxMemoryMB() float64 {
	return b.maxMB
}

// MemoryUsage returns the current process memory usage.
func (b *ResourceBudget) MemoryUsage() (domain.MemoryUsage, error) {
	if b.probe == nil {
		return domain.MemoryUsage{}, nil
	}
	return b.probe.Usage()
}

// ShouldUnloadModels reports whether resident memory exceeds the ceiling.
func (b *ResourceBudget) ShouldUnloadModels() bool {
	usage, err := b.MemoryUsage()
	if err != nil {
		b.log.Warn("Memory probe failed: %v", err)
		return false
	}
	return usage.RSSMB > b.maxMB
}

// RegisterModel starts tracking a model. unload releases the owner's reference
// and is called at most once.
func (b *ResourceBudget) RegisterModel(name string, sizeMB float64, unload func()) error {
	_, err := b.register(name, sizeMB, unload, false)
	return err
}

// RegisterAndAcquire registers a model and returns a handle to it in one step,
// so the model cannot be evicted before its first use.
func (b *ResourceBudget) RegisterAndAcquire(name string, sizeMB float64, unload func()) (*ModelHandle, error) {
	return b.register(name, sizeMB, unload, true)
}

func (b *ResourceBudget) register(name string, sizeMB float64, unload func(), acquire bool) (*ModelHandle, error) {
	b.mu.Lock()
	if _, ok := b.models[name]; ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("register %s: %w", name, domain.ErrAlreadyExists)
	}
	reg := &registration{name: name, sizeMB: sizeMB, unload: unload}
	var handle *ModelHandle
	if acquire {
		reg.refs = 1
		handle = &ModelHandle{budget: b, reg: reg}
	}
	b.models[name] = reg
	b.mu.Unlock()

	b.log.Info("Model '%s' loaded (~%.0f MB). Memory: %.1f MB", name, sizeMB, b.rssMB())
	return handle, nil
}

// IsRegistered reports whether the model is tracked.
func (b *ResourceBudget) IsRegistered(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.models[name]
	return ok
}

// Acquire marks a model as in use. The handle must be released.
func (b *ResourceBudget) Acquire(name string) (*ModelHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	reg, ok := b.models[name]
	if !ok {
		return nil, fmt.Errorf("acquire %s: %w", name, domain.ErrModelNotRegistered)
	}
	reg.refs++
	return &ModelHandle{budget: b, reg: reg}, nil
}

// Release ends the handle's use of the model. Calling it twice is harmless.
func (h *ModelHandle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.budget.mu.Lock()
		defer h.budget.mu.Unlock()
		if h.reg.refs > 0 {
			h.reg.refs--
		}
	})
}

// Name returns the model name the handle refers to.
func (h *ModelHandle) Name() string {
	return h.reg.name
}

// UnloadModel evicts a model that has no live handles.
func (b *ResourceBudget) UnloadModel(name string) error {
	b.mu.Lock()
	reg, ok := b.models[name]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("unload %s: %w", name, domain.ErrModelNotRegistered)
	}
	if reg.refs > 0 {
		b.mu.Unlock()
		return fmt.Errorf("unload %s: %w", name, domain.ErrModelInUse)
	}
	delete(b.models, name)
	b.mu.Unlock()

	b.evict([]*registration{reg})
	return nil
}

// CleanupUnusedModels evicts every model with no live handles and returns
// their names.
func (b *ResourceBudget) CleanupUnusedModels() []string {
	b.mu.Lock()
	var idle []*registration
	for name, reg := range b.models {
		if reg.refs == 0 {
			idle = append(idle, reg)
			delete(b.models, name)
		}
	}
	b.mu.Unlock()

	b.evict(idle)
	return names(idle)
}

// ForceCleanup evicts every model regardless of use.
func (b *ResourceBudget) ForceCleanup() []string {
	b.mu.Lock()
	all := make([]*registration, 0, len(b.models))
	for _, reg := range b.models {
		all = append(all, reg)
	}
	b.models = make(map[string]*registration)
	b.mu.Unlock()

	b.evict(all)
	return names(all)
}

// Models returns a snapshot of tracked models sorted by name.
func (b *ResourceBudget) Models() []domain.LoadedModel {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.LoadedModel, 0, len(b.models))
	for _, reg := range b.models {
		out = append(out, domain.LoadedModel{Name: reg.name, SizeMB: reg.sizeMB, InUse: reg.refs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// evict runs unloaders outside the lock, since they may re-enter the budget.
func (b *ResourceBudget) evict(regs []*registration) {
	if len(regs) == 0 {
		return
	}
	before := b.rssMB()
	for _, reg := range regs {
		if reg.unload != nil {
			reg.unload()
		}
	}
	runtime.GC()
	after := b.rssMB()
	for _, reg := range regs {
		b.log.Info("Model '%s' unloaded. Memory: %.1f MB -> %.1f MB", reg.name, before, after)
	}
}

func (b *ResourceBudget) rssMB() float64 {
	usage, err := b.MemoryUsage()
	if err != nil {
		return 0
	}
	return usage.RSSMB
}

func names(regs []*registration) []string {
	out := make([]string, len(regs))
	for i, reg := range regs {
		out[i] = reg.name
	}
	sort.Strings(out)
	return out
}
