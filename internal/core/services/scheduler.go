package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/ragdesk/internal/logger"
)

// DefaultMonitorInterval is how often the monitor checks memory.
const DefaultMonitorInterval = time.Minute

// MemoryMonitor periodically evicts idle models while a long-running command
// is active. Models with live handles are never touched.
type MemoryMonitor struct {
	budget   *ResourceBudget
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewMemoryMonitor creates a monitor over budget.
func NewMemoryMonitor(budget *ResourceBudget, interval time.Duration, log *logger.Logger) *MemoryMonitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &MemoryMonitor{budget: budget, interval: interval, log: log}
}

// Start runs the check loop in the background. Calling it twice is a no-op.
func (m *MemoryMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(ctx, m.stopCh, m.done)
}

// Stop ends the loop and waits for it to exit.
func (m *MemoryMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
}

func (m *MemoryMonitor) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check evicts idle models if memory is over budget and returns their names.
func (m *MemoryMonitor) Check() []string {
	if !m.budget.ShouldUnloadModels() {
		return nil
	}
	evicted := m.budget.CleanupUnusedModels()
	if len(evicted) > 0 {
		m.log.Warn("Memory above %.0f MB, evicted %v", m.budget.MaxMemoryMB(), evicted)
	} else {
		m.log.Debug("Memory above %.0f MB but every model is in use", m.budget.MaxMemoryMB())
	}
	return evicted
}
