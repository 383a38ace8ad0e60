// Package system reads process-level resource usage.
package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Probe implements the interface.
var _ driven.MemoryProbe = (*Probe)(nil)

const bytesPerMB = 1024 * 1024

// Probe reports the memory footprint of a process.
type Probe struct {
	pid int32
}

// NewProbe creates a probe for the current process.
func NewProbe() *Probe {
	return &Probe{pid: int32(os.Getpid())} //nolint:gosec // pids fit in int32
}

// Usage returns RSS, VMS and the share of physical memory in use.
func (p *Probe) Usage() (domain.MemoryUsage, error) {
	proc, err := process.NewProcess(p.pid)
	if err != nil {
		return domain.MemoryUsage{}, fmt.Errorf("open process %d: %w", p.pid, err)
	}

	info, err := proc.MemoryInfo()
	if err != nil {
		return domain.MemoryUsage{}, fmt.Errorf("read memory info: %w", err)
	}

	percent, err := proc.MemoryPercent()
	if err != nil {
		return domain.MemoryUsage{}, fmt.Errorf("read memory percent: %w", err)
	}

	return domain.MemoryUsage{
		RSSMB:   float64(info.RSS) / bytesPerMB,
		VMSMB:   float64(info.VMS) / bytesPerMB,
		Percent: float64(percent),
	}, nil
}
