// Package diagnostics samples process resource usage on its own ticker at
// a fixed interval (cmd/tradesim starts it in paper mode only), generalized from the teacher's ServiceMonitor
// ticker-driven heartbeat loop (internal/modules/display/service_monitor.go)
// from an LED-indicator heartbeat to a structured log line, since no LED
// hardware exists in this domain.
package diagnostics

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Thresholds are the resource levels above which Monitor logs a warning
// instead of a debug line.
type Thresholds struct {
	CPUPercent    float64
	MemoryPercent float64
}

// DefaultThresholds mirrors a conservative single-run backtest/live
// footprint: most of the box's resources are expected to stay free.
var DefaultThresholds = Thresholds{CPUPercent: 80, MemoryPercent: 75}

// Monitor samples the current process's CPU and memory usage on a fixed
// interval and logs the result, warning once usage crosses Thresholds.
type Monitor struct {
	interval   time.Duration
	thresholds Thresholds
	log        zerolog.Logger
	proc       *process.Process
}

// New creates a Monitor for the current process.
func New(interval time.Duration, thresholds Thresholds, log zerolog.Logger) (*Monitor, error) {
	proc, err := process.NewProcess(int32(currentPID()))
	if err != nil {
		return nil, err
	}
	return &Monitor{
		interval:   interval,
		thresholds: thresholds,
		log:        log.With().Str("component", "diagnostics").Logger(),
		proc:       proc,
	}, nil
}

// Sample is one point-in-time resource reading.
type Sample struct {
	CPUPercent    float64
	MemoryPercent float32
	MemoryRSSMB   float64
	SystemLoad    float64
}

// Read takes one immediate sample without waiting for the ticker.
func (m *Monitor) Read() (Sample, error) {
	cpuPct, err := m.proc.CPUPercent()
	if err != nil {
		return Sample{}, err
	}
	memPct, err := m.proc.MemoryPercent()
	if err != nil {
		return Sample{}, err
	}
	memInfo, err := m.proc.MemoryInfo()
	var rssMB float64
	if err == nil && memInfo != nil {
		rssMB = float64(memInfo.RSS) / (1024 * 1024)
	}

	loadPct := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		loadPct = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		// Fold system-wide memory pressure into the warning check even
		// when this process's own footprint is small (spec §5: resource
		// discipline cares about the box, not just the run).
		if vm.UsedPercent > float64(memPct) {
			memPct = float32(vm.UsedPercent)
		}
	}

	return Sample{
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		MemoryRSSMB:   rssMB,
		SystemLoad:    loadPct,
	}, nil
}

// Run ticks every m.interval until ctx is canceled, logging each sample.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample, err := m.Read()
			if err != nil {
				m.log.Debug().Err(err).Msg("diagnostics: sample failed")
				continue
			}
			m.logSample(sample)
		}
	}
}

func (m *Monitor) logSample(s Sample) {
	event := m.log.Debug()
	if s.CPUPercent > m.thresholds.CPUPercent || float64(s.MemoryPercent) > m.thresholds.MemoryPercent {
		event = m.log.Warn()
	}
	event.
		Float64("cpu_percent", s.CPUPercent).
		Float32("memory_percent", s.MemoryPercent).
		Float64("memory_rss_mb", s.MemoryRSSMB).
		Msg("resource sample")
}
