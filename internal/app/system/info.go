package system

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats describes the running gateway process.
type ProcessStats struct {
	PID           int32   `json:"pid"`
	Goroutines    int     `json:"goroutines"`
	RSSBytes      uint64  `json:"rssBytes,omitempty"`
	CPUPercent    float64 `json:"cpuPercent,omitempty"`
	OpenFiles     int32   `json:"openFiles,omitempty"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
}

// ProcessReporter samples statistics of the current process.
type ProcessReporter struct {
	proc    *process.Process
	started time.Time
}

// NewProcessReporter returns a reporter for the current process. Sampling
// degrades to runtime-only figures when the OS does not expose the process.
func NewProcessReporter() *ProcessReporter {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &ProcessReporter{proc: proc, started: time.Now()}
}

// Snapshot returns the current statistics.
func (r *ProcessReporter) Snapshot(ctx context.Context) ProcessStats {
	st := ProcessStats{
		PID:           int32(os.Getpid()),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(r.started).Seconds()),
	}
	if r.proc == nil {
		return st
	}
	if mem, err := r.proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		st.RSSBytes = mem.RSS
	}
	if cpu, err := r.proc.CPUPercentWithContext(ctx); err == nil {
		st.CPUPercent = cpu
	}
	if fds, err := r.proc.NumFDsWithContext(ctx); err == nil {
		st.OpenFiles = fds
	}
	return st
}
