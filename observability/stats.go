package observability

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats is the payload of /debug/stats: OS-level self metrics plus Go
// runtime figures.
type ProcessStats struct {
	PID           int     `json:"pid"`
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent"`
	RSSBytes      uint64  `json:"rss_bytes"`
	Goroutines    int     `json:"goroutines"`
	AllocMemMB    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// StatsCollector samples the current process on demand.
type StatsCollector struct {
	mu      sync.Mutex
	proc    *process.Process
	started time.Time
}

func NewStatsCollector() (*StatsCollector, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &StatsCollector{proc: p, started: time.Now()}, nil
}

func (s *StatsCollector) Collect() (ProcessStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memInfo, err := s.proc.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := s.proc.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := s.proc.Status()
	if err != nil {
		return ProcessStats{}, err
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessStats{
		PID:           os.Getpid(),
		Status:        status,
		CPUPercent:    cpuPercent,
		RSSBytes:      memInfo.RSS,
		Goroutines:    runtime.NumGoroutine(),
		AllocMemMB:    m.Alloc / 1024 / 1024,
		NumGC:         m.NumGC,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}, nil
}
