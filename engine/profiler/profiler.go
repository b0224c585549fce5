package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-post/common"
)

// DefaultRecompileBudget is one frame at 60 Hz.
const DefaultRecompileBudget = 16 * time.Millisecond

// Profiler tracks frame rate, memory statistics and program reconfiguration latency.
// Frame stats go to the engine logger at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	// recompiles are reported from whichever goroutine configures, so they get their own lock
	mu              sync.Mutex
	recompileBudget time.Duration
	recompiles      int
	overBudget      int
	slowest         time.Duration
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second and the recompile budget to DefaultRecompileBudget.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		frameCount:      0,
		lastTime:        time.Now(),
		updateInterval:  time.Second,
		memStats:        runtime.MemStats{},
		recompileBudget: DefaultRecompileBudget,
	}
}

// SetRecompileBudget sets how long a single program reconfiguration may take before it is
// reported. Zero or negative restores DefaultRecompileBudget.
//
// Parameters:
//   - budget: the allowed configure time
func (p *Profiler) SetRecompileBudget(budget time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recompileBudget = common.Coalesce(max(budget, 0), DefaultRecompileBudget)
}

// ObserveRecompile records one program reconfiguration and warns when it exceeded the budget.
// Its signature matches postfx.WithConfigureObserver.
//
// Parameters:
//   - program: the pipeline key that was configured
//   - elapsed: how long the configure took
func (p *Profiler) ObserveRecompile(program string, elapsed time.Duration) {
	p.mu.Lock()
	p.recompiles++
	p.slowest = max(p.slowest, elapsed)
	budget := p.recompileBudget
	over := elapsed > budget
	if over {
		p.overBudget++
	}
	p.mu.Unlock()

	if over {
		common.Logger().Warn("program reconfiguration over frame budget",
			"pipeline", program, "elapsed", elapsed, "budget", budget)
	}
}

// RecompileStats returns the reconfiguration counters.
//
// Returns:
//   - count: reconfigurations observed
//   - overBudget: how many of them exceeded the budget
//   - slowest: the longest one
func (p *Profiler) RecompileStats() (count, overBudget int, slowest time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recompiles, p.overBudget, p.slowest
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	// TotalAlloc only grows, so the delta is the churn since the last report
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	recompiles, overBudget, slowest := p.RecompileStats()
	common.Logger().Info("profiler",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
		"recompiles", recompiles,
		"recompiles_over_budget", overBudget,
		"recompile_slowest", slowest,
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
