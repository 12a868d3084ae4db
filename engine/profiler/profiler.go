package profiler

import (
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/charmbracelet/log"
)

// Report is one interval's worth of statistics.
type Report struct {
	FPS float64
	// Frames and Aborted count every Tick and the ones the renderer dropped.
	Frames  int
	Aborted int
	// The draw and light figures are per-frame averages over the frames that rendered.
	GeometryDraws  float64
	ShadowDraws    float64
	WireframeDraws float64
	Lights         float64
	LightsSkipped  int
	HeapMB         float64
	AllocRateMB    float64
	GCCount        uint32
	LastPauseUs    uint64
	MaxPauseUs     uint64
	SysMB          float64
}

// Profiler tracks frame rate, memory and renderer statistics for performance monitoring.
// Outputs a report to the log at a configurable interval.
type Profiler struct {
	logger         *log.Logger
	now            func() time.Time
	frameCount     int
	aborted        int
	totals         deferred.FrameStats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Report
}

// NewProfiler creates a new Profiler with the provided options applied.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "profiler"})
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the renderer's statistics for that frame.
// Logs a report when the update interval has elapsed.
//
// Parameters:
//   - stats: the counters of the frame just rendered
//
// Returns:
//   - bool: true if a report was logged this tick, false otherwise
func (p *Profiler) Tick(stats deferred.FrameStats) bool {
	p.frameCount++
	if stats.Aborted {
		p.aborted++
	} else {
		p.totals.GeometryDraws += stats.GeometryDraws
		p.totals.ShadowDraws += stats.ShadowDraws
		p.totals.WireframeDraws += stats.WireframeDraws
		p.totals.DirectionalLights += stats.DirectionalLights
		p.totals.PointLights += stats.PointLights
		p.totals.LightsSkipped += stats.LightsSkipped
	}

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	r := Report{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		Frames:        p.frameCount,
		Aborted:       p.aborted,
		LightsSkipped: p.totals.LightsSkipped,
	}
	if rendered := p.frameCount - p.aborted; rendered > 0 {
		n := float64(rendered)
		r.GeometryDraws = float64(p.totals.GeometryDraws) / n
		r.ShadowDraws = float64(p.totals.ShadowDraws) / n
		r.WireframeDraws = float64(p.totals.WireframeDraws) / n
		r.Lights = float64(p.totals.DirectionalLights+p.totals.PointLights) / n
	}
	p.readMemory(&r, elapsed)
	p.last = r

	p.logger.Info("frame stats",
		"fps", formatFloat(r.FPS),
		"frames", r.Frames,
		"aborted", r.Aborted,
		"geometry", formatFloat(r.GeometryDraws),
		"shadow", formatFloat(r.ShadowDraws),
		"wireframe", formatFloat(r.WireframeDraws),
		"lights", formatFloat(r.Lights),
		"skipped", r.LightsSkipped,
		"heapMB", formatFloat(r.HeapMB),
		"allocMBps", formatFloat(r.AllocRateMB),
		"gc", r.GCCount,
		"lastPauseUs", r.LastPauseUs,
		"maxPauseUs", r.MaxPauseUs,
		"sysMB", formatFloat(r.SysMB),
	)

	p.frameCount = 0
	p.aborted = 0
	p.totals = deferred.FrameStats{}
	p.lastTime = currentTime
	return true
}

// Last returns the most recently logged report.
//
// Returns:
//   - Report: the last report, zero before the first interval elapses
func (p *Profiler) Last() Report {
	return p.last
}

func (p *Profiler) readMemory(r *Report, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn, Sys is the process footprint.
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > r.MaxPauseUs {
				r.MaxPauseUs = pause
			}
		}
	}
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}

func formatFloat(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
