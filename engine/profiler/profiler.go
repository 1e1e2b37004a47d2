// Package profiler reports frame rate, per-phase timings, and memory
// statistics for the visualizer's frame loop.
package profiler

import (
	"log"
	"runtime"
	"time"
)

// Phase identifies a timed section of the frame.
type Phase int

const (
	// PhaseEquations covers per-frame and per-pixel equation evaluation.
	PhaseEquations Phase = iota
	// PhaseRender covers GPU command encoding and submission.
	PhaseRender

	phaseCount
)

var phaseNames = [phaseCount]string{"eval", "render"}

// Profiler tracks frame rate, accumulated phase durations, and memory
// statistics, logging a summary line at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration

	phaseTotals [phaseCount]time.Duration

	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler with a 1-second reporting interval.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetInterval changes the reporting interval.
func (p *Profiler) SetInterval(interval time.Duration) {
	if interval > 0 {
		p.updateInterval = interval
	}
}

// Measure times fn and accrues its duration to phase.
func (p *Profiler) Measure(phase Phase, fn func()) {
	start := time.Now()
	fn()
	p.phaseTotals[phase] += time.Since(start)
}

// AddPhase accrues an externally measured duration to phase.
func (p *Profiler) AddPhase(phase Phase, d time.Duration) {
	p.phaseTotals[phase] += d
}

// Tick should be called once per frame. Logs a summary (FPS, mean phase
// times, heap and allocation rate) when the interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	evalMean := p.meanPhase(PhaseEquations)
	renderMean := p.meanPhase(PhaseRender)

	log.Printf("[Profiler] FPS: %.2f | eval: %s | render: %s | Heap: %.2f MB | Alloc Rate: %.2f MB/s",
		fps, evalMean, renderMean, allocMB, allocRateMB)

	p.frameCount = 0
	p.lastTime = now
	p.lastTotalAlloc = p.memStats.TotalAlloc
	for i := range p.phaseTotals {
		p.phaseTotals[i] = 0
	}
	return true
}

func (p *Profiler) meanPhase(phase Phase) time.Duration {
	if p.frameCount == 0 {
		return 0
	}
	return p.phaseTotals[phase] / time.Duration(p.frameCount)
}

// PhaseName returns the display name of a phase.
func PhaseName(phase Phase) string {
	if phase < 0 || phase >= phaseCount {
		return "unknown"
	}
	return phaseNames[phase]
}
