package engine

import (
	"github.com/all3f0r1/OneDrop/engine/audio"
	"github.com/all3f0r1/OneDrop/engine/beat"
	"github.com/all3f0r1/OneDrop/engine/manager"
	"github.com/all3f0r1/OneDrop/engine/renderer"
)

// BuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options applied during New.
type BuilderOption func(*engine)

// WithRenderer attaches the render pipeline. Without one the engine runs
// headless: equations, audio analysis, and beat detection still work.
//
// Parameters:
//   - r: the renderer to drive each frame
//
// Returns:
//   - BuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) BuilderOption {
	return func(e *engine) { e.rend = r }
}

// WithAnalyzer substitutes a configured audio analyzer (sample rate,
// channel count, attenuation).
func WithAnalyzer(a *audio.Analyzer) BuilderOption {
	return func(e *engine) { e.analyzer = a }
}

// WithBeatDetector substitutes a configured beat detector.
func WithBeatDetector(d *beat.Detector) BuilderOption {
	return func(e *engine) { e.detector = d }
}

// WithPresetManager substitutes a configured preset manager.
func WithPresetManager(m *manager.Manager) BuilderOption {
	return func(e *engine) { e.presets = m }
}

// WithSeed seeds the expression engine's rand() source so frames are
// reproducible. Defaults to 1.
func WithSeed(seed int64) BuilderOption {
	return func(e *engine) { e.seed = seed }
}

// WithProfiling enables the per-interval profiler log line.
func WithProfiling(enabled bool) BuilderOption {
	return func(e *engine) { e.profilingEnabled = enabled }
}

// WithPerPixel enables or disables per-pixel mesh evaluation. Enabled by
// default; disabling falls back to the uniform composite transform.
func WithPerPixel(enabled bool) BuilderOption {
	return func(e *engine) { e.perPixelEnabled = enabled }
}

// WithWaveform enables or disables the waveform overlay. Enabled by default.
func WithWaveform(enabled bool) BuilderOption {
	return func(e *engine) { e.waveEnabled = enabled }
}
