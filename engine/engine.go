// Package engine orchestrates the visualizer: per-frame it analyzes audio,
// runs the active preset's equation program, packs the frame uniforms, and
// drives the feedback render pipeline.
package engine

import (
	"log"
	"strings"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/all3f0r1/OneDrop/engine/audio"
	"github.com/all3f0r1/OneDrop/engine/beat"
	"github.com/all3f0r1/OneDrop/engine/expr"
	"github.com/all3f0r1/OneDrop/engine/manager"
	"github.com/all3f0r1/OneDrop/engine/preset"
	"github.com/all3f0r1/OneDrop/engine/profiler"
	"github.com/all3f0r1/OneDrop/engine/renderer"
)

// Engine is the per-frame orchestrator and the host-facing API surface.
// All methods are frame-thread only.
type Engine interface {
	// LoadPreset activates the preset at the given path, or parses the
	// argument directly when it is preset text. A preset that fails to
	// load is replaced by the compiled-in default; LoadPreset never
	// leaves the engine without a working preset.
	//
	// Parameters:
	//   - pathOrText: a filesystem path or raw .milk text
	//
	// Returns:
	//   - error: for preset text, the parse failure, after the fallback is
	//     active; nil for a path, even when the fallback replaced it
	LoadPreset(pathOrText string) error

	// LoadPresetText activates a preset from raw .milk text, bypassing the
	// path heuristic of LoadPreset.
	LoadPresetText(text string) error

	// Tick advances one frame: analyzes the audio window, runs beat
	// detection, evaluates the per-frame (and per-pixel) blocks, packs
	// uniforms, and renders. Equation failures never abort the frame.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous tick
	//   - audioWindow: the most recent PCM window (may be empty)
	//
	// Returns:
	//   - *beat.PresetChange: a preset-change request, or nil
	Tick(deltaTime float64, audioWindow []float32) *beat.PresetChange

	// Resize propagates a new surface size to the render pipeline.
	Resize(width, height int)

	// SetBeatMode switches the beat detector's mode.
	SetBeatMode(mode beat.Mode)

	// NextBeatMode cycles the beat detector to its next mode.
	NextBeatMode()

	// CurrentTexture returns the most recently rendered feedback texture
	// for external presenters, or nil when running headless.
	CurrentTexture() *wgpu.TextureView

	// Environment exposes the active preset's variable environment.
	Environment() *expr.Env

	// CurrentPreset returns the active preset.
	CurrentPreset() *preset.Preset

	// Presets returns the preset catalog manager.
	Presets() *manager.Manager

	// LastUniforms returns the uniform record packed by the latest Tick.
	LastUniforms() renderer.FrameUniforms

	// Close releases engine resources.
	Close()
}

// engine implements the Engine interface.
type engine struct {
	rend     renderer.Renderer
	analyzer *audio.Analyzer
	detector *beat.Detector
	presets  *manager.Manager

	prof             *profiler.Profiler
	profilingEnabled bool

	env  *expr.Env
	eval *expr.Evaluator

	current      *preset.Preset
	perFrameInit *expr.Block
	perFrame     *expr.Block
	perPixel     *expr.Block

	perFrameWarned bool
	perPixelWarned bool

	mesh  *renderer.WarpMesh
	frame renderer.Frame

	width, height int
	time          float64
	frameNum      uint64
	beatValue     float64

	seed            int64
	perPixelEnabled bool
	waveEnabled     bool
	headlessWarned  bool
}

var _ Engine = &engine{}

// New creates an engine at the given surface size and activates the
// default preset, so the first Tick already renders. Without a renderer
// option the engine runs headless: equations, audio, and beat detection
// work, rendering is skipped.
//
// Parameters:
//   - width, height: surface size in pixels
//   - options: functional options (renderer, analyzer, detector, ...)
//
// Returns:
//   - Engine: the configured engine
//   - error: always nil; an invalid embedded default preset panics in
//     preset.Default instead
func New(width, height int, options ...BuilderOption) (Engine, error) {
	e := &engine{
		width:           width,
		height:          height,
		prof:            profiler.NewProfiler(),
		seed:            1,
		perPixelEnabled: true,
		waveEnabled:     true,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.analyzer == nil {
		e.analyzer = audio.NewAnalyzer(44100)
	}
	if e.detector == nil {
		e.detector = beat.NewDetector()
	}
	if e.presets == nil {
		e.presets = manager.New()
	}
	e.mesh = renderer.NewWarpMesh(renderer.DefaultMeshCols, renderer.DefaultMeshRows)

	e.activate(preset.Default())
	return e, nil
}

// LoadPreset activates a preset from a path or from raw text. Anything
// containing a newline or a section header is treated as preset text.
func (e *engine) LoadPreset(pathOrText string) error {
	if strings.ContainsRune(pathOrText, '\n') || strings.HasPrefix(pathOrText, "[preset") ||
		strings.HasPrefix(pathOrText, "MILKDROP_PRESET_VERSION") {
		return e.loadText(pathOrText)
	}
	p := e.presets.SafeLoad(pathOrText)
	e.activate(p)
	return nil
}

// LoadPresetText activates a preset from raw text.
func (e *engine) LoadPresetText(text string) error {
	return e.loadText(text)
}

func (e *engine) loadText(text string) error {
	p, err := preset.Parse(text)
	if err != nil {
		log.Printf("engine: preset text failed to parse: %v; using default preset", err)
		e.activate(preset.Default())
		return err
	}
	e.activate(p)
	return nil
}

// activate installs a preset: fresh environment, recompiled blocks, and a
// single run of the per-frame init block. The engine clock restarts so
// time-based equations begin from zero.
func (e *engine) activate(p *preset.Preset) {
	e.current = p
	e.env = expr.NewEnv()
	e.eval = expr.NewEvaluator(e.env, e.seed)
	e.time = 0
	e.frameNum = 0
	e.beatValue = 0
	e.perFrameWarned = false
	e.perPixelWarned = false
	e.analyzer.Reset()

	e.seedEnvironment()

	e.perFrameInit = e.eval.Compile(p.PerFrameInit)
	e.perFrame = e.eval.Compile(p.PerFrame)
	e.perPixel = e.eval.Compile(p.PerPixel)

	if p.WarpShader != "" || p.CompShader != "" {
		log.Printf("engine: preset carries custom shaders; using the fixed pipeline")
	}

	var initWarned bool
	e.eval.RunLogged(e.perFrameInit, "per-frame-init", &initWarned)
}

// seedEnvironment writes the static parameters and built-in scalars a
// fresh environment starts from.
func (e *engine) seedEnvironment() {
	params := &e.current.Parameters
	e.copyParams(params)

	e.env.Set("time", 0)
	e.env.Set("frame", 0)
	e.env.Set("fps", 60)
	e.env.Set("bass", 0)
	e.env.Set("mid", 0)
	e.env.Set("treb", 0)
	e.env.Set("bass_att", 0)
	e.env.Set("mid_att", 0)
	e.env.Set("treb_att", 0)
	e.env.Set("vol", 0)
	e.env.Set("beat", 0)
	e.env.Set("aspecty", e.aspectY())

	e.env.Set("gamma", params.GammaAdj)
	e.env.Set("echo_zoom", params.VideoEchoZoom)
	e.env.Set("echo_alpha", params.VideoEchoAlpha)
	e.env.Set("darken_center", boolScalar(params.DarkenCenter))
	e.env.Set("wrap", boolScalar(params.TexWrap))
}

// copyParams resets the motion and color scalars to the preset's static
// parameters. Runs every frame before the per-frame block so equations
// always start from the declared values; user variables and q-slots are
// untouched.
func (e *engine) copyParams(params *preset.Parameters) {
	e.env.Set("zoom", params.Zoom)
	e.env.Set("rot", params.Rot)
	e.env.Set("cx", params.CX)
	e.env.Set("cy", params.CY)
	e.env.Set("dx", params.DX)
	e.env.Set("dy", params.DY)
	e.env.Set("sx", params.SX)
	e.env.Set("sy", params.SY)
	e.env.Set("warp", params.Warp)
	e.env.Set("decay", params.Decay)

	e.env.Set("wave_r", params.WaveR)
	e.env.Set("wave_g", params.WaveG)
	e.env.Set("wave_b", params.WaveB)
	e.env.Set("wave_a", params.WaveAlpha)
	e.env.Set("wave_x", params.WaveX)
	e.env.Set("wave_y", params.WaveY)
	e.env.Set("wave_mode", float64(params.WaveMode))
	e.env.Set("wave_scale", params.WaveScale)

	e.env.Set("brighten", boolScalar(params.Brighten))
	e.env.Set("darken", boolScalar(params.Darken))
	e.env.Set("solarize", boolScalar(params.Solarize))
	e.env.Set("invert", boolScalar(params.Invert))
}

// Tick advances one frame. See the Engine interface for the contract.
func (e *engine) Tick(deltaTime float64, audioWindow []float32) *beat.PresetChange {
	if deltaTime <= 0 || deltaTime > 1 {
		deltaTime = 1.0 / 60.0
	}
	e.time += deltaTime
	e.frameNum++
	fps := 1.0 / deltaTime
	if fps > 1000 {
		fps = 1000
	}

	levels := e.analyzer.Analyze(audioWindow)
	change := e.detector.Observe(e.time, levels.Bass, levels.Mid, levels.Treb)

	if change != nil {
		e.beatValue = 1.0
	} else {
		e.beatValue *= 0.9
	}

	e.env.Set("time", e.time)
	e.env.Set("frame", float64(e.frameNum))
	e.env.Set("fps", fps)
	e.env.Set("bass", levels.Bass)
	e.env.Set("mid", levels.Mid)
	e.env.Set("treb", levels.Treb)
	e.env.Set("bass_att", levels.BassAtt)
	e.env.Set("mid_att", levels.MidAtt)
	e.env.Set("treb_att", levels.TrebAtt)
	e.env.Set("vol", levels.Vol)
	e.env.Set("beat", e.beatValue)
	e.env.Set("aspecty", e.aspectY())

	e.copyParams(&e.current.Parameters)

	evalStart := time.Now()
	e.eval.RunLogged(e.perFrame, "per-frame", &e.perFrameWarned)
	e.packUniforms()

	useMesh := e.perPixelEnabled && !e.perPixel.Empty()
	if useMesh {
		e.runPerPixel()
	}
	e.prof.AddPhase(profiler.PhaseEquations, time.Since(evalStart))

	e.frame.UseMesh = useMesh
	e.frame.Mesh = e.mesh
	e.buildWave(audioWindow)

	if e.rend != nil {
		renderStart := time.Now()
		if err := e.rend.RenderFrame(&e.frame); err != nil {
			log.Printf("engine: frame skipped: %v", err)
		}
		e.prof.AddPhase(profiler.PhaseRender, time.Since(renderStart))
	} else if !e.headlessWarned {
		log.Printf("engine: no renderer configured; running headless")
		e.headlessWarned = true
	}

	if e.profilingEnabled {
		e.prof.Tick()
	}
	return change
}

// packUniforms harvests the motion and color scalars from the environment
// into the frame uniform record.
func (e *engine) packUniforms() {
	u := &e.frame.Uniforms
	u.Resolution = [2]float32{float32(e.width), float32(e.height)}
	u.Time = float32(e.time)
	u.Decay = float32(e.env.GetOr("decay", 0.98))
	u.Zoom = float32(e.env.GetOr("zoom", 1))
	u.Rot = float32(e.env.GetOr("rot", 0))
	u.CX = float32(e.env.GetOr("cx", 0.5))
	u.CY = float32(e.env.GetOr("cy", 0.5))
	u.DX = float32(e.env.GetOr("dx", 0))
	u.DY = float32(e.env.GetOr("dy", 0))
	u.SX = float32(e.env.GetOr("sx", 1))
	u.SY = float32(e.env.GetOr("sy", 1))
	u.Warp = float32(e.env.GetOr("warp", 0))
	u.Brighten = flagScalar(e.env.GetOr("brighten", 0))
	u.Darken = flagScalar(e.env.GetOr("darken", 0))
	u.Solarize = flagScalar(e.env.GetOr("solarize", 0))
	u.Invert = flagScalar(e.env.GetOr("invert", 0))
	u.Pad0, u.Pad1, u.Pad2 = 0, 0, 0
}

// runPerPixel evaluates the per-pixel block on the warp mesh grid and
// rewrites the mesh UVs with each vertex's warped sample coordinate.
// Mutations to anything but q-slots are confined to the pass.
func (e *engine) runPerPixel() {
	e.env.BeginPixelPass()
	for j := 0; j < e.mesh.Rows; j++ {
		for i := 0; i < e.mesh.Cols; i++ {
			x, y, rad, ang := e.mesh.VertexUV(i, j)
			e.env.SetPixel(x, y, rad, ang)
			failed := e.eval.Run(e.perPixel)
			if failed > 0 && !e.perPixelWarned {
				log.Printf("engine: per-pixel block has %d failing statement(s); continuing", failed)
				e.perPixelWarned = true
			}

			m := renderer.MotionParams{
				Zoom: e.env.GetOr("zoom", 1),
				Rot:  e.env.GetOr("rot", 0),
				CX:   e.env.GetOr("cx", 0.5),
				CY:   e.env.GetOr("cy", 0.5),
				DX:   e.env.GetOr("dx", 0),
				DY:   e.env.GetOr("dy", 0),
				SX:   e.env.GetOr("sx", 1),
				SY:   e.env.GetOr("sy", 1),
				Warp: e.env.GetOr("warp", 0),
			}
			u, v := renderer.WarpUV(x, y, m, e.time)
			e.mesh.SetVertexUV(i, j, u, v)

			// Restore the frame's scalars so the next vertex starts clean.
			e.copyMotionFromFrame()
		}
	}
	e.env.EndPixelPass()
}

// copyMotionFromFrame re-seeds the motion scalars from the packed frame
// uniforms between vertices, since the per-pixel block may overwrite them.
func (e *engine) copyMotionFromFrame() {
	u := &e.frame.Uniforms
	e.env.Set("zoom", float64(u.Zoom))
	e.env.Set("rot", float64(u.Rot))
	e.env.Set("cx", float64(u.CX))
	e.env.Set("cy", float64(u.CY))
	e.env.Set("dx", float64(u.DX))
	e.env.Set("dy", float64(u.DY))
	e.env.Set("sx", float64(u.SX))
	e.env.Set("sy", float64(u.SY))
	e.env.Set("warp", float64(u.Warp))
}

// buildWave fills the waveform overlay data from the PCM window and the
// wave scalars left by the per-frame block.
func (e *engine) buildWave(audioWindow []float32) {
	alpha := e.env.GetOr("wave_a", 0.8)
	if !e.waveEnabled || len(audioWindow) < 2 || alpha <= 0 {
		e.frame.DrawWave = false
		return
	}

	count := len(audioWindow)
	if count > renderer.MaxWavePoints {
		count = renderer.MaxWavePoints
	}
	if cap(e.frame.WavePoints) < count {
		e.frame.WavePoints = make([]renderer.WavePoint, count)
	}
	e.frame.WavePoints = e.frame.WavePoints[:count]
	stride := len(audioWindow) / count
	for i := 0; i < count; i++ {
		e.frame.WavePoints[i] = renderer.WavePoint{
			Position: [2]float32{float32(i) / float32(count-1), 0.5},
			Value:    audioWindow[i*stride],
		}
	}

	params := &e.current.Parameters
	thickness := float32(0.002)
	if params.WaveThick || params.WaveDots {
		thickness = 0.006
	}
	e.frame.DrawWave = true
	e.frame.Wave = renderer.WaveUniforms{
		Color: [4]float32{
			float32(e.env.GetOr("wave_r", 1)),
			float32(e.env.GetOr("wave_g", 1)),
			float32(e.env.GetOr("wave_b", 1)),
			float32(alpha),
		},
		Position: [2]float32{
			float32(e.env.GetOr("wave_x", 0.5)),
			float32(e.env.GetOr("wave_y", 0.5)),
		},
		Scale:     float32(e.env.GetOr("wave_scale", 1)),
		Thickness: thickness,
		Mode:      uint32(e.env.GetOr("wave_mode", 0)),
		Dots:      flagScalar(boolScalar(params.WaveDots)),
		Count:     uint32(count),
	}
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.width, e.height = width, height
	if e.rend != nil {
		e.rend.Resize(width, height)
	}
}

func (e *engine) SetBeatMode(mode beat.Mode) {
	e.detector.SetMode(mode)
	log.Printf("engine: beat mode %s", mode)
}

func (e *engine) NextBeatMode() {
	e.detector.NextMode()
	log.Printf("engine: beat mode %s", e.detector.Mode())
}

func (e *engine) CurrentTexture() *wgpu.TextureView {
	if e.rend == nil {
		return nil
	}
	return e.rend.CurrentTexture()
}

func (e *engine) Environment() *expr.Env { return e.env }

func (e *engine) CurrentPreset() *preset.Preset { return e.current }

func (e *engine) Presets() *manager.Manager { return e.presets }

func (e *engine) LastUniforms() renderer.FrameUniforms { return e.frame.Uniforms }

func (e *engine) Close() {
	if e.rend != nil {
		e.rend.Close()
	}
}

func (e *engine) aspectY() float64 {
	if e.height == 0 {
		return 1
	}
	return float64(e.width) / float64(e.height)
}

func boolScalar(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func flagScalar(v float64) uint32 {
	if v != 0 {
		return 1
	}
	return 0
}
