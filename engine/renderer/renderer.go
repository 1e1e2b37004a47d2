// Package renderer implements the feedback render pipeline: a ping-pong
// texture pair driven by per-frame motion uniforms, with composite,
// mesh-warp, waveform, and presentation passes.
package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// MaxWavePoints bounds the waveform storage buffer; PCM windows are at
// most 2048 samples.
const MaxWavePoints = 2048

// Frame carries everything the pipeline needs to draw one frame: the
// packed uniform record, the optional per-pixel warp mesh with its
// CPU-updated UVs, and the optional waveform overlay.
type Frame struct {
	Uniforms FrameUniforms

	// UseMesh selects the mesh warp pass instead of the composite
	// transform; Mesh.UV must hold the per-vertex sample coordinates.
	UseMesh bool
	Mesh    *WarpMesh

	// DrawWave enables the waveform overlay.
	DrawWave   bool
	Wave       WaveUniforms
	WavePoints []WavePoint
}

// Renderer drives the feedback pipeline: each frame reads the previous
// ping-pong texture, writes the current one, overlays the waveform,
// presents, and swaps roles.
//
// All methods are frame-thread only.
type Renderer interface {
	// RenderFrame executes the warp/composite loop for one frame and
	// presents the result. The texture sampled is never the texture
	// written: prev and curr roles swap only after the frame completes.
	//
	// Parameters:
	//   - frame: the uniforms, mesh, and waveform data for this frame
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	RenderFrame(frame *Frame) error

	// Resize reconfigures the surface and recreates the ping-pong pair at
	// the new size.
	//
	// Parameters:
	//   - width: new surface width in pixels
	//   - height: new surface height in pixels
	Resize(width, height int)

	// CurrentTexture returns a view of the texture written last frame,
	// for external presenters.
	//
	// Returns:
	//   - *wgpu.TextureView: the most recently written feedback texture
	CurrentTexture() *wgpu.TextureView

	// Close releases GPU resources.
	Close()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend *wgpuBackend
}

var _ Renderer = &renderer{}

// RendererOption configures a Renderer during construction.
type RendererOption func(*rendererConfig)

type rendererConfig struct {
	meshCols, meshRows int
}

// WithMeshSize sets the warp mesh density (default 32×24 vertices).
func WithMeshSize(cols, rows int) RendererOption {
	return func(c *rendererConfig) {
		c.meshCols, c.meshRows = cols, rows
	}
}

// NewRenderer creates a Renderer targeting the given surface. A failure to
// acquire the GPU device or create a GPU resource panics, at construction and
// when Resize recreates the textures; failures while rendering a frame
// surface as a per-frame error.
//
// Parameters:
//   - surfaceDescriptor: platform surface from the window layer
//   - width, height: initial surface size in pixels
//   - options: functional options
//
// Returns:
//   - Renderer: the configured renderer
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererOption) Renderer {
	cfg := &rendererConfig{meshCols: DefaultMeshCols, meshRows: DefaultMeshRows}
	for _, opt := range options {
		opt(cfg)
	}
	return &renderer{
		backend: newWGPUBackend(surfaceDescriptor, width, height, cfg),
	}
}

func (r *renderer) RenderFrame(frame *Frame) error {
	return r.backend.RenderFrame(frame)
}

func (r *renderer) Resize(width, height int) {
	r.backend.Resize(width, height)
}

func (r *renderer) CurrentTexture() *wgpu.TextureView {
	return r.backend.CurrentTexture()
}

func (r *renderer) Close() {
	r.backend.Close()
}
