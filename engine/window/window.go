// Package window provides the GLFW host window the visualizer renders
// into, exposing the WebGPU surface descriptor and the input events a
// visualizer host cares about.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling for the
// visualizer host.
type Window interface {
	// SetUpdateCallback sets the function called each message loop
	// iteration; the host drives the engine tick from here.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is
	// resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events. The host
	// maps keys to preset navigation and beat-mode cycling.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for
	// creating a WebGPU surface for this window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific descriptor, or nil if uninitialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true while the window is open.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	Close() error

	// ProcessMessages runs the message loop, blocking until the window
	// closes. The update callback fires each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// visualizerWindow is the implementation of the Window interface.
type visualizerWindow struct {
	title  string
	width  int
	height int

	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
}

var _ Window = &visualizerWindow{}

// WindowBuilderOption is a functional option for configuring a window.
type WindowBuilderOption func(*visualizerWindow)

// WithTitle sets the window title.
func WithTitle(title string) WindowBuilderOption {
	return func(w *visualizerWindow) { w.title = title }
}

// WithSize sets the initial window size in pixels.
func WithSize(width, height int) WindowBuilderOption {
	return func(w *visualizerWindow) {
		w.width = width
		w.height = height
	}
}

// NewWindow creates the host window. Panics if the platform window cannot
// be created; without a window there is nothing to visualize into.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &visualizerWindow{
		title:  "OneDrop",
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *visualizerWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *visualizerWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *visualizerWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *visualizerWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *visualizerWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *visualizerWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *visualizerWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *visualizerWindow) Width() int {
	return w.width
}

func (w *visualizerWindow) Height() int {
	return w.height
}
