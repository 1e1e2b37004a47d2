package renderer

import "math"

// Default warp mesh density.
const (
	DefaultMeshCols = 32
	DefaultMeshRows = 24
)

// MotionParams are the per-frame (or per-vertex, when a per-pixel block is
// active) motion scalars driving the feedback transform.
type MotionParams struct {
	Zoom float64
	Rot  float64
	CX   float64
	CY   float64
	DX   float64
	DY   float64
	SX   float64
	SY   float64
	Warp float64
}

// IdentityMotion returns motion parameters that leave the image unchanged.
func IdentityMotion() MotionParams {
	return MotionParams{Zoom: 1, CX: 0.5, CY: 0.5, SX: 1, SY: 1}
}

// WarpUV applies the feedback transform to one source UV in [0,1]² and
// returns the coordinate to sample the previous frame at. This is the CPU
// reference of the composite fragment shader's math; the per-pixel mesh
// path evaluates it per vertex with that vertex's motion scalars.
func WarpUV(u, v float64, m MotionParams, time float64) (float64, float64) {
	// Center.
	x := u - 0.5
	y := v - 0.5

	// Rotate.
	sin, cos := math.Sincos(m.Rot)
	rx := x*cos - y*sin
	ry := x*sin + y*cos

	// Zoom.
	zoom := m.Zoom
	if zoom == 0 {
		zoom = 1e-6
	}
	rx /= zoom
	ry /= zoom

	// Stretch.
	rx *= m.SX
	ry *= m.SY

	// Translate relative to the rotation center.
	rx += m.DX - (m.CX - 0.5)
	ry += m.DY - (m.CY - 0.5)

	// Radial warp displacement.
	if m.Warp != 0 {
		r := math.Hypot(rx, ry)
		s := 1 + 0.1*m.Warp*math.Sin(r*10+time)
		rx *= s
		ry *= s
	}

	return rx + 0.5, ry + 0.5
}

// WarpMesh is the regular vertex grid the per-pixel pipeline samples the
// previous frame through. Positions are fixed clip-space coordinates;
// UVs are rewritten each frame from the per-pixel block's motion scalars.
type WarpMesh struct {
	Cols, Rows int

	// Positions holds x,y clip coordinates per vertex (2 floats each).
	Positions []float32
	// UV holds the sample coordinate per vertex (2 floats each), updated
	// in place each frame.
	UV []float32
	// Indices triangulates the grid (6 per quad, CCW).
	Indices []uint32
}

// NewWarpMesh builds a cols×rows vertex grid covering the full viewport.
func NewWarpMesh(cols, rows int) *WarpMesh {
	if cols < 2 {
		cols = 2
	}
	if rows < 2 {
		rows = 2
	}
	m := &WarpMesh{
		Cols:      cols,
		Rows:      rows,
		Positions: make([]float32, cols*rows*2),
		UV:        make([]float32, cols*rows*2),
		Indices:   make([]uint32, (cols-1)*(rows-1)*6),
	}

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			u := float64(i) / float64(cols-1)
			v := float64(j) / float64(rows-1)
			idx := (j*cols + i) * 2
			m.Positions[idx] = float32(u*2 - 1)
			m.Positions[idx+1] = float32(1 - v*2) // flip so v grows downward
			m.UV[idx] = float32(u)
			m.UV[idx+1] = float32(v)
		}
	}

	k := 0
	for j := 0; j < rows-1; j++ {
		for i := 0; i < cols-1; i++ {
			topLeft := uint32(j*cols + i)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(cols)
			bottomRight := bottomLeft + 1
			m.Indices[k+0] = topLeft
			m.Indices[k+1] = bottomLeft
			m.Indices[k+2] = topRight
			m.Indices[k+3] = topRight
			m.Indices[k+4] = bottomLeft
			m.Indices[k+5] = bottomRight
			k += 6
		}
	}
	return m
}

// VertexCount returns the number of grid vertices.
func (m *WarpMesh) VertexCount() int { return m.Cols * m.Rows }

// VertexUV returns the normalized grid coordinate of vertex (i, j), plus
// the derived rad and ang scalars the per-pixel block sees: rad is the
// centered distance scaled so the corners sit at 1, ang the centered angle.
func (m *WarpMesh) VertexUV(i, j int) (x, y, rad, ang float64) {
	x = float64(i) / float64(m.Cols-1)
	y = float64(j) / float64(m.Rows-1)
	rad = math.Hypot(x-0.5, y-0.5) * math.Sqrt2
	ang = math.Atan2(y-0.5, x-0.5)
	return
}

// SetVertexUV stores the warped sample coordinate for vertex (i, j).
func (m *WarpMesh) SetVertexUV(i, j int, u, v float64) {
	idx := (j*m.Cols + i) * 2
	m.UV[idx] = float32(u)
	m.UV[idx+1] = float32(v)
}
