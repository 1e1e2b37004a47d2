package renderer

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"
)

func TestFrameUniformsSize(t *testing.T) {
	var u FrameUniforms
	if unsafe.Sizeof(u) != FrameUniformsSize {
		t.Fatalf("FrameUniforms size = %d, want %d", unsafe.Sizeof(u), FrameUniformsSize)
	}
	if len(u.Marshal()) != FrameUniformsSize {
		t.Fatalf("Marshal length = %d, want %d", len(u.Marshal()), FrameUniformsSize)
	}
}

func TestFrameUniformsLayout(t *testing.T) {
	u := FrameUniforms{
		Resolution: [2]float32{1280, 720},
		Time:       1.5,
		Decay:      0.98,
		Zoom:       1.01,
		Rot:        0.02,
		CX:         0.5,
		CY:         0.5,
		DX:         0.001,
		DY:         -0.002,
		SX:         1.0,
		SY:         1.0,
		Warp:       0.3,
		Brighten:   1,
		Solarize:   1,
	}
	buf := u.Marshal()

	readF32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	readU32 := func(off int) uint32 {
		return binary.LittleEndian.Uint32(buf[off : off+4])
	}

	checks := []struct {
		off  int
		want float32
	}{
		{0, 1280}, {4, 720}, {8, 1.5}, {12, 0.98}, {16, 1.01}, {20, 0.02},
		{24, 0.5}, {28, 0.5}, {32, 0.001}, {36, -0.002}, {40, 1.0}, {44, 1.0},
		{48, 0.3}, {68, 0}, {72, 0}, {76, 0},
	}
	for _, c := range checks {
		if got := readF32(c.off); got != c.want {
			t.Errorf("float at offset %d = %v, want %v", c.off, got, c.want)
		}
	}
	if readU32(52) != 1 {
		t.Error("flag_brighten not at offset 52")
	}
	if readU32(56) != 0 {
		t.Error("flag_darken not at offset 56")
	}
	if readU32(60) != 1 {
		t.Error("flag_solarize not at offset 60")
	}
	if readU32(64) != 0 {
		t.Error("flag_invert not at offset 64")
	}
}

func TestMarshalIntoMatchesMarshal(t *testing.T) {
	u := FrameUniforms{Time: 2.5, Zoom: 1.25, Brighten: 1}
	var buf [FrameUniformsSize]byte
	u.MarshalInto(buf[:])
	heap := u.Marshal()
	for i := range heap {
		if buf[i] != heap[i] {
			t.Fatalf("MarshalInto differs from Marshal at byte %d", i)
		}
	}
}

func TestPingPongExclusivity(t *testing.T) {
	var pp pingPong
	for frame := 0; frame < 10; frame++ {
		if pp.Prev() == pp.Curr() {
			t.Fatalf("frame %d reads and writes the same texture", frame)
		}
		prevCurr := pp.Curr()
		pp.Swap()
		if pp.Prev() != prevCurr {
			t.Fatalf("frame %d: swap did not promote curr to prev", frame)
		}
	}
}

func TestWarpUVIdentity(t *testing.T) {
	// Identity motion maps every UV to itself.
	m := IdentityMotion()
	for _, uv := range [][2]float64{{0.5, 0.5}, {0.25, 0.75}, {0, 0}, {1, 1}} {
		u, v := WarpUV(uv[0], uv[1], m, 0)
		if math.Abs(u-uv[0]) > 1e-12 || math.Abs(v-uv[1]) > 1e-12 {
			t.Errorf("WarpUV(%v) = (%v, %v), want identity", uv, u, v)
		}
	}
}

func TestWarpUVZoomPullsTowardCenter(t *testing.T) {
	m := IdentityMotion()
	m.Zoom = 2.0
	u, v := WarpUV(1.0, 0.5, m, 0)
	if math.Abs(u-0.75) > 1e-12 || math.Abs(v-0.5) > 1e-12 {
		t.Errorf("zoom 2 sample = (%v, %v), want (0.75, 0.5)", u, v)
	}
}

func TestWarpUVRotation(t *testing.T) {
	m := IdentityMotion()
	m.Rot = math.Pi / 2
	u, v := WarpUV(1.0, 0.5, m, 0)
	// (0.5, 0) rotated 90° CCW lands at (0, 0.5).
	if math.Abs(u-0.5) > 1e-9 || math.Abs(v-1.0) > 1e-9 {
		t.Errorf("rotated sample = (%v, %v), want (0.5, 1.0)", u, v)
	}
}

func TestWarpUVTranslation(t *testing.T) {
	m := IdentityMotion()
	m.DX = 0.1
	u, v := WarpUV(0.5, 0.5, m, 0)
	if math.Abs(u-0.6) > 1e-12 || math.Abs(v-0.5) > 1e-12 {
		t.Errorf("translated sample = (%v, %v), want (0.6, 0.5)", u, v)
	}
}

func TestWarpUVCenterOffset(t *testing.T) {
	// Moving the rotation center shifts sampling the opposite way.
	m := IdentityMotion()
	m.CX = 0.6
	u, _ := WarpUV(0.5, 0.5, m, 0)
	if math.Abs(u-0.4) > 1e-12 {
		t.Errorf("center-offset sample u = %v, want 0.4", u)
	}
}

func TestWarpUVWarpDisplacesOffCenter(t *testing.T) {
	m := IdentityMotion()
	m.Warp = 1.0
	u0, v0 := WarpUV(0.75, 0.5, m, 0.7)
	if math.Abs(u0-0.75) < 1e-9 && math.Abs(v0-0.5) < 1e-9 {
		t.Error("warp had no effect off-center")
	}
	// The center point has zero radius, so warp leaves it fixed.
	uc, vc := WarpUV(0.5, 0.5, m, 0.7)
	if math.Abs(uc-0.5) > 1e-12 || math.Abs(vc-0.5) > 1e-12 {
		t.Errorf("warp moved the center: (%v, %v)", uc, vc)
	}
}

func TestWarpUVZeroZoomGuard(t *testing.T) {
	m := IdentityMotion()
	m.Zoom = 0
	u, v := WarpUV(0.75, 0.5, m, 0)
	if math.IsNaN(u) || math.IsInf(u, 0) || math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("zero zoom produced non-finite UV (%v, %v)", u, v)
	}
}

func TestWarpMeshGrid(t *testing.T) {
	m := NewWarpMesh(32, 24)
	if m.VertexCount() != 32*24 {
		t.Fatalf("vertex count = %d", m.VertexCount())
	}
	if len(m.Indices) != 31*23*6 {
		t.Fatalf("index count = %d, want %d", len(m.Indices), 31*23*6)
	}
	for _, idx := range m.Indices {
		if int(idx) >= m.VertexCount() {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestWarpMeshVertexScalars(t *testing.T) {
	m := NewWarpMesh(32, 24)

	x, y, rad, ang := m.VertexUV(0, 0)
	if x != 0 || y != 0 {
		t.Errorf("corner uv = (%v, %v)", x, y)
	}
	if math.Abs(rad-1.0) > 1e-12 {
		t.Errorf("corner rad = %v, want 1.0", rad)
	}
	if math.Abs(ang-math.Atan2(-0.5, -0.5)) > 1e-12 {
		t.Errorf("corner ang = %v", ang)
	}

	_, _, radCenter, _ := m.VertexUV(31, 23)
	if math.Abs(radCenter-1.0) > 1e-12 {
		t.Errorf("opposite corner rad = %v, want 1.0", radCenter)
	}
}

func TestWarpMeshSetVertexUV(t *testing.T) {
	m := NewWarpMesh(4, 4)
	m.SetVertexUV(2, 1, 0.25, 0.75)
	idx := (1*4 + 2) * 2
	if m.UV[idx] != 0.25 || m.UV[idx+1] != 0.75 {
		t.Errorf("UV not stored: %v", m.UV[idx:idx+2])
	}
}

func TestWavePointMarshal(t *testing.T) {
	points := []WavePoint{
		{Position: [2]float32{0.25, 0.5}, Value: -0.5},
		{Position: [2]float32{0.75, 0.5}, Value: 1.0},
	}
	buf := make([]byte, len(points)*WavePointSize)
	MarshalWavePoints(buf, points)

	v := math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12]))
	if v != -0.5 {
		t.Errorf("point 0 value = %v", v)
	}
	x := math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20]))
	if x != 0.75 {
		t.Errorf("point 1 x = %v", x)
	}
}

func TestWaveUniformsMarshal(t *testing.T) {
	u := WaveUniforms{
		Color:    [4]float32{1, 0.5, 0.25, 0.8},
		Position: [2]float32{0.5, 0.5},
		Scale:    1.0,
		Mode:     5,
		Dots:     1,
		Count:    512,
	}
	var buf [WaveUniformsSize]byte
	u.MarshalInto(buf[:])

	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])); got != 0.5 {
		t.Errorf("color.g = %v", got)
	}
	if got := binary.LittleEndian.Uint32(buf[32:36]); got != 5 {
		t.Errorf("mode = %d", got)
	}
	if got := binary.LittleEndian.Uint32(buf[40:44]); got != 512 {
		t.Errorf("count = %d", got)
	}
}
