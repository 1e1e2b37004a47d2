package renderer

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// FrameUniforms is the GPU-aligned per-frame uniform record consumed by the
// composite and mesh-warp shaders. Matches the WGSL FrameUniforms struct
// exactly. Size: 80 bytes, little-endian, 16-byte aligned.
type FrameUniforms struct {
	Resolution [2]float32 // offset  0: output size in pixels
	Time       float32    // offset  8: seconds since preset activation
	Decay      float32    // offset 12: per-channel feedback decay
	Zoom       float32    // offset 16
	Rot        float32    // offset 20
	CX         float32    // offset 24
	CY         float32    // offset 28
	DX         float32    // offset 32
	DY         float32    // offset 36
	SX         float32    // offset 40
	SY         float32    // offset 44
	Warp       float32    // offset 48
	Brighten   uint32     // offset 52: effect flags, 0 or 1
	Darken     uint32     // offset 56
	Solarize   uint32     // offset 60
	Invert     uint32     // offset 64
	Pad0       float32    // offset 68
	Pad1       float32    // offset 72
	Pad2       float32    // offset 76
}

// FrameUniformsSize is the exact GPU buffer size of FrameUniforms.
const FrameUniformsSize = 80

// Size returns the size of the FrameUniforms struct in bytes.
func (u *FrameUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the FrameUniforms struct into a byte buffer suitable
// for GPU upload.
func (u *FrameUniforms) Marshal() []byte {
	buf := make([]byte, FrameUniformsSize)
	u.MarshalInto(buf)
	return buf
}

// MarshalInto serializes into buf, which must hold FrameUniformsSize bytes.
// This is the allocation-free path used each frame.
func (u *FrameUniforms) MarshalInto(buf []byte) {
	putF32 := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	putF32(0, u.Resolution[0])
	putF32(4, u.Resolution[1])
	putF32(8, u.Time)
	putF32(12, u.Decay)
	putF32(16, u.Zoom)
	putF32(20, u.Rot)
	putF32(24, u.CX)
	putF32(28, u.CY)
	putF32(32, u.DX)
	putF32(36, u.DY)
	putF32(40, u.SX)
	putF32(44, u.SY)
	putF32(48, u.Warp)
	binary.LittleEndian.PutUint32(buf[52:56], u.Brighten)
	binary.LittleEndian.PutUint32(buf[56:60], u.Darken)
	binary.LittleEndian.PutUint32(buf[60:64], u.Solarize)
	binary.LittleEndian.PutUint32(buf[64:68], u.Invert)
	putF32(68, u.Pad0)
	putF32(72, u.Pad1)
	putF32(76, u.Pad2)
}

// WavePoint is one waveform sample in the GPU storage buffer feeding the
// waveform overlay pass. Size: 16 bytes (std430 aligned).
type WavePoint struct {
	Position [2]float32 // offset 0: normalized x position and baseline
	Value    float32    // offset 8: PCM sample in [-1, 1]
	Pad      float32    // offset 12
}

// WavePointSize is the exact GPU size of one WavePoint.
const WavePointSize = 16

// MarshalWavePoints serializes points into buf (len >= 16*len(points)).
func MarshalWavePoints(buf []byte, points []WavePoint) {
	for i, p := range points {
		off := i * WavePointSize
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(p.Position[0]))
		binary.LittleEndian.PutUint32(buf[off+4:off+8], math.Float32bits(p.Position[1]))
		binary.LittleEndian.PutUint32(buf[off+8:off+12], math.Float32bits(p.Value))
		binary.LittleEndian.PutUint32(buf[off+12:off+16], math.Float32bits(p.Pad))
	}
}

// WaveUniforms parameterizes the waveform overlay pass: color, placement,
// scale, and draw style. Size: 48 bytes.
type WaveUniforms struct {
	Color     [4]float32 // offset  0: wave_r/g/b/a
	Position  [2]float32 // offset 16: wave_x/wave_y
	Scale     float32    // offset 24: fWaveScale
	Thickness float32    // offset 28: quad half-height in NDC
	Mode      uint32     // offset 32: nWaveMode
	Dots      uint32     // offset 36: dot list instead of line quads
	Count     uint32     // offset 40: number of wave points
	Pad       uint32     // offset 44
}

// WaveUniformsSize is the exact GPU buffer size of WaveUniforms.
const WaveUniformsSize = 48

// MarshalInto serializes into buf, which must hold WaveUniformsSize bytes.
func (u *WaveUniforms) MarshalInto(buf []byte) {
	for i, v := range u.Color {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(u.Position[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(u.Position[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(u.Scale))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(u.Thickness))
	binary.LittleEndian.PutUint32(buf[32:36], u.Mode)
	binary.LittleEndian.PutUint32(buf[36:40], u.Dots)
	binary.LittleEndian.PutUint32(buf[40:44], u.Count)
	binary.LittleEndian.PutUint32(buf[44:48], u.Pad)
}
