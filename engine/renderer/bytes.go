package renderer

import "unsafe"

// f32Bytes views a float32 slice as bytes for GPU buffer uploads. The
// returned slice shares memory with the input; callers must not retain it
// past the upload.
func f32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// u32Bytes views a uint32 slice as bytes for GPU buffer uploads.
func u32Bytes(data []uint32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}
