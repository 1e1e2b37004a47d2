package audio

import "sync/atomic"

// Ring is a single-producer single-consumer sample ring. The producer is
// the audio driver callback: Write never allocates, never locks, and never
// blocks. The consumer copies the most recent full window each frame;
// samples older than one capacity are discarded by overwrite.
type Ring struct {
	buf  []float32
	mask uint64
	head atomic.Uint64 // total samples ever written
}

// NewRing creates a ring holding capacity samples, rounded up to a power
// of two (minimum 1024).
func NewRing(capacity int) *Ring {
	n := 1024
	for n < capacity {
		n <<= 1
	}
	return &Ring{
		buf:  make([]float32, n),
		mask: uint64(n - 1),
	}
}

// Cap returns the ring capacity in samples.
func (r *Ring) Cap() int { return len(r.buf) }

// Write appends samples, overwriting the oldest data when full. Safe to
// call from the audio callback thread only.
func (r *Ring) Write(samples []float32) {
	h := r.head.Load()
	for _, s := range samples {
		r.buf[h&r.mask] = s
		h++
	}
	r.head.Store(h)
}

// ReadLatest copies the most recent len(dst) samples into dst, zero-filling
// the front when fewer samples have ever been written. If the producer laps
// the consumer mid-copy the read is retried; after a bounded number of
// retries the (possibly torn) data is returned rather than blocking the
// frame. Returns the number of real samples copied.
func (r *Ring) ReadLatest(dst []float32) int {
	if len(dst) > len(r.buf) {
		dst = dst[len(dst)-len(r.buf):]
	}

	for attempt := 0; ; attempt++ {
		start := r.head.Load()

		n := uint64(len(dst))
		avail := start
		if avail > n {
			avail = n
		}
		for i := range dst[:len(dst)-int(avail)] {
			dst[i] = 0
		}
		base := start - avail
		for i := uint64(0); i < avail; i++ {
			dst[uint64(len(dst))-avail+i] = r.buf[(base+i)&r.mask]
		}

		end := r.head.Load()
		// Torn only if the producer overwrote the region we were reading.
		if end-start <= uint64(len(r.buf))-avail || attempt >= 3 {
			return int(avail)
		}
	}
}
