package audio

import (
	"fmt"
	"log"

	pa "github.com/gordonklaus/portaudio"
)

// Capture pulls PCM from the default input device into a Ring. The
// portaudio callback thread only copies samples into the ring; it takes no
// locks, does no logging, and allocates nothing.
type Capture struct {
	stream     *pa.Stream
	ring       *Ring
	sampleRate float64
}

// NewCapture opens the default input device in mono and starts streaming
// into ring. On machines without an input device the error degrades the
// engine to silent input; it is not fatal.
func NewCapture(ring *Ring, sampleRate float64) (*Capture, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: portaudio init: %w", err)
	}

	c := &Capture{ring: ring, sampleRate: sampleRate}
	stream, err := pa.OpenDefaultStream(1, 0, sampleRate, 0, func(in []float32) {
		c.ring.Write(in)
	})
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("audio: open input stream: %w", err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = pa.Terminate()
		return nil, fmt.Errorf("audio: start input stream: %w", err)
	}

	log.Printf("audio: capture started at %.0f Hz", sampleRate)
	return c, nil
}

// SampleRate returns the capture sample rate in Hz.
func (c *Capture) SampleRate() float64 { return c.sampleRate }

// Close stops the stream and tears down portaudio.
func (c *Capture) Close() error {
	if c.stream != nil {
		_ = c.stream.Stop()
		_ = c.stream.Close()
		c.stream = nil
	}
	return pa.Terminate()
}
