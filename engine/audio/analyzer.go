// Package audio turns PCM windows into the bass/mid/treb scalars the
// equation environment consumes, and carries the capture plumbing that
// feeds them.
package audio

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// Frequency band edges in Hz.
const (
	bassLow  = 20.0
	bassHigh = 250.0
	midHigh  = 2000.0
	trebHigh = 20000.0
)

// bandCeiling is the soft ceiling every band is clamped to.
const bandCeiling = 4.0

// MaxFFTSize bounds the transform length regardless of window size.
const MaxFFTSize = 2048

// Levels holds one analysis result: raw bands plus their low-passed
// companions and the overall RMS volume.
type Levels struct {
	Bass, Mid, Treb          float64
	BassAtt, MidAtt, TrebAtt float64
	Vol                      float64
}

// Analyzer converts PCM windows into smoothed frequency bands. Transform
// plans and scratch buffers are cached per power-of-two size so the
// steady-state path does not allocate.
type Analyzer struct {
	sampleRate float64
	channels   int
	alpha      float64 // att low-pass coefficient
	gain       float64 // band scaling into the [0, ~4] range

	bassAtt, midAtt, trebAtt float64

	plans map[int]*analyzerPlan
	mono  []float64
}

// fftPlan is the slice-based forward transform the FFT backend provides.
type fftPlan interface {
	Forward(dst, src []complex128) error
}

type analyzerPlan struct {
	size   int
	plan   fftPlan
	win    []float64
	input  []complex128
	output []complex128
	re     []float64
	im     []float64
	mags   []float64
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithChannels sets the interleaved channel count of incoming windows
// (1 = mono, 2 = stereo averaged to mono). Defaults to 1.
func WithChannels(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n >= 1 {
			a.channels = n
		}
	}
}

// WithAttenuation sets the low-pass coefficient for the _att bands.
// Defaults to 0.2.
func WithAttenuation(alpha float64) AnalyzerOption {
	return func(a *Analyzer) {
		if alpha > 0 && alpha <= 1 {
			a.alpha = alpha
		}
	}
}

// WithBandGain sets the scale applied to band magnitudes before clamping.
func WithBandGain(gain float64) AnalyzerOption {
	return func(a *Analyzer) {
		if gain > 0 {
			a.gain = gain
		}
	}
}

// NewAnalyzer creates an analyzer for the given capture sample rate.
func NewAnalyzer(sampleRate float64, options ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		sampleRate: sampleRate,
		channels:   1,
		alpha:      0.2,
		gain:       20.0,
		plans:      map[int]*analyzerPlan{},
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Analyze computes band levels from one PCM window (256–2048 frames,
// interleaved when stereo). An empty window yields zero bands with the
// attenuated values continuing to decay toward zero.
func (a *Analyzer) Analyze(samples []float32) Levels {
	mono := a.downmix(samples)
	if len(mono) == 0 {
		return a.finish(0, 0, 0, 0)
	}

	p := a.planFor(nextPow2(len(mono)))

	frames := len(mono)
	if frames > p.size {
		frames = p.size
	}
	var sumSq float64
	for i := range p.input {
		var s float64
		if i < frames {
			s = mono[i]
			sumSq += s * s
		}
		p.input[i] = complex(s*p.win[i], 0)
	}
	vol := math.Sqrt(sumSq / float64(frames))

	if err := p.plan.Forward(p.output, p.input); err != nil {
		return a.finish(0, 0, 0, vol)
	}

	half := p.size / 2
	for k := 0; k < half; k++ {
		p.re[k] = real(p.output[k])
		p.im[k] = imag(p.output[k])
	}
	spectrum.MagnitudeFromParts(p.mags[:half], p.re[:half], p.im[:half])

	norm := 1.0 / float64(p.size)
	bass := a.band(p, bassLow, bassHigh, norm)
	mid := a.band(p, bassHigh, midHigh, norm)
	treb := a.band(p, midHigh, trebHigh, norm)
	return a.finish(bass, mid, treb, vol)
}

// band averages magnitude bins whose center frequency falls in [lo, hi),
// scales into the band range, and clamps to the soft ceiling.
func (a *Analyzer) band(p *analyzerPlan, lo, hi, norm float64) float64 {
	binWidth := a.sampleRate / float64(p.size)
	minBin := int(math.Ceil(lo / binWidth))
	if minBin < 1 {
		minBin = 1 // skip DC
	}
	maxBin := int(math.Ceil(hi / binWidth))
	if maxBin > p.size/2 {
		maxBin = p.size / 2
	}
	if minBin >= maxBin {
		return 0
	}

	var sum float64
	for k := minBin; k < maxBin; k++ {
		sum += p.mags[k] * norm
	}
	v := sum / float64(maxBin-minBin) * a.gain
	return math.Min(v, bandCeiling)
}

func (a *Analyzer) finish(bass, mid, treb, vol float64) Levels {
	a.bassAtt = a.alpha*bass + (1-a.alpha)*a.bassAtt
	a.midAtt = a.alpha*mid + (1-a.alpha)*a.midAtt
	a.trebAtt = a.alpha*treb + (1-a.alpha)*a.trebAtt
	return Levels{
		Bass: bass, Mid: mid, Treb: treb,
		BassAtt: a.bassAtt, MidAtt: a.midAtt, TrebAtt: a.trebAtt,
		Vol: vol,
	}
}

// Reset clears the attenuated band state.
func (a *Analyzer) Reset() {
	a.bassAtt, a.midAtt, a.trebAtt = 0, 0, 0
}

// downmix averages interleaved channels into the reusable mono buffer.
func (a *Analyzer) downmix(samples []float32) []float64 {
	frames := len(samples) / a.channels
	if cap(a.mono) < frames {
		a.mono = make([]float64, frames)
	}
	a.mono = a.mono[:frames]
	if a.channels == 1 {
		for i, s := range samples {
			a.mono[i] = float64(s)
		}
		return a.mono
	}
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < a.channels; c++ {
			sum += float64(samples[i*a.channels+c])
		}
		a.mono[i] = sum / float64(a.channels)
	}
	return a.mono
}

func (a *Analyzer) planFor(size int) *analyzerPlan {
	if p, ok := a.plans[size]; ok {
		return p
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		// Power-of-two sizes within the cap are always plannable; fall back
		// to the largest size if the backend disagrees.
		plan, _ = algofft.NewPlan64(MaxFFTSize)
		size = MaxFFTSize
		if p, ok := a.plans[size]; ok {
			return p
		}
	}
	p := &analyzerPlan{
		size:   size,
		plan:   plan,
		win:    window.Generate(window.TypeHann, size, window.WithPeriodic()),
		input:  make([]complex128, size),
		output: make([]complex128, size),
		re:     make([]float64, size/2),
		im:     make([]float64, size/2),
		mags:   make([]float64, size/2),
	}
	a.plans[size] = p
	return p
}

// nextPow2 returns the smallest power of two >= n, never below 256 and
// capped at MaxFFTSize.
func nextPow2(n int) int {
	size := 256
	for size < n && size < MaxFFTSize {
		size <<= 1
	}
	return size
}
