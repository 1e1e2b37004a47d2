// Package preset implements the MilkDrop .milk preset format: the data
// model, a tolerant line-oriented parser, and a serializer for the
// recognized subset.
package preset

// Preset is a parsed .milk file. Immutable after Parse.
type Preset struct {
	// Version is the MILKDROP_PRESET_VERSION header tag.
	Version int
	// WarpShaderVersion and CompShaderVersion are the PSVERSION_WARP /
	// PSVERSION_COMP header tags.
	WarpShaderVersion int
	CompShaderVersion int

	Parameters Parameters

	// Equation blocks, ordered by ascending numeric key suffix. The verbatim
	// right-hand-side text is stored; tokenization happens in the expression
	// engine at load time.
	PerFrameInit []string
	PerFrame     []string
	PerPixel     []string

	// Up to four custom waveforms and shapes.
	Waves  []WaveCode
	Shapes []ShapeCode

	// Raw shader text blobs, concatenated by ascending index. Empty when the
	// preset carries no custom shaders.
	WarpShader string
	CompShader string

	// UnknownKeys records keys the parser did not recognize, preserved with
	// their values for diagnostics and round-tripping.
	UnknownKeys map[string]string
}

// Parameters holds the static scalar parameters of a preset.
type Parameters struct {
	Rating               float64
	GammaAdj             float64
	Decay                float64
	VideoEchoZoom        float64
	VideoEchoAlpha       float64
	VideoEchoOrientation int

	WaveMode             int
	AdditiveWaves        bool
	WaveDots             bool
	WaveThick            bool
	ModWaveAlphaByVolume bool
	MaximizeWaveColor    bool
	TexWrap              bool
	DarkenCenter         bool
	RedBlueStereo        bool
	Brighten             bool
	Darken               bool
	Solarize             bool
	Invert               bool

	WaveAlpha         float64
	WaveScale         float64
	WaveSmoothing     float64
	WaveParam         float64
	ModWaveAlphaStart float64
	ModWaveAlphaEnd   float64
	WarpAnimSpeed     float64
	WarpScale         float64
	ZoomExponent      float64
	Shader            float64

	Zoom float64
	Rot  float64
	CX   float64
	CY   float64
	DX   float64
	DY   float64
	SX   float64
	SY   float64
	Warp float64

	WaveR float64
	WaveG float64
	WaveB float64
	WaveX float64
	WaveY float64

	OuterBorderSize float64
	OuterBorderR    float64
	OuterBorderG    float64
	OuterBorderB    float64
	OuterBorderA    float64
	InnerBorderSize float64
	InnerBorderR    float64
	InnerBorderG    float64
	InnerBorderB    float64
	InnerBorderA    float64

	MotionVectorsX float64
	MotionVectorsY float64
	MVDX           float64
	MVDY           float64
	MVLength       float64
	MVR            float64
	MVG            float64
	MVB            float64
	MVA            float64

	// Beat sensitivity bounds (b1n..b3x, b1ed).
	B1N  float64
	B2N  float64
	B3N  float64
	B1X  float64
	B2X  float64
	B3X  float64
	B1ED float64
}

// WaveCode is one custom waveform definition (wavecode_N_* keys).
type WaveCode struct {
	Index      int
	Enabled    bool
	Samples    int
	Sep        int
	Spectrum   bool
	UseDots    bool
	DrawThick  bool
	Additive   bool
	Scaling    float64
	Smoothing  float64
	R, G, B, A float64

	Init     []string
	PerFrame []string
	PerPoint []string
}

// ShapeCode is one custom shape definition (shapecode_N_* keys).
type ShapeCode struct {
	Index                              int
	Enabled                            bool
	Sides                              int
	Additive                           bool
	ThickOutline                       bool
	Textured                           bool
	Instances                          int
	X, Y                               float64
	Rad, Ang                           float64
	TexAng                             float64
	TexZoom                            float64
	R, G, B, A                         float64
	R2, G2, B2, A2                     float64
	BorderR, BorderG, BorderB, BorderA float64

	Init     []string
	PerFrame []string
}

// DefaultParameters returns the parameter set of a preset that specifies
// nothing: identity motion with a gentle decay.
func DefaultParameters() Parameters {
	return Parameters{
		Rating:        3.0,
		GammaAdj:      1.0,
		Decay:         0.98,
		VideoEchoZoom: 1.0,
		WaveAlpha:     0.8,
		WaveScale:     1.0,
		WaveSmoothing: 0.75,
		WarpAnimSpeed: 1.0,
		WarpScale:     1.0,
		Zoom:          1.0,
		CX:            0.5,
		CY:            0.5,
		SX:            1.0,
		SY:            1.0,
		WaveR:         1.0,
		WaveG:         1.0,
		WaveB:         1.0,
		WaveX:         0.5,
		WaveY:         0.5,
		TexWrap:       true,
	}
}

func defaultWaveCode(index int) WaveCode {
	return WaveCode{
		Index:     index,
		Samples:   512,
		Scaling:   1.0,
		Smoothing: 0.5,
		R:         1.0,
		G:         1.0,
		B:         1.0,
		A:         1.0,
	}
}

func defaultShapeCode(index int) ShapeCode {
	return ShapeCode{
		Index:     index,
		Sides:     4,
		Instances: 1,
		X:         0.5,
		Y:         0.5,
		Rad:       0.1,
		TexZoom:   1.0,
		R:         1.0,
		G:         1.0,
		B:         1.0,
		A:         1.0,
		BorderR:   1.0,
		BorderG:   1.0,
		BorderB:   1.0,
	}
}
