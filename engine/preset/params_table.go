package preset

// paramKind discriminates the value type of a recognized scalar key.
type paramKind int

const (
	paramFloat paramKind = iota
	paramInt
	paramBool
)

// paramField binds one recognized preset key to its Parameters field.
// The same table drives parsing and serialization so the two stay in sync.
type paramField struct {
	key  string
	kind paramKind
	f    *float64
	i    *int
	b    *bool
}

// fields returns the recognized scalar keys in canonical serialization order.
func (p *Parameters) fields() []paramField {
	return []paramField{
		{key: "fRating", kind: paramFloat, f: &p.Rating},
		{key: "fGammaAdj", kind: paramFloat, f: &p.GammaAdj},
		{key: "fDecay", kind: paramFloat, f: &p.Decay},
		{key: "fVideoEchoZoom", kind: paramFloat, f: &p.VideoEchoZoom},
		{key: "fVideoEchoAlpha", kind: paramFloat, f: &p.VideoEchoAlpha},
		{key: "nVideoEchoOrientation", kind: paramInt, i: &p.VideoEchoOrientation},
		{key: "nWaveMode", kind: paramInt, i: &p.WaveMode},
		{key: "bAdditiveWaves", kind: paramBool, b: &p.AdditiveWaves},
		{key: "bWaveDots", kind: paramBool, b: &p.WaveDots},
		{key: "bWaveThick", kind: paramBool, b: &p.WaveThick},
		{key: "bModWaveAlphaByVolume", kind: paramBool, b: &p.ModWaveAlphaByVolume},
		{key: "bMaximizeWaveColor", kind: paramBool, b: &p.MaximizeWaveColor},
		{key: "bTexWrap", kind: paramBool, b: &p.TexWrap},
		{key: "bDarkenCenter", kind: paramBool, b: &p.DarkenCenter},
		{key: "bRedBlueStereo", kind: paramBool, b: &p.RedBlueStereo},
		{key: "bBrighten", kind: paramBool, b: &p.Brighten},
		{key: "bDarken", kind: paramBool, b: &p.Darken},
		{key: "bSolarize", kind: paramBool, b: &p.Solarize},
		{key: "bInvert", kind: paramBool, b: &p.Invert},
		{key: "fWaveAlpha", kind: paramFloat, f: &p.WaveAlpha},
		{key: "fWaveScale", kind: paramFloat, f: &p.WaveScale},
		{key: "fWaveSmoothing", kind: paramFloat, f: &p.WaveSmoothing},
		{key: "fWaveParam", kind: paramFloat, f: &p.WaveParam},
		{key: "fModWaveAlphaStart", kind: paramFloat, f: &p.ModWaveAlphaStart},
		{key: "fModWaveAlphaEnd", kind: paramFloat, f: &p.ModWaveAlphaEnd},
		{key: "fWarpAnimSpeed", kind: paramFloat, f: &p.WarpAnimSpeed},
		{key: "fWarpScale", kind: paramFloat, f: &p.WarpScale},
		{key: "fZoomExponent", kind: paramFloat, f: &p.ZoomExponent},
		{key: "fShader", kind: paramFloat, f: &p.Shader},
		{key: "zoom", kind: paramFloat, f: &p.Zoom},
		{key: "rot", kind: paramFloat, f: &p.Rot},
		{key: "cx", kind: paramFloat, f: &p.CX},
		{key: "cy", kind: paramFloat, f: &p.CY},
		{key: "dx", kind: paramFloat, f: &p.DX},
		{key: "dy", kind: paramFloat, f: &p.DY},
		{key: "warp", kind: paramFloat, f: &p.Warp},
		{key: "sx", kind: paramFloat, f: &p.SX},
		{key: "sy", kind: paramFloat, f: &p.SY},
		{key: "wave_r", kind: paramFloat, f: &p.WaveR},
		{key: "wave_g", kind: paramFloat, f: &p.WaveG},
		{key: "wave_b", kind: paramFloat, f: &p.WaveB},
		{key: "wave_x", kind: paramFloat, f: &p.WaveX},
		{key: "wave_y", kind: paramFloat, f: &p.WaveY},
		{key: "ob_size", kind: paramFloat, f: &p.OuterBorderSize},
		{key: "ob_r", kind: paramFloat, f: &p.OuterBorderR},
		{key: "ob_g", kind: paramFloat, f: &p.OuterBorderG},
		{key: "ob_b", kind: paramFloat, f: &p.OuterBorderB},
		{key: "ob_a", kind: paramFloat, f: &p.OuterBorderA},
		{key: "ib_size", kind: paramFloat, f: &p.InnerBorderSize},
		{key: "ib_r", kind: paramFloat, f: &p.InnerBorderR},
		{key: "ib_g", kind: paramFloat, f: &p.InnerBorderG},
		{key: "ib_b", kind: paramFloat, f: &p.InnerBorderB},
		{key: "ib_a", kind: paramFloat, f: &p.InnerBorderA},
		{key: "nMotionVectorsX", kind: paramFloat, f: &p.MotionVectorsX},
		{key: "nMotionVectorsY", kind: paramFloat, f: &p.MotionVectorsY},
		{key: "mv_dx", kind: paramFloat, f: &p.MVDX},
		{key: "mv_dy", kind: paramFloat, f: &p.MVDY},
		{key: "mv_l", kind: paramFloat, f: &p.MVLength},
		{key: "mv_r", kind: paramFloat, f: &p.MVR},
		{key: "mv_g", kind: paramFloat, f: &p.MVG},
		{key: "mv_b", kind: paramFloat, f: &p.MVB},
		{key: "mv_a", kind: paramFloat, f: &p.MVA},
		{key: "b1n", kind: paramFloat, f: &p.B1N},
		{key: "b2n", kind: paramFloat, f: &p.B2N},
		{key: "b3n", kind: paramFloat, f: &p.B3N},
		{key: "b1x", kind: paramFloat, f: &p.B1X},
		{key: "b2x", kind: paramFloat, f: &p.B2X},
		{key: "b3x", kind: paramFloat, f: &p.B3X},
		{key: "b1ed", kind: paramFloat, f: &p.B1ED},
	}
}
