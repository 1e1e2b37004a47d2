package preset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Serialize renders the recognized subset of a preset back to .milk text.
// Parsing the output yields a preset equal to the input: floats are written
// with shortest-exact formatting and blocks keep their suffix order.
func Serialize(p *Preset) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "MILKDROP_PRESET_VERSION=%d\n", p.Version)
	if p.WarpShaderVersion != 0 {
		fmt.Fprintf(&sb, "PSVERSION_WARP=%d\n", p.WarpShaderVersion)
	}
	if p.CompShaderVersion != 0 {
		fmt.Fprintf(&sb, "PSVERSION_COMP=%d\n", p.CompShaderVersion)
	}
	sb.WriteString("[preset00]\n")

	params := p.Parameters
	for _, f := range params.fields() {
		switch f.kind {
		case paramFloat:
			fmt.Fprintf(&sb, "%s=%s\n", f.key, formatFloat(*f.f))
		case paramInt:
			fmt.Fprintf(&sb, "%s=%d\n", f.key, *f.i)
		case paramBool:
			fmt.Fprintf(&sb, "%s=%s\n", f.key, formatBool(*f.b))
		}
	}

	for i := range p.Waves {
		w := &p.Waves[i]
		prefix := fmt.Sprintf("wavecode_%d_", i)
		fmt.Fprintf(&sb, "%senabled=%s\n", prefix, formatBool(w.Enabled))
		fmt.Fprintf(&sb, "%ssamples=%d\n", prefix, w.Samples)
		fmt.Fprintf(&sb, "%ssep=%d\n", prefix, w.Sep)
		fmt.Fprintf(&sb, "%sbSpectrum=%s\n", prefix, formatBool(w.Spectrum))
		fmt.Fprintf(&sb, "%sbUseDots=%s\n", prefix, formatBool(w.UseDots))
		fmt.Fprintf(&sb, "%sbDrawThick=%s\n", prefix, formatBool(w.DrawThick))
		fmt.Fprintf(&sb, "%sbAdditive=%s\n", prefix, formatBool(w.Additive))
		fmt.Fprintf(&sb, "%sscaling=%s\n", prefix, formatFloat(w.Scaling))
		fmt.Fprintf(&sb, "%ssmoothing=%s\n", prefix, formatFloat(w.Smoothing))
		fmt.Fprintf(&sb, "%sr=%s\n", prefix, formatFloat(w.R))
		fmt.Fprintf(&sb, "%sg=%s\n", prefix, formatFloat(w.G))
		fmt.Fprintf(&sb, "%sb=%s\n", prefix, formatFloat(w.B))
		fmt.Fprintf(&sb, "%sa=%s\n", prefix, formatFloat(w.A))
		writeEquations(&sb, prefix+"init_", w.Init)
		writeEquations(&sb, prefix+"per_frame_", w.PerFrame)
		writeEquations(&sb, prefix+"per_point_", w.PerPoint)
	}

	for i := range p.Shapes {
		s := &p.Shapes[i]
		prefix := fmt.Sprintf("shapecode_%d_", i)
		fmt.Fprintf(&sb, "%senabled=%s\n", prefix, formatBool(s.Enabled))
		fmt.Fprintf(&sb, "%ssides=%d\n", prefix, s.Sides)
		fmt.Fprintf(&sb, "%sadditive=%s\n", prefix, formatBool(s.Additive))
		fmt.Fprintf(&sb, "%sthickOutline=%s\n", prefix, formatBool(s.ThickOutline))
		fmt.Fprintf(&sb, "%stextured=%s\n", prefix, formatBool(s.Textured))
		fmt.Fprintf(&sb, "%snum_inst=%d\n", prefix, s.Instances)
		fmt.Fprintf(&sb, "%sx=%s\n", prefix, formatFloat(s.X))
		fmt.Fprintf(&sb, "%sy=%s\n", prefix, formatFloat(s.Y))
		fmt.Fprintf(&sb, "%srad=%s\n", prefix, formatFloat(s.Rad))
		fmt.Fprintf(&sb, "%sang=%s\n", prefix, formatFloat(s.Ang))
		fmt.Fprintf(&sb, "%stex_ang=%s\n", prefix, formatFloat(s.TexAng))
		fmt.Fprintf(&sb, "%stex_zoom=%s\n", prefix, formatFloat(s.TexZoom))
		fmt.Fprintf(&sb, "%sr=%s\n", prefix, formatFloat(s.R))
		fmt.Fprintf(&sb, "%sg=%s\n", prefix, formatFloat(s.G))
		fmt.Fprintf(&sb, "%sb=%s\n", prefix, formatFloat(s.B))
		fmt.Fprintf(&sb, "%sa=%s\n", prefix, formatFloat(s.A))
		fmt.Fprintf(&sb, "%sr2=%s\n", prefix, formatFloat(s.R2))
		fmt.Fprintf(&sb, "%sg2=%s\n", prefix, formatFloat(s.G2))
		fmt.Fprintf(&sb, "%sb2=%s\n", prefix, formatFloat(s.B2))
		fmt.Fprintf(&sb, "%sa2=%s\n", prefix, formatFloat(s.A2))
		fmt.Fprintf(&sb, "%sborder_r=%s\n", prefix, formatFloat(s.BorderR))
		fmt.Fprintf(&sb, "%sborder_g=%s\n", prefix, formatFloat(s.BorderG))
		fmt.Fprintf(&sb, "%sborder_b=%s\n", prefix, formatFloat(s.BorderB))
		fmt.Fprintf(&sb, "%sborder_a=%s\n", prefix, formatFloat(s.BorderA))
		writeEquations(&sb, prefix+"init_", s.Init)
		writeEquations(&sb, prefix+"per_frame_", s.PerFrame)
	}

	writeEquations(&sb, "per_frame_init_", p.PerFrameInit)
	writeEquations(&sb, "per_frame_", p.PerFrame)
	writeEquations(&sb, "per_pixel_", p.PerPixel)

	writeShader(&sb, "warp_", p.WarpShader)
	writeShader(&sb, "comp_", p.CompShader)

	// Unknown keys come last, in sorted order for stable output.
	keys := make([]string, 0, len(p.UnknownKeys))
	for k := range p.UnknownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", k, p.UnknownKeys[k])
	}

	return sb.String()
}

func writeEquations(sb *strings.Builder, prefix string, lines []string) {
	for i, line := range lines {
		fmt.Fprintf(sb, "%s%d=%s\n", prefix, i+1, line)
	}
}

func writeShader(sb *strings.Builder, prefix string, source string) {
	if source == "" {
		return
	}
	lines := strings.Split(strings.TrimSuffix(source, "\n"), "\n")
	for i, line := range lines {
		fmt.Fprintf(sb, "%s%d=`%s\n", prefix, i+1, line)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
