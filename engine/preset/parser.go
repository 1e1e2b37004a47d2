package preset

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Size limits of the robustness contract.
const (
	MaxFileSize   = 10 << 20 // 10 MB
	MaxLineLength = 100_000  // 100 KB per line
)

// Sentinel parse error kinds.
var (
	ErrTooLarge    = errors.New("preset: file exceeds size limit")
	ErrLineTooLong = errors.New("preset: line exceeds length limit")
	ErrBadHeader   = errors.New("preset: malformed header")
)

// indexed pairs a numeric key suffix with its verbatim text so blocks can
// be ordered by ascending suffix regardless of file order; gaps are allowed.
type indexed struct {
	index int
	text  string
}

// Parse parses a .milk preset blob. The input may be UTF-8 or Latin-1; it
// is normalized to UTF-8 before parsing. Unknown keys are preserved with a
// warning tag rather than rejected.
func Parse(input string) (*Preset, error) {
	if len(input) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(input), MaxFileSize)
	}
	input = normalizeUTF8(input)

	p := &Preset{
		Parameters:  DefaultParameters(),
		UnknownKeys: map[string]string{},
	}

	var (
		perFrameInit, perFrame, perPixel []indexed
		warpLines, compLines             []indexed
	)
	waveEqs := map[int]*equationAcc{}
	shapeEqs := map[int]*equationAcc{}

	lineNo := 0
	for line := range strings.Lines(input) {
		lineNo++
		line = strings.TrimRight(line, "\r\n")
		if len(line) > MaxLineLength {
			return nil, fmt.Errorf("%w: line %d is %d bytes (max %d)", ErrLineTooLong, lineNo, len(line), MaxLineLength)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Section headers delimit the (typically single) preset body.
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		lower := strings.ToLower(key)
		// Shader and equation values keep leading whitespace except around
		// the separator itself.
		value = strings.TrimSpace(value)

		switch {
		case lower == "milkdrop_preset_version":
			v, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: bad version %q on line %d", ErrBadHeader, value, lineNo)
			}
			p.Version = v

		case lower == "psversion_warp" || lower == "psversion":
			if v, err := strconv.Atoi(value); err == nil {
				p.WarpShaderVersion = v
				if lower == "psversion" {
					p.CompShaderVersion = v
				}
			}

		case lower == "psversion_comp":
			if v, err := strconv.Atoi(value); err == nil {
				p.CompShaderVersion = v
			}

		case strings.HasPrefix(lower, "per_frame_init_"):
			if idx, ok := suffixIndex(lower, "per_frame_init_"); ok {
				perFrameInit = append(perFrameInit, indexed{idx, value})
			}

		case strings.HasPrefix(lower, "per_frame_"):
			if idx, ok := suffixIndex(lower, "per_frame_"); ok {
				perFrame = append(perFrame, indexed{idx, value})
			}

		case strings.HasPrefix(lower, "per_pixel_"):
			if idx, ok := suffixIndex(lower, "per_pixel_"); ok {
				perPixel = append(perPixel, indexed{idx, value})
			}

		case strings.HasPrefix(lower, "warp_"):
			if idx, ok := suffixIndex(lower, "warp_"); ok {
				warpLines = append(warpLines, indexed{idx, stripShaderLine(value)})
			}

		case strings.HasPrefix(lower, "comp_"):
			if idx, ok := suffixIndex(lower, "comp_"); ok {
				compLines = append(compLines, indexed{idx, stripShaderLine(value)})
			}

		case strings.HasPrefix(lower, "wavecode_"):
			parseWaveCodeKey(p, waveEqs, lower, value)

		case strings.HasPrefix(lower, "shapecode_"):
			parseShapeCodeKey(p, shapeEqs, lower, value)

		default:
			if !applyParameter(&p.Parameters, lower, value) {
				log.Printf("preset: unknown key %q on line %d (preserved)", key, lineNo)
				p.UnknownKeys[key] = value
			}
		}
	}

	p.PerFrameInit = collect(perFrameInit)
	p.PerFrame = collect(perFrame)
	p.PerPixel = collect(perPixel)
	p.WarpShader = joinShader(warpLines)
	p.CompShader = joinShader(compLines)

	for idx, acc := range waveEqs {
		p.Waves[idx].Init = collect(acc.init)
		p.Waves[idx].PerFrame = collect(acc.perFrame)
		p.Waves[idx].PerPoint = collect(acc.perPoint)
	}
	for idx, acc := range shapeEqs {
		p.Shapes[idx].Init = collect(acc.init)
		p.Shapes[idx].PerFrame = collect(acc.perFrame)
	}

	return p, nil
}

// equationAcc gathers a wave or shape's equation lines with their numeric
// suffixes until the whole file is read, so ordering is by suffix rather
// than by file position.
type equationAcc struct {
	init, perFrame, perPoint []indexed
}

func accFor(m map[int]*equationAcc, idx int) *equationAcc {
	acc, ok := m[idx]
	if !ok {
		acc = &equationAcc{}
		m[idx] = acc
	}
	return acc
}

// applyParameter stores value under a recognized scalar key, reporting
// whether the key was recognized. A recognized key with an unparsable
// value is ignored, keeping the default.
func applyParameter(params *Parameters, lowerKey, value string) bool {
	for _, f := range params.fields() {
		if strings.ToLower(f.key) != lowerKey {
			continue
		}
		switch f.kind {
		case paramFloat:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				*f.f = v
			}
		case paramInt:
			if v, err := strconv.Atoi(value); err == nil {
				*f.i = v
			}
		case paramBool:
			*f.b = value == "1"
		}
		return true
	}
	return false
}

// parseWaveCodeKey handles wavecode_N_<param> keys, growing the wave list
// as indices appear. Equation suffixes accept both per_frame1 and
// per_frame_1 spellings.
func parseWaveCodeKey(p *Preset, eqs map[int]*equationAcc, lowerKey, value string) {
	rest, ok := strings.CutPrefix(lowerKey, "wavecode_")
	if !ok {
		return
	}
	idxText, param, ok := strings.Cut(rest, "_")
	if !ok {
		return
	}
	idx, err := strconv.Atoi(idxText)
	if err != nil || idx < 0 || idx > 3 {
		return
	}
	for len(p.Waves) <= idx {
		p.Waves = append(p.Waves, defaultWaveCode(len(p.Waves)))
	}
	w := &p.Waves[idx]

	switch param {
	case "enabled":
		w.Enabled = value == "1"
	case "samples":
		if v, err := strconv.Atoi(value); err == nil {
			w.Samples = v
		}
	case "sep":
		if v, err := strconv.Atoi(value); err == nil {
			w.Sep = v
		}
	case "bspectrum":
		w.Spectrum = value == "1"
	case "busedots":
		w.UseDots = value == "1"
	case "bdrawthick":
		w.DrawThick = value == "1"
	case "badditive":
		w.Additive = value == "1"
	case "scaling":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			w.Scaling = v
		}
	case "smoothing":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			w.Smoothing = v
		}
	case "r", "g", "b", "a":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			switch param {
			case "r":
				w.R = v
			case "g":
				w.G = v
			case "b":
				w.B = v
			case "a":
				w.A = v
			}
		}
	default:
		switch {
		case equationSuffix(param, "init") >= 0:
			acc := accFor(eqs, idx)
			acc.init = append(acc.init, indexed{equationSuffix(param, "init"), value})
		case equationSuffix(param, "per_frame") >= 0:
			acc := accFor(eqs, idx)
			acc.perFrame = append(acc.perFrame, indexed{equationSuffix(param, "per_frame"), value})
		case equationSuffix(param, "per_point") >= 0:
			acc := accFor(eqs, idx)
			acc.perPoint = append(acc.perPoint, indexed{equationSuffix(param, "per_point"), value})
		}
	}
}

// parseShapeCodeKey handles shapecode_N_<param> keys.
func parseShapeCodeKey(p *Preset, eqs map[int]*equationAcc, lowerKey, value string) {
	rest, ok := strings.CutPrefix(lowerKey, "shapecode_")
	if !ok {
		return
	}
	idxText, param, ok := strings.Cut(rest, "_")
	if !ok {
		return
	}
	idx, err := strconv.Atoi(idxText)
	if err != nil || idx < 0 || idx > 3 {
		return
	}
	for len(p.Shapes) <= idx {
		p.Shapes = append(p.Shapes, defaultShapeCode(len(p.Shapes)))
	}
	s := &p.Shapes[idx]

	setF := func(dst *float64) {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			*dst = v
		}
	}

	switch param {
	case "enabled":
		s.Enabled = value == "1"
	case "sides":
		if v, err := strconv.Atoi(value); err == nil {
			s.Sides = v
		}
	case "additive":
		s.Additive = value == "1"
	case "thickoutline":
		s.ThickOutline = value == "1"
	case "textured":
		s.Textured = value == "1"
	case "num_inst":
		if v, err := strconv.Atoi(value); err == nil {
			s.Instances = v
		}
	case "x":
		setF(&s.X)
	case "y":
		setF(&s.Y)
	case "rad":
		setF(&s.Rad)
	case "ang":
		setF(&s.Ang)
	case "tex_ang":
		setF(&s.TexAng)
	case "tex_zoom":
		setF(&s.TexZoom)
	case "r":
		setF(&s.R)
	case "g":
		setF(&s.G)
	case "b":
		setF(&s.B)
	case "a":
		setF(&s.A)
	case "r2":
		setF(&s.R2)
	case "g2":
		setF(&s.G2)
	case "b2":
		setF(&s.B2)
	case "a2":
		setF(&s.A2)
	case "border_r":
		setF(&s.BorderR)
	case "border_g":
		setF(&s.BorderG)
	case "border_b":
		setF(&s.BorderB)
	case "border_a":
		setF(&s.BorderA)
	default:
		switch {
		case equationSuffix(param, "init") >= 0:
			acc := accFor(eqs, idx)
			acc.init = append(acc.init, indexed{equationSuffix(param, "init"), value})
		case equationSuffix(param, "per_frame") >= 0:
			acc := accFor(eqs, idx)
			acc.perFrame = append(acc.perFrame, indexed{equationSuffix(param, "per_frame"), value})
		}
	}
}

// suffixIndex extracts the numeric suffix after prefix, e.g.
// suffixIndex("per_frame_12", "per_frame_") == 12.
func suffixIndex(key, prefix string) (int, bool) {
	n, err := strconv.Atoi(key[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// equationSuffix matches "<base>N" or "<base>_N" and returns N, or -1.
func equationSuffix(param, base string) int {
	rest, ok := strings.CutPrefix(param, base)
	if !ok {
		return -1
	}
	rest = strings.TrimPrefix(rest, "_")
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// collect sorts by ascending suffix (stable for duplicates) and returns
// the ordered statement texts.
func collect(items []indexed) []string {
	sort.SliceStable(items, func(i, j int) bool { return items[i].index < items[j].index })
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.text)
	}
	return out
}

// stripShaderLine removes the backtick prefix MilkDrop uses on shader lines.
func stripShaderLine(value string) string {
	return strings.TrimPrefix(value, "`")
}

func joinShader(lines []indexed) string {
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, it := range collect(lines) {
		sb.WriteString(it)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// normalizeUTF8 reinterprets invalid UTF-8 input as Latin-1.
func normalizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		sb.WriteRune(rune(s[i]))
	}
	return sb.String()
}
