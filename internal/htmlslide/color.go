package htmlslide

import (
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gnemet/html2deck/internal/render"
)

var namedColors = map[string]string{
	"black": "#000000", "white": "#ffffff", "red": "#ff0000", "green": "#008000",
	"blue": "#0000ff", "gray": "#808080", "grey": "#808080", "silver": "#c0c0c0",
	"yellow": "#ffff00", "orange": "#ffa500", "purple": "#800080", "navy": "#000080",
	"teal": "#008080", "maroon": "#800000", "olive": "#808000", "lime": "#00ff00",
	"aqua": "#00ffff", "cyan": "#00ffff", "fuchsia": "#ff00ff", "magenta": "#ff00ff",
	"gold": "#ffd700", "pink": "#ffc0cb", "brown": "#a52a2a", "indigo": "#4b0082",
	"violet": "#ee82ee", "coral": "#ff7f50", "crimson": "#dc143c", "darkgray": "#a9a9a9",
	"lightgray": "#d3d3d3", "whitesmoke": "#f5f5f5", "slategray": "#708090",
}

// parseColor converts a CSS colour to an RRGGBB hex string and an alpha in
// [0, 1]. ok is false for transparent or unrecognised values.
func parseColor(s string) (hex string, alpha float64, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if named, found := namedColors[s]; found {
		s = named
	}

	var c colorful.Color
	alpha = 1
	switch {
	case s == "" || s == "transparent" || s == "none" || s == "currentcolor":
		return "", 0, false

	case strings.HasPrefix(s, "#"):
		digits := s[1:]
		switch len(digits) {
		case 4:
			alpha = hexAlpha(strings.Repeat(digits[3:], 2))
			digits = digits[:3]
		case 8:
			alpha = hexAlpha(digits[6:])
			digits = digits[:6]
		}
		parsed, err := colorful.Hex("#" + digits)
		if err != nil {
			return "", 0, false
		}
		c = parsed

	case strings.HasPrefix(s, "rgb"):
		args := funcArgs(s)
		if len(args) < 3 {
			return "", 0, false
		}
		var rgb [3]float64
		for i := range rgb {
			v, ok := channel(args[i], 255)
			if !ok {
				return "", 0, false
			}
			rgb[i] = v / 255
		}
		c = colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
		if len(args) > 3 {
			alpha, _ = channel(args[3], 1)
		}

	case strings.HasPrefix(s, "hsl"):
		args := funcArgs(s)
		if len(args) < 3 {
			return "", 0, false
		}
		h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
		if err != nil {
			return "", 0, false
		}
		sat, ok1 := channel(args[1], 1)
		light, ok2 := channel(args[2], 1)
		if !ok1 || !ok2 {
			return "", 0, false
		}
		c = colorful.Hsl(h, sat, light)
		if len(args) > 3 {
			alpha, _ = channel(args[3], 1)
		}

	default:
		return "", 0, false
	}

	alpha = math.Max(0, math.Min(1, alpha))
	if alpha == 0 {
		return "", 0, false
	}
	return strings.ToUpper(strings.TrimPrefix(c.Clamped().Hex(), "#")), alpha, true
}

// funcArgs splits "rgba(1, 2, 3, .5)" or "rgb(1 2 3 / 50%)" into arguments.
func funcArgs(s string) []string {
	open := strings.Index(s, "(")
	end := strings.LastIndex(s, ")")
	if open < 0 || end < open {
		return nil
	}
	inner := strings.NewReplacer(",", " ", "/", " ").Replace(s[open+1 : end])
	return strings.Fields(inner)
}

// channel parses a number or percentage; percentages are relative to scale.
func channel(v string, scale float64) (float64, bool) {
	if p, ok := strings.CutSuffix(v, "%"); ok {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		return n / 100 * scale, true
	}
	n, err := strconv.ParseFloat(v, 64)
	return n, err == nil
}

func hexAlpha(hh string) float64 {
	n, err := strconv.ParseUint(hh, 16, 8)
	if err != nil {
		return 1
	}
	return float64(n) / 255
}

var genericFonts = map[string]string{
	"sans-serif": "Arial",
	"serif":      "Times New Roman",
	"monospace":  "Courier New",
	"system-ui":  "Arial",
	"cursive":    "Comic Sans MS",
}

// fontFace picks the first family of a CSS font-family list.
func fontFace(family string) string {
	first, _, _ := strings.Cut(family, ",")
	first = strings.Trim(strings.TrimSpace(first), `"'`)
	if generic, ok := genericFonts[strings.ToLower(first)]; ok {
		return generic
	}
	return first
}

// shadow reads the first outer shadow of a box-shadow value. Both the
// authored order (offsets first) and the computed order (colour first)
// are accepted.
func shadow(v string) (color string, alpha, offX, offY, blur float64, ok bool) {
	first := strings.TrimSpace(splitTopLevel(v)[0])
	if first == "" || first == "none" {
		return "", 0, 0, 0, 0, false
	}
	color, alpha = "000000", 1
	var lengths []float64
	for _, tok := range render.Fields(first) {
		if tok == "inset" {
			return "", 0, 0, 0, 0, false
		}
		if n, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 64); err == nil {
			lengths = append(lengths, n)
			continue
		}
		if hex, a, parsed := parseColor(tok); parsed {
			color, alpha = hex, a
		}
	}
	if len(lengths) < 2 {
		return "", 0, 0, 0, 0, false
	}
	offX, offY = lengths[0], lengths[1]
	if len(lengths) > 2 {
		blur = lengths[2]
	}
	return color, alpha, offX, offY, blur, true
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(v string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range v {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, v[start:i])
				start = i + 1
			}
		}
	}
	return append(out, v[start:])
}
