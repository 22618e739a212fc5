package render

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// userAgentCSS covers the browser defaults slides usually rely on.
const userAgentCSS = `
html, body, div, section, article, header, footer, main, aside, nav, p, ul, ol, li, h1, h2, h3, h4, h5, h6, figure { display: block; }
head, style, script, title, meta, link, template, noscript { display: none; }
body { margin: 8px; }
h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold; }
h2 { font-size: 1.5em; margin: 0.83em 0; font-weight: bold; }
h3 { font-size: 1.17em; margin: 1em 0; font-weight: bold; }
h4 { margin: 1.33em 0; font-weight: bold; }
h5 { font-size: 0.83em; margin: 1.67em 0; font-weight: bold; }
h6 { font-size: 0.67em; margin: 2.33em 0; font-weight: bold; }
p { margin: 1em 0; }
ul, ol { margin: 1em 0; padding-left: 40px; }
b, strong { font-weight: bold; }
i, em { font-style: italic; }
u { text-decoration: underline; }
`

const (
	rootFontPx = 16.0

	originUserAgent = 0
	originAuthor    = 1
	originInline    = 2
)

var inherited = map[string]bool{
	"color":           true,
	"font-family":     true,
	"font-size":       true,
	"font-weight":     true,
	"font-style":      true,
	"line-height":     true,
	"text-align":      true,
	"text-decoration": true,
	"visibility":      true,
}

type compound struct {
	tag     string
	id      string
	classes []string
}

// selector is a chain of compounds joined by descendant (' ') or child ('>')
// combinators. combinators[i] joins compounds[i-1] and compounds[i].
type selector struct {
	compounds   []compound
	combinators []byte
	specificity int
}

type declaration struct {
	property  string
	value     string
	important bool
}

type styleRule struct {
	sel    selector
	origin int
	order  int
	decls  []declaration
}

type stylesheet struct {
	rules []styleRule
}

// parseSelector accepts type, class, id and universal selectors with
// descendant and child combinators. Anything else is reported as unsupported.
func parseSelector(s string) (selector, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, ":[+~") {
		return selector{}, false
	}
	s = strings.ReplaceAll(s, ">", " > ")

	var sel selector
	comb := byte(' ')
	var ids, classes, tags int
	for _, tok := range strings.Fields(s) {
		if tok == ">" {
			comb = '>'
			continue
		}
		c := parseCompound(tok)
		if c.id != "" {
			ids++
		}
		classes += len(c.classes)
		if c.tag != "" && c.tag != "*" {
			tags++
		}
		sel.compounds = append(sel.compounds, c)
		sel.combinators = append(sel.combinators, comb)
		comb = ' '
	}
	if len(sel.compounds) == 0 || comb == '>' {
		return selector{}, false
	}
	sel.specificity = ids*10000 + classes*100 + tags
	return sel, true
}

func parseCompound(tok string) compound {
	var c compound
	i := strings.IndexAny(tok, ".#")
	if i < 0 {
		c.tag = strings.ToLower(tok)
		return c
	}
	c.tag = strings.ToLower(tok[:i])
	rest := tok[i:]
	for rest != "" {
		kind := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, ".#")
		if end < 0 {
			end = len(rest)
		}
		name := rest[:end]
		rest = rest[end:]
		if kind == '#' {
			c.id = name
		} else if name != "" {
			c.classes = append(c.classes, name)
		}
	}
	return c
}

func (c compound) matches(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && c.tag != n.Data {
		return false
	}
	if c.id != "" && attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range c.classes {
			if !lo.Contains(have, want) {
				return false
			}
		}
	}
	return true
}

func (s selector) matches(n *html.Node) bool {
	last := len(s.compounds) - 1
	if !s.compounds[last].matches(n) {
		return false
	}
	cur := n
	for i := last - 1; i >= 0; i-- {
		if s.combinators[i+1] == '>' {
			cur = cur.Parent
			if !s.compounds[i].matches(cur) {
				return false
			}
			continue
		}
		for cur = cur.Parent; cur != nil && !s.compounds[i].matches(cur); cur = cur.Parent {
		}
		if cur == nil {
			return false
		}
	}
	return true
}

func (sh *stylesheet) add(text string, origin int, logger *zap.Logger) {
	parsed, err := parser.Parse(text)
	if err != nil {
		logger.Warn("skipping unparsable stylesheet", zap.Error(err))
		return
	}
	for _, r := range parsed.Rules {
		if r.Kind != css.QualifiedRule {
			logger.Debug("skipping at-rule", zap.String("rule", r.Name))
			continue
		}
		decls := convertDeclarations(r.Declarations)
		for _, raw := range r.Selectors {
			sel, ok := parseSelector(raw)
			if !ok {
				logger.Debug("skipping unsupported selector", zap.String("selector", raw))
				continue
			}
			sh.rules = append(sh.rules, styleRule{sel: sel, origin: origin, order: len(sh.rules), decls: decls})
		}
	}
}

func convertDeclarations(in []*css.Declaration) []declaration {
	out := make([]declaration, 0, len(in))
	for _, d := range in {
		out = append(out, declaration{
			property:  strings.ToLower(strings.TrimSpace(d.Property)),
			value:     strings.TrimSpace(d.Value),
			important: d.Important,
		})
	}
	return out
}

// inlineDeclarations parses a style attribute. douceur drops the value of a
// final declaration that has no terminating semicolon, so one is added.
func inlineDeclarations(style string) ([]declaration, error) {
	style = strings.TrimSpace(style)
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return nil, err
	}
	return convertDeclarations(decls), nil
}

type weighted struct {
	declaration
	origin      int
	specificity int
	order       int
}

// cascade returns the longhand properties declared for n, highest priority
// last-applied.
func (sh *stylesheet) cascade(n *html.Node, logger *zap.Logger) map[string]string {
	var matched []weighted
	for _, r := range sh.rules {
		if !r.sel.matches(n) {
			continue
		}
		for _, d := range r.decls {
			matched = append(matched, weighted{declaration: d, origin: r.origin, specificity: r.sel.specificity, order: r.order})
		}
	}
	if inline := attr(n, "style"); inline != "" {
		decls, err := inlineDeclarations(inline)
		if err != nil {
			logger.Warn("skipping unparsable inline style", zap.String("tag", n.Data), zap.Error(err))
		} else {
			for _, d := range decls {
				matched = append(matched, weighted{declaration: d, origin: originInline, order: math.MaxInt32})
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.important != b.important {
			return !a.important
		}
		if a.origin != b.origin {
			return a.origin < b.origin
		}
		if a.specificity != b.specificity {
			return a.specificity < b.specificity
		}
		return a.order < b.order
	})

	props := make(map[string]string)
	for _, d := range matched {
		for k, v := range expand(d.property, d.value) {
			props[k] = v
		}
	}
	return props
}

var sides = [4]string{"top", "right", "bottom", "left"}

// boxValues spreads the 1-4 value CSS box shorthand over top, right,
// bottom, left.
func boxValues(v string) [4]string {
	f := Fields(v)
	switch len(f) {
	case 0:
		return [4]string{}
	case 1:
		return [4]string{f[0], f[0], f[0], f[0]}
	case 2:
		return [4]string{f[0], f[1], f[0], f[1]}
	case 3:
		return [4]string{f[0], f[1], f[2], f[1]}
	default:
		return [4]string{f[0], f[1], f[2], f[3]}
	}
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "solid": true, "dashed": true, "dotted": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// expand turns shorthands into the longhands the layout reads.
func expand(prop, value string) map[string]string {
	switch prop {
	case "margin", "padding":
		vals := boxValues(value)
		out := make(map[string]string, 4)
		for i, side := range sides {
			out[prop+"-"+side] = vals[i]
		}
		return out

	case "border-width", "border-style", "border-color":
		part := strings.TrimPrefix(prop, "border-")
		vals := boxValues(value)
		out := make(map[string]string, 4)
		for i, side := range sides {
			out["border-"+side+"-"+part] = vals[i]
		}
		return out

	case "border", "border-top", "border-right", "border-bottom", "border-left":
		width, style, color := "medium", "none", "currentcolor"
		for _, tok := range Fields(value) {
			switch {
			case borderStyles[strings.ToLower(tok)]:
				style = strings.ToLower(tok)
			case isLengthToken(tok):
				width = tok
			default:
				color = tok
			}
		}
		targets := sides[:]
		if prop != "border" {
			targets = []string{strings.TrimPrefix(prop, "border-")}
		}
		out := make(map[string]string, len(targets)*3)
		for _, side := range targets {
			out["border-"+side+"-width"] = width
			out["border-"+side+"-style"] = style
			out["border-"+side+"-color"] = color
		}
		return out

	case "background":
		out := map[string]string{"background-color": "transparent", "background-image": "none"}
		if strings.Contains(value, "gradient(") {
			out["background-image"] = value
			return out
		}
		for _, tok := range Fields(value) {
			switch {
			case strings.HasPrefix(tok, "url("):
				out["background-image"] = tok
			case isColorToken(tok):
				out["background-color"] = tok
			}
		}
		return out

	case "text-decoration-line":
		return map[string]string{"text-decoration": value}
	}
	return map[string]string{prop: value}
}

func isLengthToken(tok string) bool {
	switch strings.ToLower(tok) {
	case "thin", "medium", "thick":
		return true
	}
	if tok == "" {
		return false
	}
	c := tok[0]
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}

func isColorToken(tok string) bool {
	t := strings.ToLower(tok)
	if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "rgb") || strings.HasPrefix(t, "hsl") {
		return true
	}
	switch t {
	case "no-repeat", "repeat", "repeat-x", "repeat-y", "center", "top", "bottom", "left", "right",
		"cover", "contain", "fixed", "scroll", "none", "/", "auto":
		return false
	}
	return !isLengthToken(t)
}

// Fields splits a CSS value on whitespace outside parentheses, so
// "rgba(0, 0, 0, .2) 2px 4px" yields three fields.
func Fields(v string) []string {
	var out []string
	var b strings.Builder
	depth := 0
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range v {
		switch {
		case r == '(':
			depth++
			b.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			b.WriteRune(r)
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

// parseLength resolves a CSS length to pixels. em is relative to fontPx and
// percentages to refPx.
func parseLength(v string, fontPx, refPx float64) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "auto", "none", "normal", "inherit", "initial":
		return 0, false
	case "0":
		return 0, true
	case "thin":
		return 1, true
	case "medium":
		return 3, true
	case "thick":
		return 5, true
	}

	units := []struct {
		suffix string
		factor float64
	}{
		{"rem", rootFontPx},
		{"px", 1},
		{"pt", 96.0 / 72},
		{"pc", 16},
		{"in", 96},
		{"cm", 96 / 2.54},
		{"mm", 96 / 25.4},
		{"em", fontPx},
		{"%", refPx / 100},
	}
	for _, u := range units {
		if strings.HasSuffix(v, u.suffix) {
			n, err := strconv.ParseFloat(strings.TrimSuffix(v, u.suffix), 64)
			if err != nil {
				return 0, false
			}
			return n * u.factor, true
		}
	}
	return 0, false
}

var fontKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32, "xxx-large": 48,
}

func fontSizePx(v string, parentPx float64) float64 {
	v = strings.ToLower(strings.TrimSpace(v))
	if px, ok := fontKeywords[v]; ok {
		return px
	}
	switch v {
	case "smaller":
		return parentPx / 1.2
	case "larger":
		return parentPx * 1.2
	}
	if px, ok := parseLength(v, parentPx, parentPx); ok {
		return px
	}
	return parentPx
}

func fontWeight(v string) int {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "normal":
		return 400
	case "bold", "bolder":
		return 700
	case "lighter":
		return 300
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return n
	}
	return 400
}

// rotation reads the angle of a rotate() transform in degrees.
func rotation(v string) float64 {
	v = strings.ToLower(v)
	i := strings.Index(v, "rotate(")
	if i < 0 {
		return 0
	}
	arg := v[i+len("rotate("):]
	if j := strings.Index(arg, ")"); j >= 0 {
		arg = strings.TrimSpace(arg[:j])
	}
	units := []struct {
		suffix string
		factor float64
	}{
		{"deg", 1},
		{"grad", 0.9},
		{"rad", 180 / math.Pi},
		{"turn", 360},
	}
	for _, u := range units {
		if strings.HasSuffix(arg, u.suffix) {
			n, err := strconv.ParseFloat(strings.TrimSuffix(arg, u.suffix), 64)
			if err != nil {
				return 0
			}
			return n * u.factor
		}
	}
	return 0
}

// computeStyle resolves cascaded properties into a Style. containerW is the
// containing block width used for percentage margins and padding.
func computeStyle(props map[string]string, fontPx, containerW float64) Style {
	length := func(name string) float64 {
		px, _ := parseLength(props[name], fontPx, containerW)
		return px
	}
	color := props["color"]
	border := func(side string) Border {
		b := Border{
			Style: strings.ToLower(props["border-"+side+"-style"]),
			Color: props["border-"+side+"-color"],
		}
		if b.Style == "" || b.Style == "none" || b.Style == "hidden" {
			return Border{}
		}
		w := props["border-"+side+"-width"]
		if w == "" {
			w = "medium"
		}
		b.Width, _ = parseLength(w, fontPx, containerW)
		if b.Color == "" || strings.EqualFold(b.Color, "currentcolor") {
			b.Color = color
		}
		return b
	}

	s := Style{
		BackgroundColor: props["background-color"],
		BackgroundImage: props["background-image"],
		BorderTop:       border("top"),
		BorderRight:     border("right"),
		BorderBottom:    border("bottom"),
		BorderLeft:      border("left"),
		BoxShadow:       props["box-shadow"],
		Color:           color,
		FontFamily:      props["font-family"],
		FontSize:        fontPx,
		FontWeight:      fontWeight(props["font-weight"]),
		FontStyle:       strings.ToLower(props["font-style"]),
		TextDecoration:  strings.ToLower(props["text-decoration"]),
		TextAlign:       strings.ToLower(props["text-align"]),
		MarginTop:       length("margin-top"),
		MarginBottom:    length("margin-bottom"),
		PaddingTop:      length("padding-top"),
		PaddingRight:    length("padding-right"),
		PaddingBottom:   length("padding-bottom"),
		PaddingLeft:     length("padding-left"),
		Rotate:          rotation(props["transform"]),
		Opacity:         1,
	}
	if r := Fields(props["border-radius"]); len(r) > 0 {
		s.BorderRadius, _ = parseLength(r[0], fontPx, containerW)
	}
	if lh := strings.TrimSpace(props["line-height"]); lh != "" && lh != "normal" {
		if n, err := strconv.ParseFloat(lh, 64); err == nil {
			s.LineHeight = n * fontPx
		} else if px, ok := parseLength(lh, fontPx, fontPx); ok {
			s.LineHeight = px
		}
	}
	if op, err := strconv.ParseFloat(strings.TrimSpace(props["opacity"]), 64); err == nil {
		s.Opacity = op
	}
	return s
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
