// Package htmlslide converts one HTML slide document into one presentation
// slide. The document is measured by a render.Renderer, checked against what
// a slide can represent and then mapped onto pptx shapes, text boxes and
// pictures.
package htmlslide

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gnemet/html2deck/internal/layout"
	"github.com/gnemet/html2deck/internal/pptx"
	"github.com/gnemet/html2deck/internal/render"
)

// Placeholder is an area reserved in the HTML for content added later,
// such as a chart. Units are inches.
type Placeholder struct {
	ID         string
	X, Y, W, H float64
}

// Result describes the slide a conversion produced.
type Result struct {
	Slide        *pptx.Slide
	Placeholders []Placeholder
	// Text is the slide's visible text, one block per line.
	Text string
}

type Converter struct {
	renderer render.Renderer
	layout   layout.Layout
	logger   *zap.Logger
}

func New(r render.Renderer, l layout.Layout, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{renderer: r, layout: l, logger: logger}
}

// Convert renders htmlPath and appends one slide to pres. Nothing is added
// when the document fails validation; the returned *ValidationError lists
// every problem found.
func (c *Converter) Convert(ctx context.Context, htmlPath string, pres *pptx.Presentation) (*Result, error) {
	snap, err := c.renderer.Render(ctx, htmlPath)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", filepath.Base(htmlPath), err)
	}

	dir := filepath.Dir(htmlPath)
	if problems := validate(snap, c.layout, dir); len(problems) > 0 {
		return nil, &ValidationError{File: filepath.Base(htmlPath), Problems: problems}
	}

	m := &mapper{slide: pres.AddSlide(), dir: dir, logger: c.logger}
	if err := m.background(snap.Background); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(htmlPath), err)
	}
	res := &Result{Slide: m.slide}
	var text []string
	for _, e := range snap.Elements {
		if e.Placeholder {
			res.Placeholders = append(res.Placeholders, Placeholder{
				ID: e.ID,
				X:  pxToIn(e.Box.X), Y: pxToIn(e.Box.Y),
				W: pxToIn(e.Box.W), H: pxToIn(e.Box.H),
			})
		}
		if err := m.element(e); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", filepath.Base(htmlPath), describe(e), err)
		}
		if t := elementText(e); t != "" {
			text = append(text, t)
		}
	}
	m.slide.SetNotes(snap.Notes)
	res.Text = strings.Join(text, "\n")

	c.logger.Debug("slide converted",
		zap.String("file", filepath.Base(htmlPath)),
		zap.Int("slide", m.slide.Number()),
		zap.Int("objects", m.slide.Len()),
		zap.Int("placeholders", len(res.Placeholders)))
	return res, nil
}

type mapper struct {
	slide  *pptx.Slide
	dir    string
	logger *zap.Logger
}

func (m *mapper) background(st render.Style) error {
	if src, ok := cssURL(st.BackgroundImage); ok {
		path, err := resolveImage(src, m.dir)
		if err != nil {
			return err
		}
		return m.slide.SetBackgroundImage(path)
	}
	if hex, _, ok := parseColor(st.BackgroundColor); ok {
		m.slide.SetBackgroundColor(hex)
	}
	return nil
}

func (m *mapper) element(e render.Element) error {
	switch e.Tag {
	case "div":
		return m.shape(e)
	case "img":
		path, err := resolveImage(e.Src, m.dir)
		if err != nil {
			return err
		}
		x, y, w, h := boxIn(e.Box)
		return m.slide.AddImage(path, pptx.ImageOptions{X: x, Y: y, W: w, H: h, AltText: e.Alt, Rotate: e.Style.Rotate})
	case "p", "h1", "h2", "h3", "h4", "h5", "h6":
		m.slide.AddText(textRuns(e.Runs), textOptions(e))
	case "ul", "ol":
		items := make([]pptx.ListItem, 0, len(e.Items))
		for _, it := range e.Items {
			items = append(items, pptx.ListItem{Runs: textRuns(it.Runs), Level: it.Level})
		}
		opts := pptx.ListOptions{TextOptions: textOptions(e), Numbered: e.Tag == "ol"}
		// the list padding becomes the bullet indent rather than an inset
		opts.Indent = pxToPt(e.Style.PaddingLeft)
		if opts.Inset != nil {
			opts.Inset.Left = 0
		}
		m.slide.AddList(items, opts)
	}
	return nil
}

func boxIn(b render.Box) (x, y, w, h float64) {
	return pxToIn(b.X), pxToIn(b.Y), pxToIn(b.W), pxToIn(b.H)
}

// shape draws a styled div: fill, outline, corner radius and shadow, plus
// one line per side when the borders differ.
func (m *mapper) shape(e render.Element) error {
	st := e.Style
	x, y, w, h := boxIn(e.Box)
	opts := pptx.ShapeOptions{Kind: pptx.ShapeRect, X: x, Y: y, W: w, H: h, Rotate: st.Rotate}
	drawn := false

	if hex, alpha, ok := parseColor(st.BackgroundColor); ok {
		opts.Fill = hex
		opts.Transparency = math.Round((1 - alpha*opacity(st)) * 100)
		drawn = true
	}
	if st.BorderRadius > 0 {
		opts.Kind = pptx.ShapeRoundRect
		opts.RectRadius = pxToIn(st.BorderRadius)
	}

	borders := st.Borders()
	uniform := borders[0].Visible()
	for _, b := range borders[1:] {
		uniform = uniform && b.Visible() && b.Width == borders[0].Width && sameColor(b.Color, borders[0].Color)
	}
	if uniform {
		hex, _, _ := parseColor(borders[0].Color)
		opts.Line = &pptx.LineStyle{Color: hex, Width: pxToPt(borders[0].Width)}
		drawn = true
	}

	if color, alpha, offX, offY, blur, ok := shadow(st.BoxShadow); ok {
		opts.Shadow = &pptx.Shadow{
			Color:   color,
			Blur:    pxToPt(blur),
			Offset:  pxToPt(math.Hypot(offX, offY)),
			Angle:   math.Atan2(offY, offX) * 180 / math.Pi,
			Opacity: alpha,
		}
		drawn = true
	}

	if drawn {
		m.slide.AddShape(opts)
	}

	if src, ok := cssURL(st.BackgroundImage); ok {
		path, err := resolveImage(src, m.dir)
		if err != nil {
			return err
		}
		if err := m.slide.AddImage(path, pptx.ImageOptions{X: x, Y: y, W: w, H: h, Rotate: st.Rotate}); err != nil {
			return err
		}
	}

	if !uniform {
		m.borderLines(e.Box, borders)
	}
	return nil
}

// borderLines draws each visible side centred on the border stroke.
func (m *mapper) borderLines(b render.Box, borders [4]render.Border) {
	for side, br := range borders {
		if !br.Visible() {
			continue
		}
		hex, _, _ := parseColor(br.Color)
		half := br.Width / 2
		var x1, y1, x2, y2 float64
		switch side {
		case 0: // top
			x1, y1, x2, y2 = b.X, b.Y+half, b.X+b.W, b.Y+half
		case 1: // right
			x1, y1, x2, y2 = b.X+b.W-half, b.Y, b.X+b.W-half, b.Bottom()
		case 2: // bottom
			x1, y1, x2, y2 = b.X, b.Bottom()-half, b.X+b.W, b.Bottom()-half
		case 3: // left
			x1, y1, x2, y2 = b.X+half, b.Y, b.X+half, b.Bottom()
		}
		m.slide.AddLine(pptx.LineOptions{
			X1: pxToIn(x1), Y1: pxToIn(y1), X2: pxToIn(x2), Y2: pxToIn(y2),
			Color: hex, Width: pxToPt(br.Width),
		})
	}
}

func opacity(st render.Style) float64 {
	if st.Opacity <= 0 || st.Opacity > 1 {
		return 1
	}
	return st.Opacity
}

func sameColor(a, b string) bool {
	ha, aa, _ := parseColor(a)
	hb, ab, _ := parseColor(b)
	return ha == hb && aa == ab
}

var alignments = map[string]string{
	"left": "left", "start": "left", "center": "center",
	"right": "right", "end": "right", "justify": "justify",
}

func textOptions(e render.Element) pptx.TextOptions {
	st := e.Style
	x, y, w, h := boxIn(e.Box)
	opts := pptx.TextOptions{
		X: x, Y: y, W: w, H: h,
		FontFace:        fontFace(st.FontFamily),
		FontSize:        pxToPt(st.FontSize),
		Bold:            st.FontWeight >= 600,
		Italic:          st.FontStyle == "italic" || st.FontStyle == "oblique",
		Underline:       strings.Contains(st.TextDecoration, "underline"),
		Align:           alignments[st.TextAlign],
		VAlign:          "top",
		LineSpacing:     pxToPt(st.LineHeight),
		ParaSpaceBefore: pxToPt(st.MarginTop),
		ParaSpaceAfter:  pxToPt(st.MarginBottom),
		Rotate:          st.Rotate,
		Inset: &pptx.Insets{
			Left:   pxToPt(st.PaddingLeft),
			Top:    pxToPt(st.PaddingTop),
			Right:  pxToPt(st.PaddingRight),
			Bottom: pxToPt(st.PaddingBottom),
		},
	}
	if hex, _, ok := parseColor(st.Color); ok {
		opts.Color = hex
	}
	return opts
}

func textRuns(runs []render.Run) []pptx.TextRun {
	out := make([]pptx.TextRun, 0, len(runs))
	for _, r := range runs {
		tr := pptx.TextRun{
			Text:      r.Text,
			Bold:      r.Bold,
			Italic:    r.Italic,
			Underline: r.Underline,
			FontFace:  fontFace(r.FontFamily),
			FontSize:  pxToPt(r.FontSize),
			Break:     r.Break,
		}
		if hex, _, ok := parseColor(r.Color); ok {
			tr.Color = hex
		}
		out = append(out, tr)
	}
	return out
}

func elementText(e render.Element) string {
	var lines []string
	line := func(runs []render.Run) string {
		var b strings.Builder
		for _, r := range runs {
			b.WriteString(r.Text)
			if r.Break {
				b.WriteString(" ")
			}
		}
		return strings.TrimSpace(b.String())
	}
	if t := line(e.Runs); t != "" {
		lines = append(lines, t)
	}
	for _, it := range e.Items {
		if t := line(it.Runs); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

// cssURL extracts the target of url(...).
func cssURL(v string) (string, bool) {
	v = strings.TrimSpace(v)
	i := strings.Index(v, "url(")
	if i < 0 {
		return "", false
	}
	rest := v[i+len("url("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return "", false
	}
	return strings.Trim(strings.TrimSpace(rest[:end]), `"'`), true
}

// resolveImage turns an img src or CSS url into a local path or data URI.
func resolveImage(src, htmlDir string) (string, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return src, nil
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return "", fmt.Errorf("invalid image url %s: %w", src, err)
		}
		return filepath.FromSlash(u.Path), nil
	case strings.Contains(src, "://"):
		return "", fmt.Errorf("remote image %s is not supported; save it next to the slide", src)
	case filepath.IsAbs(src):
		return src, nil
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return filepath.Join(htmlDir, filepath.FromSlash(src)), nil
}
