package render

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/gnemet/html2deck/internal/layout"
)

// Static renders slides without a browser. It understands block flow,
// absolute positioning, row and column flex containers and explicit sizes;
// text height is estimated from an average glyph width.
type Static struct {
	layout layout.Layout
	logger *zap.Logger
}

func NewStatic(l layout.Layout, logger *zap.Logger) *Static {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Static{layout: l, logger: logger}
}

func (s *Static) Close() error { return nil }

func (s *Static) Render(ctx context.Context, htmlPath string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", htmlPath, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", htmlPath, err)
	}

	r := &staticRun{
		s:       s,
		baseDir: filepath.Dir(htmlPath),
		snap:    &Snapshot{},
	}
	r.sheet.add(userAgentCSS, originUserAgent, s.logger)
	r.collectStyles(doc)
	if err := r.layoutDocument(doc); err != nil {
		return nil, err
	}
	return r.snap, nil
}

// glyphWidth is the average advance of a proportional font as a fraction
// of its size.
const glyphWidth = 0.5

type computed struct {
	props  map[string]string
	fontPx float64
	style  Style
}

// frame is the area children of a container are laid out in.
type frame struct {
	x, y, w float64
	// abs is the padding box absolutely positioned descendants use.
	abs Box
}

type staticRun struct {
	s       *Static
	baseDir string
	sheet   stylesheet
	snap    *Snapshot
	notes   []string

	maxRight, maxBottom float64
}

func (r *staticRun) collectStyles(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "style":
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			r.sheet.add(b.String(), originAuthor, r.s.logger)
		case "link":
			if strings.EqualFold(attr(n, "rel"), "stylesheet") {
				r.loadLinkedSheet(attr(n, "href"))
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.collectStyles(c)
	}
}

func (r *staticRun) loadLinkedSheet(href string) {
	if href == "" || strings.Contains(href, "://") {
		r.s.logger.Debug("skipping remote stylesheet", zap.String("href", href))
		return
	}
	data, err := os.ReadFile(filepath.Join(r.baseDir, filepath.FromSlash(href)))
	if err != nil {
		r.s.logger.Warn("stylesheet not readable", zap.String("href", href), zap.Error(err))
		return
	}
	r.sheet.add(string(data), originAuthor, r.s.logger)
}

func (r *staticRun) compute(n *html.Node, parent *computed, containerW float64) *computed {
	props := r.sheet.cascade(n, r.s.logger)
	parentFont := rootFontPx
	if parent != nil {
		parentFont = parent.fontPx
		for k, v := range parent.props {
			if _, ok := props[k]; !ok && inherited[k] {
				props[k] = v
			}
		}
	}
	for k, v := range props {
		if strings.EqualFold(v, "inherit") {
			if parent != nil {
				props[k] = parent.props[k]
			} else {
				delete(props, k)
			}
		}
	}

	fontPx := parentFont
	if v, ok := props["font-size"]; ok {
		fontPx = fontSizePx(v, parentFont)
	}
	// descendants inherit the resolved size, not a relative one
	props["font-size"] = fmt.Sprintf("%gpx", fontPx)

	return &computed{props: props, fontPx: fontPx, style: computeStyle(props, fontPx, containerW)}
}

func (r *staticRun) layoutDocument(doc *html.Node) error {
	htmlEl := findElement(doc, "html")
	body := findElement(doc, "body")
	if htmlEl == nil || body == nil {
		return fmt.Errorf("document has no body")
	}

	vw, vh := r.s.layout.WidthPx(), r.s.layout.HeightPx()
	root := r.compute(htmlEl, nil, vw)
	c := r.compute(body, root, vw)
	st := c.style

	ml, _ := parseLength(c.props["margin-left"], c.fontPx, vw)
	mr, _ := parseLength(c.props["margin-right"], c.fontPx, vw)
	mt, _ := parseLength(c.props["margin-top"], c.fontPx, vw)
	mb, _ := parseLength(c.props["margin-bottom"], c.fontPx, vw)

	w, explicitW := r.size(c, "width", vw)
	if !explicitW {
		w = vw - ml - mr
	}
	h, explicitH := r.size(c, "height", vh)

	body0 := Box{X: ml, Y: mt, W: w}
	inner := frame{
		x:   body0.X + st.BorderLeft.Width + st.PaddingLeft,
		y:   body0.Y + st.BorderTop.Width + st.PaddingTop,
		w:   w - horizontalExtras(st),
		abs: Box{X: 0, Y: 0, W: vw, H: vh},
	}
	if isPositioned(c.props) {
		inner.abs = Box{X: body0.X + st.BorderLeft.Width, Y: body0.Y + st.BorderTop.Width, W: w, H: h}
	}

	contentH := r.layoutChildren(body, c, inner)
	if !explicitH {
		h = math.Max(contentH+verticalExtras(st), vh-mt-mb)
	}
	body0.H = h

	r.snap.Width, r.snap.Height = body0.W, body0.H
	r.snap.ScrollWidth = math.Max(body0.W, r.maxRight-body0.X)
	r.snap.ScrollHeight = math.Max(body0.H, r.maxBottom-body0.Y)
	r.snap.Background = Style{
		BackgroundColor: st.BackgroundColor,
		BackgroundImage: st.BackgroundImage,
		Opacity:         1,
	}
	r.snap.Notes = strings.Join(r.notes, "\n")
	return nil
}

// size reads an explicit width or height, honouring box-sizing. It returns
// the border-box size.
func (r *staticRun) size(c *computed, prop string, ref float64) (float64, bool) {
	v, ok := parseLength(c.props[prop], c.fontPx, ref)
	if !ok {
		return 0, false
	}
	if !strings.EqualFold(c.props["box-sizing"], "border-box") {
		if prop == "width" {
			v += horizontalExtras(c.style)
		} else {
			v += verticalExtras(c.style)
		}
	}
	return v, true
}

func horizontalExtras(s Style) float64 {
	return s.PaddingLeft + s.PaddingRight + s.BorderLeft.Width + s.BorderRight.Width
}

func verticalExtras(s Style) float64 {
	return s.PaddingTop + s.PaddingBottom + s.BorderTop.Width + s.BorderBottom.Width
}

func isPositioned(props map[string]string) bool {
	switch strings.ToLower(props["position"]) {
	case "relative", "absolute", "fixed":
		return true
	}
	return false
}

func isOutOfFlow(props map[string]string) bool {
	switch strings.ToLower(props["position"]) {
	case "absolute", "fixed":
		return true
	}
	return false
}

// layoutChildren places the block children of n inside f and returns the
// height they occupy.
func (r *staticRun) layoutChildren(n *html.Node, c *computed, f frame) float64 {
	display := strings.ToLower(c.props["display"])
	if display == "flex" || display == "inline-flex" {
		return r.layoutFlex(n, c, f)
	}

	cursor := f.y
	pendingMargin := 0.0
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type != html.ElementNode {
			continue
		}
		outer, ok := r.placeBlock(ch, c, f, f.x, cursor, f.w, pendingMargin, false)
		if !ok {
			continue
		}
		cursor = outer.y
		pendingMargin = outer.marginBottom
	}
	return cursor - f.y + pendingMargin
}

type placed struct {
	// y is where the next sibling starts, before margin collapsing.
	y            float64
	marginBottom float64
	width        float64
	height       float64
	// index of the element in the snapshot, -1 when not reported.
	index     int
	explicitH bool
}

// placeBlock lays out one element starting at (x, y) in a slot of width w.
// fixedWidth means the slot width is the element's border-box width.
func (r *staticRun) placeBlock(n *html.Node, parent *computed, f frame, x, y, w, pendingMargin float64, fixedWidth bool) (placed, bool) {
	if r.isNotes(n) {
		r.notes = append(r.notes, notesText(n)...)
		return placed{}, false
	}
	c := r.compute(n, parent, f.w)
	if strings.EqualFold(c.props["display"], "none") || isMetaTag(n.Data) {
		return placed{}, false
	}
	st := c.style

	ml, _ := parseLength(c.props["margin-left"], c.fontPx, f.w)
	mr, _ := parseLength(c.props["margin-right"], c.fontPx, f.w)

	box := Box{}
	outOfFlow := isOutOfFlow(c.props)
	ref := f
	if outOfFlow {
		ref = frame{x: f.abs.X, y: f.abs.Y, w: f.abs.W, abs: f.abs}
	}

	bw, explicitW := r.size(c, "width", ref.w)
	var img imageInfo
	if n.Data == "img" {
		img = r.imageSize(n, c)
		if !explicitW && img.attrW > 0 {
			bw, explicitW = img.attrW+horizontalExtras(st), true
		}
		if !explicitW && !fixedWidth && img.width > 0 {
			bw, explicitW = math.Min(img.width, w-ml-mr-horizontalExtras(st))+horizontalExtras(st), true
		}
	}
	switch {
	case explicitW:
		box.W = bw
	case fixedWidth:
		box.W = w
	case outOfFlow:
		left, hasL := parseLength(c.props["left"], c.fontPx, ref.w)
		right, hasR := parseLength(c.props["right"], c.fontPx, ref.w)
		if hasL && hasR {
			box.W = ref.w - left - right - ml - mr
		} else {
			box.W = math.Min(r.intrinsicWidth(n, c), ref.w) + horizontalExtras(st)
		}
	default:
		box.W = w - ml - mr
	}

	if outOfFlow {
		box.X = f.abs.X + ml
		if left, ok := parseLength(c.props["left"], c.fontPx, f.abs.W); ok {
			box.X = f.abs.X + left + ml
		} else if right, ok := parseLength(c.props["right"], c.fontPx, f.abs.W); ok {
			box.X = f.abs.X + f.abs.W - right - mr - box.W
		}
		box.Y = f.abs.Y + st.MarginTop
		if top, ok := parseLength(c.props["top"], c.fontPx, f.abs.H); ok {
			box.Y = f.abs.Y + top + st.MarginTop
		}
	} else {
		box.X = x + ml
		box.Y = y + math.Max(pendingMargin, st.MarginTop)
		if strings.EqualFold(c.props["position"], "relative") {
			if dx, ok := parseLength(c.props["left"], c.fontPx, f.w); ok {
				box.X += dx
			}
			if dy, ok := parseLength(c.props["top"], c.fontPx, f.w); ok {
				box.Y += dy
			}
		}
	}

	inner := frame{
		x:   box.X + st.BorderLeft.Width + st.PaddingLeft,
		y:   box.Y + st.BorderTop.Width + st.PaddingTop,
		w:   box.W - horizontalExtras(st),
		abs: f.abs,
	}

	bh, explicitH := r.size(c, "height", f.abs.H)
	if isPositioned(c.props) {
		inner.abs = Box{X: box.X + st.BorderLeft.Width, Y: box.Y + st.BorderTop.Width, W: box.W - st.BorderLeft.Width - st.BorderRight.Width}
		if explicitH {
			inner.abs.H = bh - st.BorderTop.Width - st.BorderBottom.Width
		}
	}

	el := Element{
		Tag:     n.Data,
		ID:      attr(n, "id"),
		Classes: strings.Fields(attr(n, "class")),
		Style:   st,
	}
	el.Placeholder = lo.Contains(el.Classes, "placeholder")
	report := el.Placeholder

	var contentH float64
	switch n.Data {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6":
		el.Runs = r.inlineRuns(n, c)
		contentH = textHeight(el.Runs, inner.w, c)
		report = true
	case "ul", "ol":
		el.Items = r.listItems(n, c, 0)
		for _, it := range el.Items {
			contentH += textHeight(it.Runs, inner.w-float64(it.Level)*c.fontPx*1.5, c)
		}
		report = true
	case "img":
		el.Src = attr(n, "src")
		el.Alt = attr(n, "alt")
		contentH = img.heightFor(inner.w)
		report = true
	default:
		if n.Data == "div" {
			el.BareText = bareText(n)
			report = report || st.HasBackground() || st.HasBorder() || st.HasShadow() || el.BareText != ""
		}
		if report {
			r.snap.Elements = append(r.snap.Elements, el)
		}
		idx := len(r.snap.Elements) - 1
		contentH = r.layoutChildren(n, c, inner)
		if !explicitH {
			bh = contentH + verticalExtras(st)
		}
		box.H = bh
		if report {
			r.snap.Elements[idx].Box = box
		}
		r.extend(box)
		p := r.advance(box, st, outOfFlow, y, pendingMargin)
		p.index, p.explicitH = -1, explicitH
		if report {
			p.index = idx
		}
		return p, true
	}

	if !explicitH {
		bh = contentH + verticalExtras(st)
	}
	box.H = bh
	el.Box = box
	p := r.advance(box, st, outOfFlow, y, pendingMargin)
	p.index, p.explicitH = -1, explicitH
	if report {
		p.index = len(r.snap.Elements)
		r.snap.Elements = append(r.snap.Elements, el)
	}
	r.extend(box)
	return p, true
}

func (r *staticRun) advance(box Box, st Style, outOfFlow bool, y, pendingMargin float64) placed {
	if outOfFlow {
		return placed{y: y, marginBottom: pendingMargin}
	}
	return placed{y: box.Bottom(), marginBottom: st.MarginBottom, width: box.W, height: box.H}
}

func (r *staticRun) extend(b Box) {
	r.maxRight = math.Max(r.maxRight, b.X+b.W)
	r.maxBottom = math.Max(r.maxBottom, b.Bottom())
}

// layoutFlex handles single-line flex containers: items share the main axis
// after fixed sizes and gaps are taken out.
func (r *staticRun) layoutFlex(n *html.Node, c *computed, f frame) float64 {
	column := strings.HasPrefix(strings.ToLower(c.props["flex-direction"]), "column")
	gap, _ := parseLength(firstField(c.props["gap"], c.props["column-gap"], c.props["row-gap"]), c.fontPx, f.w)

	var items []*html.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && !isMetaTag(ch.Data) && !r.isNotes(ch) {
			items = append(items, ch)
		}
	}

	if column {
		cursor := f.y
		for i, ch := range items {
			if i > 0 {
				cursor += gap
			}
			p, ok := r.placeBlock(ch, c, f, f.x, cursor, f.w, 0, false)
			if ok && p.height > 0 {
				cursor = p.y + p.marginBottom
			}
		}
		return cursor - f.y
	}

	// Items with explicit widths keep them; the rest split what is left.
	fixed := 0.0
	auto := 0
	widths := make([]float64, len(items))
	for i, ch := range items {
		cc := r.compute(ch, c, f.w)
		if w, ok := r.size(cc, "width", f.w); ok {
			widths[i] = w
			fixed += w
		} else {
			widths[i] = -1
			auto++
		}
	}
	remaining := f.w - fixed - gap*float64(max(len(items)-1, 0))
	x := f.x
	tallest := 0.0
	var row []placed
	for i, ch := range items {
		w := widths[i]
		if w < 0 {
			w = math.Max(remaining/float64(auto), 0)
		}
		p, ok := r.placeBlock(ch, c, f, x, f.y, w, 0, true)
		if ok {
			tallest = math.Max(tallest, p.y-f.y+p.marginBottom)
			row = append(row, p)
		}
		x += w + gap
	}

	switch strings.ToLower(c.props["align-items"]) {
	case "", "normal", "stretch":
		for _, p := range row {
			if p.index < 0 || p.explicitH {
				continue
			}
			el := &r.snap.Elements[p.index]
			el.Box.H = math.Max(el.Box.H, f.y+tallest-p.marginBottom-el.Box.Y)
		}
	}
	return tallest
}

func firstField(values ...string) string {
	for _, v := range values {
		if f := Fields(v); len(f) > 0 {
			return f[0]
		}
	}
	return ""
}

func (r *staticRun) isNotes(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "aside" && lo.Contains(strings.Fields(attr(n, "class")), "notes")
}

func isMetaTag(tag string) bool {
	switch tag {
	case "head", "style", "script", "title", "meta", "link", "template", "noscript", "br":
		return true
	}
	return false
}

type imageInfo struct {
	attrW, attrH  float64
	width, height float64
}

// heightFor returns the content height of an image drawn w pixels wide.
func (i imageInfo) heightFor(w float64) float64 {
	switch {
	case i.attrH > 0:
		return i.attrH
	case i.width > 0:
		return w * i.height / i.width
	default:
		return w
	}
}

// imageSize reads width/height attributes and the intrinsic size of local
// image files.
func (r *staticRun) imageSize(n *html.Node, c *computed) imageInfo {
	var info imageInfo
	info.attrW, _ = parseLength(attrLength(n, "width"), c.fontPx, 0)
	info.attrH, _ = parseLength(attrLength(n, "height"), c.fontPx, 0)

	src := attr(n, "src")
	if src == "" || strings.Contains(src, ":") {
		return info
	}
	file, err := os.Open(filepath.Join(r.baseDir, filepath.FromSlash(src)))
	if err != nil {
		r.s.logger.Debug("image not readable for sizing", zap.String("src", src), zap.Error(err))
		return info
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		r.s.logger.Debug("image size unknown", zap.String("src", src), zap.Error(err))
		return info
	}
	info.width, info.height = float64(cfg.Width), float64(cfg.Height)
	return info
}

// attrLength treats a unitless width/height attribute as pixels.
func attrLength(n *html.Node, key string) string {
	v := strings.TrimSpace(attr(n, key))
	if v != "" && !strings.ContainsAny(v, "abcdefghijklmnopqrstuvwxyz%") {
		v += "px"
	}
	return v
}

// intrinsicWidth estimates the unwrapped width of n's text.
func (r *staticRun) intrinsicWidth(n *html.Node, c *computed) float64 {
	widest := 0.0
	line := 0.0
	for _, run := range r.inlineRuns(n, c) {
		line += float64(len([]rune(run.Text))) * run.FontSize * glyphWidth
		if run.Break {
			widest = math.Max(widest, line)
			line = 0
		}
	}
	return math.Max(widest, line)
}

// textHeight estimates wrapped height of runs inside width w.
func textHeight(runs []Run, w float64, c *computed) float64 {
	lineH := c.style.LineHeight
	if lineH == 0 {
		lineH = c.fontPx * 1.2
	}
	if len(runs) == 0 {
		return 0
	}
	if w <= 0 {
		w = 1
	}
	lines := 0.0
	seg := 0.0
	flush := func() {
		lines += math.Max(1, math.Ceil(seg/w))
		seg = 0
	}
	for _, run := range runs {
		size := run.FontSize
		if size == 0 {
			size = c.fontPx
		}
		seg += float64(len([]rune(run.Text))) * size * glyphWidth
		if run.Break {
			flush()
		}
	}
	if seg > 0 || !runs[len(runs)-1].Break {
		flush()
	}
	return lines * lineH
}

func (r *staticRun) listItems(n *html.Node, c *computed, level int) []ListItem {
	var items []ListItem
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		lc := r.compute(li, c, 0)
		var nested []*html.Node
		item := ListItem{Level: level, Runs: r.inlineRunsSkipping(li, lc, func(ch *html.Node) bool {
			if ch.Data == "ul" || ch.Data == "ol" {
				nested = append(nested, ch)
				return true
			}
			return false
		})}
		items = append(items, item)
		for _, sub := range nested {
			items = append(items, r.listItems(sub, r.compute(sub, lc, 0), level+1)...)
		}
	}
	return items
}

func (r *staticRun) inlineRuns(n *html.Node, c *computed) []Run {
	return r.inlineRunsSkipping(n, c, nil)
}

func (r *staticRun) inlineRunsSkipping(n *html.Node, c *computed, skip func(*html.Node) bool) []Run {
	var runs []Run
	var walk func(n *html.Node, c *computed)
	walk = func(n *html.Node, c *computed) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			switch ch.Type {
			case html.TextNode:
				runs = append(runs, runFor(ch.Data, c))
			case html.ElementNode:
				if skip != nil && skip(ch) {
					continue
				}
				if ch.Data == "br" {
					if len(runs) == 0 {
						runs = append(runs, runFor("", c))
					}
					runs[len(runs)-1].Break = true
					continue
				}
				cc := r.compute(ch, c, 0)
				if strings.EqualFold(cc.props["display"], "none") || isMetaTag(ch.Data) {
					continue
				}
				walk(ch, cc)
			}
		}
	}
	walk(n, c)
	return normalizeRuns(runs)
}

func runFor(text string, c *computed) Run {
	st := c.style
	return Run{
		Text:       collapseSpace(text),
		Bold:       st.FontWeight >= 600,
		Italic:     st.FontStyle == "italic" || st.FontStyle == "oblique",
		Underline:  strings.Contains(st.TextDecoration, "underline"),
		Color:      st.Color,
		FontFamily: st.FontFamily,
		FontSize:   c.fontPx,
	}
}

func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	lead := strings.TrimLeft(s, " \t\r\n") != s
	trail := strings.TrimRight(s, " \t\r\n") != s
	out := strings.Join(strings.Fields(s), " ")
	if lead {
		out = " " + out
	}
	if trail {
		out += " "
	}
	return out
}

// normalizeRuns applies white-space collapsing across run boundaries and
// drops runs that carry nothing.
func normalizeRuns(runs []Run) []Run {
	out := make([]Run, 0, len(runs))
	lineStart := true
	for _, run := range runs {
		if lineStart {
			run.Text = strings.TrimLeft(run.Text, " ")
		} else if len(out) > 0 && strings.HasSuffix(out[len(out)-1].Text, " ") {
			run.Text = strings.TrimLeft(run.Text, " ")
		}
		if run.Break {
			run.Text = strings.TrimRight(run.Text, " ")
		}
		if run.Text == "" && !run.Break {
			continue
		}
		out = append(out, run)
		lineStart = run.Break
	}
	for len(out) > 0 {
		last := &out[len(out)-1]
		last.Text = strings.TrimRight(last.Text, " ")
		if last.Text != "" || last.Break {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}

// bareText returns text sitting directly in n outside any element.
func bareText(n *html.Node) string {
	var parts []string
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.TextNode {
			if t := strings.TrimSpace(ch.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

// notesText flattens an aside into lines, one per block or <br>.
func notesText(n *html.Node) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if t := strings.Join(strings.Fields(cur.String()), " "); t != "" {
			lines = append(lines, t)
		}
		cur.Reset()
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			switch {
			case ch.Type == html.TextNode:
				cur.WriteString(ch.Data)
			case ch.Type == html.ElementNode && ch.Data == "br":
				flush()
			case ch.Type == html.ElementNode:
				block := ch.Data == "p" || ch.Data == "li" || ch.Data == "div"
				if block {
					flush()
				}
				walk(ch)
				if block {
					flush()
				}
			}
		}
	}
	walk(n)
	flush()
	return lines
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
