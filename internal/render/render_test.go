package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/html2deck/internal/config"
	"github.com/gnemet/html2deck/internal/layout"
)

const coverSlide = `<!DOCTYPE html>
<html><head><style>
body { width: 720pt; height: 405pt; margin: 0; padding: 0; background: #1a1a2e; font-family: Arial, sans-serif; }
.card { position: absolute; left: 40px; top: 300px; width: 200px; height: 100px; background-color: rgba(255, 255, 255, 0.1); border-radius: 8px; }
h1 { position: absolute; left: 40px; top: 40px; width: 880px; margin: 0; font-size: 40px; color: #fff; }
</style></head><body>
<h1>DeepSeek <b>V3.2</b></h1>
<div class="card"><p style="margin: 0">Inside   the
  card</p></div>
<ul style="position: absolute; left: 300px; top: 300px; width: 300px; margin: 0">
  <li>One</li>
  <li>Two<ul><li>Sub</li></ul></li>
</ul>
<aside class="notes"><p>Say hello</p><p>Then move on</p></aside>
</body></html>`

func writeSlide(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newStatic(t *testing.T) *Static {
	t.Helper()
	l, err := layout.Lookup(layout.Default)
	require.NoError(t, err)
	return NewStatic(l, nil)
}

func TestStaticRenderCover(t *testing.T) {
	snap, err := newStatic(t).Render(context.Background(), writeSlide(t, "cover.html", coverSlide))
	require.NoError(t, err)

	assert.InDelta(t, 960, snap.Width, 0.01)
	assert.InDelta(t, 540, snap.Height, 0.01)
	assert.InDelta(t, 540, snap.ScrollHeight, 0.01)
	assert.Equal(t, "#1a1a2e", snap.Background.BackgroundColor)
	assert.Equal(t, "Say hello\nThen move on", snap.Notes)

	require.Len(t, snap.Elements, 4)
	tags := []string{snap.Elements[0].Tag, snap.Elements[1].Tag, snap.Elements[2].Tag, snap.Elements[3].Tag}
	assert.Equal(t, []string{"h1", "div", "p", "ul"}, tags)

	h1 := snap.Elements[0]
	assert.Equal(t, Box{X: 40, Y: 40, W: 880, H: 48}, h1.Box)
	require.Len(t, h1.Runs, 2)
	assert.Equal(t, "DeepSeek ", h1.Runs[0].Text)
	assert.Equal(t, "V3.2", h1.Runs[1].Text)
	assert.True(t, h1.Runs[1].Bold)
	assert.Equal(t, "#fff", h1.Runs[0].Color)
	assert.Equal(t, float64(40), h1.Runs[0].FontSize)
	assert.Equal(t, "Arial, sans-serif", h1.Runs[0].FontFamily)

	card := snap.Elements[1]
	assert.Equal(t, []string{"card"}, card.Classes)
	assert.Equal(t, Box{X: 40, Y: 300, W: 200, H: 100}, card.Box)
	assert.Equal(t, float64(8), card.Style.BorderRadius)
	assert.True(t, card.Style.HasBackground())

	p := snap.Elements[2]
	assert.Equal(t, float64(40), p.Box.X)
	assert.Equal(t, float64(300), p.Box.Y)
	assert.Equal(t, float64(200), p.Box.W)
	require.Len(t, p.Runs, 1)
	assert.Equal(t, "Inside the card", p.Runs[0].Text)

	list := snap.Elements[3]
	require.Len(t, list.Items, 3)
	assert.Equal(t, "One", list.Items[0].Runs[0].Text)
	assert.Equal(t, "Two", list.Items[1].Runs[0].Text)
	assert.Equal(t, "Sub", list.Items[2].Runs[0].Text)
	assert.Equal(t, 1, list.Items[2].Level)
}

func TestStaticRenderOverflow(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body style="width: 960px; height: 540px; margin: 0">`)
	for i := 0; i < 30; i++ {
		b.WriteString(`<p style="font-size: 24px">A line of text that fills the slide</p>`)
	}
	b.WriteString(`</body></html>`)

	snap, err := newStatic(t).Render(context.Background(), writeSlide(t, "long.html", b.String()))
	require.NoError(t, err)
	assert.Greater(t, snap.ScrollHeight, snap.Height)
}

func TestStaticRenderFlexRow(t *testing.T) {
	const slide = `<html><head><style>
* { box-sizing: border-box; }
body { width: 960px; height: 540px; margin: 0; padding: 20px; }
.row { display: flex; gap: 20px; }
.col { background: #eee; border: 2px solid #333; padding: 10px; }
</style></head><body>
<div class="row">
  <div class="col"><p style="margin: 0">short</p></div>
  <div class="col"><p style="margin: 0">first<br>second<br>third</p></div>
</div>
</body></html>`

	snap, err := newStatic(t).Render(context.Background(), writeSlide(t, "flex.html", slide))
	require.NoError(t, err)

	var cols []Element
	for _, e := range snap.Elements {
		if e.Tag == "div" {
			cols = append(cols, e)
		}
	}
	require.Len(t, cols, 2)
	assert.InDelta(t, 20, cols[0].Box.X, 0.01)
	assert.InDelta(t, 450, cols[0].Box.W, 0.01)
	assert.InDelta(t, 490, cols[1].Box.X, 0.01)
	assert.InDelta(t, cols[1].Box.H, cols[0].Box.H, 0.01, "items stretch to the tallest")
	assert.True(t, cols[0].Style.HasBorder())
	assert.Equal(t, "#333", cols[0].Style.BorderTop.Color)
	assert.Equal(t, float64(2), cols[0].Style.BorderLeft.Width)
}

func TestStaticRenderBareTextAndPlaceholder(t *testing.T) {
	const slide = `<html><body style="width: 960px; height: 540px; margin: 0">
<div>loose text</div>
<div class="placeholder" id="chart" style="position: absolute; left: 10px; top: 10px; width: 100px; height: 50px"></div>
</body></html>`

	snap, err := newStatic(t).Render(context.Background(), writeSlide(t, "bare.html", slide))
	require.NoError(t, err)
	require.Len(t, snap.Elements, 2)
	assert.Equal(t, "loose text", snap.Elements[0].BareText)
	assert.True(t, snap.Elements[1].Placeholder)
	assert.Equal(t, "chart", snap.Elements[1].ID)
	assert.Equal(t, Box{X: 10, Y: 10, W: 100, H: 50}, snap.Elements[1].Box)
}

func TestStaticRenderMissingFile(t *testing.T) {
	_, err := newStatic(t).Render(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestNewSelectsEngine(t *testing.T) {
	l, err := layout.Lookup(layout.Default)
	require.NoError(t, err)

	r, err := New(config.RendererConfig{Engine: config.EngineStatic}, l, nil)
	require.NoError(t, err)
	assert.IsType(t, &Static{}, r)

	r, err = New(config.RendererConfig{Engine: config.EngineBrowser}, l, nil)
	require.NoError(t, err)
	assert.IsType(t, &Browser{}, r)
	assert.NoError(t, r.Close())

	_, err = New(config.RendererConfig{Engine: "pdf"}, l, nil)
	assert.Error(t, err)
}

func TestSelectorMatching(t *testing.T) {
	tests := []struct {
		sel  string
		ok   bool
		spec int
	}{
		{"p", true, 1},
		{".card", true, 100},
		{"div.card#main", true, 10101},
		{"body > .row .col", true, 201},
		{"a:hover", false, 0},
		{"input[type=text]", false, 0},
		{"div >", false, 0},
	}
	for _, tt := range tests {
		sel, ok := parseSelector(tt.sel)
		assert.Equal(t, tt.ok, ok, tt.sel)
		if ok {
			assert.Equal(t, tt.spec, sel.specificity, tt.sel)
		}
	}
}

func TestExpandShorthands(t *testing.T) {
	got := expand("border", "1px solid rgba(0, 0, 0, 0.5)")
	assert.Equal(t, "1px", got["border-left-width"])
	assert.Equal(t, "solid", got["border-top-style"])
	assert.Equal(t, "rgba(0, 0, 0, 0.5)", got["border-bottom-color"])

	got = expand("padding", "4px 8px")
	assert.Equal(t, "4px", got["padding-top"])
	assert.Equal(t, "8px", got["padding-right"])
	assert.Equal(t, "4px", got["padding-bottom"])
	assert.Equal(t, "8px", got["padding-left"])

	got = expand("background", "linear-gradient(90deg, #000, #fff)")
	assert.Contains(t, got["background-image"], "gradient")

	got = expand("background", "url(bg.png) no-repeat center #123456")
	assert.Equal(t, "url(bg.png)", got["background-image"])
	assert.Equal(t, "#123456", got["background-color"])
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12px", 12, true},
		{"720pt", 960, true},
		{"1in", 96, true},
		{"2em", 32, true},
		{"1.5rem", 24, true},
		{"50%", 100, true},
		{"0", 0, true},
		{"auto", 0, false},
		{"12vw", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLength(tt.in, 16, 200)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 0.001, tt.in)
	}
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{"rgba(0, 0, 0, .2)", "2px", "4px"}, Fields("rgba(0, 0, 0, .2) 2px  4px"))
	assert.Empty(t, Fields("   "))
}

func TestInlineDeclarationsKeepLastValue(t *testing.T) {
	for _, style := range []string{"width: 100px; height: 50px", "width: 100px; height: 50px;", "  width: 100px; height: 50px  "} {
		decls, err := inlineDeclarations(style)
		require.NoError(t, err)
		require.Len(t, decls, 2, style)
		assert.Equal(t, declaration{property: "width", value: "100px"}, decls[0])
		assert.Equal(t, declaration{property: "height", value: "50px"}, decls[1])
	}
}

func TestStaticRenderInlineStyleLastDeclaration(t *testing.T) {
	snap, err := newStatic(t).Render(context.Background(), writeSlide(t, "inline.html",
		`<html><body style="width: 960px; height: 540px; margin: 0; background-color: #101020">
<div class="placeholder" style="position: absolute; left: 10px; top: 20px; width: 100px; height: 50px"></div>
</body></html>`))
	require.NoError(t, err)

	assert.Equal(t, "#101020", snap.Background.BackgroundColor)
	require.Len(t, snap.Elements, 1)
	assert.Equal(t, Box{X: 10, Y: 20, W: 100, H: 50}, snap.Elements[0].Box)
}

func TestRotation(t *testing.T) {
	assert.Equal(t, float64(90), rotation("rotate(90deg)"))
	assert.InDelta(t, -90, rotation("translate(10px) rotate(-0.25turn)"), 0.001)
	assert.Equal(t, float64(0), rotation("scale(2)"))
}

func TestNormalizeRuns(t *testing.T) {
	runs := normalizeRuns([]Run{
		{Text: " Hello "},
		{Text: " world", Break: true},
		{Text: " "},
		{Text: " next "},
	})
	require.Len(t, runs, 3)
	assert.Equal(t, "Hello ", runs[0].Text)
	assert.Equal(t, "world", runs[1].Text)
	assert.Equal(t, "next", runs[2].Text)
}

func TestChromeBin(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	lookPath = func() (string, bool) { return "", false }
	got, err := chromeBin("/opt/chrome/chrome")
	require.NoError(t, err)
	assert.Equal(t, "/opt/chrome/chrome", got)

	_, err = chromeBin("")
	assert.ErrorIs(t, err, ErrNoChrome)

	// Render fails before any launch when nothing is installed
	b := NewBrowser(config.RendererConfig{Engine: config.EngineBrowser, Headless: true}, layout.Layout{}, nil)
	_, err = b.Render(context.Background(), "slide.html")
	assert.ErrorIs(t, err, ErrNoChrome)
	assert.NoError(t, b.Close())

	lookPath = func() (string, bool) { return "/usr/bin/chromium", true }
	got, err = chromeBin("")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/chromium", got)
}
