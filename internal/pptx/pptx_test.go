package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gnemet/html2deck/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func newTestPresentation(t *testing.T) *Presentation {
	t.Helper()
	l, err := layout.Lookup(layout.Default)
	require.NoError(t, err)
	p := New(l)
	p.Title = "DeepSeek V3.2"
	p.Author = "DeepSeek AI"
	p.Subject = "Efficient Reasoning & Agentic AI"
	p.Created = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return p
}

func zipParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(b)
	}
	return parts
}

func TestWriteEmptyPresentation(t *testing.T) {
	p := newTestPresentation(t)
	err := p.Write(io.Discard)
	assert.True(t, errors.Is(err, ErrNoSlides))
}

func TestWritePackageStructure(t *testing.T) {
	p := newTestPresentation(t)
	s := p.AddSlide()
	s.SetBackgroundColor("#1A1A2E")
	s.AddText([]TextRun{{Text: "Hello "}, {Text: "world", Bold: true, Color: "FF0000"}}, TextOptions{
		X: 0.5, Y: 0.5, W: 9, H: 1, FontSize: 32, FontFace: "Arial", Align: "center",
	})
	p.AddSlide().AddShape(ShapeOptions{Kind: ShapeRoundRect, X: 1, Y: 1, W: 2, H: 1, Fill: "00FF00", RectRadius: 0.25})

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	parts := zipParts(t, buf.Bytes())

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"docProps/app.xml",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/theme/theme1.xml",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/_rels/slide1.xml.rels",
	} {
		assert.Contains(t, parts, name)
	}
	assert.NotContains(t, parts, "ppt/notesMasters/notesMaster1.xml")

	pres := parts["ppt/presentation.xml"]
	assert.Contains(t, pres, `<p:sldSz cx="9144000" cy="5143500">`)
	assert.Contains(t, pres, `<p:sldId id="256" r:id="rId2">`)
	assert.Contains(t, pres, `<p:sldId id="257" r:id="rId3">`)

	slide1 := parts["ppt/slides/slide1.xml"]
	assert.True(t, strings.HasPrefix(slide1, xmlHeader))
	assert.Contains(t, slide1, `<a:srgbClr val="1A1A2E">`)
	assert.Contains(t, slide1, `<a:t>Hello </a:t>`)
	assert.Contains(t, slide1, `b="1"`)
	assert.Contains(t, slide1, `sz="3200"`)
	assert.Contains(t, slide1, `<a:latin typeface="Arial">`)
	assert.Contains(t, slide1, `algn="ctr"`)

	slide2 := parts["ppt/slides/slide2.xml"]
	assert.Contains(t, slide2, `prst="roundRect"`)
	assert.Contains(t, slide2, `fmla="val 25000"`)

	core := parts["docProps/core.xml"]
	assert.Contains(t, core, "<dc:title>DeepSeek V3.2</dc:title>")
	assert.Contains(t, core, "Efficient Reasoning &amp; Agentic AI")
	assert.Contains(t, core, "2025-01-02T03:04:05Z")

	assert.Contains(t, parts["docProps/app.xml"], "<Slides>2</Slides>")
}

func TestImagesAreDeduplicated(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(img, pixelPNG, 0644))

	p := newTestPresentation(t)
	s1 := p.AddSlide()
	require.NoError(t, s1.AddImage(img, ImageOptions{X: 1, Y: 1, W: 1, H: 1}))
	require.NoError(t, s1.SetBackgroundImage(img))
	s2 := p.AddSlide()
	require.NoError(t, s2.AddImageData(pixelPNG, "png", ImageOptions{W: 1, H: 1}))

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	parts := zipParts(t, buf.Bytes())

	assert.Contains(t, parts, "ppt/media/image1.png")
	assert.NotContains(t, parts, "ppt/media/image2.png")
	assert.Contains(t, parts["[Content_Types].xml"], `<Default Extension="png" ContentType="image/png">`)

	rels := parts["ppt/slides/_rels/slide1.xml.rels"]
	assert.Equal(t, 1, strings.Count(rels, "../media/image1.png"))
}

func TestAddImageErrors(t *testing.T) {
	p := newTestPresentation(t)
	s := p.AddSlide()

	err := s.AddImage(filepath.Join(t.TempDir(), "missing.png"), ImageOptions{})
	require.Error(t, err)

	err = s.AddImageData([]byte("x"), "tiff", ImageOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image type")
	assert.Equal(t, 0, s.Len())
}

func TestDataURIImage(t *testing.T) {
	p := newTestPresentation(t)
	s := p.AddSlide()
	uri := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
	require.NoError(t, s.AddImage(uri, ImageOptions{W: 1, H: 1}))
	assert.Equal(t, 1, s.Len())

	_, _, err := decodeDataURI("data:text/plain;base64,aGk=")
	assert.Error(t, err)
}

func TestNotesParts(t *testing.T) {
	p := newTestPresentation(t)
	p.AddSlide().SetNotes("first line\nsecond & last")
	p.AddSlide()

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	parts := zipParts(t, buf.Bytes())

	assert.Contains(t, parts, "ppt/notesMasters/notesMaster1.xml")
	assert.Contains(t, parts, "ppt/theme/theme2.xml")
	assert.Contains(t, parts, "ppt/notesSlides/notesSlide1.xml")
	assert.NotContains(t, parts, "ppt/notesSlides/notesSlide2.xml")
	assert.Contains(t, parts["ppt/presentation.xml"], "p:notesMasterIdLst")
	assert.Contains(t, parts["ppt/slides/_rels/slide1.xml.rels"], "../notesSlides/notesSlide1.xml")
	assert.Contains(t, parts["ppt/notesSlides/notesSlide1.xml"], "second &amp; last")
}

func TestWriteFileAndInspectRoundTrip(t *testing.T) {
	p := newTestPresentation(t)
	for i, title := range []string{"Cover", "Overview", "Usage"} {
		s := p.AddSlide()
		s.AddText([]TextRun{{Text: title, Break: true}, {Text: "line two"}}, TextOptions{X: 0.5, Y: 0.5, W: 9, H: 1, FontSize: 24 + float64(i)})
		s.AddList([]ListItem{{Runs: []TextRun{{Text: "point a"}}}, {Runs: []TextRun{{Text: "point b"}}, Level: 1}}, ListOptions{
			TextOptions: TextOptions{X: 0.5, Y: 2, W: 9, H: 2},
		})
	}
	p.Slides()[1].SetNotes("Explain the overview")
	p.Slides()[2].AddLine(LineOptions{X1: 5, Y1: 1, X2: 1, Y2: 1, Color: "333333"})

	out := filepath.Join(t.TempDir(), "nested", "deck.pptx")
	require.NoError(t, p.WriteFile(out))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")

	deck, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, "DeepSeek V3.2", deck.Title)
	assert.Equal(t, "DeepSeek AI", deck.Author)
	assert.Equal(t, "Efficient Reasoning & Agentic AI", deck.Subject)
	require.Len(t, deck.Slides, 3)

	assert.Equal(t, 1, deck.Slides[0].SlideNumber)
	assert.Equal(t, "ppt/slides/slide1.xml", deck.Slides[0].Part)
	assert.Equal(t, "Cover\nline two\npoint a\npoint b", deck.Slides[0].Text)
	assert.Equal(t, "text", deck.Slides[0].Shapes[0].Type)
	assert.Equal(t, float64(24), deck.Slides[0].Shapes[0].Runs[0].FontSize)

	assert.Equal(t, []string{"Explain the overview"}, deck.Slides[1].Notes)
	assert.Empty(t, deck.Slides[0].Notes)
	assert.True(t, strings.HasPrefix(deck.Slides[2].Text, "Usage"))
	assert.Equal(t, "shape", deck.Slides[2].Shapes[2].Type)
}

func TestNormalizeThumbnailNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"slide-1.png", "slide-10.png", "slide-2.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), pixelPNG, 0644))
	}

	files, err := normalizeThumbnailNames(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "slide-0001.png", filepath.Base(files[0]))
	assert.Equal(t, "slide-0002.png", filepath.Base(files[1]))
	assert.Equal(t, "slide-0010.png", filepath.Base(files[2]))
}

func TestAngle(t *testing.T) {
	assert.Equal(t, int64(0), angle(360))
	assert.Equal(t, int64(270*60000), angle(-90))
	assert.Equal(t, int64(5400000), angle(90))
}
