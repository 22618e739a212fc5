package pptx

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextRun is a span of uniformly formatted text. Zero values inherit from
// the surrounding TextOptions.
type TextRun struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	FontFace  string
	FontSize  float64 // pt
	Color     string  // RRGGBB
	Break     bool    // line break after the run
}

// Insets are text box paddings in points.
type Insets struct {
	Left, Top, Right, Bottom float64
}

// TextOptions positions a text box (inches) and sets its defaults.
type TextOptions struct {
	X, Y, W, H float64

	FontFace  string
	FontSize  float64 // pt
	Color     string
	Bold      bool
	Italic    bool
	Underline bool

	Align  string // left | center | right | justify
	VAlign string // top | middle | bottom

	LineSpacing     float64 // pt, 0 is single
	ParaSpaceBefore float64 // pt
	ParaSpaceAfter  float64 // pt
	Inset           *Insets
	Rotate          float64 // degrees
	Fill            string
}

// ListItem is one bullet paragraph.
type ListItem struct {
	Runs  []TextRun
	Level int
}

// ListOptions describes a bulleted or numbered list box.
type ListOptions struct {
	TextOptions
	Numbered bool
	Indent   float64 // pt per level, defaults to 18
}

type ShapeKind int

const (
	ShapeRect ShapeKind = iota
	ShapeRoundRect
)

// LineStyle is a shape outline.
type LineStyle struct {
	Color string
	Width float64 // pt
}

// Shadow is an outer shadow.
type Shadow struct {
	Color   string
	Blur    float64 // pt
	Offset  float64 // pt
	Angle   float64 // degrees
	Opacity float64 // 0..1
}

// ShapeOptions describes a filled rectangle.
type ShapeOptions struct {
	Kind         ShapeKind
	X, Y, W, H   float64
	Fill         string
	Transparency float64 // percent
	Line         *LineStyle
	RectRadius   float64 // inches
	Shadow       *Shadow
	Rotate       float64
}

// LineOptions describes a straight line between two points (inches).
type LineOptions struct {
	X1, Y1, X2, Y2 float64
	Color          string
	Width          float64 // pt
}

// ImageOptions positions a picture (inches).
type ImageOptions struct {
	X, Y, W, H float64
	AltText    string
	Rotate     float64
}

// Slide is one page of a Presentation.
type Slide struct {
	pres   *Presentation
	number int
	nextID int

	background *xBgPr
	nodes      []any
	rels       []relationship
	notes      string
}

// Number is the 1-based position of the slide.
func (s *Slide) Number() int { return s.number }

// Notes returns the speaker notes.
func (s *Slide) Notes() string { return s.notes }

// SetNotes replaces the speaker notes.
func (s *Slide) SetNotes(text string) { s.notes = strings.TrimSpace(text) }

// Len is the number of objects placed on the slide.
func (s *Slide) Len() int { return len(s.nodes) }

func (s *Slide) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Slide) addRel(relType, target string) string {
	for _, r := range s.rels {
		if r.Type == relType && r.Target == target {
			return r.ID
		}
	}
	// rId1 is reserved for the slide layout.
	id := fmt.Sprintf("rId%d", len(s.rels)+2)
	s.rels = append(s.rels, relationship{ID: id, Type: relType, Target: target})
	return id
}

// SetBackgroundColor fills the slide background with a solid colour.
func (s *Slide) SetBackgroundColor(hex string) {
	s.background = &xBgPr{Fill: solidFill(hex, 0)}
}

// SetBackgroundImage stretches an image file over the slide background.
func (s *Slide) SetBackgroundImage(path string) error {
	rid, err := s.embedFile(path)
	if err != nil {
		return err
	}
	s.background = &xBgPr{BlipFill: &xBlipFill{
		Blip:    xBlip{Embed: rid},
		Stretch: &xStretch{},
	}}
	return nil
}

// AddText places a single-paragraph text box.
func (s *Slide) AddText(runs []TextRun, opts TextOptions) {
	id := s.id()
	body := textBody(opts)
	body.Paragraphs = []xParagraph{paragraph(runs, opts, nil)}
	s.nodes = append(s.nodes, xShape{
		NvSpPr: nvSpPr(id, fmt.Sprintf("Text %d", id-1), true),
		SpPr:   textSpPr(opts),
		TxBody: body,
	})
}

// AddList places a text box with one bullet paragraph per item.
func (s *Slide) AddList(items []ListItem, opts ListOptions) {
	indent := opts.Indent
	if indent == 0 {
		indent = 18
	}
	id := s.id()
	body := textBody(opts.TextOptions)
	for _, it := range items {
		bullet := &xBullet{Level: it.Level, Indent: indent}
		if opts.Numbered {
			bullet.AutoNum = &xBuAutoNum{Type: "arabicPeriod"}
		} else {
			bullet.Char = &xBuChar{Char: "•"}
		}
		body.Paragraphs = append(body.Paragraphs, paragraph(it.Runs, opts.TextOptions, bullet))
	}
	s.nodes = append(s.nodes, xShape{
		NvSpPr: nvSpPr(id, fmt.Sprintf("Text %d", id-1), true),
		SpPr:   textSpPr(opts.TextOptions),
		TxBody: body,
	})
}

// AddShape places a rectangle or rounded rectangle.
func (s *Slide) AddShape(opts ShapeOptions) {
	id := s.id()
	geom := xPrstGeom{Prst: "rect"}
	if opts.Kind == ShapeRoundRect {
		geom.Prst = "roundRect"
		short := opts.W
		if opts.H < short {
			short = opts.H
		}
		if short > 0 {
			adj := int(opts.RectRadius / short * 100000)
			if adj > 50000 {
				adj = 50000
			}
			geom.AvLst.Guides = []xGuide{{Name: "adj", Fmla: fmt.Sprintf("val %d", adj)}}
		}
	}

	spPr := xSpPr{
		Xfrm: xfrm(opts.X, opts.Y, opts.W, opts.H, opts.Rotate),
		Geom: geom,
	}
	if opts.Fill != "" {
		spPr.SolidFill = solidFill(opts.Fill, opts.Transparency)
	} else {
		spPr.NoFill = &struct{}{}
	}
	if opts.Line != nil && opts.Line.Width > 0 {
		spPr.Ln = &xLn{W: ptToEMU(opts.Line.Width), SolidFill: solidFill(opts.Line.Color, 0)}
	} else {
		spPr.Ln = &xLn{NoFill: &struct{}{}}
	}
	if opts.Shadow != nil {
		spPr.EffectLst = &xEffectLst{OuterShdw: outerShadow(*opts.Shadow)}
	}

	s.nodes = append(s.nodes, xShape{
		NvSpPr: nvSpPr(id, fmt.Sprintf("Shape %d", id-1), false),
		SpPr:   spPr,
	})
}

// AddLine places a straight line.
func (s *Slide) AddLine(opts LineOptions) {
	id := s.id()
	x, y := opts.X1, opts.Y1
	w, h := opts.X2-opts.X1, opts.Y2-opts.Y1
	xf := xfrm(x, y, w, h, 0)
	if w < 0 {
		xf.Off.X = inToEMU(opts.X2)
		xf.Ext.Cx = inToEMU(-w)
		xf.FlipH = "1"
	}
	if h < 0 {
		xf.Off.Y = inToEMU(opts.Y2)
		xf.Ext.Cy = inToEMU(-h)
		xf.FlipV = "1"
	}
	width := opts.Width
	if width == 0 {
		width = 1
	}
	s.nodes = append(s.nodes, xShape{
		NvSpPr: nvSpPr(id, fmt.Sprintf("Line %d", id-1), false),
		SpPr: xSpPr{
			Xfrm: xf,
			Geom: xPrstGeom{Prst: "line"},
			Ln:   &xLn{W: ptToEMU(width), SolidFill: solidFill(opts.Color, 0)},
		},
	})
}

// AddImage places a picture from a file. The file is read immediately.
func (s *Slide) AddImage(path string, opts ImageOptions) error {
	rid, err := s.embedFile(path)
	if err != nil {
		return err
	}
	s.addPicture(rid, opts)
	return nil
}

// AddImageData places a picture from raw bytes of the given extension.
func (s *Slide) AddImageData(data []byte, ext string, opts ImageOptions) error {
	name, err := s.pres.addMedia(data, ext)
	if err != nil {
		return err
	}
	s.addPicture(s.addRel(relImage, "../media/"+name), opts)
	return nil
}

func (s *Slide) addPicture(rid string, opts ImageOptions) {
	id := s.id()
	s.nodes = append(s.nodes, xPicture{
		NvPicPr: xNvPicPr{
			CNvPr:    xCNvPr{ID: id, Name: fmt.Sprintf("Image %d", id-1), Descr: opts.AltText},
			CNvPicPr: xCNvPicPr{PicLocks: xPicLocks{NoChangeAspect: "1"}},
		},
		BlipFill: xBlipFill{Blip: xBlip{Embed: rid}, Stretch: &xStretch{}},
		SpPr: xSpPr{
			Xfrm: xfrm(opts.X, opts.Y, opts.W, opts.H, opts.Rotate),
			Geom: xPrstGeom{Prst: "rect"},
		},
	})
}

func (s *Slide) embedFile(path string) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)
	if strings.HasPrefix(path, "data:") {
		data, ext, err = decodeDataURI(path)
	} else {
		data, err = os.ReadFile(path)
		ext = filepath.Ext(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	name, err := s.pres.addMedia(data, ext)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return s.addRel(relImage, "../media/"+name), nil
}

// decodeDataURI handles base64 data URIs such as data:image/png;base64,....
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("unsupported data uri")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	ext, ok := strings.CutPrefix(mime, "image/")
	if !ok {
		return nil, "", fmt.Errorf("data uri is not an image: %s", mime)
	}
	if ext == "svg+xml" {
		ext = "svg"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, ext, nil
}
