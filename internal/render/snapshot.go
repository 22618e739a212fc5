// Package render measures an HTML slide and reports what is on it.
//
// A Renderer turns one HTML file into a Snapshot: the body size, the scroll
// size and the positioned elements the converter knows how to map. Two
// engines exist. The browser engine asks headless Chrome for the real layout;
// the static engine parses the document itself and lays out explicitly
// positioned or vertically stacked blocks.
package render

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gnemet/html2deck/internal/config"
	"github.com/gnemet/html2deck/internal/layout"
)

// Renderer measures HTML slide files. Implementations are used from one
// goroutine at a time.
type Renderer interface {
	Render(ctx context.Context, htmlPath string) (*Snapshot, error)
	Close() error
}

// New returns the engine named in cfg, sized to l.
func New(cfg config.RendererConfig, l layout.Layout, logger *zap.Logger) (Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Engine {
	case config.EngineBrowser:
		return NewBrowser(cfg, l, logger), nil
	case config.EngineStatic:
		return NewStatic(l, logger), nil
	default:
		return nil, fmt.Errorf("unknown renderer engine %q", cfg.Engine)
	}
}

// Snapshot is the measured content of one slide. Lengths are CSS pixels
// relative to the top-left corner of the page.
type Snapshot struct {
	Width        float64   `json:"width"`
	Height       float64   `json:"height"`
	ScrollWidth  float64   `json:"scrollWidth"`
	ScrollHeight float64   `json:"scrollHeight"`
	Background   Style     `json:"background"`
	Elements     []Element `json:"elements"`
	Notes        string    `json:"notes,omitempty"`
}

type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (b Box) Bottom() float64 { return b.Y + b.H }

// Element is one reported node: a text block, a list, an image, a styled
// div or a placeholder.
type Element struct {
	Tag         string     `json:"tag"`
	ID          string     `json:"id,omitempty"`
	Classes     []string   `json:"classes,omitempty"`
	Box         Box        `json:"box"`
	Style       Style      `json:"style"`
	Runs        []Run      `json:"runs,omitempty"`
	Items       []ListItem `json:"items,omitempty"`
	Src         string     `json:"src,omitempty"`
	Alt         string     `json:"alt,omitempty"`
	BareText    string     `json:"bareText,omitempty"`
	Placeholder bool       `json:"placeholder,omitempty"`
}

// IsText reports whether the element maps to a text box.
func (e Element) IsText() bool {
	switch e.Tag {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol":
		return true
	}
	return false
}

// Run is a span of text sharing one character style.
type Run struct {
	Text       string  `json:"text"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Underline  bool    `json:"underline,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Break      bool    `json:"break,omitempty"`
}

type ListItem struct {
	Runs  []Run `json:"runs"`
	Level int   `json:"level"`
}

type Border struct {
	Width float64 `json:"width"`
	Style string  `json:"style,omitempty"`
	Color string  `json:"color,omitempty"`
}

func (b Border) Visible() bool {
	return b.Width > 0 && b.Style != "" && b.Style != "none" && b.Style != "hidden"
}

// Style holds the resolved properties the converter reads. Colours are CSS
// colour strings; lengths are pixels.
type Style struct {
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	BackgroundImage string  `json:"backgroundImage,omitempty"`
	BorderTop       Border  `json:"borderTop"`
	BorderRight     Border  `json:"borderRight"`
	BorderBottom    Border  `json:"borderBottom"`
	BorderLeft      Border  `json:"borderLeft"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
	BoxShadow       string  `json:"boxShadow,omitempty"`
	Color           string  `json:"color,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      int     `json:"fontWeight,omitempty"`
	FontStyle       string  `json:"fontStyle,omitempty"`
	TextDecoration  string  `json:"textDecoration,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"`
	LineHeight      float64 `json:"lineHeight,omitempty"`
	MarginTop       float64 `json:"marginTop,omitempty"`
	MarginBottom    float64 `json:"marginBottom,omitempty"`
	PaddingTop      float64 `json:"paddingTop,omitempty"`
	PaddingRight    float64 `json:"paddingRight,omitempty"`
	PaddingBottom   float64 `json:"paddingBottom,omitempty"`
	PaddingLeft     float64 `json:"paddingLeft,omitempty"`
	Rotate          float64 `json:"rotate,omitempty"`
	Opacity         float64 `json:"opacity"`
}

// Borders returns top, right, bottom, left.
func (s Style) Borders() [4]Border {
	return [4]Border{s.BorderTop, s.BorderRight, s.BorderBottom, s.BorderLeft}
}

// HasBorder reports whether any side draws a border.
func (s Style) HasBorder() bool {
	for _, b := range s.Borders() {
		if b.Visible() {
			return true
		}
	}
	return false
}

// HasBackground ignores fully transparent colours.
func (s Style) HasBackground() bool {
	c := s.BackgroundColor
	return (c != "" && c != "transparent" && c != "rgba(0, 0, 0, 0)") || (s.BackgroundImage != "" && s.BackgroundImage != "none")
}

func (s Style) HasShadow() bool {
	return s.BoxShadow != "" && s.BoxShadow != "none"
}
