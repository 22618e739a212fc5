package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// Deck is what Inspect reads back from a .pptx file.
type Deck struct {
	Title   string      `json:"title"`
	Author  string      `json:"author"`
	Subject string      `json:"subject"`
	Slides  []SlideData `json:"slides"`
}

// SlideData holds extracted text and structure for one slide.
type SlideData struct {
	SlideNumber int      `json:"slide_number"`
	Part        string   `json:"part"`
	Text        string   `json:"text"`
	Shapes      []Shape  `json:"shapes"`
	Notes       []string `json:"notes,omitempty"`
}

type Shape struct {
	Type string    `json:"type"` // text | shape | picture
	Runs []TextRun `json:"runs,omitempty"`
}

// Text joins the shape's runs; breaks and paragraph ends become newlines.
func (s Shape) Text() string {
	var b strings.Builder
	for _, r := range s.Runs {
		b.WriteString(r.Text)
		if r.Break {
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

type archive struct {
	files map[string]*zip.File
}

func (a *archive) open(name string) (io.ReadCloser, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	return f.Open()
}

// Inspect reads a presentation's metadata and its slides in presentation order.
func Inspect(pptxPath string) (*Deck, error) {
	r, err := zip.OpenReader(pptxPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	a := &archive{files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		a.files[f.Name] = f
	}

	deck := &Deck{}
	if err := a.readCore(deck); err != nil {
		return nil, err
	}

	order, err := a.slideOrder()
	if err != nil {
		return nil, err
	}
	for i, name := range order {
		rc, err := a.open(name)
		if err != nil {
			return nil, err
		}
		shapes, err := parseSlideXML(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		var texts []string
		for _, s := range shapes {
			if t := s.Text(); t != "" {
				texts = append(texts, t)
			}
		}

		notes, err := a.notesForSlide(name)
		if err != nil {
			return nil, err
		}

		deck.Slides = append(deck.Slides, SlideData{
			SlideNumber: i + 1,
			Part:        name,
			Text:        strings.Join(texts, "\n"),
			Shapes:      shapes,
			Notes:       notes,
		})
	}
	return deck, nil
}

func (a *archive) readCore(deck *Deck) error {
	rc, err := a.open("docProps/core.xml")
	if err != nil {
		// core properties are optional in the package format
		return nil
	}
	defer rc.Close()

	var core struct {
		Title   string `xml:"http://purl.org/dc/elements/1.1/ title"`
		Subject string `xml:"http://purl.org/dc/elements/1.1/ subject"`
		Creator string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	}
	if err := xml.NewDecoder(rc).Decode(&core); err != nil {
		return fmt.Errorf("failed to parse core properties: %w", err)
	}
	deck.Title, deck.Subject, deck.Author = core.Title, core.Subject, core.Creator
	return nil
}

// readRels maps relationship ids to package part names, resolving targets
// relative to the owning part.
func (a *archive) readRels(owner string) (map[string]relationship, error) {
	relPath := path.Join(path.Dir(owner), "_rels", path.Base(owner)+".rels")
	rc, err := a.open(relPath)
	if err != nil {
		return nil, nil
	}
	defer rc.Close()

	rels := make(map[string]relationship)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if el, ok := tok.(xml.StartElement); ok && el.Name.Local == "Relationship" {
			var rel relationship
			for _, attr := range el.Attr {
				switch attr.Name.Local {
				case "Id":
					rel.ID = attr.Value
				case "Type":
					rel.Type = attr.Value
				case "Target":
					rel.Target = attr.Value
				}
			}
			// ppt/slides/../notesSlides/notesSlide1.xml -> ppt/notesSlides/notesSlide1.xml
			rel.Target = path.Clean(path.Join(path.Dir(owner), rel.Target))
			rels[rel.ID] = rel
		}
	}
	return rels, nil
}

// slideOrder follows p:sldIdLst so slides come back in presentation order
// regardless of their part names.
func (a *archive) slideOrder() ([]string, error) {
	const presPath = "ppt/presentation.xml"
	rels, err := a.readRels(presPath)
	if err != nil {
		return nil, err
	}
	rc, err := a.open(presPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var order []string
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "sldId" {
			continue
		}
		for _, attr := range el.Attr {
			if attr.Name.Space == nsR && attr.Name.Local == "id" {
				rel, ok := rels[attr.Value]
				if !ok {
					return nil, fmt.Errorf("slide relationship %s not found", attr.Value)
				}
				order = append(order, rel.Target)
			}
		}
	}
	return order, nil
}

func (a *archive) notesForSlide(slidePart string) ([]string, error) {
	rels, err := a.readRels(slidePart)
	if err != nil {
		return nil, err
	}
	var notesPart string
	for _, rel := range rels {
		if rel.Type == relNotesSlide {
			notesPart = rel.Target
			break
		}
	}
	if notesPart == "" {
		return nil, nil
	}

	rc, err := a.open(notesPart)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var notes []string
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if el, ok := tok.(xml.StartElement); ok && el.Name.Local == "t" {
			var t string
			if err := dec.DecodeElement(&t, &el); err == nil {
				if strings.TrimSpace(t) != "" {
					notes = append(notes, strings.TrimSpace(t))
				}
			}
		}
	}
	return notes, nil
}

func parseSlideXML(r io.Reader) ([]Shape, error) {
	dec := xml.NewDecoder(r)

	var shapes []Shape
	var currentShape *Shape
	var currentRun *TextRun

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {

		case xml.StartElement:
			switch el.Name.Local {

			case "sp":
				currentShape = &Shape{Type: "shape"}

			case "pic":
				shapes = append(shapes, Shape{Type: "picture"})

			case "cNvSpPr":
				if currentShape != nil {
					for _, a := range el.Attr {
						if a.Name.Local == "txBox" && a.Value == "1" {
							currentShape.Type = "text"
						}
					}
				}

			case "r":
				currentRun = &TextRun{}

			case "rPr":
				if currentRun != nil {
					for _, a := range el.Attr {
						switch a.Name.Local {
						case "b":
							currentRun.Bold = a.Value == "1"
						case "i":
							currentRun.Italic = a.Value == "1"
						case "u":
							currentRun.Underline = a.Value != "" && a.Value != "none"
						case "sz":
							if sz, err := strconv.Atoi(a.Value); err == nil {
								currentRun.FontSize = float64(sz) / 100 // 1/100 pt
							}
						}
					}
				}

			case "latin":
				if currentRun != nil {
					for _, a := range el.Attr {
						if a.Name.Local == "typeface" {
							currentRun.FontFace = a.Value
						}
					}
				}

			case "srgbClr":
				if currentRun != nil {
					for _, a := range el.Attr {
						if a.Name.Local == "val" {
							currentRun.Color = a.Value
						}
					}
				}

			case "br":
				if currentShape != nil && len(currentShape.Runs) > 0 {
					currentShape.Runs[len(currentShape.Runs)-1].Break = true
				}

			case "t":
				if currentRun != nil {
					var text string
					if err := dec.DecodeElement(&text, &el); err == nil {
						currentRun.Text = text
					}
				}
			}

		case xml.EndElement:
			switch el.Name.Local {

			case "r":
				if currentShape != nil && currentRun != nil && currentRun.Text != "" {
					currentShape.Runs = append(currentShape.Runs, *currentRun)
				}
				currentRun = nil

			case "p":
				if currentShape != nil && len(currentShape.Runs) > 0 {
					currentShape.Runs[len(currentShape.Runs)-1].Break = true
				}

			case "sp":
				if currentShape != nil {
					shapes = append(shapes, *currentShape)
				}
				currentShape = nil
			}
		}
	}

	return shapes, nil
}
