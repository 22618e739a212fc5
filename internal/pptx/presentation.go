package pptx

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnemet/html2deck/internal/layout"
)

var ErrNoSlides = errors.New("presentation has no slides")

// Presentation is an in-memory deck. Slides are appended in order and the
// whole package is serialized by Write.
type Presentation struct {
	Layout  layout.Layout
	Title   string
	Author  string
	Subject string
	Company string

	// Created defaults to the time of the first Write.
	Created time.Time

	slides []*Slide
	media  []mediaPart
	byHash map[string]string
}

type mediaPart struct {
	name        string // image3.png
	contentType string
	data        []byte
}

// New returns an empty presentation with the given slide size.
func New(l layout.Layout) *Presentation {
	return &Presentation{
		Layout: l,
		byHash: make(map[string]string),
	}
}

// AddSlide appends a blank slide and returns it.
func (p *Presentation) AddSlide() *Slide {
	s := &Slide{
		pres:   p,
		number: len(p.slides) + 1,
		nextID: 2,
	}
	p.slides = append(p.slides, s)
	return s
}

// Slides returns the slides in presentation order.
func (p *Presentation) Slides() []*Slide {
	return p.slides
}

func (p *Presentation) hasNotes() bool {
	for _, s := range p.slides {
		if s.notes != "" {
			return true
		}
	}
	return false
}

// addMedia stores data once per distinct content and returns the part name.
func (p *Presentation) addMedia(data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "jpg" {
		ext = "jpeg"
	}
	ct, ok := imageContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if name, ok := p.byHash[key]; ok {
		return name, nil
	}
	name := fmt.Sprintf("image%d.%s", len(p.media)+1, ext)
	p.media = append(p.media, mediaPart{name: name, contentType: ct, data: data})
	p.byHash[key] = name
	return name, nil
}

// Write serializes the presentation as an Office Open XML package.
func (p *Presentation) Write(w io.Writer) error {
	if len(p.slides) == 0 {
		return ErrNoSlides
	}
	if p.Created.IsZero() {
		p.Created = time.Now().UTC()
	}

	zw := zip.NewWriter(w)
	parts, err := p.parts()
	if err != nil {
		return err
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := f.Write(part.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

// WriteFile writes the presentation next to path and renames it into place,
// so a failed write never leaves a partial file at path.
func (p *Presentation) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".html2deck-*.pptx")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := p.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move presentation into place: %w", err)
	}
	return nil
}
