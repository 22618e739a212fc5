// Package source resolves manifest entries to HTML slide files. HTML files
// are used as they are; Markdown files are rendered to a page sized to the
// deck layout.
package source

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/russross/blackfriday/v2"
	"go.uber.org/zap"

	"github.com/gnemet/html2deck/internal/layout"
)

var ErrUnsupported = errors.New("unsupported slide format")

//go:embed page.html
var pageFS embed.FS

var pageTmpl = template.Must(template.ParseFS(pageFS, "page.html"))

type page struct {
	Base          template.URL
	Title         string
	Width, Height int
	Body          template.HTML
}

// Resolver maps slide names to HTML paths. Rendered Markdown lives in a
// temporary directory that Close removes.
type Resolver struct {
	dir    string
	layout layout.Layout
	logger *zap.Logger
	tmp    string
}

func New(slidesDir string, l layout.Layout, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{dir: slidesDir, layout: l, logger: logger}
}

// Resolve returns the HTML file for the named slide.
func (r *Resolver) Resolve(name string) (string, error) {
	path := filepath.Join(r.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("slide %s: %w", name, err)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return path, nil
	case ".md", ".markdown":
		return r.markdown(path)
	default:
		return "", fmt.Errorf("slide %s: %w", name, ErrUnsupported)
	}
}

func (r *Resolver) markdown(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", err
	}

	body, title := renderMarkdown(src, absDir)
	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, page{
		Base:   template.URL((&url.URL{Scheme: "file", Path: filepath.ToSlash(absDir) + "/"}).String()),
		Title:  title,
		Width:  int(math.Round(r.layout.WidthPx())),
		Height: int(math.Round(r.layout.HeightPx())),
		Body:   template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}

	if r.tmp == "" {
		if r.tmp, err = os.MkdirTemp("", "html2deck-*"); err != nil {
			return "", err
		}
	}
	out := filepath.Join(r.tmp, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".html")
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	r.logger.Debug("markdown slide rendered", zap.String("source", path), zap.String("html", out))
	return out, nil
}

func (r *Resolver) Close() error {
	if r.tmp == "" {
		return nil
	}
	err := os.RemoveAll(r.tmp)
	r.tmp = ""
	return err
}

// renderMarkdown converts src to HTML. Relative image paths are made absolute
// against dir and images are lifted out of their paragraphs so they become
// pictures of their own. The first heading is returned as the title.
func renderMarkdown(src []byte, dir string) (string, string) {
	md := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	doc := md.Parse(src)

	var title string
	var imageParas []*blackfriday.Node
	doc.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if !entering {
			return blackfriday.GoToNext
		}
		switch n.Type {
		case blackfriday.Heading:
			if title == "" {
				title = plainText(n)
			}
		case blackfriday.Image:
			dest := string(n.LinkData.Destination)
			if dest != "" && !strings.Contains(dest, ":") && !filepath.IsAbs(dest) {
				n.LinkData.Destination = []byte(filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(dest))))
			}
		case blackfriday.Paragraph:
			if onlyImages(n) {
				imageParas = append(imageParas, n)
			}
		}
		return blackfriday.GoToNext
	})

	for _, p := range imageParas {
		for c := p.FirstChild; c != nil; {
			next := c.Next
			if c.Type == blackfriday.Image {
				p.InsertBefore(c)
			}
			c = next
		}
		p.Unlink()
	}

	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: blackfriday.CommonHTMLFlags})
	var buf bytes.Buffer
	doc.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		return renderer.RenderNode(&buf, n, entering)
	})
	return buf.String(), title
}

func onlyImages(p *blackfriday.Node) bool {
	found := false
	for c := p.FirstChild; c != nil; c = c.Next {
		switch {
		case c.Type == blackfriday.Image:
			found = true
		case c.Type == blackfriday.Text && strings.TrimSpace(string(c.Literal)) == "":
		default:
			return false
		}
	}
	return found
}

func plainText(n *blackfriday.Node) string {
	var b strings.Builder
	n.Walk(func(c *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering && (c.Type == blackfriday.Text || c.Type == blackfriday.Code) {
			b.Write(c.Literal)
		}
		return blackfriday.GoToNext
	})
	return strings.TrimSpace(b.String())
}
