// Package deck assembles the configured slide files into one presentation.
package deck

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gnemet/html2deck/internal/config"
	"github.com/gnemet/html2deck/internal/htmlslide"
	"github.com/gnemet/html2deck/internal/layout"
	"github.com/gnemet/html2deck/internal/notes"
	"github.com/gnemet/html2deck/internal/pptx"
	"github.com/gnemet/html2deck/internal/render"
	"github.com/gnemet/html2deck/internal/source"
)

// Builder runs one build per Build call. Progress lines go to out, logs to
// the logger.
type Builder struct {
	cfg    *config.Config
	out    io.Writer
	logger *zap.Logger
}

func NewBuilder(cfg *config.Config, out io.Writer, logger *zap.Logger) *Builder {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, out: out, logger: logger}
}

// Build converts every slide in manifest order and writes the presentation.
// Slides are converted one at a time and the first failure aborts the build
// before anything is written. It returns the output path.
func (b *Builder) Build(ctx context.Context) (string, error) {
	if err := b.cfg.Validate(); err != nil {
		return "", err
	}
	d := b.cfg.Deck
	l, err := layout.Lookup(d.Layout)
	if err != nil {
		return "", err
	}

	pres := pptx.New(l)
	pres.Title, pres.Author, pres.Subject, pres.Company = d.Title, d.Author, d.Subject, d.Company

	renderer, err := render.New(b.cfg.Renderer, l, b.logger)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			b.logger.Warn("failed to close renderer", zap.Error(err))
		}
	}()

	resolver := source.New(d.SlidesPath(), l, b.logger)
	defer func() {
		if err := resolver.Close(); err != nil {
			b.logger.Warn("failed to remove rendered markdown", zap.Error(err))
		}
	}()

	var gen notes.Generator
	if b.cfg.Notes.Enabled {
		if gen, err = notes.New(ctx, b.cfg.Notes, b.logger); err != nil {
			return "", err
		}
		defer gen.Close()
	}

	conv := htmlslide.New(renderer, l, b.logger)
	for _, name := range lo.Compact(d.Slides) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(b.out, "Processing: %s\n", name)

		path, err := resolver.Resolve(name)
		if err != nil {
			return "", err
		}
		res, err := conv.Convert(ctx, path, pres)
		if err != nil {
			return "", err
		}
		if gen != nil && res.Slide.Notes() == "" && res.Text != "" {
			b.writeNotes(ctx, gen, name, res)
		}

		fields := []zap.Field{
			zap.String("file", name),
			zap.Int("slide", res.Slide.Number()),
			zap.Int("objects", res.Slide.Len()),
		}
		for _, ph := range res.Placeholders {
			b.logger.Info("placeholder",
				zap.String("file", name), zap.String("id", ph.ID),
				zap.Float64("x", ph.X), zap.Float64("y", ph.Y),
				zap.Float64("w", ph.W), zap.Float64("h", ph.H))
		}
		b.logger.Debug("slide added", fields...)
	}

	output := d.OutputPath()
	if err := pres.WriteFile(output); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(output), err)
	}
	fmt.Fprintf(b.out, "Presentation saved to: %s\n", output)
	b.logger.Info("presentation written", zap.String("path", output), zap.Int("slides", len(pres.Slides())))
	return output, nil
}

// writeNotes fills in generated notes. A generator failure leaves the slide
// without notes.
func (b *Builder) writeNotes(ctx context.Context, gen notes.Generator, name string, res *htmlslide.Result) {
	text, err := gen.Generate(ctx, res.Text)
	if err != nil {
		b.logger.Warn("notes generation failed", zap.String("file", name), zap.Error(err))
		return
	}
	res.Slide.SetNotes(text)
}
