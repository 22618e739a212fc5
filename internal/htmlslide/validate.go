package htmlslide

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/gnemet/html2deck/internal/layout"
	"github.com/gnemet/html2deck/internal/render"
)

const (
	// sizeTolerance is how far the body may differ from the layout, in inches.
	sizeTolerance = 0.1
	// bottomMargin keeps large text away from the bottom edge, in inches.
	bottomMargin = 0.5
	// smallTextPt is the largest font size allowed inside bottomMargin.
	smallTextPt = 12
)

// ValidationError lists every problem found in one slide file.
type ValidationError struct {
	File     string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", e.File, e.Problems[0])
	}
	return fmt.Sprintf("%s: %d problems:\n  - %s", e.File, len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

func pxToIn(px float64) float64 { return px / layout.PxPerInch }

func pxToPt(px float64) float64 { return px * layout.PtPerPx }

// validate checks a snapshot against what a slide can hold. htmlDir
// resolves relative image paths.
func validate(snap *render.Snapshot, l layout.Layout, htmlDir string) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	w, h := pxToIn(snap.Width), pxToIn(snap.Height)
	if math.Abs(w-l.WidthIn()) > sizeTolerance || math.Abs(h-l.HeightIn()) > sizeTolerance {
		add("body is %.2fin x %.2fin but layout %s is %.2fin x %.2fin", w, h, l.Name, l.WidthIn(), l.HeightIn())
	}

	if dx := snap.ScrollWidth - snap.Width; dx > 1 {
		add("content overflows the body horizontally by %.1fpt", pxToPt(dx))
	}
	if dy := snap.ScrollHeight - snap.Height; dy > 1 {
		add("content overflows the body vertically by %.1fpt", pxToPt(dy))
	}

	if isGradient(snap.Background.BackgroundImage) {
		add("body uses a CSS gradient; use a solid colour or an image")
	} else if src, ok := cssURL(snap.Background.BackgroundImage); ok {
		if msg := checkImage(src, htmlDir); msg != "" {
			add("body background: %s", msg)
		}
	}

	for _, e := range snap.Elements {
		label := describe(e)
		st := e.Style

		if e.IsText() {
			var styled []string
			if st.HasBackground() {
				styled = append(styled, "background")
			}
			if st.HasBorder() {
				styled = append(styled, "border")
			}
			if st.HasShadow() {
				styled = append(styled, "shadow")
			}
			if len(styled) > 0 {
				add("%s has %s; only <div> elements may carry background, border or shadow", label, strings.Join(styled, ", "))
			}

			fontPt := pxToPt(largestFont(e))
			gap := pxToIn(snap.Height - e.Box.Bottom())
			if fontPt > smallTextPt && gap < bottomMargin {
				add("%s ends %.2fin from the bottom edge; text above %dpt needs %.1fin", label, math.Max(gap, 0), smallTextPt, bottomMargin)
			}
		}

		if e.Tag == "div" {
			if e.BareText != "" {
				add("%s contains unwrapped text %q; wrap it in <p> or a heading", label, truncate(e.BareText, 40))
			}
			if isGradient(st.BackgroundImage) {
				add("%s uses a CSS gradient; use a solid colour or an image", label)
			} else if src, ok := cssURL(st.BackgroundImage); ok {
				if msg := checkImage(src, htmlDir); msg != "" {
					add("%s background: %s", label, msg)
				}
			}
		}

		if e.Tag == "img" {
			if msg := checkImage(e.Src, htmlDir); msg != "" {
				add("%s: %s", label, msg)
			}
		}

		if e.Placeholder && (e.Box.W <= 0 || e.Box.H <= 0) {
			add("%s has zero width or height", label)
		}
	}
	return problems
}

func describe(e render.Element) string {
	var b strings.Builder
	b.WriteString("<" + e.Tag)
	if e.ID != "" {
		b.WriteString("#" + e.ID)
	}
	for _, c := range e.Classes {
		b.WriteString("." + c)
	}
	b.WriteString(">")
	if text := elementText(e); text != "" {
		fmt.Fprintf(&b, " %q", truncate(text, 30))
	}
	return b.String()
}

func largestFont(e render.Element) float64 {
	size := e.Style.FontSize
	for _, r := range e.Runs {
		size = math.Max(size, r.FontSize)
	}
	for _, it := range e.Items {
		for _, r := range it.Runs {
			size = math.Max(size, r.FontSize)
		}
	}
	return size
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func isGradient(v string) bool {
	return strings.Contains(strings.ToLower(v), "gradient(")
}

// checkImage returns a problem description, or "" when src is usable.
func checkImage(src, htmlDir string) string {
	if src == "" {
		return "image has no src"
	}
	path, err := resolveImage(src, htmlDir)
	if err != nil {
		return err.Error()
	}
	if strings.HasPrefix(path, "data:") {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("image %s not found", src)
	}
	return ""
}
