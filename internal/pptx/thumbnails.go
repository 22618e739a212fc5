package pptx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePNG = regexp.MustCompile(`slide-(\d+)\.png$`)

// RenderThumbnails converts a PPTX file to a series of PNG images using
// LibreOffice and pdftoppm. It returns the images sorted by slide number.
func RenderThumbnails(ctx context.Context, pptxPath, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	taskDir, err := os.MkdirTemp("", "html2deck_pdf_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(taskDir)

	// Step 1: PPTX to PDF using LibreOffice
	cmd := exec.CommandContext(ctx, "libreoffice", "--headless", "--convert-to", "pdf", "--outdir", taskDir, pptxPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("libreoffice conversion failed: %w (output: %s)", err, string(output))
	}

	pdfName := strings.TrimSuffix(filepath.Base(pptxPath), filepath.Ext(pptxPath)) + ".pdf"
	pdfPath := filepath.Join(taskDir, pdfName)
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		var found []string
		if entries, err := os.ReadDir(taskDir); err == nil {
			for _, entry := range entries {
				found = append(found, entry.Name())
			}
		}
		return nil, fmt.Errorf("pdf file not found after conversion: expected %s, found: %v", pdfName, found)
	}

	// Step 2: PDF to PNG using pdftoppm
	cmd = exec.CommandContext(ctx, "pdftoppm", "-png", "-rx", "150", "-ry", "150", pdfPath, filepath.Join(outputDir, "slide"))
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm conversion failed: %w (output: %s)", err, string(output))
	}

	return normalizeThumbnailNames(outputDir)
}

// normalizeThumbnailNames renames slide-N.png to slide-000N.png so that
// lexical order matches slide order.
func normalizeThumbnailNames(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "slide-*.png"))
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		matches := slidePNG.FindStringSubmatch(f)
		if len(matches) < 2 {
			continue
		}
		num, _ := strconv.Atoi(matches[1])
		newPath := filepath.Join(dir, fmt.Sprintf("slide-%04d.png", num))
		if newPath == f {
			continue
		}
		if err := os.Rename(f, newPath); err != nil {
			return nil, fmt.Errorf("failed to rename %s: %w", f, err)
		}
	}

	final, err := filepath.Glob(filepath.Join(dir, "slide-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(final)
	return final, nil
}
