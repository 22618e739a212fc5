package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/html2deck/internal/config"
	"github.com/gnemet/html2deck/internal/pptx"
)

func writeDeck(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	slides := filepath.Join(dir, "slides")
	require.NoError(t, os.MkdirAll(slides, 0755))
	for i, name := range config.DefaultSlides {
		html := fmt.Sprintf(`<html><body style="width: 720pt; height: 405pt; margin: 0; background-color: #0b1020">
<h2 style="margin: 0; padding: 32px; color: #f8fafc">Part %d</h2>
</body></html>`, i+1)
		require.NoError(t, os.WriteFile(filepath.Join(slides, name), []byte(html), 0644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&app{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootBuildsDeck(t *testing.T) {
	dir := writeDeck(t)

	out, err := execute(t, "--base-dir", dir, "--engine", "static")
	require.NoError(t, err)

	path := filepath.Join(dir, "DeepSeek-V3.2-Presentation.pptx")
	assert.FileExists(t, path)
	assert.Contains(t, out, "Processing: slide1-cover.html\n")
	assert.Contains(t, out, "Processing: slide8-usage.html\n")
	assert.Contains(t, out, "Presentation saved to: "+path+"\n")

	out, err = execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Title:   DeepSeek V3.2")
	assert.Contains(t, out, "Slides:  8")
	assert.Contains(t, out, "  Part 8\n")

	d, err := pptx.Inspect(path)
	require.NoError(t, err)
	require.Len(t, d.Slides, 8)
	require.NotEmpty(t, d.Slides[0].Shapes)
	require.NotEmpty(t, d.Slides[0].Shapes[0].Runs)
	assert.Equal(t, "F8FAFC", d.Slides[0].Shapes[0].Runs[0].Color)
}

// TestMainExitCodes runs the test binary as html2deck when the helper
// variable is set, so the real process exit status can be checked.
func TestMainExitCodes(t *testing.T) {
	if os.Getenv("HTML2DECK_RUN_MAIN") == "1" {
		os.Args = []string{"html2deck", "build", "--engine", "static", "--base-dir", os.Getenv("HTML2DECK_BASE_DIR")}
		main()
		return
	}

	run := func(dir string) (string, string, error) {
		cmd := exec.Command(os.Args[0], "-test.run=^TestMainExitCodes$")
		cmd.Env = append(os.Environ(), "HTML2DECK_RUN_MAIN=1", "HTML2DECK_BASE_DIR="+dir)
		var stdout, stderr bytes.Buffer
		cmd.Stdout, cmd.Stderr = &stdout, &stderr
		err := cmd.Run()
		return stdout.String(), stderr.String(), err
	}

	stdout, _, err := run(writeDeck(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Presentation saved to: ")

	empty := t.TempDir()
	_, stderr, err := run(empty)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stderr, "slide1-cover.html")
	assert.NoFileExists(t, filepath.Join(empty, "DeepSeek-V3.2-Presentation.pptx"))
}

func TestBuildCustomOutput(t *testing.T) {
	dir := writeDeck(t)

	_, err := execute(t, "build", "--base-dir", dir, "--engine", "static", "-o", "out/talk.pptx")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "talk.pptx"))
}

func TestBuildFailsOnMissingSlide(t *testing.T) {
	dir := writeDeck(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "slides", "slide8-usage.html")))

	_, err := execute(t, "build", "--base-dir", dir, "--engine", "static")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slide8-usage.html")
	assert.NoFileExists(t, filepath.Join(dir, "DeepSeek-V3.2-Presentation.pptx"))
}

func TestBuildRejectsUnknownEngine(t *testing.T) {
	_, err := execute(t, "build", "--base-dir", t.TempDir(), "--engine", "gpu")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown renderer engine")
}

func TestInspectNeedsFile(t *testing.T) {
	_, err := execute(t, "inspect")
	assert.Error(t, err)

	_, err = execute(t, "inspect", filepath.Join(t.TempDir(), "missing.pptx"))
	assert.Error(t, err)
}
