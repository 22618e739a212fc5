package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/html2deck/internal/layout"
	"github.com/gnemet/html2deck/internal/render"
)

func newResolver(t *testing.T, dir string) *Resolver {
	t.Helper()
	l, err := layout.Lookup(layout.Default)
	require.NoError(t, err)
	r := New(dir, l, nil)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestResolveHTMLPassesThrough(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slide1-cover.html"), []byte("<html></html>"), 0644))

	got, err := newResolver(t, dir).Resolve("slide1-cover.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "slide1-cover.html"), got)
}

func TestResolveMissingFile(t *testing.T) {
	_, err := newResolver(t, t.TempDir()).Resolve("slide2-overview.html")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "slide2-overview.html")
}

func TestResolveUnsupported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))

	_, err := newResolver(t, dir).Resolve("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestResolveMarkdown(t *testing.T) {
	dir := t.TempDir()
	md := "# Agent *Mode*\n\nTool use with `search`.\n\n![diagram](img/flow.png)\n\n- plan\n- act\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slide6-agent.md"), []byte(md), 0644))

	r := newResolver(t, dir)
	out, err := r.Resolve("slide6-agent.md")
	require.NoError(t, err)
	assert.Equal(t, "slide6-agent.html", filepath.Base(out))
	assert.NotEqual(t, dir, filepath.Dir(out))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	page := string(raw)
	assert.Contains(t, page, "<title>Agent Mode</title>")
	assert.Contains(t, page, "width: 960px; height: 540px")
	assert.Contains(t, page, `<base href="file://`)
	assert.Contains(t, page, "<h1>Agent <em>Mode</em></h1>")
	assert.Contains(t, page, `src="`+filepath.ToSlash(filepath.Join(dir, "img", "flow.png"))+`"`)
	assert.NotContains(t, page, "<p><img")

	require.NoError(t, r.Close())
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestMarkdownPageRendersAsSlide(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.md"), []byte("# Usage\n\nCall the API.\n\n1. one\n2. two\n"), 0644))

	out, err := newResolver(t, dir).Resolve("s.md")
	require.NoError(t, err)

	l, err := layout.Lookup(layout.Default)
	require.NoError(t, err)
	snap, err := render.NewStatic(l, nil).Render(context.Background(), out)
	require.NoError(t, err)

	assert.Equal(t, 960.0, snap.Width)
	assert.Equal(t, 540.0, snap.Height)
	assert.Equal(t, "#ffffff", snap.Background.BackgroundColor)

	tags := make([]string, 0, len(snap.Elements))
	for _, e := range snap.Elements {
		tags = append(tags, e.Tag)
	}
	assert.Equal(t, []string{"h1", "p", "ol"}, tags)
	assert.Equal(t, 64.0, snap.Elements[0].Box.X)
	assert.Equal(t, 48.0, snap.Elements[0].Box.Y)
}
