package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/html2deck/internal/layout"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSlides, cfg.Deck.Slides)
	assert.Equal(t, "DeepSeek-V3.2-Presentation.pptx", cfg.Deck.Output)
	assert.Equal(t, layout.Default, cfg.Deck.Layout)
	assert.Equal(t, "DeepSeek V3.2", cfg.Deck.Title)
	assert.Equal(t, "DeepSeek AI", cfg.Deck.Author)
	assert.Equal(t, "Efficient Reasoning & Agentic AI", cfg.Deck.Subject)
	assert.Equal(t, EngineBrowser, cfg.Renderer.Engine)
	assert.True(t, cfg.Renderer.Headless)
	assert.Equal(t, 60*time.Second, cfg.Renderer.Timeout)
	assert.False(t, cfg.Notes.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, filepath.Join(".", "slides"), cfg.Deck.SlidesPath())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
deck:
  base_dir: /tmp/talk
  slides: [a.html, b.md]
  title: Other talk
renderer:
  engine: STATIC
watch:
  debounce: 500ms
`), 0644))

	t.Setenv("DECK_OUTPUT", "out/talk.pptx")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.html", "b.md"}, cfg.Deck.Slides)
	assert.Equal(t, "Other talk", cfg.Deck.Title)
	assert.Equal(t, EngineStatic, cfg.Renderer.Engine)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/talk/slides", cfg.Deck.SlidesPath())
	assert.Equal(t, "/tmp/talk/out/talk.pptx", cfg.Deck.OutputPath())
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := LoadConfig("")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		msg     string
	}{
		{name: "empty manifest", mutate: func(c *Config) { c.Deck.Slides = nil }, wantErr: ErrEmptyManifest},
		{name: "blank entries only", mutate: func(c *Config) { c.Deck.Slides = []string{""} }, wantErr: ErrEmptyManifest},
		{name: "unknown layout", mutate: func(c *Config) { c.Deck.Layout = "LAYOUT_1x1" }, wantErr: layout.ErrUnknownLayout},
		{name: "unknown engine", mutate: func(c *Config) { c.Renderer.Engine = "wkhtml" }, msg: "unknown renderer engine"},
		{name: "gemini without key", mutate: func(c *Config) { c.Notes.Enabled = true; c.Notes.Key = "" }, msg: "GEMINI_KEY"},
		{name: "unknown driver", mutate: func(c *Config) { c.Notes.Enabled = true; c.Notes.Driver = "gpt" }, msg: "unknown notes driver"},
		{name: "mock driver", mutate: func(c *Config) { c.Notes.Enabled = true; c.Notes.Driver = DriverMock }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			c.Deck.Slides = append([]string(nil), base.Deck.Slides...)
			tt.mutate(&c)
			err := c.Validate()
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.msg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.msg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
