package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/gnemet/html2deck/internal/layout"
)

// ErrEmptyManifest is returned when the deck has no slides to convert.
var ErrEmptyManifest = errors.New("slide manifest is empty")

const (
	EngineBrowser = "browser"
	EngineStatic  = "static"

	DriverGemini = "gemini"
	DriverMock   = "mock"
)

// DefaultSlides is the built-in manifest, in presentation order.
var DefaultSlides = []string{
	"slide1-cover.html",
	"slide2-overview.html",
	"slide3-breakthroughs.html",
	"slide4-dsa.html",
	"slide5-rl.html",
	"slide6-agent.html",
	"slide7-variants.html",
	"slide8-usage.html",
}

type Config struct {
	Deck     DeckConfig     `mapstructure:"deck"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Notes    NotesConfig    `mapstructure:"notes"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Log      LogConfig      `mapstructure:"log"`
}

type DeckConfig struct {
	BaseDir   string   `mapstructure:"base_dir"`
	SlidesDir string   `mapstructure:"slides_dir"`
	Slides    []string `mapstructure:"slides"`
	Output    string   `mapstructure:"output"`
	Layout    string   `mapstructure:"layout"`
	Title     string   `mapstructure:"title"`
	Author    string   `mapstructure:"author"`
	Subject   string   `mapstructure:"subject"`
	Company   string   `mapstructure:"company"`
}

// SlidesPath is the directory holding the slide files.
func (d *DeckConfig) SlidesPath() string {
	return resolve(d.BaseDir, d.SlidesDir)
}

// OutputPath is where the finished presentation is written.
func (d *DeckConfig) OutputPath() string {
	return resolve(d.BaseDir, d.Output)
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

type RendererConfig struct {
	Engine   string        `mapstructure:"engine"` // browser, static
	Bin      string        `mapstructure:"bin"`
	Headless bool          `mapstructure:"headless"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type NotesConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Driver      string  `mapstructure:"driver"` // gemini, mock
	Key         string  `mapstructure:"key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json
}

// LoadConfig reads .env, an optional config file and the environment.
// An empty path means ./config.yaml, which may be absent; an explicit path
// must exist.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; system environment variables apply either way
	_ = godotenv.Load()

	v := viper.New()
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	v.SetConfigFile(path)
	v.AutomaticEnv()

	// Environment variable mappings
	mappings := []struct {
		key, env string
	}{
		{"deck.base_dir", "DECK_BASE_DIR"},
		{"deck.slides_dir", "DECK_SLIDES_DIR"},
		{"deck.output", "DECK_OUTPUT"},
		{"deck.layout", "DECK_LAYOUT"},

		// Renderer
		{"renderer.engine", "RENDER_ENGINE"},
		{"renderer.bin", "CHROME_BIN"},

		// Speaker notes
		{"notes.enabled", "NOTES_ENABLED"},
		{"notes.key", "GEMINI_KEY"},
		{"notes.model", "GEMINI_MODEL"},

		// Logging
		{"log.level", "LOG_LEVEL"},
		{"log.format", "LOG_FORMAT"},
	}

	for _, m := range mappings {
		if err := v.BindEnv(m.key, m.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", m.env, err)
		}
	}

	// Defaults
	v.SetDefault("deck.base_dir", ".")
	v.SetDefault("deck.slides_dir", "slides")
	v.SetDefault("deck.slides", DefaultSlides)
	v.SetDefault("deck.output", "DeepSeek-V3.2-Presentation.pptx")
	v.SetDefault("deck.layout", layout.Default)
	v.SetDefault("deck.title", "DeepSeek V3.2")
	v.SetDefault("deck.author", "DeepSeek AI")
	v.SetDefault("deck.subject", "Efficient Reasoning & Agentic AI")
	v.SetDefault("renderer.engine", EngineBrowser)
	v.SetDefault("renderer.headless", true)
	v.SetDefault("renderer.timeout", "60s")
	v.SetDefault("notes.enabled", false)
	v.SetDefault("notes.driver", DriverGemini)
	v.SetDefault("notes.model", "gemini-2.5-flash")
	v.SetDefault("notes.temperature", 0.4)
	v.SetDefault("notes.max_tokens", 512)
	v.SetDefault("watch.debounce", "2s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Renderer.Engine = strings.ToLower(cfg.Renderer.Engine)
	cfg.Notes.Driver = strings.ToLower(cfg.Notes.Driver)

	return &cfg, nil
}

// Validate reports the first configuration problem that would make a build
// impossible.
func (c *Config) Validate() error {
	if len(lo.Compact(c.Deck.Slides)) == 0 {
		return ErrEmptyManifest
	}
	if _, err := layout.Lookup(c.Deck.Layout); err != nil {
		return err
	}
	if c.Deck.Output == "" {
		return errors.New("deck.output is required")
	}
	if !lo.Contains([]string{EngineBrowser, EngineStatic}, c.Renderer.Engine) {
		return fmt.Errorf("unknown renderer engine %q (want %s or %s)", c.Renderer.Engine, EngineBrowser, EngineStatic)
	}
	if c.Notes.Enabled {
		switch c.Notes.Driver {
		case DriverGemini:
			if c.Notes.Key == "" {
				return errors.New("notes.key (GEMINI_KEY) is required for the gemini driver")
			}
		case DriverMock:
		default:
			return fmt.Errorf("unknown notes driver %q", c.Notes.Driver)
		}
	}
	if !lo.Contains([]string{"console", "json"}, c.Log.Format) {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
