package render

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gnemet/html2deck/internal/config"
	"github.com/gnemet/html2deck/internal/layout"
)

var ErrNoChrome = errors.New("no Chrome or Chromium found: install one, set CHROME_BIN or use --engine static")

//go:embed extract.js
var extractScript string

// Browser measures slides in headless Chrome. The browser starts on the
// first Render and is reused until Close.
type Browser struct {
	cfg    config.RendererConfig
	layout layout.Layout
	logger *zap.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowser(cfg config.RendererConfig, l layout.Layout, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{cfg: cfg, layout: l, logger: logger}
}

func (b *Browser) start(ctx context.Context) error {
	if b.browser != nil {
		return nil
	}

	bin, err := chromeBin(b.cfg.Bin)
	if err != nil {
		return err
	}
	l := launcher.New().Bin(bin).Headless(b.cfg.Headless).Context(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connect to chrome: %w", err)
	}

	b.launcher = l
	b.browser = browser
	b.logger.Debug("browser started", zap.String("control_url", controlURL))
	return nil
}

// chromeBin returns the configured binary or a locally installed Chrome.
// An explicit binary keeps the launcher from downloading Chromium.
func chromeBin(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if path, ok := lookPath(); ok {
		return path, nil
	}
	return "", ErrNoChrome
}

var lookPath = launcher.LookPath

func (b *Browser) Render(ctx context.Context, htmlPath string) (*Snapshot, error) {
	if err := b.start(ctx); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return nil, err
	}
	target := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             int(math.Round(b.layout.WidthPx())),
		Height:            int(math.Round(b.layout.HeightPx())),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.Navigate(target); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for %s: %w", htmlPath, err)
	}

	res, err := page.Evaluate(&rod.EvalOptions{
		JS:           extractScript,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("measure %s: %w", htmlPath, err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot of %s: %w", htmlPath, err)
	}
	tidy(&snap)
	return &snap, nil
}

func (b *Browser) Close() error {
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	b.browser, b.launcher = nil, nil
	return err
}

// tidy collapses white space across runs and keeps only the divs the
// converter draws.
func tidy(snap *Snapshot) {
	snap.Elements = lo.Filter(snap.Elements, func(e Element, _ int) bool {
		if e.Tag != "div" || e.Placeholder || e.BareText != "" {
			return true
		}
		return e.Style.HasBackground() || e.Style.HasBorder() || e.Style.HasShadow()
	})
	for i := range snap.Elements {
		e := &snap.Elements[i]
		e.Runs = normalizeRuns(e.Runs)
		for j := range e.Items {
			e.Items[j].Runs = normalizeRuns(e.Items[j].Runs)
		}
	}

	var lines []string
	for _, line := range strings.Split(snap.Notes, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	snap.Notes = strings.Join(lines, "\n")
}
