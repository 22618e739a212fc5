// Package layout provides the slide sizes a deck can be built with.
package layout

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// CatalogFS contains one JSON descriptor per supported layout.
//
//go:embed catalog/*.json
var CatalogFS embed.FS

const (
	EMUPerInch = 914400
	PxPerInch  = 96.0
	PtPerPx    = 0.75

	Default = "LAYOUT_16x9"
)

var ErrUnknownLayout = errors.New("unknown layout")

// Layout is a slide size.
type Layout struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	WidthEMU  int64  `json:"width_emu"`
	HeightEMU int64  `json:"height_emu"`
}

func (l Layout) WidthIn() float64  { return float64(l.WidthEMU) / EMUPerInch }
func (l Layout) HeightIn() float64 { return float64(l.HeightEMU) / EMUPerInch }

// WidthPx is the CSS pixel width a slide document must have.
func (l Layout) WidthPx() float64  { return l.WidthIn() * PxPerInch }
func (l Layout) HeightPx() float64 { return l.HeightIn() * PxPerInch }

var (
	loadOnce sync.Once
	layouts  map[string]Layout
	loadErr  error
)

func load() {
	layouts = make(map[string]Layout)
	entries, err := CatalogFS.ReadDir("catalog")
	if err != nil {
		loadErr = err
		return
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		fileName := path.Join("catalog", e.Name())
		content, err := CatalogFS.ReadFile(fileName)
		if err != nil {
			loadErr = fmt.Errorf("could not read embedded catalog file %s: %w", fileName, err)
			return
		}
		var l Layout
		if err := json.Unmarshal(content, &l); err != nil {
			loadErr = fmt.Errorf("could not parse embedded catalog file %s: %w", fileName, err)
			return
		}
		layouts[strings.ToUpper(l.Name)] = l
	}
}

// Lookup returns the layout registered under name. Names are case-insensitive.
func Lookup(name string) (Layout, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return Layout{}, loadErr
	}
	if name == "" {
		name = Default
	}
	l, ok := layouts[strings.ToUpper(name)]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %s (available: %s)", ErrUnknownLayout, name, strings.Join(Names(), ", "))
	}
	return l, nil
}

// Names returns the sorted list of known layout names.
func Names() []string {
	loadOnce.Do(load)
	names := lo.Map(lo.Values(layouts), func(l Layout, _ int) string { return l.Name })
	sort.Strings(names)
	return names
}
