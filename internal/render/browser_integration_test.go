//go:build integration

package render

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/html2deck/internal/config"
	"github.com/gnemet/html2deck/internal/layout"
)

func TestBrowserRenderCover(t *testing.T) {
	l, err := layout.Lookup(layout.Default)
	require.NoError(t, err)

	b := NewBrowser(config.RendererConfig{
		Engine:   config.EngineBrowser,
		Bin:      os.Getenv("CHROME_BIN"),
		Headless: true,
		Timeout:  30 * time.Second,
	}, l, nil)
	defer b.Close()

	snap, err := b.Render(context.Background(), writeSlide(t, "cover.html", coverSlide))
	require.NoError(t, err)

	assert.InDelta(t, 960, snap.Width, 0.5)
	assert.InDelta(t, 540, snap.Height, 0.5)
	assert.Equal(t, "Say hello\nThen move on", snap.Notes)

	tags := make([]string, 0, len(snap.Elements))
	for _, e := range snap.Elements {
		tags = append(tags, e.Tag)
	}
	assert.Equal(t, []string{"h1", "div", "p", "ul"}, tags)

	h1 := snap.Elements[0]
	assert.InDelta(t, 40, h1.Box.X, 0.5)
	assert.InDelta(t, 40, h1.Box.Y, 0.5)
	require.NotEmpty(t, h1.Runs)
	assert.Equal(t, "DeepSeek ", h1.Runs[0].Text)

	list := snap.Elements[3]
	require.Len(t, list.Items, 3)
	assert.Equal(t, 1, list.Items[2].Level)

	// the browser is reused across renders
	_, err = b.Render(context.Background(), writeSlide(t, "again.html", coverSlide))
	require.NoError(t, err)
}
