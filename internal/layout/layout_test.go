package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupDefault(t *testing.T) {
	l, err := Lookup("")
	require.NoError(t, err)

	assert.Equal(t, "LAYOUT_16x9", l.Name)
	assert.InDelta(t, 10.0, l.WidthIn(), 1e-9)
	assert.InDelta(t, 5.625, l.HeightIn(), 1e-9)
	assert.InDelta(t, 960.0, l.WidthPx(), 1e-9)
	assert.InDelta(t, 540.0, l.HeightPx(), 1e-9)
}

func TestLookupCaseInsensitive(t *testing.T) {
	l, err := Lookup("layout_wide")
	require.NoError(t, err)
	assert.Equal(t, int64(12192000), l.WidthEMU)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("LAYOUT_A4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLayout))
	assert.Contains(t, err.Error(), "LAYOUT_16x9")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"LAYOUT_16x10", "LAYOUT_16x9", "LAYOUT_4x3", "LAYOUT_WIDE"}, Names())
}
