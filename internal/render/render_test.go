package render

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flare.report/internal/flare"
	"github.com/banshee-data/flare.report/internal/frame"
)

func classified(t *testing.T) *flare.Result {
	t.Helper()
	f, err := frame.FromRows([][]float64{
		{64, 100},
		{500, 1000},
	})
	require.NoError(t, err)
	r, err := flare.Evaluate(f, flare.DefaultParams())
	require.NoError(t, err)
	return r
}

func TestBandOverlayColors(t *testing.T) {
	t.Parallel()

	r := classified(t)
	img := BandOverlay(r)

	assert.Equal(t, BandColor(flare.BandBackground), img.RGBAAt(0, 0))
	assert.Equal(t, BandColor(flare.BandFlare), img.RGBAAt(1, 0))
	assert.Equal(t, BandColor(flare.BandDirect), img.RGBAAt(0, 1))
	assert.Equal(t, BandColor(flare.BandLight), img.RGBAAt(1, 1))
}

func TestSaveBandOverlayPNG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "overlay.png")
	require.NoError(t, SaveBandOverlayPNG(classified(t), path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestSaveBandOverlayPPM(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "overlay.ppm")
	require.NoError(t, SaveBandOverlayPPM(classified(t), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "P3\n2 2\n255\n")
	// Row 0: background then flare.
	assert.Contains(t, string(data), "24 24 32 255 140 0")
	// Row 1: direct illumination then light source.
	assert.Contains(t, string(data), "64 160 255 255 255 255")
}

func TestSaveFlareMaskPGM(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mask.pgm")
	require.NoError(t, SaveFlareMaskPGM(classified(t), path))

	mask, err := frame.LoadPGM(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 255, 0, 0}, mask.Data)
}

func TestColormapByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"viridis", "jet", "hot", "gray", "grey"} {
		cmap, err := ColormapByName(name)
		require.NoError(t, err, name)
		lo := cmap(0)
		hi := cmap(1)
		assert.NotEqual(t, lo, hi, "colormap %s must not be constant", name)
	}

	_, err := ColormapByName("plasma")
	assert.Error(t, err)
}

func TestHeatmapFlatFrame(t *testing.T) {
	t.Parallel()

	// A constant frame has zero span; the heatmap must not divide by zero.
	f, err := frame.FromRows([][]float64{{5, 5}, {5, 5}})
	require.NoError(t, err)

	cmap, err := ColormapByName("gray")
	require.NoError(t, err)

	img := Heatmap(f, cmap)
	assert.Equal(t, cmap(0), img.RGBAAt(0, 0))
}
