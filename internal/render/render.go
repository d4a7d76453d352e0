// Package render turns evaluation results into raster images: a
// color-coded band overlay and colormapped intensity heatmaps.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/banshee-data/flare.report/internal/flare"
	"github.com/banshee-data/flare.report/internal/frame"
)

// Band overlay palette. Background stays dark so the classified regions
// stand out.
var bandColors = map[flare.Band]color.RGBA{
	flare.BandBackground: {R: 24, G: 24, B: 32, A: 255},
	flare.BandFlare:      {R: 255, G: 140, B: 0, A: 255},
	flare.BandDirect:     {R: 64, G: 160, B: 255, A: 255},
	flare.BandLight:      {R: 255, G: 255, B: 255, A: 255},
}

// BandColor returns the overlay colour for a band.
func BandColor(b flare.Band) color.RGBA {
	return bandColors[b]
}

// BandOverlay renders the classification as a colour raster, one colour
// per band.
func BandOverlay(r *flare.Result) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			img.SetRGBA(x, y, bandColors[r.BandAt(x, y)])
		}
	}
	return img
}

// SaveBandOverlayPNG renders the classification overlay and writes it out.
func SaveBandOverlayPNG(r *flare.Result, path string) error {
	return writePNG(BandOverlay(r), path)
}

// SaveBandOverlayPPM writes the classification overlay as an ASCII (P3)
// pixmap for tooling that cannot decode PNG.
func SaveBandOverlayPPM(res *flare.Result, path string) error {
	r, err := frame.New(res.Width, res.Height)
	if err != nil {
		return err
	}
	g, err := frame.New(res.Width, res.Height)
	if err != nil {
		return err
	}
	b, err := frame.New(res.Width, res.Height)
	if err != nil {
		return err
	}
	for i, band := range res.Labels {
		c := bandColors[band]
		r.Data[i] = float64(c.R)
		g.Data[i] = float64(c.G)
		b.Data[i] = float64(c.B)
	}
	return frame.SavePPM(r, g, b, path)
}

// SaveFlareMaskPGM writes the flare band as a binary 0/255 graymap, the
// format downstream mask-diff tooling consumes.
func SaveFlareMaskPGM(r *flare.Result, path string) error {
	mask, err := frame.New(r.Width, r.Height)
	if err != nil {
		return err
	}
	for i, b := range r.Labels {
		if b == flare.BandFlare {
			mask.Data[i] = 255
		}
	}
	return frame.SavePGM(mask, path)
}

// Colormap maps a normalised intensity in [0,1] to a colour.
type Colormap func(v float64) color.RGBA

// ColormapByName returns one of the built-in colormaps: viridis, jet,
// hot, or gray.
func ColormapByName(name string) (Colormap, error) {
	switch name {
	case "viridis":
		return viridis, nil
	case "jet":
		return jet, nil
	case "hot":
		return hot, nil
	case "gray", "grey":
		return grayscale, nil
	default:
		return nil, fmt.Errorf("unknown colormap %q (want viridis, jet, hot, or gray)", name)
	}
}

// Heatmap renders the frame's intensities through a colormap, normalising
// to the frame's own min/max range.
func Heatmap(f *frame.Frame, cmap Colormap) *image.RGBA {
	stats := f.Stats()
	span := stats.Max - stats.Min

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := 0.0
			if span > 0 {
				v = (f.At(x, y) - stats.Min) / span
			}
			img.SetRGBA(x, y, cmap(v))
		}
	}
	return img
}

// SaveHeatmapPNG renders a colormapped heatmap of the frame and writes it.
func SaveHeatmapPNG(f *frame.Frame, path, colormap string) error {
	cmap, err := ColormapByName(colormap)
	if err != nil {
		return err
	}
	return writePNG(Heatmap(f, cmap), path)
}

func writePNG(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode png %s: %w", path, err)
	}
	return nil
}

// Piecewise colormap approximations over 8-bit channel arithmetic.

func viridis(v float64) color.RGBA {
	g := v * 255
	return color.RGBA{
		R: clamp8(g*0.3 + 50),
		G: clamp8(g*0.8 + 20),
		B: clamp8(255 - g*0.5),
		A: 255,
	}
}

func jet(v float64) color.RGBA {
	g := v * 255
	return color.RGBA{
		R: clamp8(4*g - 510),
		G: clamp8(510 - abs(4*g-510)),
		B: clamp8(510 - 4*g),
		A: 255,
	}
}

func hot(v float64) color.RGBA {
	g := v * 255
	return color.RGBA{
		R: clamp8(g * 3),
		G: clamp8(g*3 - 255),
		B: clamp8(g*3 - 510),
		A: 255,
	}
}

func grayscale(v float64) color.RGBA {
	g := clamp8(v * 255)
	return color.RGBA{R: g, G: g, B: g, A: 255}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
