package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/flare.report/internal/flare"
	"github.com/banshee-data/flare.report/internal/frame"
)

var thresholdColors = []color.RGBA{
	{R: 230, G: 159, B: 0, A: 255},  // flare floor
	{R: 0, G: 114, B: 178, A: 255},  // direct threshold
	{R: 213, G: 94, B: 0, A: 255},   // light threshold
}

// SaveHistogramPNG plots the frame's intensity distribution with vertical
// rules at the three band thresholds.
func SaveHistogramPNG(f *frame.Frame, params flare.Params, path string) error {
	p := plot.New()
	p.Title.Text = "Intensity Distribution"
	p.X.Label.Text = "Intensity (ADU)"
	p.Y.Label.Text = "Sample Count"

	hist, err := plotter.NewHist(plotter.Values(f.Data), 64)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	p.Add(hist)

	stats := f.Stats()
	top := float64(f.Size())
	thresholds := []struct {
		label string
		value float64
	}{
		{"flare floor", params.FlareFloor()},
		{"direct", params.DirectThreshold},
		{"light", params.LightThreshold},
	}
	for i, th := range thresholds {
		if th.value < stats.Min || th.value > stats.Max {
			continue
		}
		rule, err := plotter.NewLine(plotter.XYs{
			{X: th.value, Y: 0},
			{X: th.value, Y: top},
		})
		if err != nil {
			return fmt.Errorf("build threshold rule: %w", err)
		}
		rule.Color = thresholdColors[i%len(thresholdColors)]
		rule.Width = vg.Points(1)
		rule.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(rule)
		p.Legend.Add(th.label, rule)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram plot: %w", err)
	}
	return nil
}

// SaveRowProfilePNG plots the intensity profile of one frame row with the
// band thresholds as horizontal rules. Useful for inspecting the falloff
// around a light source.
func SaveRowProfilePNG(f *frame.Frame, row int, params flare.Params, path string) error {
	if row < 0 || row >= f.Height {
		return fmt.Errorf("row %d out of range (height %d)", row, f.Height)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Row %d Intensity Profile", row)
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Intensity (ADU)"

	pts := make(plotter.XYs, f.Width)
	for x := 0; x < f.Width; x++ {
		pts[x] = plotter.XY{X: float64(x), Y: f.At(x, row)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build profile line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("intensity", line)

	thresholds := []struct {
		label string
		value float64
	}{
		{"flare floor", params.FlareFloor()},
		{"direct", params.DirectThreshold},
		{"light", params.LightThreshold},
	}
	for i, th := range thresholds {
		rule, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: th.value},
			{X: float64(f.Width - 1), Y: th.value},
		})
		if err != nil {
			return fmt.Errorf("build threshold rule: %w", err)
		}
		rule.Color = thresholdColors[i%len(thresholdColors)]
		rule.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(rule)
		p.Legend.Add(th.label, rule)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save profile plot: %w", err)
	}
	return nil
}
