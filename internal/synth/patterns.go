// Package synth generates synthetic sensor frames with configurable light
// sources and flare patterns, for testing the evaluator without captured
// data.
package synth

import (
	"math"

	"github.com/banshee-data/flare.report/internal/frame"
)

// addLightSource stamps a saturated disc with a Gaussian edge falloff.
func addLightSource(f *frame.Frame, cx, cy, radius int, intensity float64) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
				continue
			}
			dist := math.Hypot(float64(dx), float64(dy))
			if dist > float64(radius) {
				continue
			}
			v := intensity
			// Soften the rim so the core doesn't end in a hard step
			if edge := float64(radius) * 0.7; dist > edge {
				v = intensity * math.Exp(-((dist-edge)*(dist-edge))/2)
			}
			if v > f.At(x, y) {
				f.Set(x, y, v)
			}
		}
	}
}

// addRadialFlare adds an exponentially decaying halo around a light
// source, with a small angular modulation so the falloff isn't perfectly
// rotationally symmetric.
func addRadialFlare(f *frame.Frame, cx, cy, radius int, intensity, decayRate, ceiling float64) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
				continue
			}
			dist := math.Hypot(float64(dx), float64(dy))
			// Skip the light source core itself
			if dist <= 3 || dist > float64(radius) {
				continue
			}
			decay := math.Exp(-dist / decayRate)
			v := intensity * decay * 200

			angle := math.Atan2(float64(dy), float64(dx))
			v *= 1 + 0.2*math.Sin(angle*6)

			if v > 10 && f.At(x, y) < 900 {
				f.Set(x, y, math.Min(ceiling, f.At(x, y)+v))
			}
		}
	}
}

// addCrossPattern adds four diffraction spikes radiating from the source.
func addCrossPattern(f *frame.Frame, cx, cy, length int, intensity, ceiling float64) {
	for spike := 0; spike < 4; spike++ {
		angle := float64(spike) * math.Pi / 2
		sin, cos := math.Sin(angle), math.Cos(angle)
		for dist := 4; dist < length; dist++ {
			x := cx + int(float64(dist)*cos)
			y := cy + int(float64(dist)*sin)
			decay := math.Exp(-float64(dist) / 25)

			// Give the spike a little width either side of its center line
			for off := -1; off <= 1; off++ {
				xw := x + int(float64(off)*sin)
				yw := y - int(float64(off)*cos)
				if xw < 0 || xw >= f.Width || yw < 0 || yw >= f.Height {
					continue
				}
				widthFactor := 1.0
				if off != 0 {
					widthFactor = 0.3
				}
				v := intensity * decay * 150 * widthFactor
				if v > 10 && f.At(xw, yw) < 900 {
					f.Set(xw, yw, math.Min(ceiling, f.At(xw, yw)+v))
				}
			}
		}
	}
}
