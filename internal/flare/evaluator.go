// Package flare implements the flare evaluation core: per-pixel intensity
// band classification and the three scalar flare metrics derived from it.
//
// Evaluation is a pure function over an in-memory frame. Identical inputs
// produce identical results, and independent frames can be evaluated
// concurrently with no shared state.
package flare

import (
	"fmt"
	"math"

	"github.com/banshee-data/flare.report/internal/frame"
)

// Band is the intensity classification of a single sample. Bands partition
// the intensity axis: each is half-open on the low side and closed on the
// high side, so a sample sitting exactly on a threshold falls into the
// lower band.
type Band uint8

const (
	// BandBackground holds samples at or below the flare floor
	// (offset + signal threshold).
	BandBackground Band = iota
	// BandFlare holds stray-light samples above the floor, up to and
	// including the direct illumination threshold.
	BandFlare
	// BandDirect holds directly illuminated samples above the direct
	// threshold, up to and including the light threshold.
	BandDirect
	// BandLight holds light source core samples above the light threshold.
	BandLight

	numBands = 4
)

// String returns the band name used in reports and rendered legends.
func (b Band) String() string {
	switch b {
	case BandBackground:
		return "background"
	case BandFlare:
		return "flare"
	case BandDirect:
		return "direct_illumination"
	case BandLight:
		return "light_source"
	default:
		return fmt.Sprintf("band(%d)", uint8(b))
	}
}

// Params carries the thresholds and sensor geometry for one evaluation.
// Values are in ADU except PixelPitch (micrometers) and the dimensionless
// BetaCoverage exponent. Params are passed by value and never mutated.
type Params struct {
	// Offset is the sensor black level subtracted from every counted sample.
	Offset float64 `json:"offset"`
	// SignalThreshold is the minimum signal above Offset counted as flare.
	SignalThreshold float64 `json:"signal_threshold"`
	// DirectThreshold separates flare from direct illumination.
	DirectThreshold float64 `json:"direct_illumination_threshold"`
	// LightThreshold separates direct illumination from light source cores.
	LightThreshold float64 `json:"light_threshold"`
	// PixelPitch is the physical size of one sample in micrometers.
	PixelPitch float64 `json:"pixel_pitch"`
	// BetaCoverage is the exponent applied to the coverage ratio in FFinal.
	BetaCoverage float64 `json:"beta_coverage"`
	// LightAmount scales the legacy flare value. Kept for comparability
	// with historical measurements; 1.0 leaves the value unscaled.
	LightAmount float64 `json:"light_amount"`
}

// DefaultParams returns the standard 10-bit sensor configuration.
func DefaultParams() Params {
	return Params{
		Offset:          64,
		SignalThreshold: 10,
		DirectThreshold: 400,
		LightThreshold:  600,
		PixelPitch:      2.4,
		BetaCoverage:    0.5,
		LightAmount:     1.0,
	}
}

// FlareFloor returns the lower bound of the flare band.
func (p Params) FlareFloor() float64 {
	return p.Offset + p.SignalThreshold
}

// PixelArea returns the physical area of one sample in µm².
func (p Params) PixelArea() float64 {
	return p.PixelPitch * p.PixelPitch
}

// Validate checks threshold ordering and geometry. Callers should reject a
// configuration that fails here before evaluating; Evaluate itself does not
// re-check ordering and will classify with whatever thresholds it is given.
func (p Params) Validate() error {
	if p.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %g", p.Offset)
	}
	if p.SignalThreshold < 0 {
		return fmt.Errorf("signal threshold must be non-negative, got %g", p.SignalThreshold)
	}
	if p.PixelPitch <= 0 {
		return fmt.Errorf("pixel pitch must be positive, got %g", p.PixelPitch)
	}
	if floor := p.FlareFloor(); floor >= p.DirectThreshold {
		return fmt.Errorf("offset+signal_threshold (%g) must be below direct_illumination_threshold (%g)", floor, p.DirectThreshold)
	}
	if p.DirectThreshold >= p.LightThreshold {
		return fmt.Errorf("direct_illumination_threshold (%g) must be below light_threshold (%g)", p.DirectThreshold, p.LightThreshold)
	}
	return nil
}

// Result is the immutable output of one evaluation: the per-sample band
// labels, per-band counts, and the derived scalar metrics.
type Result struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Labels holds one band per sample, row-major, same shape as the input.
	Labels []Band `json:"-"`

	BackgroundCount int `json:"background_pixel_count"`
	FlareCount      int `json:"flare_pixel_count"`
	DirectCount     int `json:"direct_illumination_pixel_count"`
	LightCount      int `json:"light_pixel_count"`

	// FRaw is the raw flare intensity in ADU/µm²: summed signal above
	// offset over the flare band, per unit physical area.
	FRaw float64 `json:"f_raw"`
	// FNorm is FRaw normalised by the direct illumination band's own
	// intensity, making it dimensionless and resolution independent.
	FNorm float64 `json:"f_norm"`
	// FFinal is FNorm weighted by coverage_ratio^beta, penalising
	// spatially extensive flare.
	FFinal float64 `json:"f_final"`

	// SigmaValue is the flare band's summed signal above offset, in ADU.
	SigmaValue         float64 `json:"sigma_value"`
	MeanFlareIntensity float64 `json:"mean_flare_intensity"`
	MaxFlareIntensity  float64 `json:"max_flare_intensity"`

	CoverageRatio  float64 `json:"coverage_ratio"`
	CoverageWeight float64 `json:"coverage_weight"`

	FlareCoveragePercent  float64 `json:"flare_coverage_percent"`
	DirectCoveragePercent float64 `json:"direct_illumination_coverage_percent"`

	// FlareValue is the legacy scalar (FRaw scaled by light amount),
	// retained because the quality grading was calibrated against it.
	FlareValue float64 `json:"flare_value"`

	PixelPitch float64 `json:"pixel_pitch_um"`
	PixelArea  float64 `json:"pixel_area_um2"`
}

// Count returns the pixel count of the given band.
func (r *Result) Count(b Band) int {
	switch b {
	case BandBackground:
		return r.BackgroundCount
	case BandFlare:
		return r.FlareCount
	case BandDirect:
		return r.DirectCount
	case BandLight:
		return r.LightCount
	}
	return 0
}

// Size returns the total sample count.
func (r *Result) Size() int {
	return r.Width * r.Height
}

// BandAt returns the band of the sample at column x, row y.
func (r *Result) BandAt(x, y int) Band {
	return r.Labels[y*r.Width+x]
}

// Mask derives the boolean mask of one band from the label array.
func (r *Result) Mask(b Band) []bool {
	mask := make([]bool, len(r.Labels))
	for i, label := range r.Labels {
		mask[i] = label == b
	}
	return mask
}

// classify assigns one sample to a band. With inverted thresholds some
// bands have an empty range; the chain still assigns every value exactly
// one band, so a degenerate configuration yields degenerate counts rather
// than a panic.
func classify(v, floor, direct, light float64) Band {
	switch {
	case v <= floor:
		return BandBackground
	case v <= direct:
		return BandFlare
	case v <= light:
		return BandDirect
	default:
		return BandLight
	}
}

// Evaluate classifies every sample of f into a band and computes the flare
// metrics. The frame must be non-empty and finite; those are the only
// errors this function returns. Degenerate data (an all-dark frame, an
// empty flare band) is not an error and produces zero-valued metrics.
//
// When the direct illumination band is empty but the light source band is
// not, the light band's mean intensity stands in as the FNorm denominator.
// The substitution follows the established measurement procedure; note it
// makes FNorm discontinuous as the direct count crosses zero.
func Evaluate(f *frame.Frame, p Params) (*Result, error) {
	if f == nil || len(f.Data) == 0 {
		return nil, fmt.Errorf("frame is empty")
	}
	if f.Width <= 0 || f.Height <= 0 || f.Width*f.Height != len(f.Data) {
		return nil, fmt.Errorf("frame shape %dx%d does not match %d samples", f.Width, f.Height, len(f.Data))
	}

	floor := p.FlareFloor()
	labels := make([]Band, len(f.Data))

	var counts [numBands]int
	var sums [numBands]float64 // signal above offset, per band
	maxFlare := 0.0

	for i, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("sample %d is not finite (%g)", i, v)
		}
		b := classify(v, floor, p.DirectThreshold, p.LightThreshold)
		labels[i] = b
		counts[b]++
		signal := v - p.Offset
		sums[b] += signal
		if b == BandFlare && signal > maxFlare {
			maxFlare = signal
		}
	}

	r := &Result{
		Width:           f.Width,
		Height:          f.Height,
		Labels:          labels,
		BackgroundCount: counts[BandBackground],
		FlareCount:      counts[BandFlare],
		DirectCount:     counts[BandDirect],
		LightCount:      counts[BandLight],
		SigmaValue:      sums[BandFlare],
		PixelPitch:      p.PixelPitch,
		PixelArea:       p.PixelArea(),
	}

	total := float64(len(f.Data))
	area := p.PixelArea()

	if r.FlareCount > 0 {
		r.MeanFlareIntensity = r.SigmaValue / float64(r.FlareCount)
		r.MaxFlareIntensity = maxFlare
		if area > 0 {
			r.FRaw = r.SigmaValue / (float64(r.FlareCount) * area)
		}
	}
	r.FlareValue = r.FRaw * p.LightAmount

	// FNorm: flare intensity relative to the illumination that caused it.
	// Prefer the direct band; fall back to the light source band.
	var denom float64
	switch {
	case r.DirectCount > 0 && area > 0:
		denom = sums[BandDirect] / (float64(r.DirectCount) * area)
	case r.LightCount > 0 && area > 0:
		denom = sums[BandLight] / (float64(r.LightCount) * area)
	}
	if r.FlareCount > 0 && denom > 0 {
		r.FNorm = r.FRaw / denom
	}

	r.CoverageRatio = float64(r.FlareCount) / total
	// Special-cased so a zero ratio never hits 0**0.
	if r.CoverageRatio > 0 {
		r.CoverageWeight = math.Pow(r.CoverageRatio, p.BetaCoverage)
	}
	r.FFinal = r.FNorm * r.CoverageWeight

	r.FlareCoveragePercent = r.CoverageRatio * 100
	r.DirectCoveragePercent = float64(r.DirectCount) / total * 100

	return r, nil
}
