package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/flare.report/internal/frame"
)

// Options configures synthetic frame generation.
type Options struct {
	Width    int
	Height   int
	BitDepth int

	Offset   float64 // sensor black level
	NoiseStd float64 // Gaussian read noise standard deviation

	LightCount     int
	LightRadius    int
	LightIntensity float64 // 0 means full scale for the bit depth

	FlareIntensityMin float64
	FlareIntensityMax float64
	FlareRadiusMin    int
	FlareRadiusMax    int
	FlareCeiling      float64 // max value flare halos may reach

	CrossPattern bool
	HotPixels    int

	Seed int64
}

// DefaultOptions returns the standard 512x512 10-bit generation setup.
func DefaultOptions() Options {
	return Options{
		Width:             512,
		Height:            512,
		BitDepth:          10,
		Offset:            64,
		NoiseStd:          2,
		LightCount:        3,
		LightRadius:       3,
		FlareIntensityMin: 0.3,
		FlareIntensityMax: 0.5,
		FlareRadiusMin:    40,
		FlareRadiusMax:    60,
		FlareCeiling:      400,
		CrossPattern:      true,
		HotPixels:         0,
	}
}

// ApplySeverity adjusts flare strength for the named generation preset:
// minimal, standard, or severe.
func (o *Options) ApplySeverity(level string) error {
	switch level {
	case "minimal":
		o.FlareIntensityMin, o.FlareIntensityMax = 0.1, 0.2
		o.FlareRadiusMin, o.FlareRadiusMax = 20, 30
		o.HotPixels = 5
	case "standard":
		o.FlareIntensityMin, o.FlareIntensityMax = 0.2, 0.4
		o.FlareRadiusMin, o.FlareRadiusMax = 30, 50
		o.HotPixels = 20
	case "severe":
		o.FlareIntensityMin, o.FlareIntensityMax = 0.4, 0.7
		o.FlareRadiusMin, o.FlareRadiusMax = 50, 80
		o.HotPixels = 50
	default:
		return fmt.Errorf("unknown severity %q (want minimal, standard, or severe)", level)
	}
	return nil
}

func (o Options) maxValue() float64 {
	return float64(int(1)<<o.BitDepth - 1)
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", o.Width, o.Height)
	}
	if o.BitDepth < 8 || o.BitDepth > 16 {
		return fmt.Errorf("bit depth must be between 8 and 16, got %d", o.BitDepth)
	}
	if o.FlareIntensityMin > o.FlareIntensityMax {
		return fmt.Errorf("flare intensity range inverted (%g > %g)", o.FlareIntensityMin, o.FlareIntensityMax)
	}
	if o.FlareRadiusMin > o.FlareRadiusMax {
		return fmt.Errorf("flare radius range inverted (%d > %d)", o.FlareRadiusMin, o.FlareRadiusMax)
	}
	return nil
}

// Generate builds a synthetic sensor frame: Gaussian base noise around the
// black level, the requested light sources with radial flare halos and
// optional diffraction spikes, then hot pixels. The same seed always
// produces the same frame.
func Generate(opts Options) (*frame.Frame, error) {
	return GenerateAt(opts, nil)
}

// GenerateAt is Generate with explicit light source positions. When
// positions is nil, opts.LightCount sources are placed at random away from
// the frame margin.
func GenerateAt(opts Options, positions [][2]int) (*frame.Frame, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	f, err := frame.New(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}

	for i := range f.Data {
		f.Data[i] = opts.Offset + rng.NormFloat64()*opts.NoiseStd
	}

	if positions == nil {
		positions = randomPositions(rng, opts)
	}

	lightIntensity := opts.LightIntensity
	if lightIntensity <= 0 {
		lightIntensity = opts.maxValue()
	}
	ceiling := opts.FlareCeiling
	if ceiling <= 0 {
		ceiling = opts.maxValue()
	}

	for _, pos := range positions {
		intensity := opts.FlareIntensityMin + rng.Float64()*(opts.FlareIntensityMax-opts.FlareIntensityMin)
		radius := opts.FlareRadiusMin
		if opts.FlareRadiusMax > opts.FlareRadiusMin {
			radius += rng.Intn(opts.FlareRadiusMax - opts.FlareRadiusMin)
		}

		addLightSource(f, pos[0], pos[1], opts.LightRadius, lightIntensity)
		addRadialFlare(f, pos[0], pos[1], radius, intensity, 15, ceiling)
		if opts.CrossPattern {
			addCrossPattern(f, pos[0], pos[1], radius*2, intensity*0.5, ceiling)
		}
	}

	for i := 0; i < opts.HotPixels; i++ {
		x := rng.Intn(opts.Width)
		y := rng.Intn(opts.Height)
		if f.At(x, y) < 900 {
			f.Set(x, y, 200+rng.Float64()*200)
		}
	}

	// Clamp to the sensor's representable range
	max := opts.maxValue()
	for i, v := range f.Data {
		f.Data[i] = math.Max(0, math.Min(max, v))
	}
	return f, nil
}

// randomPositions places light sources uniformly, keeping an eighth of the
// frame as margin so halos stay mostly in view.
func randomPositions(rng *rand.Rand, opts Options) [][2]int {
	marginX := opts.Width / 8
	marginY := opts.Height / 8
	positions := make([][2]int, 0, opts.LightCount)
	for i := 0; i < opts.LightCount; i++ {
		x := marginX + rng.Intn(maxInt(1, opts.Width-2*marginX))
		y := marginY + rng.Intn(maxInt(1, opts.Height-2*marginY))
		positions = append(positions, [2]int{x, y})
	}
	return positions
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
