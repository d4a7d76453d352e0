package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flare.report/internal/flare"
)

func smallOptions() Options {
	opts := DefaultOptions()
	opts.Width = 64
	opts.Height = 64
	opts.LightCount = 1
	opts.Seed = 42
	return opts
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Generate(smallOptions())
	require.NoError(t, err)
	second, err := Generate(smallOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

func TestGenerateSeedChangesOutput(t *testing.T) {
	t.Parallel()

	a, err := Generate(smallOptions())
	require.NoError(t, err)

	opts := smallOptions()
	opts.Seed = 43
	b, err := Generate(opts)
	require.NoError(t, err)

	assert.NotEqual(t, a.Data, b.Data)
}

func TestGenerateWithinSensorRange(t *testing.T) {
	t.Parallel()

	opts := smallOptions()
	opts.HotPixels = 10
	f, err := Generate(opts)
	require.NoError(t, err)

	require.NoError(t, f.Validate(opts.BitDepth))
}

// A generated frame must contain all four bands when evaluated with the
// matching thresholds: a light core, its flare halo, and background noise.
func TestGeneratedFrameProducesFlare(t *testing.T) {
	t.Parallel()

	opts := smallOptions()
	f, err := GenerateAt(opts, [][2]int{{32, 32}})
	require.NoError(t, err)

	r, err := flare.Evaluate(f, flare.DefaultParams())
	require.NoError(t, err)

	assert.Positive(t, r.LightCount, "light source core present")
	assert.Positive(t, r.FlareCount, "flare halo present")
	assert.Positive(t, r.BackgroundCount, "background noise present")
	assert.Positive(t, r.FRaw)
}

func TestApplySeverity(t *testing.T) {
	t.Parallel()

	t.Run("severe widens flare", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		require.NoError(t, opts.ApplySeverity("severe"))
		assert.Equal(t, 50, opts.FlareRadiusMin)
		assert.Equal(t, 80, opts.FlareRadiusMax)
	})

	t.Run("unknown severity", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		assert.Error(t, opts.ApplySeverity("catastrophic"))
	})
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()

	t.Run("bad dimensions", func(t *testing.T) {
		t.Parallel()
		opts := smallOptions()
		opts.Width = 0
		_, err := Generate(opts)
		assert.Error(t, err)
	})

	t.Run("inverted intensity range", func(t *testing.T) {
		t.Parallel()
		opts := smallOptions()
		opts.FlareIntensityMin = 0.9
		opts.FlareIntensityMax = 0.1
		_, err := Generate(opts)
		assert.Error(t, err)
	})
}
