package flare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flare.report/internal/frame"
)

// evalFrame classifies the given rows with the test parameters.
func evalFrame(t *testing.T, rows [][]float64) *Result {
	t.Helper()
	f, err := frame.FromRows(rows)
	require.NoError(t, err)
	r, err := Evaluate(f, testParams())
	require.NoError(t, err)
	return r
}

func TestComputeAdvancedNilResult(t *testing.T) {
	t.Parallel()

	m := ComputeAdvanced(nil, testParams())
	require.NotNil(t, m)
	assert.Zero(t, m.Basic.AffectedPixels)
	assert.Zero(t, m.Spatial.FlareRegionCount)
	assert.Equal(t, "F", m.Quality.Grade)
}

func TestComputeAdvancedBasicAndStatistical(t *testing.T) {
	t.Parallel()

	// Two flare pixels with signal 36 and 136 above offset.
	r := evalFrame(t, [][]float64{
		{64, 100, 64, 64},
		{64, 64, 200, 64},
		{64, 64, 64, 64},
		{1000, 64, 64, 64},
	})

	m := ComputeAdvanced(r, testParams())

	assert.Equal(t, 2, m.Basic.AffectedPixels)
	assert.Equal(t, 1, m.Basic.LightSources)
	assert.InDelta(t, 172.0, m.Basic.TotalSignal, 1e-12)

	assert.InDelta(t, 86.0, m.Statistical.MeanIntensity, 1e-12)
	assert.InDelta(t, 136.0, m.Statistical.MaxIntensity, 1e-12)
	assert.InDelta(t, 86.0/136.0, m.Statistical.IntensityRatio, 1e-12)
}

func TestComputeAdvancedStatisticalZeroMax(t *testing.T) {
	t.Parallel()

	r := evalFrame(t, [][]float64{
		{64, 64},
		{64, 64},
	})
	m := ComputeAdvanced(r, testParams())
	assert.Zero(t, m.Statistical.IntensityRatio)
}

func TestSpatialRegionLabeling(t *testing.T) {
	t.Parallel()

	t.Run("two separated regions", func(t *testing.T) {
		t.Parallel()
		// A 2x2 blob top-left and a single pixel bottom-right; the gap is
		// wider than one pixel so diagonal adjacency cannot join them.
		r := evalFrame(t, [][]float64{
			{100, 100, 64, 64, 64},
			{100, 100, 64, 64, 64},
			{64, 64, 64, 64, 64},
			{64, 64, 64, 64, 100},
		})

		m := ComputeAdvanced(r, testParams())
		assert.Equal(t, 2, m.Spatial.FlareRegionCount)
		assert.Equal(t, 4, m.Spatial.MaxRegionSize)
		assert.InDelta(t, 2.5, m.Spatial.MeanRegionSize, 1e-12)
	})

	t.Run("diagonal pixels join under 8-connectivity", func(t *testing.T) {
		t.Parallel()
		r := evalFrame(t, [][]float64{
			{100, 64, 64},
			{64, 100, 64},
			{64, 64, 100},
		})

		m := ComputeAdvanced(r, testParams())
		assert.Equal(t, 1, m.Spatial.FlareRegionCount)
		assert.Equal(t, 3, m.Spatial.MaxRegionSize)
	})

	t.Run("empty flare mask", func(t *testing.T) {
		t.Parallel()
		r := evalFrame(t, [][]float64{
			{64, 64},
			{64, 64},
		})

		m := ComputeAdvanced(r, testParams())
		assert.Zero(t, m.Spatial.FlareRegionCount)
		assert.Zero(t, m.Spatial.MaxRegionSize)
		assert.Zero(t, m.Spatial.MeanRegionSize)
		assert.Zero(t, m.Spatial.ConcentrationScore)
	})
}

func TestConcentrationScore(t *testing.T) {
	t.Parallel()

	t.Run("single pixel is fully concentrated", func(t *testing.T) {
		t.Parallel()
		r := evalFrame(t, [][]float64{
			{64, 64, 64},
			{64, 100, 64},
			{64, 64, 64},
		})

		m := ComputeAdvanced(r, testParams())
		assert.InDelta(t, 1.0, m.Spatial.ConcentrationScore, 1e-12)
	})

	t.Run("spread flare scores lower than tight flare", func(t *testing.T) {
		t.Parallel()
		tight := evalFrame(t, [][]float64{
			{64, 64, 64, 64, 64, 64},
			{64, 64, 100, 100, 64, 64},
			{64, 64, 100, 100, 64, 64},
			{64, 64, 64, 64, 64, 64},
			{64, 64, 64, 64, 64, 64},
			{64, 64, 64, 64, 64, 64},
		})
		spread := evalFrame(t, [][]float64{
			{100, 64, 64, 64, 64, 100},
			{64, 64, 64, 64, 64, 64},
			{64, 64, 64, 64, 64, 64},
			{64, 64, 64, 64, 64, 64},
			{64, 64, 64, 64, 64, 64},
			{100, 64, 64, 64, 64, 100},
		})

		tightScore := ComputeAdvanced(tight, testParams()).Spatial.ConcentrationScore
		spreadScore := ComputeAdvanced(spread, testParams()).Spatial.ConcentrationScore
		assert.Greater(t, tightScore, spreadScore)
	})
}

func TestQualityGrading(t *testing.T) {
	t.Parallel()

	t.Run("clean frame grades A", func(t *testing.T) {
		t.Parallel()
		r := evalFrame(t, [][]float64{
			{64, 64},
			{64, 64},
		})
		m := ComputeAdvanced(r, testParams())
		assert.Equal(t, "A", m.Quality.Grade)
		assert.InDelta(t, 1.0, m.Quality.QualityIndex, 1e-12)
	})

	t.Run("severity clamps to one", func(t *testing.T) {
		t.Parallel()
		r := &Result{FlareValue: 1e6}
		q := computeQuality(r)
		assert.InDelta(t, 1.0, q.SeverityScore, 1e-12)
	})

	t.Run("grade thresholds", func(t *testing.T) {
		t.Parallel()
		cases := map[float64]string{
			0.95: "A",
			0.90: "A",
			0.85: "B",
			0.75: "C",
			0.65: "D",
			0.30: "F",
		}
		for index, want := range cases {
			assert.Equal(t, want, gradeFor(index), "index %g", index)
		}
	})
}
