package flare

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"
)

// AdvancedMetrics groups the derived views computed from an evaluation
// result. Nothing here re-classifies pixels; it is aggregation only.
type AdvancedMetrics struct {
	Basic       BasicMetrics       `json:"basic"`
	Statistical StatisticalMetrics `json:"statistical"`
	Spatial     SpatialMetrics     `json:"spatial"`
	Quality     QualityMetrics     `json:"quality"`
}

// BasicMetrics renames the headline evaluator scalars for reporting.
type BasicMetrics struct {
	FlareValue      float64 `json:"flare_value"`
	TotalSignal     float64 `json:"total_signal"`
	AffectedPixels  int     `json:"affected_pixels"`
	LightSources    int     `json:"light_sources"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// StatisticalMetrics describes the flare band's intensity distribution.
type StatisticalMetrics struct {
	MeanIntensity  float64 `json:"mean_intensity"`
	MaxIntensity   float64 `json:"max_intensity"`
	IntensityRatio float64 `json:"intensity_ratio"`
}

// SpatialMetrics describes how flare pixels cluster across the frame.
// Regions are connected components of the flare mask under
// 8-connectivity (diagonal neighbours join a region).
type SpatialMetrics struct {
	FlareRegionCount   int     `json:"num_flare_regions"`
	MaxRegionSize      int     `json:"max_region_size"`
	MeanRegionSize     float64 `json:"mean_region_size"`
	ConcentrationScore float64 `json:"concentration_score"`
}

// QualityMetrics condenses an evaluation into a single graded score.
type QualityMetrics struct {
	SeverityScore float64 `json:"severity_score"`
	CoverageScore float64 `json:"coverage_score"`
	QualityIndex  float64 `json:"quality_index"`
	Grade         string  `json:"quality_grade"`
}

// ComputeAdvanced derives the grouped metrics from an evaluation result.
// The result is an explicit argument; there is no cached "last evaluation"
// on any object. A nil result yields a zero-valued AdvancedMetrics with
// grade "F" rather than an error, so callers can report it uniformly.
func ComputeAdvanced(r *Result, p Params) *AdvancedMetrics {
	if r == nil {
		return &AdvancedMetrics{Quality: QualityMetrics{Grade: gradeFor(0)}}
	}

	m := &AdvancedMetrics{
		Basic: BasicMetrics{
			FlareValue:      r.FlareValue,
			TotalSignal:     r.SigmaValue,
			AffectedPixels:  r.FlareCount,
			LightSources:    r.LightCount,
			CoveragePercent: r.FlareCoveragePercent,
		},
		Statistical: StatisticalMetrics{
			MeanIntensity: r.MeanFlareIntensity,
			MaxIntensity:  r.MaxFlareIntensity,
		},
	}
	if r.MaxFlareIntensity > 0 {
		m.Statistical.IntensityRatio = r.MeanFlareIntensity / r.MaxFlareIntensity
	}

	m.Spatial = computeSpatial(r)
	m.Quality = computeQuality(r)
	return m
}

// computeSpatial labels the flare mask's connected components and scores
// how concentrated the flare is around its own centroid.
func computeSpatial(r *Result) SpatialMetrics {
	var s SpatialMetrics
	if r.FlareCount == 0 {
		return s
	}

	sizes := flareRegionSizes(r)
	s.FlareRegionCount = len(sizes)
	total := 0
	for _, size := range sizes {
		total += size
		if size > s.MaxRegionSize {
			s.MaxRegionSize = size
		}
	}
	if len(sizes) > 0 {
		s.MeanRegionSize = float64(total) / float64(len(sizes))
	}
	s.ConcentrationScore = concentrationScore(r)
	return s
}

// flareRegionSizes returns the pixel count of each 8-connected flare
// region. The labeling itself is delegated to gonum: flare pixels become
// graph nodes, neighbouring pixels share an edge, and regions fall out as
// connected components.
func flareRegionSizes(r *Result) []int {
	g := simple.NewUndirectedGraph()

	for i, label := range r.Labels {
		if label != BandFlare {
			continue
		}
		g.AddNode(simple.Node(i))
	}

	// Link each flare pixel to its already-visited 8-neighbours (the row
	// above and the pixel to the left), so every pair is considered once.
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			i := y*r.Width + x
			if r.Labels[i] != BandFlare {
				continue
			}
			for _, d := range [4][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= r.Width || ny < 0 {
					continue
				}
				j := ny*r.Width + nx
				if r.Labels[j] == BandFlare {
					g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
				}
			}
		}
	}

	components := topo.ConnectedComponents(g)
	sizes := make([]int, 0, len(components))
	for _, c := range components {
		sizes = append(sizes, len(c))
	}
	return sizes
}

// concentrationScore is 1 minus the mean radial distance of flare pixels
// from their centroid, normalised by half the frame diagonal. Concentrated
// flare scores near 1, diffuse flare near 0.
func concentrationScore(r *Result) float64 {
	var cx, cy float64
	n := 0
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if r.BandAt(x, y) == BandFlare {
				cx += float64(x)
				cy += float64(y)
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	cx /= float64(n)
	cy /= float64(n)

	distances := make([]float64, 0, n)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if r.BandAt(x, y) == BandFlare {
				distances = append(distances, math.Hypot(float64(x)-cx, float64(y)-cy))
			}
		}
	}

	maxDistance := math.Hypot(float64(r.Width), float64(r.Height)) / 2
	if maxDistance == 0 {
		return 0
	}
	return 1 - stat.Mean(distances, nil)/maxDistance
}

func computeQuality(r *Result) QualityMetrics {
	q := QualityMetrics{
		SeverityScore: math.Min(r.FlareValue/100, 1),
		CoverageScore: r.FlareCoveragePercent / 100,
	}
	if q.SeverityScore < 0 {
		q.SeverityScore = 0
	}
	q.QualityIndex = 1 - (0.6*q.SeverityScore + 0.4*q.CoverageScore)
	q.Grade = gradeFor(q.QualityIndex)
	return q
}

func gradeFor(index float64) string {
	switch {
	case index >= 0.9:
		return "A"
	case index >= 0.8:
		return "B"
	case index >= 0.7:
		return "C"
	case index >= 0.6:
		return "D"
	default:
		return "F"
	}
}
