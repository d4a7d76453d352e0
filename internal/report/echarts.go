package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/flare.report/internal/flare"
)

// BatchEntry is one evaluated file within a batch report.
type BatchEntry struct {
	File     string                 `json:"file"`
	Result   *flare.Result          `json:"result"`
	Advanced *flare.AdvancedMetrics `json:"advanced,omitempty"`
}

// WriteBatchHTML renders an interactive batch report: per-file metric
// bars and a coverage-vs-ratio scatter for spotting outliers.
func WriteBatchHTML(entries []BatchEntry, path string) error {
	if len(entries) == 0 {
		return fmt.Errorf("no entries to report")
	}

	files := make([]string, 0, len(entries))
	fnorm := make([]opts.BarData, 0, len(entries))
	ffinal := make([]opts.BarData, 0, len(entries))
	scatter := make([]opts.ScatterData, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.File)
		fnorm = append(fnorm, opts.BarData{Value: e.Result.FNorm})
		ffinal = append(ffinal, opts.BarData{Value: e.Result.FFinal})
		scatter = append(scatter, opts.ScatterData{
			Name:  e.File,
			Value: []interface{}{e.Result.FlareCoveragePercent, e.Result.FNorm},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Flare Metrics by File",
			Subtitle: "F_norm and coverage-weighted F_final per evaluated frame",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(files).
		AddSeries("F_norm", fnorm).
		AddSeries("F_final", ffinal)

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Coverage vs Flare Ratio",
			Subtitle: "Frames in the upper right combine high coverage with intense flare",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "flare coverage (%)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "F_norm"}),
	)
	sc.AddSeries("frames", scatter)

	page := components.NewPage()
	page.AddCharts(bar, sc)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return fmt.Errorf("render batch report: %w", err)
	}
	return nil
}
