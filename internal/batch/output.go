package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
)

// summaryHeader is the column order of the batch summary CSV.
var summaryHeader = []string{
	"file", "status",
	"f_raw", "f_norm", "f_final", "flare_value",
	"background_pixel_count", "flare_pixel_count",
	"direct_illumination_pixel_count", "light_pixel_count",
	"coverage_ratio", "quality_grade", "quality_index",
}

// WriteSummaryCSV writes one row per input file, failures included
// with an error status so a batch row count always matches the input.
func WriteSummaryCSV(w io.Writer, s *Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, it := range s.Items {
		if err := cw.Write(summaryRow(it)); err != nil {
			return fmt.Errorf("write row for %s: %w", it.File, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func summaryRow(it Item) []string {
	name := filepath.Base(it.File)
	if it.Err != nil {
		row := []string{name, "error: " + it.Err.Error()}
		for len(row) < len(summaryHeader) {
			row = append(row, "")
		}
		return row
	}

	r := it.Result
	grade := ""
	index := ""
	if it.Advanced != nil {
		grade = it.Advanced.Quality.Grade
		index = fmt.Sprintf("%.4f", it.Advanced.Quality.QualityIndex)
	}

	return []string{
		name, "ok",
		fmt.Sprintf("%.6g", r.FRaw),
		fmt.Sprintf("%.6g", r.FNorm),
		fmt.Sprintf("%.6g", r.FFinal),
		fmt.Sprintf("%.6g", r.FlareValue),
		fmt.Sprintf("%d", r.BackgroundCount),
		fmt.Sprintf("%d", r.FlareCount),
		fmt.Sprintf("%d", r.DirectCount),
		fmt.Sprintf("%d", r.LightCount),
		fmt.Sprintf("%.6f", r.CoverageRatio),
		grade, index,
	}
}

// Aggregate holds cross-file statistics for a batch run.
type Aggregate struct {
	Evaluated    int
	Failed       int
	MeanFNorm    float64
	StdDevFNorm  float64
	MeanFFinal   float64
	StdDevFFinal float64
	// WorstFile is the file with the highest normalised flare.
	WorstFile  string
	WorstFNorm float64
}

// Summarize computes aggregate statistics over the successful items.
func Summarize(s *Summary) Aggregate {
	var agg Aggregate
	var fnorms, ffinals []float64

	for _, it := range s.Items {
		if it.Err != nil {
			agg.Failed++
			continue
		}
		agg.Evaluated++
		fnorms = append(fnorms, it.Result.FNorm)
		ffinals = append(ffinals, it.Result.FFinal)
		if it.Result.FNorm >= agg.WorstFNorm {
			agg.WorstFile = filepath.Base(it.File)
			agg.WorstFNorm = it.Result.FNorm
		}
	}

	switch {
	case len(fnorms) == 1:
		// A sample standard deviation needs two points; report 0, not NaN.
		agg.MeanFNorm = fnorms[0]
		agg.MeanFFinal = ffinals[0]
	case len(fnorms) > 1:
		agg.MeanFNorm, agg.StdDevFNorm = stat.MeanStdDev(fnorms, nil)
		agg.MeanFFinal, agg.StdDevFFinal = stat.MeanStdDev(ffinals, nil)
	}
	return agg
}

// WriteAggregateText writes a short human-readable batch summary.
func WriteAggregateText(w io.Writer, agg Aggregate) error {
	_, err := fmt.Fprintf(w,
		"evaluated %d file(s), %d failed\n"+
			"F_norm  mean %.6g  stddev %.6g\n"+
			"F_final mean %.6g  stddev %.6g\n"+
			"worst file: %s (F_norm %.6g)\n",
		agg.Evaluated, agg.Failed,
		agg.MeanFNorm, agg.StdDevFNorm,
		agg.MeanFFinal, agg.StdDevFFinal,
		agg.WorstFile, agg.WorstFNorm)
	return err
}
