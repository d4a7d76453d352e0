// Package report serialises evaluation results to JSON, CSV, and text,
// and renders summary plots and batch HTML reports.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/banshee-data/flare.report/internal/flare"
)

// Document bundles one evaluation's outputs for serialisation.
type Document struct {
	Source   string                 `json:"source,omitempty"`
	Result   *flare.Result          `json:"result"`
	Advanced *flare.AdvancedMetrics `json:"advanced,omitempty"`
}

// WriteJSON writes the document as indented JSON. Band label arrays are
// excluded from the result's JSON form; masks go to image files instead.
func WriteJSON(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// WriteCSV writes the headline metrics as Metric,Value,Units rows.
func WriteCSV(r *flare.Result, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	rows := [][]string{
		{"Metric", "Value", "Units"},
		{"F_raw", formatFloat(r.FRaw), "ADU/um2"},
		{"F_norm", formatFloat(r.FNorm), "dimensionless"},
		{"F_final", formatFloat(r.FFinal), "dimensionless"},
		{"flare_pixels", strconv.Itoa(r.FlareCount), "px"},
		{"direct_illumination_pixels", strconv.Itoa(r.DirectCount), "px"},
		{"light_pixels", strconv.Itoa(r.LightCount), "px"},
		{"flare_coverage", formatFloat(r.FlareCoveragePercent), "percent"},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteText renders a human-readable results summary.
func WriteText(doc *Document, w io.Writer) error {
	r := doc.Result
	if r == nil {
		return fmt.Errorf("no result to report")
	}

	fmt.Fprintln(w, "FLARE EVALUATION RESULTS")
	if doc.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", doc.Source)
	}
	fmt.Fprintf(w, "Frame:  %dx%d, pixel pitch %.2f um\n", r.Width, r.Height, r.PixelPitch)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "F_raw:   %.4f ADU/um2\n", r.FRaw)
	fmt.Fprintf(w, "F_norm:  %.4f\n", r.FNorm)
	fmt.Fprintf(w, "F_final: %.6f\n", r.FFinal)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Flare pixels:               %d (%.2f%%)\n", r.FlareCount, r.FlareCoveragePercent)
	fmt.Fprintf(w, "Direct illumination pixels: %d (%.2f%%)\n", r.DirectCount, r.DirectCoveragePercent)
	fmt.Fprintf(w, "Light source pixels:        %d\n", r.LightCount)
	fmt.Fprintf(w, "Mean flare intensity:       %.2f ADU\n", r.MeanFlareIntensity)
	fmt.Fprintf(w, "Max flare intensity:        %.2f ADU\n", r.MaxFlareIntensity)

	if a := doc.Advanced; a != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Flare regions:       %d (largest %d px, mean %.1f px)\n",
			a.Spatial.FlareRegionCount, a.Spatial.MaxRegionSize, a.Spatial.MeanRegionSize)
		fmt.Fprintf(w, "Concentration score: %.3f\n", a.Spatial.ConcentrationScore)
		fmt.Fprintf(w, "Quality index:       %.3f (grade %s)\n", a.Quality.QualityIndex, a.Quality.Grade)
	}
	return nil
}

// WriteTextFile writes the text summary to a file.
func WriteTextFile(doc *Document, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer file.Close()
	return WriteText(doc, file)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
