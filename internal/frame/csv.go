package frame

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Luminance weights for collapsing RGB triplet dumps to a single channel.
// ITU-R BT.601, matching the converter the sensor team uses upstream.
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

// LoadCSV reads a delimited dump of intensity samples, one row per line.
// Every row must have the same number of fields.
func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s is empty", path)
	}

	rows := make([][]float64, 0, len(records))
	for i, record := range records {
		row := make([]float64, 0, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("csv %s row %d col %d: invalid value %q: %w", path, i+1, j+1, field, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return FromRows(rows)
}

// LoadCSVRGB reads a dump where each cell is an R,G,B triplet of adjacent
// fields and collapses it to luminance. Row width must be a multiple of 3.
func LoadCSVRGB(path string) (*Frame, error) {
	raw, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	if raw.Width%3 != 0 {
		return nil, fmt.Errorf("csv %s: width %d is not a multiple of 3 for RGB mode", path, raw.Width)
	}

	out, err := New(raw.Width/3, raw.Height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r := raw.At(3*x, y)
			g := raw.At(3*x+1, y)
			b := raw.At(3*x+2, y)
			out.Set(x, y, lumR*r+lumG*g+lumB*b)
		}
	}
	return out, nil
}

// SaveCSV writes the frame as delimited text with the given decimal
// precision. Integer sensor data round-trips exactly at precision 0.
func SaveCSV(f *Frame, path string, precision int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	record := make([]string, f.Width)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			record[x] = strconv.FormatFloat(f.At(x, y), 'f', precision, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", y, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
