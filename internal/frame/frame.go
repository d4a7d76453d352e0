// Package frame provides dense 2D intensity frames as read from sensor
// dumps, plus loaders and writers for the flat file formats the evaluator
// consumes (CSV, PGM/PPM, PNG).
package frame

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Frame is a dense row-major grid of sensor intensity samples in ADU.
// Samples are stored as float64 so the same frame type can carry 10-bit
// integer dumps and float exports without conversion at every call site.
type Frame struct {
	Width  int
	Height int
	Data   []float64
}

// New allocates a zeroed frame of the given dimensions.
func New(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}, nil
}

// FromRows builds a frame from row slices. All rows must be the same,
// non-zero length.
func FromRows(rows [][]float64) (*Frame, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("frame must have at least one row and column")
	}
	width := len(rows[0])
	f := &Frame{
		Width:  width,
		Height: len(rows),
		Data:   make([]float64, 0, width*len(rows)),
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), width)
		}
		f.Data = append(f.Data, row...)
	}
	return f, nil
}

// At returns the sample at column x, row y. No bounds checking beyond the
// slice's own; callers iterate within Width/Height.
func (f *Frame) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Set stores a sample at column x, row y.
func (f *Frame) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// Size returns the total sample count.
func (f *Frame) Size() int {
	return f.Width * f.Height
}

// Stats summarises a frame's intensity distribution.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Stats computes min/max/mean/stddev over all samples.
func (f *Frame) Stats() Stats {
	if len(f.Data) == 0 {
		return Stats{}
	}
	s := Stats{Min: f.Data[0], Max: f.Data[0]}
	for _, v := range f.Data {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean, s.StdDev = stat.MeanStdDev(f.Data, nil)
	// MeanStdDev returns NaN stddev for a single sample
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s
}

// Validate checks that the frame is well formed sensor data: non-empty,
// finite, non-negative, and within the range of the given bit depth.
// NaN would compare false under every band condition downstream, so it is
// rejected here at the boundary rather than inside the evaluator.
func (f *Frame) Validate(bitDepth int) error {
	if f == nil || len(f.Data) == 0 {
		return fmt.Errorf("frame is empty")
	}
	if f.Width <= 0 || f.Height <= 0 || f.Width*f.Height != len(f.Data) {
		return fmt.Errorf("frame shape %dx%d does not match %d samples", f.Width, f.Height, len(f.Data))
	}
	maxValue := float64(int(1)<<bitDepth - 1)
	for i, v := range f.Data {
		if math.IsNaN(v) {
			return fmt.Errorf("sample %d is NaN", i)
		}
		if math.IsInf(v, 0) {
			return fmt.Errorf("sample %d is infinite", i)
		}
		if v < 0 {
			return fmt.Errorf("sample %d is negative (%g)", i, v)
		}
		if bitDepth > 0 && v > maxValue {
			return fmt.Errorf("sample %d (%g) exceeds %d-bit range (max %g)", i, v, bitDepth, maxValue)
		}
	}
	return nil
}
