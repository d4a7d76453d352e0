package frame

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load reads a frame from path, dispatching on the file extension.
// Supported formats are .csv (numeric grid), .pgm (ASCII P2) and .png
// (grayscale, scaled to bitDepth).
func Load(path string, bitDepth int) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".pgm":
		return LoadPGM(path)
	case ".png":
		return LoadPNG(path, bitDepth)
	default:
		return nil, fmt.Errorf("unsupported frame format %q (want .csv, .pgm or .png)", filepath.Ext(path))
	}
}

// SupportedExt reports whether ext (with leading dot, any case) names a
// loadable frame format.
func SupportedExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".csv", ".pgm", ".png":
		return true
	}
	return false
}
