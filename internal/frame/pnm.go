package frame

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
)

// LoadPGM reads an ASCII (P2) portable graymap into a frame. Values are
// kept as written; rescaling to the sensor's ADU range is the caller's
// concern.
func LoadPGM(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pgm: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	next := func() (string, error) {
		for scanner.Scan() {
			tok := scanner.Text()
			// "#" starts a comment running to end of line; ScanWords has
			// already split it, so only full-token comments survive here
			if tok[0] == '#' {
				continue
			}
			return tok, nil
		}
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("unexpected end of file")
	}

	magic, err := next()
	if err != nil {
		return nil, fmt.Errorf("pgm %s: %w", path, err)
	}
	if magic != "P2" {
		return nil, fmt.Errorf("pgm %s: unsupported magic %q (want P2)", path, magic)
	}

	var dims [3]int // width, height, maxval
	for i := range dims {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("pgm %s header: %w", path, err)
		}
		dims[i], err = strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("pgm %s header: invalid value %q: %w", path, tok, err)
		}
	}

	f, err := New(dims[0], dims[1])
	if err != nil {
		return nil, fmt.Errorf("pgm %s: %w", path, err)
	}
	for i := range f.Data {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("pgm %s sample %d: %w", path, i, err)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("pgm %s sample %d: invalid value %q: %w", path, i, tok, err)
		}
		f.Data[i] = v
	}
	return f, nil
}

// SavePGM writes the frame as an ASCII (P2) portable graymap. The header
// maxval follows the frame's own range, so samples above 255 survive
// unscaled; the format caps maxval at 65535 and samples are clamped to
// [0, maxval].
func SavePGM(f *Frame, path string) error {
	maxVal := 255
	for _, v := range f.Data {
		if c := int(math.Ceil(v)); c > maxVal {
			maxVal = c
		}
	}
	if maxVal > 65535 {
		maxVal = 65535
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pgm: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "P2\n%d %d\n%d\n", f.Width, f.Height, maxVal)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if x > 0 {
				w.WriteByte(' ')
			}
			fmt.Fprintf(w, "%d", clampInt(f.At(x, y), maxVal))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write pgm: %w", err)
	}
	return nil
}

// SavePPM writes an RGB raster as an ASCII (P3) portable pixmap. The three
// channel frames must share dimensions.
func SavePPM(r, g, b *Frame, path string) error {
	if r.Width != g.Width || r.Width != b.Width || r.Height != g.Height || r.Height != b.Height {
		return fmt.Errorf("ppm channels have mismatched dimensions")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ppm: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "P3\n%d %d\n255\n", r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if x > 0 {
				w.WriteByte(' ')
			}
			fmt.Fprintf(w, "%d %d %d", clampByte(r.At(x, y)), clampByte(g.At(x, y)), clampByte(b.At(x, y)))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write ppm: %w", err)
	}
	return nil
}

func clampByte(v float64) int {
	return clampInt(v, 255)
}

func clampInt(v float64, max int) int {
	if v < 0 {
		return 0
	}
	if v > float64(max) {
		return max
	}
	return int(v)
}
