package frame

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// LoadPNG decodes a grayscale or colour PNG and rescales it to the full
// range of the given sensor bit depth. 16-bit PNGs keep their precision;
// 8-bit images are stretched so white maps to the sensor's max value.
func LoadPNG(path string, bitDepth int) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open png: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode png %s: %w", path, err)
	}

	bounds := img.Bounds()
	f, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, fmt.Errorf("png %s: %w", path, err)
	}

	maxValue := float64(int(1)<<bitDepth - 1)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			// GrayModel collapses colour PNGs to luminance; Y is 0-65535
			gray := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			f.Set(x, y, float64(gray.Y)/65535.0*maxValue)
		}
	}
	return f, nil
}

// SavePNG writes the frame as an 8-bit grayscale PNG, scaling the sample
// range [0, maxValue] to [0, 255].
func SavePNG(f *Frame, path string, maxValue float64) error {
	if maxValue <= 0 {
		maxValue = 255
	}

	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(clampByte(f.At(x, y) / maxValue * 255))})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode png %s: %w", path, err)
	}
	return nil
}
