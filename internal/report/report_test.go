package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flare.report/internal/flare"
	"github.com/banshee-data/flare.report/internal/frame"
)

func sampleDocument(t *testing.T) *Document {
	t.Helper()
	f, err := frame.FromRows([][]float64{
		{64, 100, 64, 64},
		{64, 64, 500, 64},
		{64, 64, 64, 64},
		{1000, 64, 64, 64},
	})
	require.NoError(t, err)

	params := flare.DefaultParams()
	r, err := flare.Evaluate(f, params)
	require.NoError(t, err)

	return &Document{
		Source:   "sample.csv",
		Result:   r,
		Advanced: flare.ComputeAdvanced(r, params),
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteJSON(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "sample.csv", decoded["source"])

	result := decoded["result"].(map[string]interface{})
	assert.Contains(t, result, "f_norm")
	assert.Contains(t, result, "flare_pixel_count")
	// The label array stays out of the JSON form
	assert.NotContains(t, string(data), "\"Labels\"")
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteCSV(doc.Result, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "Metric,Value,Units\n"))
	assert.Contains(t, text, "F_norm,")
	assert.Contains(t, text, "flare_pixels,1,px")
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)
	var sb strings.Builder
	require.NoError(t, WriteText(doc, &sb))

	out := sb.String()
	assert.Contains(t, out, "F_norm:")
	assert.Contains(t, out, "Flare pixels:               1")
	assert.Contains(t, out, "grade")

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, WriteText(&Document{}, &strings.Builder{}))
	})
}

func TestSaveHistogramPNG(t *testing.T) {
	t.Parallel()

	f, err := frame.New(32, 32)
	require.NoError(t, err)
	for i := range f.Data {
		f.Data[i] = float64((i * 31) % 1024)
	}

	path := filepath.Join(t.TempDir(), "hist.png")
	require.NoError(t, SaveHistogramPNG(f, flare.DefaultParams(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSaveRowProfilePNG(t *testing.T) {
	t.Parallel()

	f, err := frame.New(32, 8)
	require.NoError(t, err)
	for i := range f.Data {
		f.Data[i] = 64 + float64(i%32)*20
	}

	path := filepath.Join(t.TempDir(), "profile.png")
	require.NoError(t, SaveRowProfilePNG(f, 4, flare.DefaultParams(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	t.Run("row out of range", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, SaveRowProfilePNG(f, 99, flare.DefaultParams(), filepath.Join(t.TempDir(), "p.png")))
	})
}

func TestWriteBatchHTML(t *testing.T) {
	t.Parallel()

	doc := sampleDocument(t)
	entries := []BatchEntry{
		{File: "a.csv", Result: doc.Result, Advanced: doc.Advanced},
		{File: "b.csv", Result: doc.Result},
	}

	path := filepath.Join(t.TempDir(), "batch.html")
	require.NoError(t, WriteBatchHTML(entries, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Flare Metrics by File")

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, WriteBatchHTML(nil, filepath.Join(t.TempDir(), "x.html")))
	})
}
