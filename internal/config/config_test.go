package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eval.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Empty()
	assert.Equal(t, DefaultOffset, cfg.GetOffset())
	assert.Equal(t, DefaultSignalThreshold, cfg.GetSignalThreshold())
	assert.Equal(t, DefaultDirectThreshold, cfg.GetDirectThreshold())
	assert.Equal(t, DefaultLightThreshold, cfg.GetLightThreshold())
	assert.Equal(t, DefaultPixelPitch, cfg.GetPixelPitch())
	assert.Equal(t, DefaultBetaCoverage, cfg.GetBetaCoverage())
	assert.Equal(t, DefaultBitDepth, cfg.GetBitDepth())
	assert.Equal(t, 1023.0, cfg.MaxValue())
	assert.NoError(t, cfg.Validate())
}

func TestLoadPartialConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `{"offset": 100, "pixel_pitch": 3.76}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.GetOffset())
	assert.Equal(t, 3.76, cfg.GetPixelPitch())
	// Unset fields fall through to defaults
	assert.Equal(t, DefaultLightThreshold, cfg.GetLightThreshold())
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	t.Run("non-json extension", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "eval.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, `{"offset": `))
		assert.Error(t, err)
	})

	t.Run("inverted thresholds", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, `{"direct_illumination_threshold": 50}`))
		assert.Error(t, err)
	})

	t.Run("threshold beyond bit depth", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, `{"light_threshold": 2000}`))
		assert.Error(t, err)
	})

	t.Run("unusable bit depth", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, `{"bit_depth": 32}`))
		assert.Error(t, err)
	})
}

func TestMergePrecedence(t *testing.T) {
	t.Parallel()

	base := &EvalConfig{
		Offset:     ptrFloat64(64),
		PixelPitch: ptrFloat64(2.4),
	}
	overlay := &EvalConfig{
		Offset: ptrFloat64(128),
	}
	base.Merge(overlay)

	assert.Equal(t, 128.0, base.GetOffset())
	assert.Equal(t, 2.4, base.GetPixelPitch())

	base.Merge(nil) // no-op
	assert.Equal(t, 128.0, base.GetOffset())
}

func TestParamsMaterialisation(t *testing.T) {
	t.Parallel()

	cfg := Empty()
	p := cfg.Params()
	assert.Equal(t, DefaultOffset, p.Offset)
	assert.Equal(t, DefaultBetaCoverage, p.BetaCoverage)
	assert.Equal(t, DefaultLightAmount, p.LightAmount)
	assert.NoError(t, p.Validate())
}

func TestPresets(t *testing.T) {
	t.Parallel()

	t.Run("every preset validates", func(t *testing.T) {
		t.Parallel()
		for _, key := range PresetKeys() {
			cfg := Empty()
			require.NoError(t, ApplyPreset(cfg, key), "preset %s", key)
			assert.NoError(t, cfg.Validate(), "preset %s", key)
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ApplyPreset(Empty(), "does_not_exist"))
	})

	t.Run("scientific preset matches its CCD geometry", func(t *testing.T) {
		t.Parallel()
		cfg := Empty()
		require.NoError(t, ApplyPreset(cfg, "scientific"))
		assert.Equal(t, 16, cfg.GetBitDepth())
		assert.Equal(t, 3.45, cfg.GetPixelPitch())
	})

	t.Run("hdr preset raises thresholds", func(t *testing.T) {
		t.Parallel()
		cfg := Empty()
		require.NoError(t, ApplyPreset(cfg, "high_dynamic_range"))
		assert.Equal(t, 14, cfg.GetBitDepth())
		assert.Equal(t, 8000.0, cfg.GetLightThreshold())
	})

	t.Run("flags override preset", func(t *testing.T) {
		t.Parallel()
		cfg := Empty()
		require.NoError(t, ApplyPreset(cfg, "mobile_camera"))
		cfg.Merge(&EvalConfig{PixelPitch: ptrFloat64(2.0)})
		assert.Equal(t, 2.0, cfg.GetPixelPitch())
		assert.Equal(t, 180.0, cfg.GetDirectThreshold())
	})
}
