// Package config loads and validates evaluation configuration files.
//
// Configs are JSON with optional fields: anything omitted falls back to
// the standard 10-bit sensor defaults, so partial files are safe. The
// same schema is shared by the CLI flags and the preset catalog.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/flare.report/internal/flare"
)

// Default evaluation values for a typical 10-bit smartphone sensor.
const (
	DefaultOffset          = 64.0
	DefaultSignalThreshold = 10.0
	DefaultDirectThreshold = 400.0
	DefaultLightThreshold  = 600.0
	DefaultPixelPitch      = 2.4 // µm
	DefaultBetaCoverage    = 0.5
	DefaultLightAmount     = 1.0
	DefaultBitDepth        = 10
)

// EvalConfig is the file-level evaluation configuration. All fields are
// pointers so an omitted field can be told apart from an explicit zero.
type EvalConfig struct {
	Offset          *float64 `json:"offset,omitempty"`
	SignalThreshold *float64 `json:"signal_threshold,omitempty"`
	DirectThreshold *float64 `json:"direct_illumination_threshold,omitempty"`
	LightThreshold  *float64 `json:"light_threshold,omitempty"`
	PixelPitch      *float64 `json:"pixel_pitch,omitempty"`
	BetaCoverage    *float64 `json:"beta_coverage,omitempty"`
	LightAmount     *float64 `json:"light_amount,omitempty"`
	BitDepth        *int     `json:"bit_depth,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// Empty returns an EvalConfig with every field unset.
func Empty() *EvalConfig {
	return &EvalConfig{}
}

// Load reads an EvalConfig from a JSON file. Fields omitted from the file
// keep their defaults through the Get* accessors.
func Load(path string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Merge overlays the non-nil fields of other onto c. Used to stack
// preset -> config file -> CLI flags, later layers winning.
func (c *EvalConfig) Merge(other *EvalConfig) {
	if other == nil {
		return
	}
	if other.Offset != nil {
		c.Offset = other.Offset
	}
	if other.SignalThreshold != nil {
		c.SignalThreshold = other.SignalThreshold
	}
	if other.DirectThreshold != nil {
		c.DirectThreshold = other.DirectThreshold
	}
	if other.LightThreshold != nil {
		c.LightThreshold = other.LightThreshold
	}
	if other.PixelPitch != nil {
		c.PixelPitch = other.PixelPitch
	}
	if other.BetaCoverage != nil {
		c.BetaCoverage = other.BetaCoverage
	}
	if other.LightAmount != nil {
		c.LightAmount = other.LightAmount
	}
	if other.BitDepth != nil {
		c.BitDepth = other.BitDepth
	}
}

// Accessors with defaults.

func (c *EvalConfig) GetOffset() float64 {
	if c != nil && c.Offset != nil {
		return *c.Offset
	}
	return DefaultOffset
}

func (c *EvalConfig) GetSignalThreshold() float64 {
	if c != nil && c.SignalThreshold != nil {
		return *c.SignalThreshold
	}
	return DefaultSignalThreshold
}

func (c *EvalConfig) GetDirectThreshold() float64 {
	if c != nil && c.DirectThreshold != nil {
		return *c.DirectThreshold
	}
	return DefaultDirectThreshold
}

func (c *EvalConfig) GetLightThreshold() float64 {
	if c != nil && c.LightThreshold != nil {
		return *c.LightThreshold
	}
	return DefaultLightThreshold
}

func (c *EvalConfig) GetPixelPitch() float64 {
	if c != nil && c.PixelPitch != nil {
		return *c.PixelPitch
	}
	return DefaultPixelPitch
}

func (c *EvalConfig) GetBetaCoverage() float64 {
	if c != nil && c.BetaCoverage != nil {
		return *c.BetaCoverage
	}
	return DefaultBetaCoverage
}

func (c *EvalConfig) GetLightAmount() float64 {
	if c != nil && c.LightAmount != nil {
		return *c.LightAmount
	}
	return DefaultLightAmount
}

func (c *EvalConfig) GetBitDepth() int {
	if c != nil && c.BitDepth != nil {
		return *c.BitDepth
	}
	return DefaultBitDepth
}

// MaxValue returns the largest representable sample for the configured
// bit depth.
func (c *EvalConfig) MaxValue() float64 {
	return float64(int(1)<<c.GetBitDepth() - 1)
}

// Params materialises the evaluator parameter record from the config.
func (c *EvalConfig) Params() flare.Params {
	return flare.Params{
		Offset:          c.GetOffset(),
		SignalThreshold: c.GetSignalThreshold(),
		DirectThreshold: c.GetDirectThreshold(),
		LightThreshold:  c.GetLightThreshold(),
		PixelPitch:      c.GetPixelPitch(),
		BetaCoverage:    c.GetBetaCoverage(),
		LightAmount:     c.GetLightAmount(),
	}
}

// Validate rejects configurations the evaluator would classify
// meaninglessly: inverted threshold ordering, non-positive pitch, or an
// unusable bit depth.
func (c *EvalConfig) Validate() error {
	if bd := c.GetBitDepth(); bd < 8 || bd > 16 {
		return fmt.Errorf("bit_depth must be between 8 and 16, got %d", bd)
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.GetLightThreshold() > c.MaxValue() {
		return fmt.Errorf("light_threshold (%g) exceeds %d-bit sensor range (max %g)",
			c.GetLightThreshold(), c.GetBitDepth(), c.MaxValue())
	}
	return nil
}
