// Package config loads the engine settings file. Settings are TOML; every section is optional and
// missing keys keep their defaults.
//
//	[window]
//	title = "oxy-post"
//	width = 1280
//	height = 720
//
//	[renderer]
//	backend = "wgpu"          # or "software"
//	present_mode = "vsync"    # or "uncapped"
//	workers = 0               # software backend shading workers, 0 picks GOMAXPROCS
//
//	[profiler]
//	enabled = false
//	recompile_budget_ms = 16
//
//	[log]
//	level = "info"
//
//	[compositor]
//	enabled = true
//	depth = true
//
//	[bloom]
//	enabled = true
//	passes = "1 2 3 4"
//	threshold_exponent = 16.0
//	threshold_offset = 0.0
//	intensity = 1.0
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/postfx"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation error. The message names the offending key.
var ErrInvalid = errors.New("invalid config")

// WindowConfig holds the [window] section.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RendererConfig holds the [renderer] section.
type RendererConfig struct {
	Backend     string `toml:"backend"`
	PresentMode string `toml:"present_mode"`
	Workers     int    `toml:"workers"`
}

// BackendType maps the backend name to a renderer backend.
func (c RendererConfig) BackendType() renderer.RendererBackendType {
	if c.Backend == "software" {
		return renderer.BackendTypeSoftware
	}
	return renderer.BackendTypeWGPU
}

// Present maps the present mode name to a renderer present mode.
func (c RendererConfig) Present() renderer.PresentMode {
	if c.PresentMode == "uncapped" {
		return renderer.PresentModeUncapped
	}
	return renderer.PresentModeVSync
}

// ProfilerConfig holds the [profiler] section.
type ProfilerConfig struct {
	Enabled           bool `toml:"enabled"`
	RecompileBudgetMS int  `toml:"recompile_budget_ms"`
}

// RecompileBudget returns the budget as a duration.
func (c ProfilerConfig) RecompileBudget() time.Duration {
	return time.Duration(c.RecompileBudgetMS) * time.Millisecond
}

// LogConfig holds the [log] section.
type LogConfig struct {
	Level string `toml:"level"`
}

// SlogLevel maps the level name to a slog level.
func (c LogConfig) SlogLevel() slog.Level {
	return common.ParseLogLevel(c.Level)
}

// CompositorConfig holds the [compositor] section.
type CompositorConfig struct {
	Enabled bool `toml:"enabled"`
	Depth   bool `toml:"depth"`
}

// BloomConfig holds the [bloom] section.
type BloomConfig struct {
	Enabled           bool    `toml:"enabled"`
	Passes            string  `toml:"passes"`
	ThresholdExponent float32 `toml:"threshold_exponent"`
	ThresholdOffset   float32 `toml:"threshold_offset"`
	Intensity         float32 `toml:"intensity"`

	schedule postfx.BlurSchedule
}

// Schedule returns the parsed blur radii. Only valid on a config returned by Parse, Load or Default.
func (c BloomConfig) Schedule() postfx.BlurSchedule {
	return c.schedule
}

// Config is the full settings file.
type Config struct {
	Window     WindowConfig     `toml:"window"`
	Renderer   RendererConfig   `toml:"renderer"`
	Profiler   ProfilerConfig   `toml:"profiler"`
	Log        LogConfig        `toml:"log"`
	Compositor CompositorConfig `toml:"compositor"`
	Bloom      BloomConfig      `toml:"bloom"`
}

// Default returns the settings used when no file is given.
//
// Returns:
//   - *Config: a fresh default config
func Default() *Config {
	return &Config{
		Window:     WindowConfig{Title: "oxy-post", Width: 1280, Height: 720},
		Renderer:   RendererConfig{Backend: "wgpu", PresentMode: "vsync"},
		Profiler:   ProfilerConfig{RecompileBudgetMS: 16},
		Log:        LogConfig{Level: "info"},
		Compositor: CompositorConfig{Enabled: true, Depth: true},
		Bloom: BloomConfig{
			Enabled:           true,
			Passes:            postfx.DefaultBlurSchedule().String(),
			ThresholdExponent: 16,
			ThresholdOffset:   0,
			Intensity:         1,
			schedule:          postfx.DefaultBlurSchedule(),
		},
	}
}

// Parse decodes TOML on top of the defaults and validates the result. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - *Config: the parsed config
//   - error: a decode error, or ErrInvalid naming the offending key
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config: %w: %s", ErrInvalid, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses a settings file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - *Config: the parsed config
//   - error: a read, decode or validation error
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	invalid := func(key string, format string, args ...any) error {
		return fmt.Errorf("%s: %w: %s", key, ErrInvalid, fmt.Sprintf(format, args...))
	}

	if c.Window.Width < 0 || c.Window.Height < 0 {
		return invalid("window", "negative size %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.Backend {
	case "wgpu", "software":
	default:
		return invalid("renderer.backend", "unknown backend %q", c.Renderer.Backend)
	}
	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		return invalid("renderer.present_mode", "unknown present mode %q", c.Renderer.PresentMode)
	}
	if c.Renderer.Workers < 0 {
		return invalid("renderer.workers", "negative worker count %d", c.Renderer.Workers)
	}
	if c.Profiler.RecompileBudgetMS < 0 {
		return invalid("profiler.recompile_budget_ms", "negative budget %d", c.Profiler.RecompileBudgetMS)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}

	for key, v := range map[string]float32{
		"bloom.threshold_exponent": c.Bloom.ThresholdExponent,
		"bloom.threshold_offset":   c.Bloom.ThresholdOffset,
		"bloom.intensity":          c.Bloom.Intensity,
	} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return invalid(key, "not a finite number")
		}
	}
	schedule, err := postfx.ParseBlurSchedule(c.Bloom.Passes)
	if err != nil {
		return fmt.Errorf("bloom.passes: %w: %w", ErrInvalid, err)
	}
	c.Bloom.schedule = schedule
	return nil
}

// Apply pushes the bloom and compositor settings into live components. Either may be nil.
// Adding or removing the bloom from its scene per Bloom.Enabled is left to the caller.
//
// Parameters:
//   - bloom: the bloom effect to update
//   - compositor: the compositor to update
func (c *Config) Apply(bloom postfx.BloomEffect, compositor postfx.Compositor) {
	if bloom != nil {
		bloom.SetSchedule(c.Bloom.Schedule())
		bloom.SetThreshold(c.Bloom.ThresholdExponent, c.Bloom.ThresholdOffset)
		bloom.SetIntensity(c.Bloom.Intensity)
	}
	if compositor != nil {
		compositor.SetEnabled(c.Compositor.Enabled)
	}
}
