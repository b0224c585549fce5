package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-post/engine/postfx"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "oxy-post", cfg.Window.Title)
	assert.Equal(t, renderer.BackendTypeWGPU, cfg.Renderer.BackendType())
	assert.Equal(t, renderer.PresentModeVSync, cfg.Renderer.Present())
	assert.Equal(t, 16*time.Millisecond, cfg.Profiler.RecompileBudget())
	assert.True(t, cfg.Compositor.Enabled)
	assert.True(t, cfg.Compositor.Depth)
	assert.True(t, cfg.Bloom.Enabled)
	assert.Equal(t, postfx.BlurSchedule{1, 2, 3, 4}, cfg.Bloom.Schedule())
	assert.Equal(t, float32(16), cfg.Bloom.ThresholdExponent)
	assert.Equal(t, float32(0), cfg.Bloom.ThresholdOffset)
	assert.Equal(t, float32(1), cfg.Bloom.Intensity)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
[renderer]
backend = "software"
present_mode = "uncapped"
workers = 4

[log]
level = "debug"

[compositor]
depth = false

[bloom]
passes = "0.5 1.5"
intensity = -2.0
`))
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeSoftware, cfg.Renderer.BackendType())
	assert.Equal(t, renderer.PresentModeUncapped, cfg.Renderer.Present())
	assert.Equal(t, 4, cfg.Renderer.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Compositor.Enabled, "untouched keys keep their default")
	assert.False(t, cfg.Compositor.Depth)
	assert.Equal(t, postfx.BlurSchedule{0.5, 1.5}, cfg.Bloom.Schedule())
	assert.Equal(t, float32(-2), cfg.Bloom.Intensity)
	assert.Equal(t, float32(16), cfg.Bloom.ThresholdExponent)
}

func TestParseEmptyScheduleMeansNoPasses(t *testing.T) {
	cfg, err := Parse([]byte("[bloom]\npasses = \"\"\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Bloom.Schedule())
}

func TestParseRejectsBadSchedule(t *testing.T) {
	_, err := Parse([]byte("[bloom]\npasses = \"1 x 3\"\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, postfx.ErrInvalidBlurRadius)
	assert.Contains(t, err.Error(), "bloom.passes: ")
	assert.Contains(t, err.Error(), `invalid blur radius "x"`)

	_, err = Parse([]byte("[bloom]\npasses = \"1 NaN\"\n"))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, postfx.ErrInvalidBlurRadius)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
	}{
		{name: "backend", doc: "[renderer]\nbackend = \"vulkan\"\n", key: "renderer.backend"},
		{name: "present mode", doc: "[renderer]\npresent_mode = \"mailbox\"\n", key: "renderer.present_mode"},
		{name: "workers", doc: "[renderer]\nworkers = -1\n", key: "renderer.workers"},
		{name: "log level", doc: "[log]\nlevel = \"loud\"\n", key: "log.level"},
		{name: "budget", doc: "[profiler]\nrecompile_budget_ms = -5\n", key: "profiler.recompile_budget_ms"},
		{name: "intensity", doc: "[bloom]\nintensity = nan\n", key: "bloom.intensity"},
		{name: "window", doc: "[window]\nwidth = -1\n", key: "window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[bloom]\nradius = 3\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse([]byte("[bloom\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[window]\ntitle = \"demo\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApply(t *testing.T) {
	cfg, err := Parse([]byte(`
[compositor]
enabled = false

[bloom]
passes = "2 4"
threshold_exponent = 8.0
threshold_offset = 0.25
intensity = 3.0
`))
	require.NoError(t, err)

	bloom := postfx.NewBloomEffect()
	compositor := postfx.NewCompositor()
	cfg.Apply(bloom, compositor)

	assert.Equal(t, postfx.BlurSchedule{2, 4}, bloom.Schedule())
	exp, off := bloom.Threshold()
	assert.Equal(t, float32(8), exp)
	assert.Equal(t, float32(0.25), off)
	assert.Equal(t, float32(3), bloom.Intensity())
	assert.False(t, compositor.Enabled())

	assert.NotPanics(t, func() { cfg.Apply(nil, nil) })
}
