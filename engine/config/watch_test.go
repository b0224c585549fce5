package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsValidChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bloom]\nintensity = 1.0\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) { reloaded <- cfg })
	}()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("[bloom]\npasses = \"1 x\"\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[bloom]\nintensity = 2.5\n"), 0o644))

	var got *Config
	require.Eventually(t, func() bool {
		select {
		case cfg := <-reloaded:
			got = cfg
			return cfg.Bloom.Intensity == 2.5
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, float32(2.5), got.Bloom.Intensity)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "oxy.toml"), func(*Config) {})
	assert.Error(t, err)
}
