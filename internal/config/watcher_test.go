package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  namespace: first\n"), 0o600))

	var mu sync.Mutex
	var reloaded []*Config
	w, err := NewWatcher(path, 20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)), func(c *Config) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = append(reloaded, c)
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	// Invalid content is skipped.
	require.NoError(t, os.WriteFile(path, []byte("retry:\n  mode: bogus\n"), 0o600))
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, reloaded)
	mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  namespace: second\n"), 0o600))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) > 0 && reloaded[len(reloaded)-1].Metrics.Namespace == "second"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	w, err := NewWatcher(path, time.Millisecond, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	assert.NotPanics(t, func() { _ = w.Stop() })
}
