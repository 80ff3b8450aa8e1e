package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"agendo-api/internal/config"
)

func TestNewConsole(t *testing.T) {
	log, level, err := New(config.LogConfig{Level: "warn"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.NotPanics(t, func() { log.Info("dropped") })
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agendo.log")
	log, _, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	require.NoError(t, err)

	log.Info("booking created", zap.String("id", "a-1"))
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "booking created")
	assert.Contains(t, string(b), `"id":"a-1"`)
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLevelWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agendo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	lw, err := NewLevelWatcher(path, level, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lw.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	assert.Eventually(t, func() bool {
		return level.Level() == zapcore.DebugLevel
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
