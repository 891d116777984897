package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	dir := t.TempDir()
	mainDBPath := filepath.Join(dir, "dashboard.db")

	client, err := NewClient(mainDBPath, DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	// The queue lives in its own database next to the main one.
	_, err = os.Stat(filepath.Join(dir, "dashboard-tasks.db"))
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	dir := t.TempDir()
	client, err := NewClient(filepath.Join(dir, "dashboard.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go client.Start(ctx)

	// Give workers a moment to spin up, then shut down cleanly.
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx))
	cancel()
}

func TestStopWithoutStart(t *testing.T) {
	dir := t.TempDir()
	client, err := NewClient(filepath.Join(dir, "dashboard.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, client.Stop(ctx))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 1*time.Minute, cfg.RetryDelay)
	assert.Equal(t, 10*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, 1*time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}
