package main

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CALORILOG_SERVER_PORT", "18787")
	t.Setenv("CALORILOG_STORE_BACKEND", "memory")
	t.Setenv("CALORILOG_IMAGES_DIR", filepath.Join(home, "images"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, "")
	}()

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18787/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		return json.NewDecoder(resp.Body).Decode(&health) == nil
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, version, health.Version)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CALORILOG_STORE_BACKEND", "etcd")

	err := run(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
