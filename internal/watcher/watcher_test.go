package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncesAndFilters(t *testing.T) {
	dir := t.TempDir()
	got := make(chan []string, 4)

	w, err := New(dir, []string{"duelist.db", "config.yaml"}, 50*time.Millisecond, func(changed []string) {
		got <- changed
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "duelist.db"), []byte{byte(i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("theme: dark"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case changed := <-got:
		assert.Equal(t, []string{"config.yaml", "duelist.db"}, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a debounced callback")
	}

	select {
	case changed := <-got:
		t.Fatalf("Expected a single callback, got another: %v", changed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewFailsOnMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, 0, func([]string) {})
	assert.Error(t, err)
}
