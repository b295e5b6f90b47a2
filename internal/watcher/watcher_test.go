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

func TestWatcherBatchesChangesToWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "lib.d.ts")
	other := filepath.Join(dir, "other.d.ts")
	require.NoError(t, os.WriteFile(watched, []byte("interface A {}"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("interface B {}"), 0644))

	batches := make(chan []string, 10)
	w, err := New(50*time.Millisecond, nil, func(paths []string) { batches <- paths }, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(watched))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(other, []byte("interface B { x: string }"), 0644))
	require.NoError(t, os.WriteFile(watched, []byte("interface A { x: string }"), 0644))
	require.NoError(t, os.WriteFile(watched, []byte("interface A { y: string }"), 0644))

	select {
	case paths := <-batches:
		require.Len(t, paths, 1)
		assert.Equal(t, "lib.d.ts", filepath.Base(paths[0]))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherIgnorePatterns(t *testing.T) {
	w, err := New(time.Millisecond, []string{"*.swp"}, func([]string) {}, nil)
	require.NoError(t, err)
	defer w.Close()

	dir := t.TempDir()
	swap := filepath.Join(dir, "lib.swp")
	input := filepath.Join(dir, "lib.d.ts")
	require.NoError(t, w.Add(swap, input))

	assert.False(t, w.relevant(swap))
	assert.True(t, w.relevant(input))
	assert.False(t, w.relevant(filepath.Join(dir, "unrelated.d.ts")))
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	_, err := New(time.Millisecond, []string{"[abc"}, func([]string) {}, nil)
	assert.Error(t, err)
}
