package watcher

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

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/logging"
)

type fakeAdder struct {
	mu       sync.Mutex
	added    []models.Document
	existing map[string]bool
	queued   map[string]bool
}

func (f *fakeAdder) Add(_ context.Context, d models.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, d)
	return "local-id", nil
}

func (f *fakeAdder) FindByFileName(_ context.Context, name string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existing[name] {
		return []models.Document{{OriginalFileName: name}}, nil
	}
	return nil, nil
}

func (f *fakeAdder) HasQueuedFile(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued[name], nil
}

func (f *fakeAdder) addedNames(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.added))
	for _, d := range f.added {
		out = append(out, d.OriginalFileName)
	}
	return out
}

func nopLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInboxWatcher_SweepAndWatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "preexisting.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cached.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o600))

	adder := &fakeAdder{existing: map[string]bool{"cached.pdf": true}}
	w := NewInboxWatcher(dir, adder, nopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// startup sweep queues the pdf but not the cached or non-scan files
	assert.Eventually(t, func() bool {
		return len(adder.addedNames(t)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.jpg"), []byte("jpg"), 0o600))

	assert.Eventually(t, func() bool {
		names := adder.addedNames(t)
		return len(names) == 2 && names[1] == "dropped.jpg"
	}, 2*time.Second, 10*time.Millisecond)

	got := adder.addedNames(t)
	assert.Equal(t, []string{"preexisting.pdf", "dropped.jpg"}, got)

	cancel()
	require.NoError(t, <-done)
}

func TestInboxWatcher_TitleStripsExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tax-return-2025.pdf"), []byte("%PDF"), 0o600))

	adder := &fakeAdder{}
	w := NewInboxWatcher(dir, adder, nopLogger())
	require.NoError(t, w.sweep(context.Background()))

	require.Len(t, adder.added, 1)
	assert.Equal(t, "tax-return-2025", adder.added[0].Title)
	assert.Equal(t, "tax-return-2025.pdf", adder.added[0].OriginalFileName)
}

func TestInboxWatcher_SkipsFileQueuedBeforeRestart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waiting.pdf"), []byte("%PDF"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.pdf"), []byte("%PDF"), 0o600))

	// waiting.pdf's create is still in the queue from before the restart;
	// the cache knows neither file
	adder := &fakeAdder{queued: map[string]bool{"waiting.pdf": true}}
	w := NewInboxWatcher(dir, adder, nopLogger())
	require.NoError(t, w.sweep(context.Background()))

	assert.Equal(t, []string{"fresh.pdf"}, adder.addedNames(t))
}

func TestInboxWatcher_MissingDirFails(t *testing.T) {
	w := NewInboxWatcher(filepath.Join(t.TempDir(), "nope"), &fakeAdder{}, nopLogger())
	assert.Error(t, w.Run(context.Background()))
}
