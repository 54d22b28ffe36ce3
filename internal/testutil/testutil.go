// Package testutil provides shared test helpers for setting up storage and note stores.
package testutil

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestFS creates a file-backed storage provider in a temporary directory.
func TestFS(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

// StepClock returns a clock that advances one second on every call, so
// consecutive writes get distinct timestamps.
func StepClock() func() time.Time {
	var mu sync.Mutex
	now := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// TestStore creates a note store over a temporary FS provider using
// StepClock. notifier may be nil.
func TestStore(t *testing.T, notifier notes.Notifier, opts ...notes.Option) *notes.Store {
	t.Helper()
	opts = append([]notes.Option{notes.WithClock(StepClock())}, opts...)
	return notes.NewStore(TestFS(t), notifier, Logger(), opts...)
}
