package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goliatone/go-journey360/internal/watch"
	"github.com/goliatone/go-journey360/pkg/input"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case text := <-ch:
		return text
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
		return ""
	}
}

func TestWatcher_RegeneratesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.txt")
	require.NoError(t, os.WriteFile(path, []byte("first story"), 0o644))

	calls := make(chan string, 4)
	w, err := watch.New(path, func(_ context.Context, req input.Requirement) error {
		calls <- req.Text
		return nil
	}, watch.WithDebounce(20*time.Millisecond), watch.WithInitialRun(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Equal(t, "first story", receive(t, calls))

	require.NoError(t, os.WriteFile(path, []byte("second story"), 0o644))
	assert.Equal(t, "second story", receive(t, calls))

	// A burst of writes collapses into one call with the final content.
	require.NoError(t, os.WriteFile(path, []byte("second story"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("third story"), 0o644))
	assert.Equal(t, "third story", receive(t, calls))

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_HandlerErrorsDoNotStopWatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.md")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	calls := make(chan string, 4)
	w, err := watch.New(path, func(_ context.Context, req input.Requirement) error {
		calls <- req.Text
		return errors.New("boom")
	}, watch.WithDebounce(20*time.Millisecond), watch.WithInitialRun(true))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Equal(t, "one", receive(t, calls))
	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	assert.Equal(t, "two", receive(t, calls))

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_Errors(t *testing.T) {
	_, err := watch.New("story.txt", nil)
	assert.Error(t, err)

	w, err := watch.New(filepath.Join(t.TempDir(), "missing.txt"), func(context.Context, input.Requirement) error { return nil })
	require.NoError(t, err)
	err = w.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
