package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/astrw/internal/batch"
	"github.com/standardbeagle/astrw/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder collects every path a watcher reports
type recorder struct {
	mu      sync.Mutex
	batches []Batch
	changed map[string]bool
	removed map[string]bool
}

func newRecorder() *recorder {
	return &recorder{changed: map[string]bool{}, removed: map[string]bool{}}
}

func (r *recorder) handle(_ context.Context, b Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
	for _, p := range b.Changed {
		r.changed[p] = true
	}
	for _, p := range b.Removed {
		r.removed[p] = true
	}
}

func (r *recorder) sawChanged(rel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed[rel]
}

func (r *recorder) sawRemoved(rel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removed[rel]
}

func testConfig(root string) *config.Config {
	cfg := config.Default(root)
	cfg.Watch.DebounceMs = 20
	return cfg
}

func startWatcher(t *testing.T, cfg *config.Config, handler Handler) *Watcher {
	t.Helper()
	w, err := New(cfg, batch.NewMatcher(cfg.Include, cfg.Exclude), handler)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_ReportsChangedAndRemovedFiles(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.php")
	write(t, existing, "<?php\n")

	rec := newRecorder()
	w := startWatcher(t, testConfig(root), rec.handle)

	write(t, filepath.Join(root, "new.php"), "<?php echo 1;\n")
	write(t, filepath.Join(root, "notes.txt"), "ignored\n")
	require.Eventually(t, func() bool { return rec.sawChanged("new.php") }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(existing))
	require.Eventually(t, func() bool { return rec.sawRemoved("old.php") }, 5*time.Second, 10*time.Millisecond)

	assert.False(t, rec.sawChanged("notes.txt"))

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Batches, int64(2))
	assert.True(t, stats.IsActive)
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, testConfig(root), rec.handle)

	dir := filepath.Join(root, "src", "Http")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	write(t, filepath.Join(dir, "Kernel.php"), "<?php\n")

	require.Eventually(t, func() bool { return rec.sawChanged("src/Http/Kernel.php") }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_ExcludedDirectoriesAreNotWatched(t *testing.T) {
	root := t.TempDir()
	vendor := filepath.Join(root, "vendor", "acme")
	require.NoError(t, os.MkdirAll(vendor, 0o755))

	rec := newRecorder()
	startWatcher(t, testConfig(root), rec.handle)

	write(t, filepath.Join(vendor, "lib.php"), "<?php\n")
	write(t, filepath.Join(root, "app.php"), "<?php\n")

	require.Eventually(t, func() bool { return rec.sawChanged("app.php") }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, rec.sawChanged("vendor/acme/lib.php"))
}

func TestWatcher_StopIsClean(t *testing.T) {
	root := t.TempDir()
	w, err := New(testConfig(root), batch.NewMatcher([]string{"**/*.php"}, nil), func(context.Context, Batch) {})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	assert.False(t, w.Stats().IsActive)
}

func TestRerun(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.php"), "<?php echo \\Astrw\\Debug\\sample_replacement_function();\n")
	write(t, filepath.Join(root, "b.php"), "<?php echo 2;\n")

	cfg := testConfig(root)
	p := batch.NewProcessor(cfg, batch.RulesFactory(nil, true))
	_, _, err := p.RunAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, p.Cache().Len())

	var got batch.Summary
	handler := Rerun(p, func(b Batch, results []batch.Result, summary batch.Summary, err error) {
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a.php", results[0].Path)
		got = summary
	})

	require.NoError(t, os.Remove(filepath.Join(root, "b.php")))
	handler(context.Background(), Batch{Changed: []string{"a.php"}, Removed: []string{"b.php"}})

	assert.Equal(t, 1, got.Files)
	assert.Equal(t, 1, got.Cached)
	assert.Equal(t, 1, got.Replacements)
	assert.Equal(t, 1, p.Cache().Len())
}
