package xoui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadResult struct {
	db  *DB
	err error
}

func newWatchedHolder(t *testing.T, content string) (*Holder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manuf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	h, err := NewHolder(FileLoader{Path: path}, WithRetry(1, 0))
	require.NoError(t, err)
	require.NoError(t, h.Load(context.Background()))
	return h, path
}

func waitReload(t *testing.T, ch <-chan reloadResult) reloadResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
		return reloadResult{}
	}
}

// replaceFile 写同目录临时文件后 rename，避免读到截断中的文件。
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	h, path := newWatchedHolder(t, "00:00:0C\tOld\n")

	results := make(chan reloadResult, 16)
	w, err := NewWatcher(h, path,
		WithDebounce(20*time.Millisecond),
		WithReloadCallback(func(db *DB, err error) { results <- reloadResult{db, err} }),
	)
	require.NoError(t, err)
	w.StartAsync()
	w.StartAsync()
	t.Cleanup(func() { assert.NoError(t, w.Stop()) })

	appendFile(t, path, "08:00:20\tOracle\n")
	r := waitReload(t, results)
	require.NoError(t, r.err)
	assert.Equal(t, 2, r.db.Len())

	e, ok, err := h.Query(context.Background(), "08:00:20:00:00:01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Oracle", e.ShortName)
}

func TestWatcher_AtomicReplaceAndFailure(t *testing.T) {
	h, path := newWatchedHolder(t, "00:00:0C\tOld\n")

	results := make(chan reloadResult, 16)
	w, err := NewWatcher(h, path,
		WithDebounce(20*time.Millisecond),
		WithReloadCallback(func(db *DB, err error) { results <- reloadResult{db, err} }),
	)
	require.NoError(t, err)
	w.StartAsync()
	defer func() { assert.NoError(t, w.Stop()) }()

	// 原子替换为导出格式
	next := buildString(t, "00:00:0C\tDumped\n")
	require.NoError(t, SaveDump(path, next))
	r := waitReload(t, results)
	require.NoError(t, r.err)
	e, _, err := h.Query(context.Background(), "00:00:0c:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, "Dumped", e.ShortName)

	// 坏数据：重载失败，旧快照保留
	before := h.Current()
	replaceFile(t, path, "garbage-data\n")
	r = waitReload(t, results)
	assert.ErrorIs(t, r.err, ErrNoEntries)
	assert.Same(t, before, r.db)
	assert.Same(t, before, h.Current())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	h, path := newWatchedHolder(t, "00:00:0C\tOld\n")

	results := make(chan reloadResult, 16)
	w, err := NewWatcher(h, path,
		WithDebounce(10*time.Millisecond),
		WithReloadCallback(func(db *DB, err error) { results <- reloadResult{db, err} }),
	)
	require.NoError(t, err)
	w.StartAsync()

	other := filepath.Join(filepath.Dir(path), "other")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))

	select {
	case r := <-results:
		t.Fatalf("unexpected reload: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
	require.NoError(t, w.Stop())
}

func TestWatcher_StartBlocksUntilStop(t *testing.T) {
	h, path := newWatchedHolder(t, "00:00:0C\tOld\n")
	w, err := NewWatcher(h, path)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.running
	}, time.Second, time.Millisecond)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "Stop 可重复调用")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}

	w.StartAsync() // 停止后不再启动
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	h, path := newWatchedHolder(t, "00:00:0C\tOld\n")
	w, err := NewWatcher(h, path)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
}

func TestNewWatcher_Errors(t *testing.T) {
	h, path := newWatchedHolder(t, "00:00:0C\tOld\n")

	_, err := NewWatcher(nil, path)
	assert.Error(t, err)

	_, err = NewWatcher(h, "")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = NewWatcher(h, filepath.Join(t.TempDir(), "missing", "manuf"))
	assert.Error(t, err)
}
