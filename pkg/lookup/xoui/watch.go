package xoui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xoui/pkg/observability/xlog"
)

// DefaultDebounce 文件变更的默认防抖时间。
const DefaultDebounce = 200 * time.Millisecond

// ReloadCallback 每次由文件变更触发的重载完成后调用，err 为 nil 表示新快照已生效。
type ReloadCallback func(db *DB, err error)

// WatchOption 配置 Watcher。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	logger   xlog.Logger
	callback ReloadCallback
}

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithWatchLogger 设置 Watcher 的 logger。
func WithWatchLogger(l xlog.Logger) WatchOption {
	return func(o *watchOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithReloadCallback 设置重载回调。回调在防抖定时器的 goroutine 中执行，不要在回调中调用 Stop。
func WithReloadCallback(fn ReloadCallback) WatchOption {
	return func(o *watchOptions) {
		o.callback = fn
	}
}

// Watcher 监听数据库文件变更并触发 Holder 重载。
//
// 监听的是文件所在目录而非文件本身：编辑器与原子写入（写临时文件后 rename）
// 会替换 inode，直接监听文件会丢失后续事件。
type Watcher struct {
	holder   *Holder
	path     string
	opts     watchOptions
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool
	done    chan struct{}
	timer   *time.Timer
}

// NewWatcher 创建 path 的监视器，需调用 Start 或 StartAsync 开始监视。
func NewWatcher(h *Holder, path string, opts ...WatchOption) (*Watcher, error) {
	if h == nil {
		return nil, errors.New("xoui: nil holder")
	}
	if path == "" {
		return nil, ErrEmptyPath
	}
	o := watchOptions{debounce: DefaultDebounce, logger: xlog.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xoui: create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xoui: watch %s: %w", dir, err), fsw.Close())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		holder:  h,
		path:    filepath.Clean(path),
		opts:    o,
		watcher: fsw,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// Start 阻塞运行监视循环，直到 Stop 被调用。
func (w *Watcher) Start() {
	if w.markRunning() {
		w.run()
	}
}

// StartAsync 在后台 goroutine 中运行监视循环。
func (w *Watcher) StartAsync() {
	if w.markRunning() {
		go w.run()
	}
}

func (w *Watcher) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return false
	}
	w.running = true
	return true
}

// Stop 停止监视，等待监视循环与进行中的重载结束。可重复调用。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil && w.timer.Stop() {
		w.inflight.Done()
	}
	w.timer = nil
	running := w.running
	w.mu.Unlock()

	w.cancel()
	err := w.watcher.Close()
	if running {
		<-w.done
	}
	w.inflight.Wait()
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	name := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.opts.logger.Warn(w.ctx, "watch error", xlog.Path(w.path), xlog.Err(err))
		}
	}
}

// handleEvent 只关心目标文件的 Write/Create/Rename，重置防抖定时器。
func (w *Watcher) handleEvent(event fsnotify.Event, name string) {
	if filepath.Base(event.Name) != name {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	w.timer = time.AfterFunc(w.opts.debounce, w.fire)
}

func (w *Watcher) fire() {
	defer w.inflight.Done()
	if w.ctx.Err() != nil {
		return
	}

	w.opts.logger.Debug(w.ctx, "database file changed", xlog.Path(w.path))
	err := w.holder.Reload(w.ctx)
	if w.opts.callback != nil {
		w.opts.callback(w.holder.Current(), err)
	}
}
