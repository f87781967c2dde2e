package xoui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xoui/pkg/observability/xlog"
	"github.com/omeyang/xoui/pkg/util/xmac"
)

// Holder 默认值。
const (
	DefaultCacheSize     = 4096
	DefaultReloadRetries = 3
	DefaultRetryDelay    = 100 * time.Millisecond

	meterName = "github.com/omeyang/xoui/pkg/lookup/xoui"
)

// ErrNilLoader 表示 NewHolder 的 loader 为 nil。
var ErrNilLoader = errors.New("xoui: nil loader")

var (
	resultHit   = metric.WithAttributes(attribute.String("result", "hit"))
	resultMiss  = metric.WithAttributes(attribute.String("result", "miss"))
	resultOK    = metric.WithAttributes(attribute.String("result", "ok"))
	resultError = metric.WithAttributes(attribute.String("result", "error"))
)

// HolderOption 配置 Holder。
type HolderOption func(*holderOptions)

type holderOptions struct {
	logger        xlog.Logger
	cacheSize     int
	meterProvider metric.MeterProvider
	attempts      uint
	delay         time.Duration
}

// WithHolderLogger 设置 Holder 的 logger，默认丢弃。
func WithHolderLogger(l xlog.Logger) HolderOption {
	return func(o *holderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCacheSize 设置 Query 结果缓存容量，0 表示关闭缓存。
func WithCacheSize(n int) HolderOption {
	return func(o *holderOptions) {
		o.cacheSize = max(n, 0)
	}
}

// WithMeterProvider 设置指标来源，默认使用 otel 全局 MeterProvider。
func WithMeterProvider(mp metric.MeterProvider) HolderOption {
	return func(o *holderOptions) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithRetry 设置重载的总尝试次数（含首次）与固定重试间隔。
func WithRetry(attempts uint, delay time.Duration) HolderOption {
	return func(o *holderOptions) {
		o.attempts = max(attempts, 1)
		o.delay = max(delay, 0)
	}
}

// snapshot 数据库与其专属的查询缓存，一同被原子替换。
type snapshot struct {
	db    *DB
	cache *lru.Cache[string, cachedResult]
}

type cachedResult struct {
	entry Entry
	ok    bool
}

// Holder 持有当前数据库快照，支持无锁查询与热替换。
//
// 并发的 Reload 调用合并为一次加载；加载失败时保留旧快照。
// 每个快照有独立的 Query 缓存，替换快照即丢弃旧缓存。
type Holder struct {
	loader Loader
	opts   holderOptions

	current atomic.Pointer[snapshot]
	group   singleflight.Group

	lookups metric.Int64Counter
	reloads metric.Int64Counter
}

// NewHolder 创建 Holder，此时尚未加载，需调用 Load 或 Reload。
func NewHolder(loader Loader, opts ...HolderOption) (*Holder, error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	o := holderOptions{
		logger:        xlog.Discard(),
		cacheSize:     DefaultCacheSize,
		meterProvider: otel.GetMeterProvider(),
		attempts:      DefaultReloadRetries,
		delay:         DefaultRetryDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	meter := o.meterProvider.Meter(meterName)
	lookups, err := meter.Int64Counter("xoui.lookups",
		metric.WithDescription("Number of address lookups by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xoui: create lookups counter: %w", err)
	}
	reloads, err := meter.Int64Counter("xoui.reloads",
		metric.WithDescription("Number of database reloads by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xoui: create reloads counter: %w", err)
	}

	return &Holder{
		loader:  loader,
		opts:    o,
		lookups: lookups,
		reloads: reloads,
	}, nil
}

// Load 尚未加载时执行首次加载，已加载时直接返回 nil。
func (h *Holder) Load(ctx context.Context) error {
	if h.current.Load() != nil {
		return nil
	}
	return h.Reload(ctx)
}

// Reload 重新加载并替换快照，可重试错误按配置重试。
// 并发调用共享同一次加载的结果。
func (h *Holder) Reload(ctx context.Context) error {
	_, err, _ := h.group.Do("reload", func() (any, error) {
		return nil, h.reload(ctx)
	})
	return err
}

func (h *Holder) reload(ctx context.Context) error {
	start := time.Now()
	db, err := retry.NewWithData[*DB](
		retry.Context(ctx),
		retry.Attempts(h.opts.attempts),
		retry.Delay(h.opts.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			h.opts.logger.Warn(ctx, "reload attempt failed",
				slog.Uint64("attempt", uint64(n)+1), xlog.Err(err))
		}),
	).Do(func() (*DB, error) {
		db, err := h.loader.Load(ctx)
		if err == nil && db == nil {
			err = retry.Unrecoverable(errors.New("xoui: loader returned nil database"))
		}
		return db, err
	})
	if err != nil {
		h.reloads.Add(ctx, 1, resultError)
		h.opts.logger.Error(ctx, "reload failed", xlog.Err(err))
		return fmt.Errorf("xoui: reload: %w", err)
	}

	snap := &snapshot{db: db}
	if h.opts.cacheSize > 0 {
		// 仅在 size <= 0 时返回错误
		snap.cache, _ = lru.New[string, cachedResult](h.opts.cacheSize) //nolint:errcheck // size 已校验为正
	}
	h.current.Store(snap)

	h.reloads.Add(ctx, 1, resultOK)
	h.opts.logger.Info(ctx, "database swapped",
		xlog.Count(db.Len()), xlog.Duration(time.Since(start)))
	return nil
}

// isRetryable 格式类错误重试无意义，只重试 I/O 等临时错误。
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrNoEntries),
		errors.Is(err, ErrCorruptDump),
		errors.Is(err, ErrUnsupportedVersion),
		errors.Is(err, ErrEmptyPath),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// Current 返回当前快照，尚未加载时返回 nil。
func (h *Holder) Current() *DB {
	if s := h.current.Load(); s != nil {
		return s.db
	}
	return nil
}

// Lookup 在当前快照中查询地址。尚未加载时返回 [ErrNotLoaded]。
func (h *Holder) Lookup(ctx context.Context, a xmac.Addr) (Entry, bool, error) {
	s := h.current.Load()
	if s == nil {
		return Entry{}, false, ErrNotLoaded
	}
	e, ok := s.db.Lookup(a)
	h.record(ctx, ok)
	return e, ok, nil
}

// Query 解析地址字符串并查询，结果按原始字符串缓存。
func (h *Holder) Query(ctx context.Context, str string) (Entry, bool, error) {
	s := h.current.Load()
	if s == nil {
		return Entry{}, false, ErrNotLoaded
	}
	if s.cache != nil {
		if r, hit := s.cache.Get(str); hit {
			h.record(ctx, r.ok)
			return r.entry, r.ok, nil
		}
	}

	e, ok, err := s.db.Query(str)
	if err != nil {
		return Entry{}, false, err
	}
	if s.cache != nil {
		s.cache.Add(str, cachedResult{entry: e, ok: ok})
	}
	h.record(ctx, ok)
	return e, ok, nil
}

func (h *Holder) record(ctx context.Context, ok bool) {
	if ok {
		h.lookups.Add(ctx, 1, resultHit)
	} else {
		h.lookups.Add(ctx, 1, resultMiss)
	}
}
