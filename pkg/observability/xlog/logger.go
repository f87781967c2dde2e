package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

var _ LoggerWithLevel = (*xlogger)(nil)

// xlogger Logger 接口的 slog 实现。
type xlogger struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	addSource bool
}

// Discard 返回丢弃所有输出的 Logger，用作组件的默认 logger。
func Discard() LoggerWithLevel {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelError + 1)
	return &xlogger{handler: slog.DiscardHandler, levelVar: lv}
}

// logWithSkip 写入一条日志，extraSkip 为调用方与 logWithSkip 之间的额外栈帧数。
//
//go:noinline
func (l *xlogger) logWithSkip(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, extraSkip int) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}

	// 仅在启用 AddSource 时捕获调用者位置，runtime.Callers 开销不可忽略
	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// 跳过 runtime.Callers 与 logWithSkip 自身
		runtime.Callers(2+extraSkip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	// 日志写入失败不向业务扩散
	_ = l.handler.Handle(ctx, r) //nolint:errcheck // 日志失败静默丢弃
}

// Debug 记录 Debug 级别日志。
func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelDebug, msg, attrs, 1)
}

// Info 记录 Info 级别日志。
func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelInfo, msg, attrs, 1)
}

// Warn 记录 Warn 级别日志。
func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelWarn, msg, attrs, 1)
}

// Error 记录 Error 级别日志。
func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logWithSkip(ctx, slog.LevelError, msg, attrs, 1)
}

// With 返回带额外属性的派生 Logger，共享级别控制。
func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{
		handler:   l.handler.WithAttrs(attrs),
		levelVar:  l.levelVar,
		addSource: l.addSource,
	}
}

// SetLevel 动态设置日志级别。
func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

// GetLevel 获取当前日志级别。
func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

// Enabled 检查指定级别是否启用。
func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.handler.Enabled(ctx, slog.Level(level))
}
