package xlog

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[LoggerWithLevel]

func init() {
	ResetDefault()
}

// Default 返回全局 Logger。
func Default() LoggerWithLevel {
	return *defaultLogger.Load()
}

// SetDefault 替换全局 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	defaultLogger.Store(&l)
}

// ResetDefault 恢复为输出到 stderr 的 Info 级别 text Logger。
func ResetDefault() {
	levelVar := new(slog.LevelVar)
	var l LoggerWithLevel = &xlogger{
		handler:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}),
		levelVar: levelVar,
	}
	defaultLogger.Store(&l)
}

// Debug 使用全局 Logger 记录 Debug 日志。
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Debug(ctx, msg, attrs...)
}

// Info 使用全局 Logger 记录 Info 日志。
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Info(ctx, msg, attrs...)
}

// Warn 使用全局 Logger 记录 Warn 日志。
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Warn(ctx, msg, attrs...)
}

// Error 使用全局 Logger 记录 Error 日志。
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Error(ctx, msg, attrs...)
}
