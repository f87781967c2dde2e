// Package xlog 基于 log/slog 的结构化日志库。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，Build 返回该错误）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xoui/xoui.log").
//		Build()
//	defer cleanup()
//
// # 全局 Logger
//
// 适用于命令行工具等简单场景，库代码应通过依赖注入持有 [Logger]：
// [Default]、[SetDefault]、[ResetDefault]，以及 [Debug]、[Info]、[Warn]、[Error]。
//
// 不需要输出日志的组件使用 [Discard]。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// [Level] 实现 encoding.TextMarshaler/TextUnmarshaler，可直接出现在配置结构体中。
// 派生 logger（[Logger.With]）共享父级的 LevelVar，动态级别变更同步生效。
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口，所有方法强制传入 context。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger。
	With(attrs ...slog.Attr) Logger
}

// Leveler 动态级别控制。
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 同时具备日志与级别控制能力。
type LoggerWithLevel interface {
	Logger
	Leveler
}
