package xlog

import (
	"log/slog"
	"time"
)

// 标准属性键。
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyCount     = "count"
	KeyDuration  = "duration"
	KeyPath      = "path"
	KeyLine      = "line"
)

// Err 错误属性，nil 错误返回空属性（slog 输出时忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 组件名属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Count 计数属性。
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Duration 耗时属性。
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Path 文件路径属性。
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Line 行号属性（从 1 开始）。
func Line(n int) slog.Attr {
	return slog.Int(KeyLine, n)
}
