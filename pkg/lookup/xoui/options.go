package xoui

import "github.com/omeyang/xoui/pkg/observability/xlog"

// Option 配置数据库构建（Build/Load/LoadFile/Open/Unmarshal）。
type Option func(*buildOptions)

type buildOptions struct {
	logger xlog.Logger
	onSkip func(*LineError)
}

func applyOptions(opts []Option) *buildOptions {
	o := &buildOptions{logger: xlog.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithLogger 设置构建过程使用的 logger，默认丢弃所有日志。
func WithLogger(l xlog.Logger) Option {
	return func(o *buildOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSkipHandler 设置解析失败行的回调，构建过程中按行号顺序同步调用。
func WithSkipHandler(fn func(*LineError)) Option {
	return func(o *buildOptions) {
		o.onSkip = fn
	}
}
