package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口。
type Config interface {
	// Client 返回底层的 koanf 实例。
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空时反序列化整个配置。
	// target 中配置未出现的字段保持原值。
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件。从字节数据创建的 Config 返回 ErrNotReloadable。
	Reload() error

	// Path 返回配置文件路径，从字节数据创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}

// Option 配置选项。
type Option func(*options)

type options struct {
	delim string
	tag   string
}

func defaultOptions() *options {
	return &options{delim: ".", tag: "koanf"}
}

// WithDelim 设置配置键分隔符，默认 "."。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置结构体标签名，默认 "koanf"。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// Load 读取 path 指向的配置文件并整体反序列化到 target。
func Load(path string, target any, opts ...Option) error {
	cfg, err := New(path, opts...)
	if err != nil {
		return err
	}
	return cfg.Unmarshal("", target)
}
