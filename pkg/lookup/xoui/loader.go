package xoui

import "context"

//go:generate mockgen -source=loader.go -destination=loader_mock_test.go -package=xoui

// Loader 加载一份完整的数据库快照。
type Loader interface {
	Load(ctx context.Context) (*DB, error)
}

// LoaderFunc 函数适配器。
type LoaderFunc func(ctx context.Context) (*DB, error)

// Load 实现 Loader。
func (f LoaderFunc) Load(ctx context.Context) (*DB, error) { return f(ctx) }

// FileLoader 通过 [Open] 从文件加载，自动区分二进制导出与 manuf 文本。
type FileLoader struct {
	Path    string
	Options []Option
}

// Load 实现 Loader。
func (l FileLoader) Load(ctx context.Context) (*DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(l.Path, l.Options...)
}
