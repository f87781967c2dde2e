package xoui

import (
	"errors"
	"fmt"
)

// 单行解析错误，由构建过程吸收并通过回调与日志上报。
var (
	// ErrMalformedPrefix 表示前缀字段无法解析。
	ErrMalformedPrefix = errors.New("xoui: malformed prefix")

	// ErrMissingName 表示缺少厂商短名。
	ErrMissingName = errors.New("xoui: missing short name")
)

// 数据库级错误。
var (
	// ErrNoEntries 表示输入中有数据行但全部解析失败。
	ErrNoEntries = errors.New("xoui: no valid entries")

	// ErrUnsupportedVersion 表示导出数据的格式版本无法识别。
	ErrUnsupportedVersion = errors.New("xoui: unsupported dump version")

	// ErrCorruptDump 表示导出数据损坏（魔数、长度、校验和或条目内容不合法）。
	ErrCorruptDump = errors.New("xoui: corrupt dump")

	// ErrNotLoaded 表示 Holder 尚未成功加载任何数据库。
	ErrNotLoaded = errors.New("xoui: database not loaded")

	// ErrInvalidAddress 表示查询字符串不是合法的硬件地址。
	ErrInvalidAddress = errors.New("xoui: invalid address")

	// ErrEmptyPath 表示文件路径为空。
	ErrEmptyPath = errors.New("xoui: empty path")
)

// LineError 描述一行无法解析的记录。
type LineError struct {
	Line int    // 行号，从 1 开始
	Text string // 原始行内容
	Err  error  // ErrMalformedPrefix 或 ErrMissingName
}

func (e *LineError) Error() string {
	return fmt.Sprintf("xoui: line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
