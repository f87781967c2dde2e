package xmac

import "errors"

// 预定义错误变量，支持 errors.Is 判断。
var (
	// ErrEmpty 表示输入为空字符串。
	ErrEmpty = errors.New("xmac: empty input")

	// ErrInvalidFormat 表示地址或前缀格式无效。
	ErrInvalidFormat = errors.New("xmac: invalid format")

	// ErrInvalidLength 表示地址字节数不正确（期望 6 字节）。
	ErrInvalidLength = errors.New("xmac: invalid length")

	// ErrInvalidPrefixLen 表示前缀长度不在 1..48 范围内。
	ErrInvalidPrefixLen = errors.New("xmac: invalid prefix length")

	// ErrNilReceiver 表示在 nil 接收者上调用了反序列化方法。
	ErrNilReceiver = errors.New("xmac: nil receiver")
)
