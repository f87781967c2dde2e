package xmac

import (
	"fmt"
	"net"
	"strings"
)

// Parse 解析 MAC 地址字符串。
//
// 支持的格式：
//   - 冒号分隔：aa:bb:cc:dd:ee:ff
//   - 短线分隔：aa-bb-cc-dd-ee-ff
//   - 点分隔（Cisco 风格）：aabb.ccdd.eeff
//   - 无分隔：aabbccddeeff
//
// 输入会去除首尾空白，大小写不敏感。
// 全零地址返回零值 Addr{} 且无错误。
func Parse(s string) (Addr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Addr{}, ErrEmpty
	}

	switch {
	case len(s) == 12 && !strings.ContainsAny(s, ":-."):
		b, n, err := parseGroups(s, 0)
		if err != nil || n != 6 {
			return Addr{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		return Addr{bytes: b}, nil
	case len(s) == 17 && (s[2] == ':' || s[2] == '-'):
		b, n, err := parseGroups(s, s[2])
		if err != nil || n != 6 {
			return Addr{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		return Addr{bytes: b}, nil
	case len(s) == 14 && s[4] == '.' && s[9] == '.':
		b, n, err := parseGroups(s[0:4]+s[5:9]+s[10:14], 0)
		if err != nil || n != 6 {
			return Addr{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		return Addr{bytes: b}, nil
	}

	// 其他格式回退到标准库，拒绝 EUI-64 等非 6 字节地址
	hw, err := net.ParseMAC(s)
	if err != nil {
		return Addr{}, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return FromHardwareAddr(hw)
}

// MustParse 类似 [Parse]，但解析失败时 panic。
// 仅用于包级变量初始化或测试。
func MustParse(s string) Addr {
	addr, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("xmac.MustParse(%q): %v", s, err))
	}
	return addr
}

// ParseBytes 从字节切片创建 MAC 地址，切片长度必须为 6。
func ParseBytes(b []byte) (Addr, error) {
	if len(b) != 6 {
		return Addr{}, fmt.Errorf("%w: expected 6 bytes, got %d", ErrInvalidLength, len(b))
	}
	var addr Addr
	copy(addr.bytes[:], b)
	return addr, nil
}

// FromHardwareAddr 从 [net.HardwareAddr] 创建 MAC 地址。
func FromHardwareAddr(hw net.HardwareAddr) (Addr, error) {
	return ParseBytes(hw)
}

// parseGroups 解析最多 6 组两位十六进制字节，左对齐写入结果。
// sep 为 0 时输入为连续的十六进制字符（长度须为偶数）；
// 否则每组之间必须恰好是 sep。返回解析出的字节数。
func parseGroups(s string, sep byte) (out [6]byte, n int, err error) {
	step := 2
	if sep != 0 {
		step = 3
		// 末组后面没有分隔符，补齐后统一按 3 字符步进
		if (len(s)+1)%3 != 0 {
			return out, 0, ErrInvalidFormat
		}
	} else if len(s)%2 != 0 {
		return out, 0, ErrInvalidFormat
	}

	for off := 0; off < len(s); off += step {
		if n == 6 {
			return out, 0, ErrInvalidFormat
		}
		if off+2 > len(s) {
			return out, 0, ErrInvalidFormat
		}
		if sep != 0 && off+2 < len(s) && s[off+2] != sep {
			return out, 0, ErrInvalidFormat
		}
		b, err := parseHexByte(s[off], s[off+1])
		if err != nil {
			return out, 0, err
		}
		out[n] = b
		n++
	}
	if n == 0 {
		return out, 0, ErrInvalidFormat
	}
	return out, n, nil
}

// parseHexByte 解析两个十六进制字符为一个字节。
func parseHexByte(high, low byte) (byte, error) {
	h := hexValue(high)
	l := hexValue(low)
	if h < 0 || l < 0 {
		return 0, ErrInvalidFormat
	}
	return byte(h<<4 | l), nil
}

// hexValue 返回十六进制字符的数值，无效字符返回 -1。
func hexValue(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c - 'a' + 10)
	case 'A' <= c && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}
