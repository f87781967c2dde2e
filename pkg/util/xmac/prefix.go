package xmac

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPrefixBits 是省略掩码时的前缀长度，对应 IEEE MA-L（24 位 OUI）。
const DefaultPrefixBits = 24

// Prefix 表示硬件地址前缀：地址的高 Bits 位有效，其余低位恒为 0。
//
// Prefix 是不可变值类型，可比较、可作为 map key。
// 零值 Prefix{} 无效（[Prefix.IsValid] 返回 false）。
type Prefix struct {
	addr Addr
	bits uint8
}

// Mask 返回高 bits 位为 1 的 48 位掩码。
// bits 超出 0..48 时按边界截断。
func Mask(bits int) uint64 {
	switch {
	case bits <= 0:
		return 0
	case bits >= AddrBits:
		return addrMask
	default:
		return uint64(addrMask) &^ (uint64(1)<<(AddrBits-bits) - 1)
	}
}

// PrefixFrom 由地址和前缀长度创建前缀，地址中有效位之后的低位被清零。
// bits 必须在 1..48 范围内。
func PrefixFrom(a Addr, bits int) (Prefix, error) {
	if bits < 1 || bits > AddrBits {
		return Prefix{}, fmt.Errorf("%w: %d", ErrInvalidPrefixLen, bits)
	}
	return Prefix{
		addr: AddrFromUint64(a.Uint64() & Mask(bits)),
		bits: uint8(bits), //nolint:gosec // 已校验 1..48
	}, nil
}

// ParsePrefix 解析 "<地址>[/<位数>]" 形式的前缀。
//
// 地址部分为 1..6 组两位十六进制字节，分隔符一致地使用 ':' 或 '-'，
// 或不带分隔符的偶数长度十六进制串；不足 6 字节时低位补 0。
// 省略 "/位数" 时使用 [DefaultPrefixBits]。
func ParsePrefix(s string) (Prefix, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Prefix{}, ErrEmpty
	}

	addrPart, bitsPart, hasBits := strings.Cut(s, "/")
	bits := DefaultPrefixBits
	if hasBits {
		n, err := strconv.Atoi(bitsPart)
		if err != nil || strings.ContainsAny(bitsPart, "+-") {
			return Prefix{}, fmt.Errorf("%w: %q", ErrInvalidPrefixLen, bitsPart)
		}
		bits = n
	}

	var sep byte
	switch {
	case strings.IndexByte(addrPart, ':') >= 0:
		sep = ':'
	case strings.IndexByte(addrPart, '-') >= 0:
		sep = '-'
	}
	b, _, err := parseGroups(addrPart, sep)
	if err != nil {
		return Prefix{}, fmt.Errorf("%w: prefix %q", ErrInvalidFormat, s)
	}
	return PrefixFrom(AddrFrom6(b), bits)
}

// MustParsePrefix 类似 [ParsePrefix]，但解析失败时 panic。
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(fmt.Sprintf("xmac.MustParsePrefix(%q): %v", s, err))
	}
	return p
}

// Addr 返回前缀的（已掩码）地址部分。
func (p Prefix) Addr() Addr { return p.addr }

// Bits 返回前缀长度，零值前缀返回 0。
func (p Prefix) Bits() int { return int(p.bits) }

// Uint64 返回前缀地址的 48 位整数形式（左对齐，低位为 0）。
func (p Prefix) Uint64() uint64 { return p.addr.Uint64() }

// IsValid 报告 p 是否为有效前缀（长度 1..48）。
func (p Prefix) IsValid() bool { return p.bits >= 1 && p.bits <= AddrBits }

// Contains 报告地址 a 的高 Bits 位是否与前缀相同。
// 无效前缀不包含任何地址。
func (p Prefix) Contains(a Addr) bool {
	if !p.IsValid() {
		return false
	}
	return a.Uint64()&Mask(int(p.bits)) == p.addr.Uint64()
}

// String 返回 "aa:bb:cc:00:00:00/24" 形式，无效前缀返回空字符串。
func (p Prefix) String() string {
	if !p.IsValid() {
		return ""
	}
	return formatWithSep(p.addr.bytes, ':', hexLower) + "/" + strconv.Itoa(int(p.bits))
}

// MarshalText 实现 [encoding.TextMarshaler]。
func (p Prefix) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 实现 [encoding.TextUnmarshaler]，空输入设置为零值。
func (p *Prefix) UnmarshalText(text []byte) error {
	if p == nil {
		return ErrNilReceiver
	}
	if len(text) == 0 {
		*p = Prefix{}
		return nil
	}
	parsed, err := ParsePrefix(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
