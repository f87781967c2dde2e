package xmac

// AddrBits 是 EUI-48 地址的位数。
const AddrBits = 48

// addrMask 是 48 位地址空间的掩码。
const addrMask = 1<<AddrBits - 1

// Addr 表示 48 位 MAC 地址（EUI-48/MAC-48）。
//
// Addr 是不可变值类型：
//   - 零值表示全零地址，IsValid() 返回 false
//   - 可直接比较（==）和用作 map key
//   - 并发安全，无需加锁
type Addr struct {
	bytes [6]byte
}

// AddrFrom6 从 6 字节数组创建 MAC 地址。
func AddrFrom6(b [6]byte) Addr {
	return Addr{bytes: b}
}

// AddrFromUint64 从 48 位整数创建 MAC 地址，高 16 位被丢弃。
func AddrFromUint64(v uint64) Addr {
	var a Addr
	for i := 5; i >= 0; i-- {
		a.bytes[i] = byte(v)
		v >>= 8
	}
	return a
}

// Broadcast 返回广播地址 ff:ff:ff:ff:ff:ff。
func Broadcast() Addr {
	return Addr{bytes: [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}}
}

// Bytes 返回 MAC 地址的字节表示（副本）。
func (a Addr) Bytes() [6]byte {
	return a.bytes
}

// Uint64 返回地址的 48 位整数表示（网络字节序，高 16 位为 0）。
func (a Addr) Uint64() uint64 {
	var v uint64
	for _, b := range a.bytes {
		v = v<<8 | uint64(b)
	}
	return v
}

// IsValid 报告 a 是否为非零地址。
func (a Addr) IsValid() bool {
	return a != Addr{}
}
