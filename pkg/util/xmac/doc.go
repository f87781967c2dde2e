// Package xmac 提供 48 位硬件地址（EUI-48）与地址前缀的值类型。
//
// xmac 是 xoui 的地址层，提供两个不可变值类型：
//
//   - [Addr]：6 字节 MAC 地址，可比较、可作为 map key
//   - [Prefix]：地址前缀（地址 + 有效位数 1..48），语义参照 [net/netip.Prefix]
//
// # 快速示例
//
//	addr, err := xmac.Parse("00:00:0C:AB:CD:EF")
//	p, err := xmac.ParsePrefix("00:00:0c:01/36")
//	p.Contains(addr)                // false
//	p.Uint64()                      // 0x00000c010000
//
// # 整数表示
//
// 地址可在字节形式与 48 位整数形式之间转换（[Addr.Uint64]、[AddrFromUint64]）。
// 整数形式高 16 位恒为 0；[AddrFromUint64] 会丢弃高 16 位。
// 前缀按左对齐存储：有效位之后的低位全部为 0，[Mask] 返回对应掩码。
//
// # 前缀记法
//
// [ParsePrefix] 接受 Wireshark manuf 文件使用的 CIDR 风格记法：
//
//	00:00:0C            // 3 字节，省略掩码，默认 /24
//	00-1B-C5-00-00-00/36
//	00:00:0c:01/36      // 不足 6 字节时低位补 0
//	00000C/24           // 无分隔符
//
// 分隔符必须一致（全部 ':' 或全部 '-'），每组恰好两个十六进制字符。
//
// # 零值
//
// 零值 Addr{} 与全零地址相同，[Addr.IsValid] 返回 false，但它仍是合法的 48 位输入：
// 前缀匹配等数学运算接受任何地址值。
//
// # 错误处理
//
// 预定义错误变量支持 errors.Is 判断：[ErrEmpty]、[ErrInvalidFormat]、
// [ErrInvalidLength]、[ErrInvalidPrefixLen]。
package xmac
