package xmac

// Format 定义 MAC 地址的格式化风格。
type Format uint8

const (
	// FormatColon 冒号分隔，小写：aa:bb:cc:dd:ee:ff
	FormatColon Format = iota
	// FormatDash 短线分隔，小写：aa-bb-cc-dd-ee-ff
	FormatDash
	// FormatDot 点分隔（Cisco 风格），小写：aabb.ccdd.eeff
	FormatDot
	// FormatBare 无分隔符，小写：aabbccddeeff
	FormatBare
	// FormatColonUpper 冒号分隔，大写：AA:BB:CC:DD:EE:FF（Wireshark manuf 风格）
	FormatColonUpper
	// FormatDashUpper 短线分隔，大写：AA-BB-CC-DD-EE-FF（IEEE 注册表风格）
	FormatDashUpper
)

const (
	hexLower = "0123456789abcdef"
	hexUpper = "0123456789ABCDEF"
)

// String 返回小写冒号格式。
//
// 与 [net.HardwareAddr] 一致，全零地址输出 "00:00:00:00:00:00"，
// 不做有效性过滤：查询结果需要原样回显输入地址。
func (a Addr) String() string {
	return formatWithSep(a.bytes, ':', hexLower)
}

// FormatString 按指定格式返回 MAC 地址字符串，未知格式按 [FormatColon] 处理。
func (a Addr) FormatString(f Format) string {
	switch f {
	case FormatDash:
		return formatWithSep(a.bytes, '-', hexLower)
	case FormatDot:
		return formatDot(a.bytes)
	case FormatBare:
		return formatWithSep(a.bytes, 0, hexLower)
	case FormatColonUpper:
		return formatWithSep(a.bytes, ':', hexUpper)
	case FormatDashUpper:
		return formatWithSep(a.bytes, '-', hexUpper)
	default:
		return formatWithSep(a.bytes, ':', hexLower)
	}
}

// formatWithSep 按字节输出两位十六进制，sep 为 0 时不加分隔符。
func formatWithSep(b [6]byte, sep byte, hex string) string {
	var buf [17]byte
	n := 0
	for i, v := range b {
		if i > 0 && sep != 0 {
			buf[n] = sep
			n++
		}
		buf[n] = hex[v>>4]
		buf[n+1] = hex[v&0x0f]
		n += 2
	}
	return string(buf[:n])
}

// formatDot 格式化为 xxxx.xxxx.xxxx。
func formatDot(b [6]byte) string {
	bare := formatWithSep(b, 0, hexLower)
	return bare[0:4] + "." + bare[4:8] + "." + bare[8:12]
}
