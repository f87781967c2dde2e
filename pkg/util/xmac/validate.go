package xmac

// IsMulticast 报告 a 是否为组播地址（第一字节最低位为 1）。
// 广播地址也属于组播地址。
func (a Addr) IsMulticast() bool {
	return a.bytes[0]&0x01 == 0x01
}

// IsBroadcast 报告 a 是否为广播地址（ff:ff:ff:ff:ff:ff）。
func (a Addr) IsBroadcast() bool {
	return a == Broadcast()
}

// IsLocallyAdministered 报告 a 是否为本地管理地址（LAA）。
// LAA 的第一字节次低位为 1，其 OUI 不对应 IEEE 分配的厂商，
// 虚拟机、容器和随机化 MAC 通常使用 LAA。
func (a Addr) IsLocallyAdministered() bool {
	return a.bytes[0]&0x02 == 0x02
}
