// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xmac: 硬件地址（EUI-48）与地址前缀，多格式解析、格式化、序列化
package util
