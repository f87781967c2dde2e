// Package xconf 基于 koanf 的最小化配置加载器。
//
// 负责文件/字节数据的加载与反序列化，不做配置治理：
// 默认值由调用方预先填入目标结构体，Unmarshal 只覆盖配置中出现的键。
//
//	cfg := AppConfig{CacheSize: 4096}
//	if err := xconf.Load("/etc/xoui/config.yaml", &cfg); err != nil {
//		return err
//	}
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发安全
//
// Reload 解析成功后才替换内部 koanf 实例，失败时保留旧配置。
// Client 返回的指针在 Reload 后仍可用，但指向旧配置（快照语义）。
package xconf
