// Package xoui 基于 Wireshark manuf 数据库的硬件地址厂商解析。
//
// manuf 文件每行一条记录：
//
//	00:00:0C	Cisco	Cisco Systems, Inc
//	00:1B:C5:00:00:00/36	Convergi	Converging Systems Inc.
//	# 以 # 开头的行为注释
//
// 前缀长度可变（24/28/36 位等），省略 "/位数" 时为 24 位；较长前缀可嵌套在较短前缀之内。
//
// # 查询
//
// [DB] 构建后不可变，并发读安全。[DB.Lookup] 按最长前缀匹配：
// 从最长的前缀长度开始，依次用掩码后的地址查索引，第一个命中即返回。
// 同一 {前缀, 长度} 重复出现时先加载者生效，后加载者保留在 [DB.Entries] 与导出数据中，
// 但不会被查询返回（计入 [Stats].Shadowed）。
//
//	db, err := xoui.LoadFile("/usr/share/wireshark/manuf", xoui.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	e, ok, err := db.Query("00:1B:C5:00:01:23")
//
// # 容错
//
// 解析失败的行不会中断构建：每个失败行以 [*LineError] 交给 [WithSkipHandler] 回调，
// 并通过 [WithLogger] 注入的 logger 记录 Warn 日志。
// 只有当所有数据行都失败时，构建返回 [ErrNoEntries]。
//
// # 二进制导出
//
// [DB.MarshalBinary] 生成带版本号与 xxhash64 校验的紧凑格式，
// [Unmarshal] / [OpenDump] 读回时重建索引，查询结果与原库完全一致。
// 未知版本返回 [ErrUnsupportedVersion]，其他损坏返回 [ErrCorruptDump]。
//
// # 热更新
//
// [Holder] 持有当前快照，[Holder.Reload] 合并并发重载、失败时保留旧快照；
// [Watcher] 监听数据库文件变更并自动触发重载。
package xoui
