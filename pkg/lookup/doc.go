// Package lookup 提供查询类子包。
//
// 子包列表：
//   - xoui: 基于 Wireshark manuf 数据库的硬件地址厂商解析，最长前缀匹配
//
// 设计原则：
//   - 构建后不可变，读路径无锁、无副作用
//   - 热更新通过快照原子替换实现
package lookup
