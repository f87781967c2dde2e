// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog，支持动态级别与文件轮转
//
// 指标直接使用 OpenTelemetry metric API，由调用方注入 MeterProvider。
package observability
