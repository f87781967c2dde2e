// xoui 基于 Wireshark manuf 数据库查询硬件地址厂商。
//
// 用法:
//
//	xoui [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件路径（YAML/JSON）
//	-d, --db          manuf 数据库路径
//	    --dump        二进制导出缓存路径，比文本新时优先加载
//	    --log-level   日志级别 (debug/info/warn/error)
//	    --log-format  日志格式 (text/json)
//	    --log-file    日志文件（按大小轮转），为空时输出到 stderr
//
// 命令:
//
//	lookup <mac>...   查询地址厂商（--json 输出 JSON，--format 指定回显格式）
//	compile           将文本数据库编译为二进制导出（--out）
//	stats             查看数据库统计
//	check             列出无法解析的行（导出文件只报告条目数）
//	watch             从 stdin 逐行读取地址查询，数据库文件变更时自动重载
//
// 退出码:
//
//	0: 成功
//	1: 执行失败、地址未命中（lookup）或存在坏行（check）
//	2: 参数错误
//
// 示例:
//
//	xoui lookup 00:00:0C:AB:CD:EF
//	xoui -d ./manuf compile --out ./manuf.bin
//	tail -f arp.log | awk '{print $2}' | xoui watch
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags "-X main.Version=..." 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// exitError 命令已完成输出，只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数错误，退出码 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{err: err}
}

// createApp 创建 CLI 应用。
func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xoui",
		Usage:     "硬件地址厂商查询（Wireshark manuf 数据库）",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "manuf 数据库路径",
				Value:   defaultDBPath,
			},
			&cli.StringFlag{
				Name:  "dump",
				Usage: "二进制导出缓存路径",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，为空时输出到 stderr",
			},
		},
		Commands:     createCommands(),
		OnUsageError: onUsageError,
		// 由 run() 统一映射退出码，禁止 urfave/cli 直接调用 os.Exit
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(cmd.Root().ErrWriter, err)
			}
		},
	}
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	return runApp(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
}

// runApp 运行应用并把错误映射为退出码。
func runApp(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(stdin, stdout, stderr)
	err := app.Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) || isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 未经 OnUsageError 的参数错误（如未知命令）。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"No help topic for",
		"Required flag",
		"invalid value",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// setupSignalHandler 第一次信号取消 context，第二次信号强制退出（130 = 128 + SIGINT）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
