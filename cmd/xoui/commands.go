package main

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xoui/pkg/lookup/xoui"
	"github.com/omeyang/xoui/pkg/observability/xlog"
	"github.com/omeyang/xoui/pkg/util/xmac"
)

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createLookupCommand(),
		createCompileCommand(),
		createStatsCommand(),
		createCheckCommand(),
		createWatchCommand(),
	}
}

func createLookupCommand() *cli.Command {
	return &cli.Command{
		Name:         "lookup",
		Aliases:      []string{"l"},
		Usage:        "查询地址厂商",
		ArgsUsage:    "<mac>...",
		OnUsageError: onUsageError,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "每个地址输出一行 JSON"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "地址回显格式 (colon/dash/dot/bare/upper)，默认原样回显"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return usagef("lookup 需要至少一个地址")
			}
			format, echo, err := parseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			db, err := e.openDB(ctx)
			if err != nil {
				return err
			}
			return cmdLookup(cmd.Root().Writer, db, cmd.Args().Slice(), lookupOutput{
				json:   cmd.Bool("json"),
				format: format,
				echo:   echo,
			})
		},
	}
}

func createCompileCommand() *cli.Command {
	return &cli.Command{
		Name:         "compile",
		Usage:        "将文本数据库编译为二进制导出",
		OnUsageError: onUsageError,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "输出路径，默认使用 --dump"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			out := cmp.Or(cmd.String("out"), e.cfg.DB.Dump)
			if out == "" {
				return usagef("compile 需要 --out 或 --dump")
			}
			return cmdCompile(ctx, cmd.Root().Writer, e, out)
		},
	}
}

func createStatsCommand() *cli.Command {
	return &cli.Command{
		Name:         "stats",
		Usage:        "查看数据库统计",
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			db, err := e.openDB(ctx)
			if err != nil {
				return err
			}
			printStats(cmd.Root().Writer, db.Stats())
			return nil
		},
	}
}

func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:         "check",
		Usage:        "列出无法解析的行，存在坏行时退出码为 1",
		OnUsageError: onUsageError,
		Action: func(_ context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			return cmdCheck(cmd.Root().Writer, e.cfg.DB.Path)
		},
	}
}

func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:         "watch",
		Usage:        "从 stdin 逐行读取地址查询，数据库文件变更时自动重载",
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			return cmdWatch(ctx, cmd.Root().Reader, cmd.Root().Writer, e)
		},
	}
}

// lookupResult lookup --json 的输出。
type lookupResult struct {
	Address    string `json:"address"`
	Normalized string `json:"normalized,omitempty"`
	Found      bool   `json:"found"`
	Prefix     string `json:"prefix,omitempty"`
	ShortName  string `json:"short_name,omitempty"`
	LongName   string `json:"long_name,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Local      bool   `json:"locally_administered,omitempty"`
	Multicast  bool   `json:"multicast,omitempty"`
	Error      string `json:"error,omitempty"`
}

// lookupOutput lookup 的输出方式。echo 为 true 时原样回显输入地址。
type lookupOutput struct {
	json   bool
	format xmac.Format
	echo   bool
}

var addrFormats = map[string]xmac.Format{
	"colon": xmac.FormatColon,
	"dash":  xmac.FormatDash,
	"dot":   xmac.FormatDot,
	"bare":  xmac.FormatBare,
	"upper": xmac.FormatColonUpper,
}

// parseFormat 解析 --format，空值表示原样回显。
func parseFormat(s string) (xmac.Format, bool, error) {
	if s == "" {
		return xmac.FormatColon, true, nil
	}
	f, ok := addrFormats[strings.ToLower(s)]
	if !ok {
		return 0, false, usagef("未知的地址格式 %q", s)
	}
	return f, false, nil
}

// missReason 未命中时的地址类别说明：本地管理与组播地址没有 IEEE 分配的厂商。
func missReason(a xmac.Addr) string {
	switch {
	case a.IsBroadcast():
		return "（广播地址）"
	case a.IsMulticast():
		return "（组播地址）"
	case a.IsLocallyAdministered():
		return "（本地管理地址）"
	default:
		return ""
	}
}

// cmdLookup 逐个查询地址，任一地址未命中或非法时退出码为 1。
func cmdLookup(w io.Writer, db *xoui.DB, addrs []string, out lookupOutput) error {
	enc := json.NewEncoder(w)
	failed := false
	for _, raw := range addrs {
		var (
			entry xoui.Entry
			ok    bool
		)
		a, err := xmac.Parse(raw)
		if err != nil {
			err = fmt.Errorf("%w: %w", xoui.ErrInvalidAddress, err)
		} else {
			entry, ok = db.Lookup(a)
		}
		if err != nil || !ok {
			failed = true
		}

		shown := raw
		if err == nil && !out.echo {
			shown = a.FormatString(out.format)
		}

		if out.json {
			r := lookupResult{Address: raw, Found: ok}
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Normalized = a.FormatString(out.format)
				r.Local = a.IsLocallyAdministered()
				r.Multicast = a.IsMulticast()
			}
			if ok {
				r.Prefix = entry.Prefix.String()
				r.ShortName = entry.ShortName
				r.LongName = entry.LongName
				r.Comment = entry.Comment
			}
			if err := enc.Encode(r); err != nil {
				return err
			}
			continue
		}

		switch {
		case err != nil:
			fmt.Fprintf(w, "%s\t错误: %v\n", shown, err)
		case !ok:
			fmt.Fprintf(w, "%s\t未找到%s\n", shown, missReason(a))
		default:
			fmt.Fprintf(w, "%s\t%s\n", shown, entry)
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// cmdCompile 解析文本数据库并原子写入二进制导出。
func cmdCompile(ctx context.Context, w io.Writer, e *env, out string) error {
	db, err := xoui.LoadFile(e.cfg.DB.Path, xoui.WithLogger(e.logger))
	if err != nil {
		return err
	}
	if err := xoui.SaveDump(out, db); err != nil {
		return err
	}
	e.logger.Info(ctx, "dump written", xlog.Path(out), xlog.Count(db.Len()))
	fmt.Fprintf(w, "已编译 %d 条记录到 %s（跳过 %d 行）\n", db.Len(), out, db.Stats().Skipped)
	return nil
}

func printStats(w io.Writer, st xoui.Stats) {
	fmt.Fprintf(w, "行数:     %d\n", st.Lines)
	fmt.Fprintf(w, "条目:     %d\n", st.Entries)
	fmt.Fprintf(w, "跳过:     %d\n", st.Skipped)
	fmt.Fprintf(w, "遮蔽:     %d\n", st.Shadowed)
	for _, bits := range slices.Backward(slices.Sorted(maps.Keys(st.ByLength))) {
		fmt.Fprintf(w, "/%-8d %d\n", bits, st.ByLength[bits])
	}
}

// cmdCheck 列出所有坏行，存在坏行时退出码为 1。
// 与其他命令一样经 [xoui.Open] 按文件头识别格式：导出文件没有文本行，完整读出即报告条目数，
// 损坏的导出文件返回错误。
func cmdCheck(w io.Writer, path string) error {
	var bad int
	db, err := xoui.Open(path, xoui.WithSkipHandler(func(le *xoui.LineError) {
		bad++
		fmt.Fprintf(w, "%d: %v: %q\n", le.Line, le.Err, le.Text)
	}))
	if err != nil && !errors.Is(err, xoui.ErrNoEntries) {
		return err
	}
	if bad > 0 {
		fmt.Fprintf(w, "%d 行无法解析\n", bad)
		return &exitError{code: 1}
	}
	fmt.Fprintf(w, "正常：%d 条记录\n", db.Len())
	return nil
}

// cmdWatch 监视数据库文件并逐行查询 stdin 中的地址，直到 EOF 或 context 取消。
func cmdWatch(ctx context.Context, r io.Reader, w io.Writer, e *env) error {
	h, err := xoui.NewHolder(
		xoui.FileLoader{Path: e.cfg.DB.Path, Options: []xoui.Option{xoui.WithLogger(e.logger)}},
		xoui.WithHolderLogger(e.logger),
		xoui.WithCacheSize(e.cfg.DB.CacheSize),
	)
	if err != nil {
		return err
	}
	if err := h.Load(ctx); err != nil {
		return err
	}

	watcher, err := xoui.NewWatcher(h, e.cfg.DB.Path,
		xoui.WithDebounce(e.cfg.Watch.Debounce),
		xoui.WithWatchLogger(e.logger),
		xoui.WithReloadCallback(func(db *xoui.DB, err error) {
			if err == nil {
				e.logger.Info(ctx, "database reloaded", xlog.Count(db.Len()))
			}
		}),
	)
	if err != nil {
		return err
	}
	watcher.StartAsync()
	defer watcher.Stop() //nolint:errcheck // 退出时关闭

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		addr := strings.TrimSpace(sc.Text())
		if addr == "" {
			continue
		}
		entry, ok, err := h.Query(ctx, addr)
		switch {
		case err != nil:
			fmt.Fprintf(w, "%s\t错误: %v\n", addr, err)
		case !ok:
			var reason string
			if a, err := xmac.Parse(addr); err == nil {
				reason = missReason(a)
			}
			fmt.Fprintf(w, "%s\t未找到%s\n", addr, reason)
		default:
			fmt.Fprintf(w, "%s\t%s\n", addr, entry)
		}
	}
	return sc.Err()
}
