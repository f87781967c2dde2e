package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xoui/pkg/config/xconf"
	"github.com/omeyang/xoui/pkg/lookup/xoui"
	"github.com/omeyang/xoui/pkg/observability/xlog"
)

// defaultDBPath Wireshark 安装的 manuf 文件位置。
const defaultDBPath = "/usr/share/wireshark/manuf"

// appConfig 配置文件结构，命令行显式指定的选项优先。
type appConfig struct {
	DB struct {
		Path      string `koanf:"path"`
		Dump      string `koanf:"dump"`
		CacheSize int    `koanf:"cache_size"`
	} `koanf:"db"`
	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
		File   string `koanf:"file"`
	} `koanf:"log"`
	Watch struct {
		Debounce time.Duration `koanf:"debounce"`
	} `koanf:"watch"`
}

func defaultConfig() appConfig {
	var c appConfig
	c.DB.Path = defaultDBPath
	c.DB.CacheSize = xoui.DefaultCacheSize
	c.Log.Level = "warn"
	c.Log.Format = "text"
	c.Watch.Debounce = xoui.DefaultDebounce
	return c
}

// loadConfig 合并默认值、配置文件与命令行选项。
func loadConfig(cmd *cli.Command) (appConfig, error) {
	cfg := defaultConfig()
	if path := cmd.String("config"); path != "" {
		if err := xconf.Load(path, &cfg); err != nil {
			if errors.Is(err, xconf.ErrUnsupportedFormat) {
				return cfg, &usageError{err: err}
			}
			return cfg, err
		}
	}

	override := func(flag string, dst *string) {
		if cmd.IsSet(flag) {
			*dst = cmd.String(flag)
		}
	}
	override("db", &cfg.DB.Path)
	override("dump", &cfg.DB.Dump)
	override("log-level", &cfg.Log.Level)
	override("log-format", &cfg.Log.Format)
	override("log-file", &cfg.Log.File)

	if cfg.DB.Path == "" {
		return cfg, usagef("数据库路径为空")
	}
	return cfg, nil
}

// env 一次命令执行所需的配置与 logger。
type env struct {
	cfg     appConfig
	logger  xlog.LoggerWithLevel
	cleanup func() error
}

func newEnv(cmd *cli.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	b := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cfg.Log.Level).
		SetFormat(cfg.Log.Format).
		SetAttrs(xlog.Component("xoui"))
	if cfg.Log.File != "" {
		b.SetRotation(cfg.Log.File)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, &usageError{err: err}
	}
	return &env{cfg: cfg, logger: logger, cleanup: cleanup}, nil
}

func (e *env) close() {
	_ = e.cleanup() //nolint:errcheck // 退出前尽力关闭日志文件
}

// openDB 加载数据库：导出缓存存在且不旧于文本时优先使用，失败时回退到文本。
func (e *env) openDB(ctx context.Context) (*xoui.DB, error) {
	opts := []xoui.Option{xoui.WithLogger(e.logger)}

	if dump := e.cfg.DB.Dump; dump != "" && dumpIsFresh(dump, e.cfg.DB.Path) {
		db, err := xoui.OpenDump(dump, opts...)
		if err == nil {
			return db, nil
		}
		e.logger.Warn(ctx, "dump unusable, falling back to text", xlog.Path(dump), xlog.Err(err))
	}

	db, err := xoui.Open(e.cfg.DB.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载数据库 %s: %w", e.cfg.DB.Path, err)
	}
	return db, nil
}

// dumpIsFresh 导出文件存在且修改时间不早于文本数据库。
func dumpIsFresh(dump, text string) bool {
	di, err := os.Stat(dump)
	if err != nil {
		return false
	}
	ti, err := os.Stat(text)
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	if err != nil {
		return false
	}
	return !di.ModTime().Before(ti.ModTime())
}
