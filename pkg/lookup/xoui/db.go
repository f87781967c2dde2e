package xoui

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/omeyang/xoui/pkg/observability/xlog"
	"github.com/omeyang/xoui/pkg/util/xmac"
)

const (
	// maxLineSize manuf 单行最大长度，超长行按坏行跳过
	maxLineSize = 1 << 20

	// maxLineErrText 超长行在 LineError 中保留的前缀长度
	maxLineErrText = 64
)

// rawLine 读取到的一行，err 非空表示该行在解析前已判定为坏行。
type rawLine struct {
	text string
	err  error
}

// key 索引键：已掩码的 48 位前缀与前缀长度。
type key struct {
	prefix uint64
	bits   uint8
}

func keyOf(p xmac.Prefix) key {
	return key{prefix: p.Uint64(), bits: uint8(p.Bits())} //nolint:gosec // Prefix 保证 1..48
}

// level 一个出现过的前缀长度及其掩码。
type level struct {
	bits uint8
	mask uint64
}

// Stats 构建统计。
type Stats struct {
	// Lines 读取的总行数（含空行与注释），从导出数据恢复时为 0。
	Lines int

	// Entries 有效条目数，含被遮蔽的重复条目。
	Entries int

	// Skipped 解析失败被跳过的行数。
	Skipped int

	// Shadowed 与更早条目 {前缀, 长度} 相同、不会被查询返回的条目数。
	Shadowed int

	// ByLength 按前缀长度统计的条目数。
	ByLength map[int]int
}

// DB 不可变的前缀数据库，并发读安全。
type DB struct {
	entries []Entry
	index   map[key]int32
	levels  []level // 按长度降序
	stats   Stats
}

// newDB 由按加载顺序排列的条目建立索引。
func newDB(entries []Entry) *DB {
	db := &DB{
		entries: entries,
		index:   make(map[key]int32, len(entries)),
		stats:   Stats{Entries: len(entries), ByLength: make(map[int]int)},
	}
	for i, e := range entries {
		db.stats.ByLength[e.Prefix.Bits()]++
		k := keyOf(e.Prefix)
		if _, dup := db.index[k]; dup {
			db.stats.Shadowed++
			continue
		}
		db.index[k] = int32(i) //nolint:gosec // 条目数受 uint32 计数约束
	}

	lengths := slices.SortedFunc(maps.Keys(db.stats.ByLength), func(a, b int) int { return cmp.Compare(b, a) })
	db.levels = make([]level, len(lengths))
	for i, l := range lengths {
		db.levels[i] = level{bits: uint8(l), mask: xmac.Mask(l)} //nolint:gosec // 1..48
	}
	return db
}

// Build 逐行解析并构建数据库。
//
// 解析失败的行被跳过：以 [*LineError] 交给 [WithSkipHandler] 回调并记录 Warn 日志。
// 有数据行但全部失败时返回 [ErrNoEntries]（与第一个行错误合并）；
// 没有任何数据行时返回空数据库。
func Build(lines iter.Seq[string], opts ...Option) (*DB, error) {
	return build(func(yield func(rawLine) bool) {
		for line := range lines {
			if !yield(rawLine{text: line}) {
				return
			}
		}
	}, applyOptions(opts))
}

func build(lines iter.Seq[rawLine], o *buildOptions) (*DB, error) {
	ctx := context.Background()

	var (
		entries  []Entry
		n        int
		skipped  int
		firstErr error
	)
	for line := range lines {
		n++
		var (
			e   Entry
			ok  bool
			err = line.err
		)
		if err == nil {
			e, ok, err = ParseLine(line.text)
		}
		if err != nil {
			lineErr := &LineError{Line: n, Text: line.text, Err: err}
			skipped++
			if firstErr == nil {
				firstErr = lineErr
			}
			if o.onSkip != nil {
				o.onSkip(lineErr)
			}
			o.logger.Warn(ctx, "skip malformed line", xlog.Line(n), xlog.Err(err))
			continue
		}
		if ok {
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 && firstErr != nil {
		return nil, errors.Join(ErrNoEntries, firstErr)
	}

	db := newDB(slices.Clip(entries))
	db.stats.Lines = n
	db.stats.Skipped = skipped
	return db, nil
}

// Load 从 r 读取 manuf 文本并构建数据库。
//
// 超过 1 MiB 的行与其他坏行一样被跳过（[ErrMalformedPrefix]），不影响前后的行；
// 只有 r 本身的读取错误会中止加载。
func Load(r io.Reader, opts ...Option) (*DB, error) {
	var readErr error
	db, err := build(readLines(r, &readErr), applyOptions(opts))
	if readErr != nil {
		return nil, fmt.Errorf("xoui: read: %w", readErr)
	}
	return db, err
}

// readLines 按行读取 r，去掉行尾的 "\n" 或 "\r\n" 以及首行的 UTF-8 BOM。
// 读取错误写入 *readErr 并结束遍历。
func readLines(r io.Reader, readErr *error) iter.Seq[rawLine] {
	return func(yield func(rawLine) bool) {
		br := bufio.NewReader(r)
		var (
			buf     []byte
			tooLong bool
			first   = true
		)
		for {
			chunk, err := br.ReadSlice('\n')
			more := errors.Is(err, bufio.ErrBufferFull)
			eof := errors.Is(err, io.EOF)
			if err != nil && !more && !eof {
				*readErr = err
				return
			}
			if eof && len(chunk) == 0 && len(buf) == 0 {
				return
			}

			// 超长行只保留已读部分，其余丢弃直到行尾；上限不含行尾的 "\r\n"
			if !tooLong {
				buf = append(buf, chunk...)
				tooLong = len(buf) > maxLineSize+len("\r\n")
			}
			if more {
				continue
			}

			var line rawLine
			if !tooLong {
				text := strings.TrimSuffix(strings.TrimSuffix(string(buf), "\n"), "\r")
				if first {
					text = strings.TrimPrefix(text, "\ufeff")
				}
				tooLong = len(text) > maxLineSize
				line = rawLine{text: text}
			}
			if tooLong {
				line = rawLine{
					text: string(buf[:maxLineErrText]),
					err:  fmt.Errorf("%w: line exceeds %d bytes", ErrMalformedPrefix, maxLineSize),
				}
			}
			first = false
			buf, tooLong = buf[:0], false

			if !yield(line) || eof {
				return
			}
		}
	}
}

// LoadFile 读取 manuf 文本文件并构建数据库。
func LoadFile(path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	f, err := os.Open(path) //nolint:gosec // 路径由调用方提供
	if err != nil {
		return nil, fmt.Errorf("xoui: open: %w", err)
	}
	defer f.Close() //nolint:errcheck // 只读文件

	return loadText(f, path, opts)
}

// Open 打开数据库文件，按文件头魔数自动区分二进制导出与 manuf 文本。
func Open(path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	f, err := os.Open(path) //nolint:gosec // 路径由调用方提供
	if err != nil {
		return nil, fmt.Errorf("xoui: open: %w", err)
	}
	defer f.Close() //nolint:errcheck // 只读文件

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(dumpMagic)) //nolint:errcheck // 不足 4 字节按文本处理
	if !bytes.Equal(head, []byte(dumpMagic)) {
		return loadText(br, path, opts)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("xoui: read: %w", err)
	}
	return Unmarshal(data, opts...)
}

func loadText(r io.Reader, path string, opts []Option) (*DB, error) {
	start := time.Now()
	db, err := Load(r, opts...)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	o.logger.Info(context.Background(), "database loaded",
		xlog.Path(path),
		xlog.Count(db.Len()),
		slog.Int("skipped", db.stats.Skipped),
		xlog.Duration(time.Since(start)),
	)
	return db, nil
}

// Lookup 返回覆盖地址 a 的最长前缀条目。
// 同一 {前缀, 长度} 有多条时返回最先加载的一条。未命中返回 ok == false。
func (db *DB) Lookup(a xmac.Addr) (Entry, bool) {
	return db.LookupUint64(a.Uint64())
}

// LookupUint64 与 [DB.Lookup] 相同，参数为 48 位整数形式的地址，高 16 位被忽略。
func (db *DB) LookupUint64(v uint64) (Entry, bool) {
	if db == nil {
		return Entry{}, false
	}
	v &= xmac.Mask(xmac.AddrBits)
	for _, l := range db.levels {
		if i, ok := db.index[key{prefix: v & l.mask, bits: l.bits}]; ok {
			return db.entries[i], true
		}
	}
	return Entry{}, false
}

// Query 解析任意标准格式的硬件地址字符串后查询。
func (db *DB) Query(s string) (Entry, bool, error) {
	a, err := xmac.Parse(s)
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	e, ok := db.Lookup(a)
	return e, ok, nil
}

// Len 返回条目数（含被遮蔽的重复条目）。
func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.entries)
}

// Entries 按加载顺序遍历所有条目。
func (db *DB) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if db == nil {
			return
		}
		for _, e := range db.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Stats 返回构建统计的副本。
func (db *DB) Stats() Stats {
	if db == nil {
		return Stats{ByLength: map[int]int{}}
	}
	s := db.stats
	s.ByLength = maps.Clone(db.stats.ByLength)
	return s
}
