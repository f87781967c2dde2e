package xoui

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xoui/pkg/observability/xlog"
	"github.com/omeyang/xoui/pkg/util/xmac"
)

// 导出格式（小端）：
//
//	0   4  魔数 "XOUI"
//	4   2  格式版本
//	6   2  标志位（保留，0）
//	8   4  条目数
//	12  …  条目：6 字节大端前缀、1 字节长度、短名/全称/注释（uvarint 长度 + 字节）
//	-8  8  之前所有字节的 xxhash64
const (
	dumpMagic   = "XOUI"
	dumpVersion = 1

	headerSize  = 12
	trailerSize = 8

	// minEntrySize 前缀 6 字节 + 长度 1 字节 + 三个长度字节（短名至少 1 字节）
	minEntrySize = 6 + 1 + 3 + 1

	dumpFilePerm = 0o644
	dumpDirPerm  = 0o755
)

// MarshalBinary 实现 encoding.BinaryMarshaler，按加载顺序导出全部条目（含被遮蔽的重复条目）。
func (db *DB) MarshalBinary() ([]byte, error) {
	n := db.Len()
	if n > math.MaxUint32 {
		return nil, fmt.Errorf("xoui: too many entries: %d", n)
	}

	size := headerSize + trailerSize
	for e := range db.Entries() {
		size += 7 + 3*binary.MaxVarintLen16 + len(e.ShortName) + len(e.LongName) + len(e.Comment)
	}

	buf := make([]byte, headerSize, size)
	copy(buf, dumpMagic)
	binary.LittleEndian.PutUint16(buf[4:], dumpVersion)
	binary.LittleEndian.PutUint16(buf[6:], 0)
	binary.LittleEndian.PutUint32(buf[8:], uint32(n)) //nolint:gosec // 已校验上限

	var p [8]byte
	for e := range db.Entries() {
		binary.BigEndian.PutUint64(p[:], e.Prefix.Uint64())
		buf = append(buf, p[2:]...)
		buf = append(buf, byte(e.Prefix.Bits()))
		buf = appendString(buf, e.ShortName)
		buf = appendString(buf, e.LongName)
		buf = appendString(buf, e.Comment)
	}
	return binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf)), nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// Unmarshal 从 [DB.MarshalBinary] 的输出重建数据库，条目顺序与查询结果与导出前一致。
//
// 未知版本返回 [ErrUnsupportedVersion]；魔数错误、数据截断、校验和不符、
// 条目非法或存在多余字节返回 [ErrCorruptDump]。
func Unmarshal(data []byte, opts ...Option) (*DB, error) {
	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptDump, len(data))
	}
	if string(data[:4]) != dumpMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptDump, data[:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != dumpVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	body := data[:len(data)-trailerSize]
	if want, got := binary.LittleEndian.Uint64(data[len(body):]), xxhash.Sum64(body); want != got {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptDump)
	}
	if flags := binary.LittleEndian.Uint16(data[6:]); flags != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", ErrCorruptDump, flags)
	}

	count := binary.LittleEndian.Uint32(data[8:])
	if uint64(count)*minEntrySize > uint64(len(body)-headerSize) {
		return nil, fmt.Errorf("%w: entry count %d exceeds data", ErrCorruptDump, count)
	}

	d := &decoder{buf: body, str: string(body), pos: headerSize}
	entries := make([]Entry, 0, count)
	for i := range count {
		e, err := d.entry()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorruptDump, i, err)
		}
		entries = append(entries, e)
	}
	if d.pos != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptDump, len(body)-d.pos)
	}

	db := newDB(entries)
	applyOptions(opts).logger.Debug(context.Background(), "dump decoded", xlog.Count(db.Len()))
	return db, nil
}

var (
	errTruncated      = errors.New("truncated")
	errUnmaskedBits   = errors.New("prefix has bits beyond its length")
	errEmptyShortName = errors.New("empty short name")
)

// decoder 顺序读取条目。字符串切自 str，与 buf 同偏移，解码结果共享同一块内存。
type decoder struct {
	buf []byte
	str string
	pos int
}

func (d *decoder) entry() (Entry, error) {
	if len(d.buf)-d.pos < 7 {
		return Entry{}, errTruncated
	}
	var p [8]byte
	copy(p[2:], d.buf[d.pos:d.pos+6])
	raw := binary.BigEndian.Uint64(p[:])
	bits := int(d.buf[d.pos+6])
	d.pos += 7

	prefix, err := xmac.PrefixFrom(xmac.AddrFromUint64(raw), bits)
	if err != nil {
		return Entry{}, err
	}
	if prefix.Uint64() != raw {
		return Entry{}, errUnmaskedBits
	}

	var e Entry
	e.Prefix = prefix
	if e.ShortName, err = d.string(); err != nil {
		return Entry{}, err
	}
	if e.ShortName == "" {
		return Entry{}, errEmptyShortName
	}
	if e.LongName, err = d.string(); err != nil {
		return Entry{}, err
	}
	if e.Comment, err = d.string(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (d *decoder) string() (string, error) {
	l, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		return "", errTruncated
	}
	d.pos += n
	if l > uint64(len(d.buf)-d.pos) {
		return "", errTruncated
	}
	s := d.str[d.pos : d.pos+int(l)] //nolint:gosec // 已校验不超过剩余长度
	d.pos += int(l)                  //nolint:gosec // 同上
	return s, nil
}

// OpenDump 读取二进制导出文件。
func OpenDump(path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path) //nolint:gosec // 路径由调用方提供
	if err != nil {
		return nil, fmt.Errorf("xoui: read dump: %w", err)
	}
	return Unmarshal(data, opts...)
}

// SaveDump 将数据库导出到 path。先写同目录临时文件再重命名，
// 读者不会看到写了一半的文件。父目录不存在时自动创建。
func SaveDump(path string, db *DB) (err error) {
	if path == "" {
		return ErrEmptyPath
	}
	data, err := db.MarshalBinary()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dumpDirPerm); err != nil {
		return fmt.Errorf("xoui: create dump dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("xoui: create temp dump: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()           //nolint:errcheck // 可能已关闭
			_ = os.Remove(tmp.Name()) //nolint:errcheck // 尽力清理
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("xoui: write dump: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("xoui: sync dump: %w", err)
	}
	if err = tmp.Chmod(dumpFilePerm); err != nil {
		return fmt.Errorf("xoui: chmod dump: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("xoui: close dump: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("xoui: rename dump: %w", err)
	}
	return nil
}
