package xoui

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xoui/pkg/util/xmac"
)

const testdataManuf = "testdata/manuf"

func buildString(t *testing.T, text string, opts ...Option) *DB {
	t.Helper()
	db, err := Load(strings.NewReader(text), opts...)
	require.NoError(t, err)
	return db
}

func TestLookup_Cisco24(t *testing.T) {
	db := buildString(t, "00:00:0c/24   Cisco\n")

	e, ok := db.Lookup(xmac.MustParse("00:00:0C:AB:CD:EF"))
	require.True(t, ok)
	assert.Equal(t, uint64(0x00000C000000), e.Prefix.Uint64())
	assert.Equal(t, 24, e.Prefix.Bits())
	assert.Equal(t, "Cisco", e.ShortName)
	assert.Empty(t, e.LongName)
	assert.Empty(t, e.Comment)
}

func TestLookup_NestedPrefix(t *testing.T) {
	db := buildString(t, "00:00:0c/24 Cisco\n00:00:0c:01/36 CiscoSub\n")

	tests := []struct {
		addr string
		want string
	}{
		{"00:00:0c:01:00:00", "CiscoSub"},
		{"00:00:0c:01:0f:ff", "CiscoSub"},
		{"00:00:0c:01:10:00", "Cisco"},
		{"00:00:0c:00:ff:ff", "Cisco"},
		{"00:00:0c:ff:ff:ff", "Cisco"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			e, ok, err := db.Query(tt.addr)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, e.ShortName)
		})
	}

	_, ok, err := db.Query("00:00:0d:00:00:00")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuild_SkipsMalformedLines(t *testing.T) {
	var skipped []*LineError
	db := buildString(t, "# header\n00:00:0C\tCisco\ngarbage-data\n\n00:00:0D\n08:00:20\tOracle\n",
		WithSkipHandler(func(e *LineError) { skipped = append(skipped, e) }))

	require.Len(t, skipped, 2)
	assert.Equal(t, 3, skipped[0].Line)
	assert.Equal(t, "garbage-data", skipped[0].Text)
	assert.ErrorIs(t, skipped[0], ErrMalformedPrefix)
	assert.Equal(t, 5, skipped[1].Line)
	assert.ErrorIs(t, skipped[1], ErrMissingName)
	assert.Contains(t, skipped[0].Error(), "line 3")

	assert.Equal(t, 2, db.Len())
	for _, addr := range []string{"00:00:0c:12:34:56", "08:00:20:00:00:01"} {
		_, ok, err := db.Query(addr)
		require.NoError(t, err)
		assert.True(t, ok, addr)
	}

	st := db.Stats()
	assert.Equal(t, 6, st.Lines)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 2, st.Skipped)
	assert.Equal(t, map[int]int{24: 2}, st.ByLength)
}

func TestBuild_AllLinesFail(t *testing.T) {
	db, err := Load(strings.NewReader("garbage-data\nmore garbage\n"))
	assert.Nil(t, db)
	require.ErrorIs(t, err, ErrNoEntries)
	assert.ErrorIs(t, err, ErrMalformedPrefix)

	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Line)
}

func TestBuild_Empty(t *testing.T) {
	for _, text := range []string{"", "# only comments\n\n   \n"} {
		db, err := Load(strings.NewReader(text))
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.Zero(t, db.Len())

		_, ok := db.Lookup(xmac.Broadcast())
		assert.False(t, ok)
	}
}

func TestBuild_FromSeq(t *testing.T) {
	lines := []string{"00:00:0C\tCisco", "00:00:0C\tCiscoDup", "00:1B:C5/36\tConverg"}
	db, err := Build(slices.Values(lines))
	require.NoError(t, err)

	assert.Equal(t, 3, db.Len())
	got := slices.Collect(db.Entries())
	require.Len(t, got, 3)
	assert.Equal(t, "CiscoDup", got[1].ShortName, "entries keep load order and duplicates")

	st := db.Stats()
	assert.Equal(t, 1, st.Shadowed)
	assert.Equal(t, map[int]int{24: 2, 36: 1}, st.ByLength)

	// 调用方修改 Stats 副本不影响数据库
	st.ByLength[24] = 100
	assert.Equal(t, 2, db.Stats().ByLength[24])
}

func TestLookup_FirstLoadedWins(t *testing.T) {
	db := buildString(t, "00:00:0C\tFirst\n00:00:0C\tSecond\n00:00:0c:00:00:00/24\tThird\n")

	e, ok := db.Lookup(xmac.MustParse("00:00:0c:00:00:01"))
	require.True(t, ok)
	assert.Equal(t, "First", e.ShortName)
	assert.Equal(t, 2, db.Stats().Shadowed)
}

func TestLookup_Totality(t *testing.T) {
	db, err := LoadFile(testdataManuf)
	require.NoError(t, err)

	e, ok := db.Lookup(xmac.Addr{})
	require.True(t, ok, "00:00:00 is in the test database")
	assert.Equal(t, "00:00:00", e.ShortName)

	_, ok = db.Lookup(xmac.Broadcast())
	assert.False(t, ok)

	_, ok = db.LookupUint64(^uint64(0))
	assert.False(t, ok, "high 16 bits are ignored")

	e, ok = db.LookupUint64(0xFFFF_0000_0C12_3456)
	require.True(t, ok)
	assert.Equal(t, "Cisco", e.ShortName)

	var nilDB *DB
	_, ok = nilDB.Lookup(xmac.Broadcast())
	assert.False(t, ok)
	assert.Zero(t, nilDB.Len())
	assert.Empty(t, slices.Collect(nilDB.Entries()))
	assert.NotNil(t, nilDB.Stats().ByLength)
}

// bruteForce 线性扫描所有条目，返回最长且最先加载的覆盖条目。
func bruteForce(entries []Entry, a xmac.Addr) (Entry, bool) {
	var (
		best  Entry
		found bool
	)
	for _, e := range entries {
		if e.Prefix.Contains(a) && (!found || e.Prefix.Bits() > best.Prefix.Bits()) {
			best, found = e, true
		}
	}
	return best, found
}

func TestLookup_LongestPrefixLaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	lengths := []int{8, 16, 24, 28, 32, 36, 40, 48}

	var lines []string
	var probes []xmac.Addr
	for i := range 2000 {
		bits := lengths[rng.IntN(len(lengths))]
		// 集中在少数高位，制造大量嵌套与重复
		v := uint64(rng.IntN(4))<<40 | rng.Uint64()&0x00FF_FFFF_FFFF
		p, err := xmac.PrefixFrom(xmac.AddrFromUint64(v), bits)
		require.NoError(t, err)
		e := Entry{Prefix: p, ShortName: "V" + string(rune('A'+i%26))}
		lines = append(lines, e.String())
		probes = append(probes, xmac.AddrFromUint64(v), xmac.AddrFromUint64(v^1), xmac.AddrFromUint64(rng.Uint64()))
	}

	db, err := Build(slices.Values(lines))
	require.NoError(t, err)
	entries := slices.Collect(db.Entries())

	for _, a := range probes {
		want, wantOK := bruteForce(entries, a)
		got, ok := db.Lookup(a)
		require.Equal(t, wantOK, ok, "addr %v", a)
		require.Equal(t, want, got, "addr %v", a)
	}
}

func TestQuery_InvalidAddress(t *testing.T) {
	db := buildString(t, "00:00:0C\tCisco\n")
	for _, s := range []string{"", "not-a-mac", "00:00:0c", "00:00:0c:00:00:00:00"} {
		_, ok, err := db.Query(s)
		assert.ErrorIs(t, err, ErrInvalidAddress, s)
		assert.False(t, ok)
	}

	for _, s := range []string{"00-00-0C-AB-CD-EF", "0000.0cab.cdef", "00000cabcdef"} {
		e, ok, err := db.Query(s)
		require.NoError(t, err, s)
		require.True(t, ok, s)
		assert.Equal(t, "Cisco", e.ShortName)
	}
}

func TestLoad_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(iotest.ErrReader(boom))
	assert.ErrorIs(t, err, boom)

	_, err = Load(iotest.TimeoutReader(strings.NewReader("00:00:0C\tCisco\n" + strings.Repeat("x", 8192))))
	assert.ErrorIs(t, err, iotest.ErrTimeout)
}

func TestLoad_OversizedLineSkipped(t *testing.T) {
	tests := []struct {
		name string
		long string
	}{
		{"garbage", strings.Repeat("x", 2*maxLineSize)},
		{"valid prefix with huge comment", "00:00:0D\tHuge\t# " + strings.Repeat("c", maxLineSize)},
		{"at end without newline", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "00:00:0C\tCisco\n" + tt.long + "\r\n08:00:20\tOracle\n"
			if tt.long == "" {
				text = "00:00:0C\tCisco\n08:00:20\tOracle\n" + strings.Repeat("y", maxLineSize+1)
			}

			var skipped []*LineError
			db := buildString(t, text, WithSkipHandler(func(e *LineError) { skipped = append(skipped, e) }))

			require.Len(t, skipped, 1)
			assert.ErrorIs(t, skipped[0], ErrMalformedPrefix)
			assert.LessOrEqual(t, len(skipped[0].Text), maxLineErrText)

			assert.Equal(t, 2, db.Len())
			assert.Equal(t, 3, db.Stats().Lines)
			for _, addr := range []string{"00:00:0c:12:34:56", "08:00:20:00:00:01"} {
				_, ok, err := db.Query(addr)
				require.NoError(t, err)
				assert.True(t, ok, addr)
			}
			_, ok := db.Lookup(xmac.MustParse("00:00:0d:00:00:01"))
			assert.False(t, ok, "超长行不应产生条目")
		})
	}
}

func TestLoad_LineAtLimit(t *testing.T) {
	line := "00:00:0D\tEdge\t# "
	line += strings.Repeat("c", maxLineSize-len(line))
	db := buildString(t, line+"\n")

	e, ok := db.Lookup(xmac.MustParse("00:00:0d:00:00:01"))
	require.True(t, ok)
	assert.Equal(t, "Edge", e.ShortName)
	assert.Zero(t, db.Stats().Skipped)
}

func TestLoad_CRLF(t *testing.T) {
	db := buildString(t, "00:00:0C\tCisco\tCisco Systems\r\n08:00:20\tOracle\r\n")
	e, ok := db.Lookup(xmac.MustParse("00:00:0c:00:00:01"))
	require.True(t, ok)
	assert.Equal(t, "Cisco Systems", e.LongName)
	assert.Zero(t, db.Stats().Skipped)
}

func TestLoad_StripsBOM(t *testing.T) {
	db := buildString(t, "\ufeff00:00:0C\tCisco\n")
	assert.Equal(t, 1, db.Len())
	assert.Zero(t, db.Stats().Skipped)
}

func TestLoadFile(t *testing.T) {
	db, err := LoadFile(testdataManuf)
	require.NoError(t, err)
	assert.Equal(t, 10, db.Len())

	tests := map[string]string{
		"00:1b:c5:00:00:01": "Converg",
		"00:1b:c5:00:10:ff": "OpenrbCo",
		"00:1b:c5:00:20:00": "IeeeRegi",
		"00:55:da:0f:ff:ff": "Shinko",
		"08:00:20:12:34:56": "Oracle",
		"fc:ff:aa:01:23:45": "Pictopia",
		"fc:ff:aa:10:00:00": "IeeeRegi",
	}
	for addr, want := range tests {
		e, ok, err := db.Query(addr)
		require.NoError(t, err)
		require.True(t, ok, addr)
		assert.Equal(t, want, e.ShortName, addr)
	}

	_, err = LoadFile("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_DetectsFormat(t *testing.T) {
	text, err := LoadFile(testdataManuf)
	require.NoError(t, err)

	dumpPath := filepath.Join(t.TempDir(), "manuf.bin")
	require.NoError(t, SaveDump(dumpPath, text))

	fromDump, err := Open(dumpPath)
	require.NoError(t, err)
	fromText, err := Open(testdataManuf)
	require.NoError(t, err)

	assert.Equal(t, slices.Collect(text.Entries()), slices.Collect(fromDump.Entries()))
	assert.Equal(t, slices.Collect(text.Entries()), slices.Collect(fromText.Entries()))

	short := filepath.Join(t.TempDir(), "tiny")
	require.NoError(t, os.WriteFile(short, []byte("XO"), 0o600))
	_, err = Open(short)
	assert.ErrorIs(t, err, ErrNoEntries, "短于魔数的文件按文本解析")

	_, err = Open("")
	assert.ErrorIs(t, err, ErrEmptyPath)
}
