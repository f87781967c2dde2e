package xoui

import (
	"strconv"
	"strings"

	"github.com/omeyang/xoui/pkg/util/xmac"
)

// Entry 一条厂商记录。
type Entry struct {
	// Prefix 已掩码的前缀，有效位之后的低位恒为 0。
	Prefix xmac.Prefix

	// ShortName 厂商短名，非空。
	ShortName string

	// LongName 厂商全称，缺省为空。
	LongName string

	// Comment 行尾注释，缺省为空。
	Comment string
}

// String 按 manuf 约定输出一行：PREFIX<TAB>Short[<TAB>Long][<TAB># Comment]。
//
// 24 位前缀输出 3 个大写字节且不带掩码（00:00:0C），
// 其他长度输出完整 6 字节与 "/位数"（00:1B:C5:00:00:00/36）。
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(formatPrefix(e.Prefix))
	b.WriteByte('\t')
	b.WriteString(e.ShortName)
	if e.LongName != "" {
		b.WriteByte('\t')
		b.WriteString(e.LongName)
	}
	if e.Comment != "" {
		b.WriteString("\t# ")
		b.WriteString(e.Comment)
	}
	return b.String()
}

func formatPrefix(p xmac.Prefix) string {
	s := p.Addr().FormatString(xmac.FormatColonUpper)
	if p.Bits() == xmac.DefaultPrefixBits {
		return s[:8]
	}
	return s + "/" + strconv.Itoa(p.Bits())
}
