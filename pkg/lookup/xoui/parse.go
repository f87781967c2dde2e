package xoui

import (
	"fmt"
	"strings"

	"github.com/omeyang/xoui/pkg/util/xmac"
)

// ParseLine 解析 manuf 文件中的一行。
//
// 空行与注释行返回 ok == false 且 err == nil。
// 前缀无法解析时返回包装了 xmac 原因的 [ErrMalformedPrefix]，缺少短名时返回 [ErrMissingName]。
//
// 字段切分规则：
//   - 前缀之后第一个 '#' 起为注释；
//   - 行内含制表符时，前缀之后的字段按制表符切分：短名、全称，
//     其余字段以空格拼接并入注释；
//   - 否则按空白切分：短名，其余部分以单个空格拼接为全称，
//     整体被圆括号包裹时去掉括号。
func ParseLine(line string) (Entry, bool, error) {
	text := strings.TrimSpace(line)
	if text == "" || text[0] == '#' {
		return Entry{}, false, nil
	}

	var comment string
	if before, after, found := strings.Cut(text, "#"); found {
		text = strings.TrimSpace(before)
		comment = strings.TrimSpace(after)
	}

	prefixField, rest := cutField(text)
	prefix, err := xmac.ParsePrefix(prefixField)
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: %w", ErrMalformedPrefix, err)
	}

	e := Entry{Prefix: prefix, Comment: comment}
	if strings.ContainsRune(text, '\t') {
		fields := splitTabs(rest)
		if len(fields) > 0 {
			e.ShortName = fields[0]
		}
		if len(fields) > 1 {
			e.LongName = fields[1]
		}
		if len(fields) > 2 {
			extra := fields[2:]
			if comment != "" {
				extra = append(extra, comment)
			}
			e.Comment = strings.Join(extra, " ")
		}
	} else {
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			e.ShortName = fields[0]
			e.LongName = stripParens(strings.Join(fields[1:], " "))
		}
	}

	if e.ShortName == "" {
		return Entry{}, false, ErrMissingName
	}
	return e, true, nil
}

// cutField 切出第一个以空白结尾的字段，返回字段与剩余部分（已去除首尾空白）。
func cutField(s string) (field, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// splitTabs 按制表符切分，去除每个字段首尾空白并丢弃空字段。
func splitTabs(s string) []string {
	raw := strings.Split(s, "\t")
	fields := raw[:0]
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// stripParens 去掉整体包裹的一对圆括号，"(A) (B)" 这类多组括号保持原样。
func stripParens(s string) string {
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' &&
		strings.Count(s, "(") == 1 && strings.Count(s, ")") == 1 {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
