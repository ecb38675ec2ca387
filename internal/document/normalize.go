package document

import (
	"strings"
	"unicode"
)

// Normalize 将原始文本规范化为按行组织的形式
// 每行去除首尾空白，行内连续空白合并为一个空格，空行被丢弃，行之间用单个换行连接。
// Normalize(Normalize(x)) == Normalize(x)
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	lines := strings.FieldsFunc(raw, isLineBreak)

	var b strings.Builder
	b.Grow(len(raw))
	for _, line := range lines {
		line = collapseSpaces(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// isLineBreak 判断是否为换行字符（与常见splitlines语义一致）
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// collapseSpaces 合并行内连续的空白字符
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
