package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalize 测试文本规范化
func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t\n  \r\n", ""},
		{"trim lines", "  hello  \n\tworld\t", "hello\nworld"},
		{"drop blank lines", "a\n\n\n\nb", "a\nb"},
		{"windows line endings", "a\r\nb\r\n\r\nc", "a\nb\nc"},
		{"old mac line endings", "a\rb", "a\nb"},
		{"collapse inner spaces", "Hello  world", "Hello world"},
		{"unicode separators", "a\u2028b\u2029c\u0085d", "a\nb\nc\nd"},
		{"thai text", "  สวัสดี   ครับ \n\n ภาษาไทย", "สวัสดี ครับ\nภาษาไทย"},
		{"non breaking space", "\u00a0a\u00a0 \u00a0b\u00a0 ", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

// TestNormalizeProperties 测试规范化结果的不变量
func TestNormalizeProperties(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"\n\n  leading blank lines\n",
		"tabs\t\tinside\tline\n\n\n   \n",
		"<p>html  like</p>\n\n<div> x </div>",
		strings.Repeat("line with trailing space   \n\n", 10),
		"\v\f mixed \x1c separators \x1e",
	}

	for _, in := range inputs {
		out := Normalize(in)

		// 幂等
		assert.Equal(t, out, Normalize(out), "Normalize应当是幂等的: %q", in)

		if out == "" {
			continue
		}
		for _, line := range strings.Split(out, "\n") {
			assert.NotEmpty(t, line, "不应存在空行: %q", in)
			assert.Equal(t, strings.TrimSpace(line), line, "行首尾不应有空白: %q", in)
		}
	}
}
