package document

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-extract-service/internal/models"
)

func newSplitter(t *testing.T, size, overlap int) *TextSplitter {
	t.Helper()
	config := DefaultSplitterConfig()
	config.ChunkSize = size
	config.ChunkOverlap = overlap
	splitter, err := NewTextSplitter(config)
	require.NoError(t, err)
	return splitter
}

// TestSplitterConfigValidation 测试分块参数校验
func TestSplitterConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -10, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap larger than size", 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTextSplitter(SplitterConfig{ChunkSize: tt.size, ChunkOverlap: tt.overlap})
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.KindConfig), "无效配置应返回ConfigError")
		})
	}

	t.Run("valid config", func(t *testing.T) {
		_, err := NewTextSplitter(SplitterConfig{ChunkSize: 10, ChunkOverlap: 9})
		assert.NoError(t, err)
	})
}

// TestSplitEmptyText 测试空文本
func TestSplitEmptyText(t *testing.T) {
	splitter := newSplitter(t, 10, 2)

	chunks := splitter.SplitText("")
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)

	contents, err := splitter.Split("")
	assert.NoError(t, err)
	assert.Empty(t, contents)
}

// TestSplitByParagraph 测试优先按段落分割
func TestSplitByParagraph(t *testing.T) {
	splitter := newSplitter(t, 10, 0)

	chunks := splitter.SplitText("aaa\n\nbbb\n\nccc")
	assert.Equal(t, []string{"aaa\n\nbbb", "ccc"}, chunks)
}

// TestSplitShortText 测试短文本只产生一个分块
func TestSplitShortText(t *testing.T) {
	splitter := newSplitter(t, 1200, 200)

	chunks := splitter.SplitText("Hello world")
	assert.Equal(t, []string{"Hello world"}, chunks)
}

// TestSplitCharacterLevelOverlap 测试没有分隔符时按字符切分并保留重叠
func TestSplitCharacterLevelOverlap(t *testing.T) {
	splitter := newSplitter(t, 10, 2)
	text := "abcdefghijklmnopqrstuvwxyz"

	chunks := splitter.SplitText(text)
	require.Equal(t, []string{"abcdefghij", "ijklmnopqr", "qrstuvwxyz"}, chunks)

	// 去掉重叠部分后应能还原原文
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c[2:])
	}
	assert.Equal(t, text, rebuilt.String())
}

// TestSplitChunkSizeConstraint 测试每个分块都不超过ChunkSize
func TestSplitChunkSizeConstraint(t *testing.T) {
	texts := []string{
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40),
		strings.Repeat("line one\nline two is a bit longer\n\n", 25),
		strings.Repeat("x", 500),
		strings.Repeat("สวัสดีครับ ภาษาไทย\n", 30),
	}
	settings := []struct{ size, overlap int }{
		{10, 2}, {50, 10}, {100, 0}, {1, 0}, {37, 36},
	}

	for _, text := range texts {
		for _, tc := range settings {
			splitter := newSplitter(t, tc.size, tc.overlap)
			chunks := splitter.SplitText(text)
			assert.NotEmpty(t, chunks)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), tc.size, "每个分块不应超过ChunkSize")
				assert.NotEmpty(t, c)
				assert.Contains(t, text, c, "分块应是原文的连续子串")
			}
		}
	}
}

// TestSplitDeterministic 测试相同输入得到相同分块
func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Paragraph with some words.\nAnother line here.\n\n", 20)
	splitter := newSplitter(t, 60, 15)

	first := splitter.SplitText(text)
	second := splitter.SplitText(text)
	assert.Equal(t, first, second)
	assert.Greater(t, len(first), 1)
}

// TestSplitMultibyte 测试按字符而不是字节计算长度
func TestSplitMultibyte(t *testing.T) {
	splitter := newSplitter(t, 5, 0)

	chunks := splitter.SplitText("กขคงจฉชซฌญ")
	assert.Equal(t, []string{"กขคงจ", "ฉชซฌญ"}, chunks)
}

// TestSplitAppendsEmptySeparator 测试缺少空分隔符时自动补齐
func TestSplitAppendsEmptySeparator(t *testing.T) {
	splitter, err := NewTextSplitter(SplitterConfig{
		ChunkSize:    5,
		ChunkOverlap: 0,
		Separators:   []string{"\n"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"\n", ""}, splitter.Config().Separators)

	chunks := splitter.SplitText("abcdefghijkl")
	assert.Equal(t, []string{"abcde", "fghij", "kl"}, chunks)
}

// TestSplitContentIndex 测试Content序号
func TestSplitContentIndex(t *testing.T) {
	splitter := newSplitter(t, 10, 2)

	contents, err := splitter.Split("abcdefghijklmnopqrstuvwxyz")
	require.NoError(t, err)
	for i, c := range contents {
		assert.Equal(t, i, c.Index)
	}
}
