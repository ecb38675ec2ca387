package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fyerfyer/doc-extract-service/internal/models"
)

// DefaultSeparators 默认的分隔符优先级：段落、换行、空格、按字符强制切分
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// SplitterConfig 分段器配置
type SplitterConfig struct {
	ChunkSize    int      // 分块最大长度（按字符数）
	ChunkOverlap int      // 相邻分块的重叠长度（字符数）
	Separators   []string // 分隔符，优先级从高到低
}

// DefaultSplitterConfig 返回默认分段器配置
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    1200,
		ChunkOverlap: 200,
		Separators:   DefaultSeparators,
	}
}

// Validate 检查配置，overlap必须非负且小于ChunkSize
func (c SplitterConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return models.NewConfigError(
			fmt.Sprintf("chunk_size must be greater than zero, got %d", c.ChunkSize), nil)
	}
	if c.ChunkOverlap < 0 {
		return models.NewConfigError(
			fmt.Sprintf("chunk_overlap cannot be negative, got %d", c.ChunkOverlap), nil)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return models.NewConfigError(
			fmt.Sprintf("chunk_overlap %d must be smaller than chunk_size %d", c.ChunkOverlap, c.ChunkSize), nil)
	}
	return nil
}

// Content 表示一个文本分块
type Content struct {
	Text  string // 分块文本
	Index int    // 分块序号
}

// Splitter 文本分段器接口
type Splitter interface {
	// Split 将文本分割成有序的分块
	Split(text string) ([]Content, error)
}

// TextSplitter 递归字符分段器
// 依次尝试优先级更低的分隔符，直到每一段都不超过ChunkSize，然后把相邻小段合并成带重叠的分块
type TextSplitter struct {
	config SplitterConfig
}

// NewTextSplitter 创建新的文本分段器，配置无效时返回ConfigError
func NewTextSplitter(config SplitterConfig) (*TextSplitter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	seps := make([]string, 0, len(config.Separators)+1)
	seps = append(seps, config.Separators...)
	// 末尾必须是空分隔符，保证递归终止
	if len(seps) == 0 || seps[len(seps)-1] != "" {
		seps = append(seps, "")
	}
	config.Separators = seps

	return &TextSplitter{config: config}, nil
}

// Config 返回分段器配置
func (s *TextSplitter) Config() SplitterConfig {
	return s.config
}

// Split 将文本分割成内容分块
func (s *TextSplitter) Split(text string) ([]Content, error) {
	chunks := s.SplitText(text)

	contents := make([]Content, 0, len(chunks))
	for i, chunk := range chunks {
		contents = append(contents, Content{Text: chunk, Index: i})
	}
	return contents, nil
}

// SplitText 返回分块字符串，空文本返回空切片
func (s *TextSplitter) SplitText(text string) []string {
	if text == "" {
		return []string{}
	}
	return s.splitRecursive(text, s.config.Separators)
}

// splitRecursive 使用第一个在文本中出现的分隔符切分，过长的片段用剩余分隔符继续切分
func (s *TextSplitter) splitRecursive(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var final []string
	var good []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < s.config.ChunkSize {
			good = append(good, piece)
			continue
		}

		if len(good) > 0 {
			final = append(final, s.mergeSplits(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.splitRecursive(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.mergeSplits(good)...)
	}
	return final
}

// mergeSplits 将小片段合并为不超过ChunkSize的分块
// 片段已带有分隔符，合并时不再插入分隔符
func (s *TextSplitter) mergeSplits(splits []string) []string {
	var docs []string
	var current []string
	total := 0

	for _, piece := range splits {
		n := runeLen(piece)
		if total+n > s.config.ChunkSize && len(current) > 0 {
			if doc := joinChunk(current); doc != "" {
				docs = append(docs, doc)
			}
			// 保留不超过ChunkOverlap的尾部作为下一块的开头
			for total > s.config.ChunkOverlap || (total+n > s.config.ChunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if doc := joinChunk(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepSeparator 按分隔符切分，分隔符保留在后一段的开头，并丢弃空片段
func splitKeepSeparator(text, separator string) []string {
	if separator == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, separator)
	pieces := make([]string, 0, len(parts))
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, p := range parts[1:] {
		pieces = append(pieces, separator+p)
	}
	return pieces
}

// joinChunk 拼接片段并去除首尾空白
func joinChunk(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
