package models

// 元数据中常用的键
const (
	MetaSource     = "source"      // 来源（URL或上传文件）
	MetaTitle      = "title"       // 页面标题
	MetaChunkIndex = "chunk_index" // 分块序号，从0开始
	MetaFilename   = "filename"    // 上传文件名
)

// DefaultUploadSource 上传文件默认的来源标记
const DefaultUploadSource = "upload"

// Document 流水线输出的文档
// 创建后不再修改，分块时会复制元数据
type Document struct {
	PageContent string         `json:"page_content"` // 规范化后的文本内容
	Metadata    map[string]any `json:"metadata"`     // 元数据，至少包含source（HTML输入除外）
}

// NewDocument 创建文档，nil元数据会被替换为空map，保证序列化为{}
func NewDocument(content string, meta map[string]any) Document {
	return Document{
		PageContent: content,
		Metadata:    CloneMeta(meta),
	}
}

// WithChunkIndex 返回带有分块序号的新文档
func (d Document) WithChunkIndex(content string, index int) Document {
	meta := CloneMeta(d.Metadata)
	meta[MetaChunkIndex] = index
	return Document{
		PageContent: content,
		Metadata:    meta,
	}
}

// Source 返回文档来源，不存在时返回空字符串
func (d Document) Source() string {
	if v, ok := d.Metadata[MetaSource].(string); ok {
		return v
	}
	return ""
}

// CloneMeta 浅拷贝元数据
func CloneMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// URLError 多URL请求中单个URL的失败信息
type URLError struct {
	Source string `json:"source"` // 失败的URL
	Error  string `json:"error"`  // 可以返回给客户端的错误信息
}
