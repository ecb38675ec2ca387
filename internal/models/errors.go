package models

import (
	"errors"
	"fmt"
)

// ErrorKind 流水线错误类别
type ErrorKind string

const (
	// KindInput 缺少或为空的必填字段
	KindInput ErrorKind = "input_error"
	// KindExtraction PDF无法解析或OCR引擎错误
	KindExtraction ErrorKind = "extraction_error"
	// KindFetch 网络或浏览器导航失败
	KindFetch ErrorKind = "fetch_error"
	// KindConfig 无效的分块参数等配置错误
	KindConfig ErrorKind = "config_error"
)

var (
	// ErrNotPDF 上传内容不是PDF
	ErrNotPDF = errors.New("content is not a PDF document")

	// ErrEmptyHTML 请求中缺少html字段
	ErrEmptyHTML = errors.New("html is empty")

	// ErrNoURLs 请求中没有任何URL
	ErrNoURLs = errors.New("no urls supplied")
)

// PipelineError 流水线各阶段返回的带类别错误
// Message 可以返回给客户端，Err 只用于日志
type PipelineError struct {
	Kind    ErrorKind // 错误类别
	Message string    // 面向客户端的错误信息
	Err     error     // 内部错误（可选）
}

// Error 实现error接口
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap 支持errors.Is/errors.As
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewInputError 创建输入错误
func NewInputError(message string, err error) *PipelineError {
	return &PipelineError{Kind: KindInput, Message: message, Err: err}
}

// NewExtractionError 创建提取错误
func NewExtractionError(message string, err error) *PipelineError {
	return &PipelineError{Kind: KindExtraction, Message: message, Err: err}
}

// NewFetchError 创建抓取错误
func NewFetchError(message string, err error) *PipelineError {
	return &PipelineError{Kind: KindFetch, Message: message, Err: err}
}

// NewConfigError 创建配置错误
func NewConfigError(message string, err error) *PipelineError {
	return &PipelineError{Kind: KindConfig, Message: message, Err: err}
}

// KindOf 返回错误类别，非PipelineError返回空字符串
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
