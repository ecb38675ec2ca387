package model

import (
	"github.com/fyerfyer/doc-extract-service/internal/models"
)

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// TextResponse PDF提取响应
type TextResponse struct {
	Text string `json:"text"`
}

// DocumentsResponse 文档列表响应
type DocumentsResponse struct {
	Count     int               `json:"count"`            // 文档数量
	Documents []models.Document `json:"documents"`        // 文档列表
	Errors    []models.URLError `json:"errors,omitempty"` // 失败的URL（只在部分失败时出现）
}

// NewDocumentsResponse 创建文档列表响应，nil列表序列化为[]
func NewDocumentsResponse(docs []models.Document, errs []models.URLError) *DocumentsResponse {
	if docs == nil {
		docs = []models.Document{}
	}
	return &DocumentsResponse{
		Count:     len(docs),
		Documents: docs,
		Errors:    errs,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status"`
}
