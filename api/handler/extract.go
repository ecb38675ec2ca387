package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-extract-service/api/middleware"
	"github.com/fyerfyer/doc-extract-service/api/model"
	"github.com/fyerfyer/doc-extract-service/internal/models"
	"github.com/fyerfyer/doc-extract-service/internal/services"
)

// Defaults 请求未指定时使用的默认值，来自启动配置
type Defaults struct {
	ChunkSize         int   // 分块大小
	ChunkOverlap      int   // 分块重叠
	FallbackThreshold int   // 静态文本回退阈值
	MaxUploadBytes    int64 // 上传文件大小上限
}

// multipartOverhead 上传大小限制之外为multipart头部预留的字节数
const multipartOverhead = 64 << 10

// ExtractHandler 处理提取相关的API请求
type ExtractHandler struct {
	service  *services.ExtractService // 提取服务
	defaults Defaults                 // 默认参数
	logger   *logrus.Logger           // 日志记录器
}

// NewExtractHandler 创建新的提取处理器
func NewExtractHandler(service *services.ExtractService, defaults Defaults) *ExtractHandler {
	return &ExtractHandler{
		service:  service,
		defaults: defaults,
		logger:   middleware.GetLogger(),
	}
}

// ExtractText 提取上传PDF的全文
// POST /extract-text
func (h *ExtractHandler) ExtractText(c *gin.Context) {
	if limit := h.defaults.MaxUploadBytes; limit > 0 {
		// 在解析multipart之前限制读取量
		if c.Request.ContentLength > limit+multipartOverhead {
			middleware.HandleError(c, h.uploadTooLarge(nil))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.HandleError(c, h.uploadTooLarge(err))
			return
		}
		middleware.HandleError(c, models.NewInputError("No file provided", err))
		return
	}

	if h.defaults.MaxUploadBytes > 0 && fileHeader.Size > h.defaults.MaxUploadBytes {
		middleware.HandleError(c, h.uploadTooLarge(nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleError(c, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.HandleError(c, fmt.Errorf("failed to read uploaded file: %w", err))
		return
	}

	doc, err := h.service.PDFToText(c.Request.Context(), data, map[string]any{
		models.MetaFilename: fileHeader.Filename,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"filename": fileHeader.Filename,
		"size":     fileHeader.Size,
		"chars":    len([]rune(doc.PageContent)),
	}).Info("Text extracted from upload")

	c.JSON(http.StatusOK, model.TextResponse{Text: doc.PageContent})
}

func (h *ExtractHandler) uploadTooLarge(err error) error {
	return models.NewInputError(fmt.Sprintf("file exceeds the %d byte upload limit", h.defaults.MaxUploadBytes), err)
}
