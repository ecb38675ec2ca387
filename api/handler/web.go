package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-extract-service/api/middleware"
	"github.com/fyerfyer/doc-extract-service/api/model"
	"github.com/fyerfyer/doc-extract-service/internal/models"
	"github.com/fyerfyer/doc-extract-service/internal/services"
)

// WebToDoc 抓取URL并转换为文档
// POST /web-to-doc
func (h *ExtractHandler) WebToDoc(c *gin.Context) {
	var req model.WebToDocRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.HandleError(c, models.NewInputError("Invalid request body", err))
		return
	}

	opts := services.URLOptions{
		ChunkOptions: services.ChunkOptions{
			Split:        req.Split,
			ChunkSize:    model.IntOr(req.ChunkSize, h.defaults.ChunkSize),
			ChunkOverlap: model.IntOr(req.ChunkOverlap, h.defaults.ChunkOverlap),
		},
		ForceRender:       req.JS,
		WaitSelector:      req.WaitSelector,
		FallbackThreshold: model.IntOr(req.FallbackThreshold, h.defaults.FallbackThreshold),
	}

	result, err := h.service.URLsToDocuments(c.Request.Context(), req.AllURLs(), opts)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"urls":      len(req.AllURLs()),
		"documents": len(result.Documents),
		"failed":    len(result.Errors),
		"split":     req.Split,
		"js":        req.JS,
	}).Info("URLs converted to documents")

	c.JSON(http.StatusOK, model.NewDocumentsResponse(result.Documents, result.Errors))
}

// WebToDocHTML 将调用方提供的HTML转换为文档
// POST /web-to-doc-html
func (h *ExtractHandler) WebToDocHTML(c *gin.Context) {
	var req model.HTMLToDocRequest
	if err := bindJSON(c, &req); err != nil {
		middleware.HandleError(c, models.NewInputError("Invalid request body", err))
		return
	}

	opts := services.ChunkOptions{
		Split:        req.Split,
		ChunkSize:    model.IntOr(req.ChunkSize, h.defaults.ChunkSize),
		ChunkOverlap: model.IntOr(req.ChunkOverlap, h.defaults.ChunkOverlap),
	}

	docs, err := h.service.HTMLToDocuments(c.Request.Context(), req.HTML, req.Meta, opts)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewDocumentsResponse(docs, nil))
}

// bindJSON 空请求体按空对象处理，由服务层报告缺少的字段
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
