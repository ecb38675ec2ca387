package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/doc-extract-service/api/handler"
	"github.com/fyerfyer/doc-extract-service/api/middleware"
	"github.com/fyerfyer/doc-extract-service/api/model"
	"github.com/fyerfyer/doc-extract-service/internal/metrics"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件，m为nil时不暴露/metrics
func SetupRouter(extractHandler *handler.ExtractHandler, m *metrics.Metrics) *gin.Engine {
	router := gin.New()

	// 应用全局中间件，错误处理放在最内层以便日志和指标拿到最终状态码
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(m))
	router.Use(middleware.ErrorMiddleware())

	// 在调试模式下记录请求体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	// 健康检查
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, model.HealthResponse{Status: "ok"})
	}
	router.GET("/health", health)
	router.GET("/healthz", health)

	// PDF -> 文本
	router.POST("/extract-text", extractHandler.ExtractText)

	// 网页 -> 文档
	router.POST("/web-to-doc", extractHandler.WebToDoc)
	router.POST("/web-to-doc-html", extractHandler.WebToDocHTML)

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.NewErrorResponse("not found"))
	})

	return router
}
