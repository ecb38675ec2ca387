package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-extract-service/api/model"
	"github.com/fyerfyer/doc-extract-service/internal/models"
)

// internalErrorMessage 未分类错误对外统一使用的信息
const internalErrorMessage = "internal server error"

// StatusFor 将错误映射为HTTP状态码和可以返回给客户端的信息
func StatusFor(err error) (int, string) {
	var pe *models.PipelineError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError, internalErrorMessage
	}

	switch pe.Kind {
	case models.KindInput, models.KindConfig:
		return http.StatusBadRequest, pe.Message
	case models.KindExtraction:
		return http.StatusUnprocessableEntity, pe.Message
	case models.KindFetch:
		return http.StatusBadGateway, pe.Message
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// ErrorMiddleware 统一错误处理中间件
// 响应体始终是{error}，内部错误细节只写日志
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 捕获 panic
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(logrus.Fields{
					FieldError:   rec,
					"stack":      string(debug.Stack()),
					FieldPath:    c.Request.URL.Path,
					FieldTraceID: traceID(c),
				}).Error("Panic recovered in API request")

				c.AbortWithStatusJSON(http.StatusInternalServerError, model.NewErrorResponse(internalErrorMessage))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// 取最后一个错误进行处理
		err := c.Errors.Last().Err
		status, message := StatusFor(err)

		entry := log.WithFields(logrus.Fields{
			FieldTraceID: traceID(c),
			FieldPath:    c.Request.URL.Path,
			FieldStatus:  status,
			"error_kind": string(models.KindOf(err)),
		})
		if status >= http.StatusInternalServerError {
			entry.Error(err.Error())
		} else {
			entry.Warn(err.Error())
		}

		c.AbortWithStatusJSON(status, model.NewErrorResponse(message))
	}
}

// HandleError 在处理器中使用的错误处理辅助函数
func HandleError(c *gin.Context, err error) {
	// 添加错误到上下文中
	_ = c.Error(err)
}
