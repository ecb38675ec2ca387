package services

import (
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-extract-service/config"
	"github.com/fyerfyer/doc-extract-service/internal/document"
	"github.com/fyerfyer/doc-extract-service/internal/metrics"
	"github.com/fyerfyer/doc-extract-service/internal/webfetch"
)

// NewExtractServiceFromConfig 按配置组装完整的提取流水线
// 使用tesseract做OCR、resty做静态抓取、chromedp做渲染抓取
func NewExtractServiceFromConfig(cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *ExtractService {
	pdf := document.NewPDFExtractor(
		document.NewTesseractOCR(),
		document.WithOCRLanguages(cfg.OCR.Languages),
		document.WithDPI(cfg.OCR.DPI),
		document.WithPDFLogger(logger),
	)

	static := webfetch.NewStaticFetcher(webfetch.StaticConfig{
		UserAgent:    cfg.Web.UserAgent,
		Timeout:      cfg.Web.StaticTimeout,
		MaxRedirects: cfg.Web.MaxRedirects,
		MaxBodyBytes: cfg.Web.MaxBodyMB << 20,
	}, webfetch.WithStaticLogger(logger))

	rendered := webfetch.NewRenderedFetcher(webfetch.RenderConfig{
		NavigationTimeout: cfg.Web.NavigationTimeout,
		ScrollInterval:    cfg.Web.ScrollInterval,
		SettleWindow:      cfg.Web.ScrollSettle,
		UserAgent:         cfg.Web.UserAgent,
		ChromePath:        cfg.Web.ChromePath,
	}, webfetch.WithRenderLogger(logger))

	return NewExtractService(pdf, static, rendered,
		WithLogger(logger),
		WithMetrics(m),
		WithURLConcurrency(cfg.Web.URLConcurrency),
		WithSeparators(cfg.Chunk.Separators),
	)
}
