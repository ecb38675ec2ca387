package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fyerfyer/doc-extract-service/internal/document"
	"github.com/fyerfyer/doc-extract-service/internal/metrics"
	"github.com/fyerfyer/doc-extract-service/internal/models"
	"github.com/fyerfyer/doc-extract-service/internal/webfetch"
)

// DefaultFallbackThreshold 静态抓取文本短于该字符数时改用渲染抓取
const DefaultFallbackThreshold = 500

// PDFTextExtractor PDF文本提取接口
type PDFTextExtractor interface {
	Extract(ctx context.Context, data []byte) (*document.PDFResult, error)
}

// ChunkOptions 分块选项
type ChunkOptions struct {
	Split        bool // 是否分块
	ChunkSize    int  // 分块大小
	ChunkOverlap int  // 分块重叠
}

// URLOptions 网页抓取选项
type URLOptions struct {
	ChunkOptions
	ForceRender       bool   // 强制使用无头浏览器渲染
	WaitSelector      string // 渲染后等待出现的CSS选择器
	FallbackThreshold int    // 静态文本长度阈值
}

// URLResult 多URL处理结果，文档顺序与输入URL顺序一致
type URLResult struct {
	Documents []models.Document
	Errors    []models.URLError
}

// ExtractService 提取流水线
// 负责协调PDF提取、网页抓取、HTML清理、规范化和分块
type ExtractService struct {
	pdf            PDFTextExtractor // PDF提取器
	static         webfetch.Fetcher // 静态抓取
	rendered       webfetch.Fetcher // 渲染抓取
	separators     []string         // 分块分隔符
	urlConcurrency int              // 同时处理的URL数量
	metrics        *metrics.Metrics // 指标，可为空
	logger         *logrus.Logger   // 日志记录器
}

// ExtractOption 提取服务配置选项
type ExtractOption func(*ExtractService)

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) ExtractOption {
	return func(s *ExtractService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics 设置指标收集
func WithMetrics(m *metrics.Metrics) ExtractOption {
	return func(s *ExtractService) {
		s.metrics = m
	}
}

// WithURLConcurrency 设置多URL请求的并发数，1表示按顺序处理
func WithURLConcurrency(n int) ExtractOption {
	return func(s *ExtractService) {
		if n > 0 {
			s.urlConcurrency = n
		}
	}
}

// WithSeparators 设置分块分隔符
func WithSeparators(separators []string) ExtractOption {
	return func(s *ExtractService) {
		if len(separators) > 0 {
			s.separators = separators
		}
	}
}

// NewExtractService 创建提取服务
func NewExtractService(
	pdf PDFTextExtractor,
	static webfetch.Fetcher,
	rendered webfetch.Fetcher,
	opts ...ExtractOption,
) *ExtractService {
	srv := &ExtractService{
		pdf:            pdf,
		static:         static,
		rendered:       rendered,
		separators:     document.DefaultSeparators,
		urlConcurrency: 1,
		logger:         logrus.New(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// PDFToText 提取PDF全文
// 元数据默认source为upload，调用方提供的source优先
func (s *ExtractService) PDFToText(ctx context.Context, data []byte, meta map[string]any) (models.Document, error) {
	if len(data) == 0 {
		return models.Document{}, models.NewInputError("No file provided", nil)
	}

	start := time.Now()
	result, err := s.pdf.Extract(ctx, data)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"bytes": len(data),
			"error": err.Error(),
		}).Warn("PDF extraction failed")
		return models.Document{}, err
	}
	s.metrics.ObservePDF(result.Pages, result.OCRPages, result.OCRFailures)

	docMeta := models.CloneMeta(meta)
	if _, ok := docMeta[models.MetaSource]; !ok {
		docMeta[models.MetaSource] = models.DefaultUploadSource
	}

	s.logger.WithFields(logrus.Fields{
		"source":       docMeta[models.MetaSource],
		"pages":        result.Pages,
		"ocr_pages":    result.OCRPages,
		"ocr_failures": result.OCRFailures,
		"duration":     time.Since(start).String(),
	}).Info("PDF extracted")

	return models.NewDocument(result.Text, docMeta), nil
}

// URLsToDocuments 抓取多个URL并转换为文档
// 单个URL失败只记录在Errors中，全部失败时返回FetchError
func (s *ExtractService) URLsToDocuments(ctx context.Context, urls []string, opts URLOptions) (*URLResult, error) {
	targets := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			targets = append(targets, u)
		}
	}
	if len(targets) == 0 {
		return nil, models.NewInputError("Missing 'url' or 'urls'", models.ErrNoURLs)
	}

	splitter, err := s.newSplitter(opts.ChunkOptions)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		docs []models.Document
		err  error
	}
	outcomes := make([]outcome, len(targets))

	var g errgroup.Group
	g.SetLimit(s.urlConcurrency)
	for i, u := range targets {
		i, u := i, u
		g.Go(func() error {
			docs, err := s.processURL(ctx, u, opts, splitter)
			outcomes[i] = outcome{docs: docs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &URLResult{Documents: []models.Document{}}
	var failures []error
	for i, o := range outcomes {
		if o.err != nil {
			s.logger.WithFields(logrus.Fields{
				"source": targets[i],
				"error":  o.err.Error(),
			}).Warn("URL processing failed")
			failures = append(failures, o.err)
			result.Errors = append(result.Errors, models.URLError{Source: targets[i], Error: publicMessage(o.err)})
			continue
		}
		result.Documents = append(result.Documents, o.docs...)
	}

	if len(failures) == len(targets) {
		if len(failures) == 1 {
			return nil, failures[0]
		}
		return nil, models.NewFetchError(
			fmt.Sprintf("all %d urls failed", len(targets)),
			errors.Join(failures...),
		)
	}

	return result, nil
}

// HTMLToDocuments 将调用方提供的HTML转换为文档，元数据原样保留
func (s *ExtractService) HTMLToDocuments(ctx context.Context, html string, meta map[string]any, opts ChunkOptions) ([]models.Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, models.NewInputError("Missing 'html'", models.ErrEmptyHTML)
	}

	splitter, err := s.newSplitter(opts)
	if err != nil {
		return nil, err
	}

	text := document.HTMLToText(html)
	base := models.NewDocument(text, meta)
	if splitter == nil {
		return []models.Document{base}, nil
	}
	return chunkDocument(base, splitter)
}

// processURL 单个URL：抓取策略 -> 清理 -> 规范化 -> 可选分块
func (s *ExtractService) processURL(ctx context.Context, url string, opts URLOptions, splitter document.Splitter) ([]models.Document, error) {
	text, title, err := s.fetchText(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	if text == "" {
		s.logger.WithField("source", url).Info("URL produced no text")
		return nil, nil
	}

	meta := map[string]any{models.MetaSource: url}
	if title != "" {
		meta[models.MetaTitle] = title
	}

	base := models.NewDocument(text, meta)
	if splitter == nil {
		return []models.Document{base}, nil
	}
	return chunkDocument(base, splitter)
}

// fetchText 按选择策略抓取并返回规范化文本和标题
// js=true时只使用渲染抓取；否则先静态抓取，失败或文本过短时渲染一次并覆盖结果
func (s *ExtractService) fetchText(ctx context.Context, url string, opts URLOptions) (string, string, error) {
	fetchOpts := webfetch.Options{WaitSelector: opts.WaitSelector}

	if opts.ForceRender {
		return s.renderText(ctx, url, fetchOpts)
	}

	res, err := s.static.Fetch(ctx, url, fetchOpts)
	s.metrics.ObserveFetch(webfetch.StrategyStatic, err)

	var text, title string
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"source": url,
			"error":  err.Error(),
		}).Warn("Static fetch failed, falling back to rendered fetch")
	} else {
		text = staticText(res.HTML)
		title = res.Title
	}

	if err == nil && utf8.RuneCountInString(text) >= opts.FallbackThreshold {
		return text, title, nil
	}

	if err == nil {
		s.logger.WithFields(logrus.Fields{
			"source":    url,
			"length":    utf8.RuneCountInString(text),
			"threshold": opts.FallbackThreshold,
		}).Info("Static text too short, falling back to rendered fetch")
	}
	s.metrics.ObserveFallback()
	return s.renderText(ctx, url, fetchOpts)
}

func (s *ExtractService) renderText(ctx context.Context, url string, opts webfetch.Options) (string, string, error) {
	res, err := s.rendered.Fetch(ctx, url, opts)
	s.metrics.ObserveFetch(webfetch.StrategyRendered, err)
	if err != nil {
		return "", "", err
	}
	return document.HTMLToText(res.HTML), res.Title, nil
}

// newSplitter 不分块时返回nil；参数无效时在抓取之前返回ConfigError
func (s *ExtractService) newSplitter(opts ChunkOptions) (document.Splitter, error) {
	if !opts.Split {
		return nil, nil
	}
	splitter, err := document.NewTextSplitter(document.SplitterConfig{
		ChunkSize:    opts.ChunkSize,
		ChunkOverlap: opts.ChunkOverlap,
		Separators:   s.separators,
	})
	if err != nil {
		return nil, err
	}
	return splitter, nil
}

// staticText 静态内容不像HTML时按纯文本处理
func staticText(body string) string {
	if document.LooksLikeHTML(body) {
		return document.HTMLToText(body)
	}
	return document.Normalize(body)
}

// chunkDocument 每个分块复制基础元数据，chunk_index取自分块序号
func chunkDocument(base models.Document, splitter document.Splitter) ([]models.Document, error) {
	chunks, err := splitter.Split(base.PageContent)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, base.WithChunkIndex(c.Text, c.Index))
	}
	return docs, nil
}

// publicMessage 返回可以暴露给客户端的错误信息
func publicMessage(err error) string {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "internal error"
}
