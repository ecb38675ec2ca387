package webfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/fyerfyer/doc-extract-service/internal/document"
	"github.com/fyerfyer/doc-extract-service/internal/models"
)

// StaticConfig 静态抓取配置
type StaticConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int // 响应体大小上限
}

// StaticFetcher 不执行脚本，直接GET页面内容
type StaticFetcher struct {
	client *resty.Client
	logger *logrus.Logger
}

// StaticOption 静态抓取器配置选项
type StaticOption func(*StaticFetcher)

// WithStaticLogger 设置日志记录器
func WithStaticLogger(logger *logrus.Logger) StaticOption {
	return func(f *StaticFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithRestyClient 替换底层HTTP客户端，主要用于测试
func WithRestyClient(client *resty.Client) StaticOption {
	return func(f *StaticFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewStaticFetcher 创建静态抓取器
func NewStaticFetcher(cfg StaticConfig, opts ...StaticOption) *StaticFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultStaticTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects)).
		SetResponseBodyLimit(cfg.MaxBodyBytes)

	f := &StaticFetcher{
		client: client,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch 抓取页面原始内容，非2xx状态码视为失败
func (f *StaticFetcher) Fetch(ctx context.Context, url string, _ Options) (*FetchResult, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, models.NewFetchError(fmt.Sprintf("failed to fetch %s: response body too large", url), err)
		}
		return nil, models.NewFetchError(fmt.Sprintf("failed to fetch %s", url), err)
	}
	if !resp.IsSuccess() {
		return nil, models.NewFetchError(
			fmt.Sprintf("failed to fetch %s: status %d", url, resp.StatusCode()),
			fmt.Errorf("unexpected status %s", resp.Status()),
		)
	}

	body, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, models.NewFetchError(fmt.Sprintf("failed to decode %s", url), err)
	}
	result := &FetchResult{HTML: body, Strategy: StrategyStatic}
	if document.LooksLikeHTML(body) {
		result.Title = document.ExtractTitle(body)
	}

	f.logger.WithFields(logrus.Fields{
		"url":     url,
		"status":  resp.StatusCode(),
		"bytes":   len(body),
		"latency": resp.Time().String(),
	}).Debug("Static fetch finished")

	return result, nil
}

// decodeBody 按Content-Type和<meta charset>把非UTF-8内容转码为UTF-8
func decodeBody(data []byte, contentType string) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("transcode from %s: %w", name, err)
	}
	return string(decoded), nil
}
