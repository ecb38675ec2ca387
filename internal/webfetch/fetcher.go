package webfetch

import (
	"context"
	"time"
)

// 抓取策略名称
const (
	StrategyStatic   = "static"
	StrategyRendered = "rendered"
)

// 默认抓取参数
const (
	DefaultUserAgent         = "Mozilla/5.0 (compatible; doc-extract-service/1.0)"
	DefaultStaticTimeout     = 30 * time.Second
	DefaultMaxRedirects      = 10
	DefaultMaxBodyBytes      = 10 << 20
	DefaultNavigationTimeout = 20 * time.Second
	DefaultScrollInterval    = 250 * time.Millisecond
	DefaultSettleWindow      = 1200 * time.Millisecond
)

// FetchResult 单个URL的抓取结果
type FetchResult struct {
	HTML     string // 原始HTML，静态抓取时也可能是纯文本
	Title    string // 页面标题，可能为空
	Strategy string // 产生该结果的策略
}

// Options 单次抓取的调用参数
type Options struct {
	WaitSelector string // 渲染模式下等待出现的CSS选择器，可为空
}

// Fetcher 网页抓取接口
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (*FetchResult, error)
}

// FetcherFunc 将普通函数适配为Fetcher
type FetcherFunc func(ctx context.Context, url string, opts Options) (*FetchResult, error)

// Fetch 实现Fetcher接口
func (f FetcherFunc) Fetch(ctx context.Context, url string, opts Options) (*FetchResult, error) {
	return f(ctx, url, opts)
}
