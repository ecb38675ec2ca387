package webfetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-extract-service/internal/models"
)

const scrollScript = `window.scrollBy(0, document.body ? document.body.scrollHeight : 0); window.scrollY`

// RenderConfig 无头浏览器渲染配置
type RenderConfig struct {
	NavigationTimeout time.Duration // 导航及等待网络空闲的超时
	ScrollInterval    time.Duration // 滚动间隔
	SettleWindow      time.Duration // 滚动持续时间
	UserAgent         string
	ChromePath        string // 为空时由chromedp自动查找
}

// RenderedFetcher 在无头Chrome中加载页面，执行脚本后返回渲染结果
// 每次调用启动独立的浏览器，调用结束即关闭
type RenderedFetcher struct {
	cfg    RenderConfig
	logger *logrus.Logger
}

// RenderOption 渲染抓取器配置选项
type RenderOption func(*RenderedFetcher)

// WithRenderLogger 设置日志记录器
func WithRenderLogger(logger *logrus.Logger) RenderOption {
	return func(f *RenderedFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewRenderedFetcher 创建渲染抓取器
func NewRenderedFetcher(cfg RenderConfig, opts ...RenderOption) *RenderedFetcher {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = DefaultNavigationTimeout
	}
	if cfg.ScrollInterval <= 0 {
		cfg.ScrollInterval = DefaultScrollInterval
	}
	if cfg.SettleWindow <= 0 {
		cfg.SettleWindow = DefaultSettleWindow
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	f := &RenderedFetcher{
		cfg:    cfg,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// browserSession 一次渲染独占的浏览器
type browserSession struct {
	ctx     context.Context
	release func()
	once    sync.Once
}

// Release 关闭浏览器，可重复调用
func (s *browserSession) Release() {
	s.once.Do(s.release)
}

// acquireBrowser 启动无头浏览器并打开一个空白标签页
func (f *RenderedFetcher) acquireBrowser(parent context.Context) (*browserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.UserAgent(f.cfg.UserAgent),
	)
	if f.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	session := &browserSession{
		ctx: browserCtx,
		release: func() {
			browserCancel()
			allocCancel()
		},
	}

	// 空的Run会真正启动浏览器
	if err := chromedp.Run(browserCtx); err != nil {
		session.Release()
		return nil, err
	}
	return session, nil
}

// Fetch 渲染页面并返回完整HTML与标题
// 等待选择器超时不会导致失败，导航失败或超时返回FetchError
func (f *RenderedFetcher) Fetch(ctx context.Context, url string, opts Options) (*FetchResult, error) {
	start := time.Now()

	session, err := f.acquireBrowser(ctx)
	if err != nil {
		return nil, models.NewFetchError("failed to launch headless browser", err)
	}
	defer session.Release()

	if err := f.navigate(session.ctx, url); err != nil {
		return nil, models.NewFetchError(fmt.Sprintf("failed to render %s", url), err)
	}

	f.scroll(session.ctx)

	if opts.WaitSelector != "" {
		f.waitSelector(session.ctx, opts.WaitSelector)
	}

	var html, title string
	if err := chromedp.Run(session.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, models.NewFetchError(fmt.Sprintf("failed to capture rendered page %s", url), err)
	}
	if err := chromedp.Run(session.ctx, chromedp.Title(&title)); err != nil {
		title = ""
	}

	f.logger.WithFields(logrus.Fields{
		"url":     url,
		"bytes":   len(html),
		"latency": time.Since(start).String(),
	}).Debug("Rendered fetch finished")

	return &FetchResult{HTML: html, Title: title, Strategy: StrategyRendered}, nil
}

// navigate 打开页面并等待主框架网络空闲，整体受导航超时约束
func (f *RenderedFetcher) navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, f.cfg.NavigationTimeout)
	defer cancel()

	var tree *page.FrameTree
	if err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			tree, err = page.GetFrameTree().Do(ctx)
			return err
		}),
	); err != nil {
		return err
	}

	watcher := newIdleWatcher(tree.Frame.ID)
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok {
			watcher.observe(e)
		}
	})

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return err
	}

	select {
	case <-watcher.idle:
		return nil
	case <-navCtx.Done():
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s waiting for network idle", f.cfg.NavigationTimeout)
		}
		return navCtx.Err()
	}
}

// idleWatcher 只跟踪主框架的生命周期事件
// 主框架重新init之后的第一个networkIdle关闭idle
type idleWatcher struct {
	frameID cdp.FrameID
	started atomic.Bool
	once    sync.Once
	idle    chan struct{}
}

func newIdleWatcher(frameID cdp.FrameID) *idleWatcher {
	return &idleWatcher{frameID: frameID, idle: make(chan struct{})}
}

func (w *idleWatcher) observe(e *page.EventLifecycleEvent) {
	if e.FrameID != w.frameID {
		return
	}
	switch e.Name {
	case "init":
		w.started.Store(true)
	case "networkIdle":
		if w.started.Load() {
			w.once.Do(func() { close(w.idle) })
		}
	}
}

// scroll 在稳定窗口内反复滚动到底部以触发懒加载
func (f *RenderedFetcher) scroll(ctx context.Context) {
	deadline := time.Now().Add(f.cfg.SettleWindow)
	for time.Now().Before(deadline) {
		var offset float64
		if err := chromedp.Run(ctx,
			chromedp.Evaluate(scrollScript, &offset),
			chromedp.Sleep(f.cfg.ScrollInterval),
		); err != nil {
			f.logger.WithField("error", err.Error()).Debug("Scroll step failed, stopping scroll loop")
			return
		}
	}
}

// waitSelector 尽力等待选择器可见，超时被忽略
func (f *RenderedFetcher) waitSelector(ctx context.Context, selector string) {
	waitCtx, cancel := context.WithTimeout(ctx, f.cfg.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		f.logger.WithFields(logrus.Fields{
			"selector": selector,
			"error":    err.Error(),
		}).Debug("Wait selector not satisfied, using current content")
	}
}
