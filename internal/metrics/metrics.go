package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docextract"

// 页面提取方式
const (
	MethodNative = "native"
	MethodOCR    = "ocr"
)

// 抓取结果
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics 服务的Prometheus指标，使用独立的Registry
type Metrics struct {
	registry        *prometheus.Registry
	pdfPages        *prometheus.CounterVec
	ocrFailures     prometheus.Counter
	webFetches      *prometheus.CounterVec
	renderFallbacks prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pdfPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_pages_total",
			Help:      "PDF pages processed, by extraction method.",
		}, []string{"method"}),
		ocrFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_failures_total",
			Help:      "PDF pages whose rasterization or OCR failed.",
		}),
		webFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "web_fetch_total",
			Help:      "Web fetch attempts, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		renderFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_fallback_total",
			Help:      "Static fetches that fell back to a rendered fetch.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"method", "path", "status"}),
	}

	m.registry.MustRegister(
		m.pdfPages,
		m.ocrFailures,
		m.webFetches,
		m.renderFallbacks,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 返回底层Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回/metrics的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePDF 记录一次PDF提取的页面统计
func (m *Metrics) ObservePDF(pages, ocrPages, ocrFailures int) {
	if m == nil {
		return
	}
	m.pdfPages.WithLabelValues(MethodNative).Add(float64(pages - ocrPages))
	m.pdfPages.WithLabelValues(MethodOCR).Add(float64(ocrPages))
	m.ocrFailures.Add(float64(ocrFailures))
}

// ObserveFetch 记录一次网页抓取
func (m *Metrics) ObserveFetch(strategy string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.webFetches.WithLabelValues(strategy, outcome).Inc()
}

// ObserveFallback 记录一次渲染回退
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.renderFallbacks.Inc()
}

// ObserveRequest 记录HTTP请求耗时
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
