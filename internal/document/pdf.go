package document

import (
	"bytes"
	"context"
	"image"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-extract-service/internal/models"
)

const (
	// DefaultOCRLanguages 默认OCR语言（泰语+英语）
	DefaultOCRLanguages = "tha+eng"
	// DefaultDPI 栅格化分辨率
	DefaultDPI = 300

	// pdfHeaderWindow 文件头前允许的垃圾字节范围
	pdfHeaderWindow = 1024
)

// PageSource 按页访问PDF的接口
type PageSource interface {
	NumPage() int
	Text(page int) (string, error)
	ImageDPI(page int, dpi float64) (*image.RGBA, error)
	Close() error
}

// Opener 从字节打开PDF
type Opener func(data []byte) (PageSource, error)

// OpenMuPDF 使用MuPDF打开PDF
func OpenMuPDF(data []byte) (PageSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PDFResult PDF提取结果
type PDFResult struct {
	Text        string // 所有页的文本，按页序直接拼接
	Pages       int    // 总页数
	OCRPages    int    // 执行了OCR的页数
	OCRFailures int    // OCR失败的页数
}

// PDFExtractor PDF逐页文本提取器
// 优先使用文本层，没有文本层的页面单独栅格化后做OCR
type PDFExtractor struct {
	ocr       OCREngine      // OCR引擎
	open      Opener         // PDF打开方式
	languages string         // OCR语言
	dpi       float64        // 栅格化分辨率
	logger    *logrus.Logger // 日志记录器
}

// PDFOption PDF提取器配置选项
type PDFOption func(*PDFExtractor)

// WithOCRLanguages 设置OCR语言
func WithOCRLanguages(languages string) PDFOption {
	return func(p *PDFExtractor) {
		if languages != "" {
			p.languages = languages
		}
	}
}

// WithDPI 设置栅格化分辨率
func WithDPI(dpi int) PDFOption {
	return func(p *PDFExtractor) {
		if dpi > 0 {
			p.dpi = float64(dpi)
		}
	}
}

// WithOpener 设置PDF打开方式
func WithOpener(open Opener) PDFOption {
	return func(p *PDFExtractor) {
		if open != nil {
			p.open = open
		}
	}
}

// WithPDFLogger 设置日志记录器
func WithPDFLogger(logger *logrus.Logger) PDFOption {
	return func(p *PDFExtractor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPDFExtractor 创建PDF提取器
func NewPDFExtractor(ocr OCREngine, opts ...PDFOption) *PDFExtractor {
	p := &PDFExtractor{
		ocr:       ocr,
		open:      OpenMuPDF,
		languages: DefaultOCRLanguages,
		dpi:       DefaultDPI,
		logger:    logrus.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract 提取PDF全部文本
// 内容不是PDF或无法打开时返回ExtractionError；单页OCR失败只会让该页为空
func (p *PDFExtractor) Extract(ctx context.Context, data []byte) (*PDFResult, error) {
	if !looksLikePDF(data) {
		return nil, models.NewExtractionError("file is not a valid PDF", models.ErrNotPDF)
	}

	doc, err := p.open(data)
	if err != nil {
		return nil, models.NewExtractionError("failed to open PDF", err)
	}
	defer doc.Close()

	result := &PDFResult{Pages: doc.NumPage()}
	var b strings.Builder

	for i := 0; i < result.Pages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			p.logger.WithFields(logrus.Fields{
				"page":  i,
				"error": err.Error(),
			}).Warn("Failed to read text layer, falling back to OCR")
			text = ""
		}

		if strings.TrimSpace(text) != "" {
			b.WriteString(text)
			continue
		}

		// 只对缺少文本层的页面做OCR
		result.OCRPages++
		ocrText, err := p.ocrPage(ctx, doc, i)
		if err != nil {
			result.OCRFailures++
			p.logger.WithFields(logrus.Fields{
				"page":  i,
				"error": err.Error(),
			}).Warn("OCR failed for page, continuing with empty text")
			continue
		}
		b.WriteString(ocrText)
	}

	result.Text = b.String()

	p.logger.WithFields(logrus.Fields{
		"pages":        result.Pages,
		"ocr_pages":    result.OCRPages,
		"ocr_failures": result.OCRFailures,
	}).Debug("PDF extraction finished")

	return result, nil
}

// ocrPage 栅格化单页并识别
func (p *PDFExtractor) ocrPage(ctx context.Context, doc PageSource, page int) (string, error) {
	if p.ocr == nil {
		return "", models.NewExtractionError("OCR engine is not configured", nil)
	}
	img, err := doc.ImageDPI(page, p.dpi)
	if err != nil {
		return "", models.NewExtractionError("failed to rasterize page", err)
	}
	text, err := p.ocr.Recognize(ctx, img, p.languages)
	if err != nil {
		return "", models.NewExtractionError("OCR engine failed", err)
	}
	return text, nil
}

// looksLikePDF 快速排除明显不是PDF的内容，最终由MuPDF判断
// 允许%PDF-前面有BOM或其他前导字节
func looksLikePDF(data []byte) bool {
	if mimetype.Detect(data).Is("application/pdf") {
		return true
	}
	head := data
	if len(head) > pdfHeaderWindow {
		head = head[:pdfHeaderWindow]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}
