package document

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-extract-service/internal/models"
)

var pdfHeader = []byte("%PDF-1.4\n%fake\n")

// mockOCR OCR引擎模拟
type mockOCR struct {
	mock.Mock
}

func (m *mockOCR) Recognize(ctx context.Context, img image.Image, languages string) (string, error) {
	args := m.Called(ctx, img, languages)
	return args.String(0), args.Error(1)
}

// fakePages 内存中的PDF页面，空字符串表示没有文本层
type fakePages struct {
	pages   []string
	textErr map[int]error
	closed  bool
}

func (f *fakePages) NumPage() int { return len(f.pages) }

func (f *fakePages) Text(page int) (string, error) {
	if err, ok := f.textErr[page]; ok {
		return "", err
	}
	return f.pages[page], nil
}

// ImageDPI 返回宽度为page+1的图像，便于断言OCR的是哪一页
func (f *fakePages) ImageDPI(page int, dpi float64) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, page+1, 1)), nil
}

func (f *fakePages) Close() error {
	f.closed = true
	return nil
}

func openerFor(src *fakePages) Opener {
	return func([]byte) (PageSource, error) { return src, nil }
}

func pageImage(page int) interface{} {
	return mock.MatchedBy(func(img image.Image) bool {
		return img.Bounds().Dx() == page+1
	})
}

// TestPDFExtractAllTextPages 测试全部页面都有文本层时不调用OCR
func TestPDFExtractAllTextPages(t *testing.T) {
	ocr := new(mockOCR)
	src := &fakePages{pages: []string{"page one\n", "page two\n", "page three"}}
	extractor := NewPDFExtractor(ocr, WithOpener(openerFor(src)))

	result, err := extractor.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)

	assert.Equal(t, "page one\npage two\npage three", result.Text)
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 0, result.OCRPages)
	assert.True(t, src.closed, "PDF应当被关闭")
	ocr.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything, mock.Anything)
}

// TestPDFExtractOCRFallbackPerPage 测试只对缺少文本层的页面执行OCR
func TestPDFExtractOCRFallbackPerPage(t *testing.T) {
	ocr := new(mockOCR)
	ocr.On("Recognize", mock.Anything, pageImage(1), "tha+eng").Return("scanned\n", nil).Once()

	src := &fakePages{pages: []string{"first\n", "   \n", "third"}}
	extractor := NewPDFExtractor(ocr, WithOpener(openerFor(src)))

	result, err := extractor.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)

	assert.Equal(t, "first\nscanned\nthird", result.Text)
	assert.Equal(t, 1, result.OCRPages)
	assert.Equal(t, 0, result.OCRFailures)
	ocr.AssertExpectations(t)
	ocr.AssertNumberOfCalls(t, "Recognize", 1)
}

// TestPDFExtractOCRFailureContinues 测试单页OCR失败不影响其他页面
func TestPDFExtractOCRFailureContinues(t *testing.T) {
	ocr := new(mockOCR)
	ocr.On("Recognize", mock.Anything, pageImage(0), mock.Anything).Return("", errors.New("tesseract crashed")).Once()
	ocr.On("Recognize", mock.Anything, pageImage(2), mock.Anything).Return("recovered", nil).Once()

	src := &fakePages{pages: []string{"", "middle\n", ""}}
	extractor := NewPDFExtractor(ocr, WithOpener(openerFor(src)))

	result, err := extractor.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)

	assert.Equal(t, "middle\nrecovered", result.Text)
	assert.Equal(t, 2, result.OCRPages)
	assert.Equal(t, 1, result.OCRFailures)
	ocr.AssertExpectations(t)
}

// TestPDFExtractTextLayerError 测试读取文本层失败时按无文本层处理
func TestPDFExtractTextLayerError(t *testing.T) {
	ocr := new(mockOCR)
	ocr.On("Recognize", mock.Anything, pageImage(0), mock.Anything).Return("from ocr", nil).Once()

	src := &fakePages{
		pages:   []string{"ignored"},
		textErr: map[int]error{0: errors.New("broken stream")},
	}
	extractor := NewPDFExtractor(ocr, WithOpener(openerFor(src)))

	result, err := extractor.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, "from ocr", result.Text)
	ocr.AssertExpectations(t)
}

// TestPDFExtractLanguagesOption 测试OCR语言配置
func TestPDFExtractLanguagesOption(t *testing.T) {
	ocr := new(mockOCR)
	ocr.On("Recognize", mock.Anything, mock.Anything, "eng").Return("x", nil).Once()

	src := &fakePages{pages: []string{""}}
	extractor := NewPDFExtractor(ocr, WithOpener(openerFor(src)), WithOCRLanguages("eng"), WithDPI(150))

	_, err := extractor.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)
	ocr.AssertExpectations(t)
}

// TestPDFExtractInvalidInput 测试非PDF输入
func TestPDFExtractInvalidInput(t *testing.T) {
	extractor := NewPDFExtractor(new(mockOCR))

	t.Run("not a pdf", func(t *testing.T) {
		_, err := extractor.Extract(context.Background(), []byte("hello, this is plain text"))
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindExtraction))
		assert.ErrorIs(t, err, models.ErrNotPDF)
	})

	t.Run("empty bytes", func(t *testing.T) {
		_, err := extractor.Extract(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindExtraction))
	})

	t.Run("opener fails", func(t *testing.T) {
		cause := errors.New("corrupt xref")
		broken := NewPDFExtractor(new(mockOCR), WithOpener(func([]byte) (PageSource, error) {
			return nil, cause
		}))
		_, err := broken.Extract(context.Background(), pdfHeader)
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindExtraction))
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, models.ErrNotPDF)
	})

	t.Run("header past the window", func(t *testing.T) {
		data := append(bytes.Repeat([]byte("x"), pdfHeaderWindow), pdfHeader...)
		_, err := extractor.Extract(context.Background(), data)
		assert.ErrorIs(t, err, models.ErrNotPDF)
	})
}

// TestPDFExtractLeadingBytes 测试文件头前有BOM或垃圾字节时仍交给MuPDF打开
func TestPDFExtractLeadingBytes(t *testing.T) {
	inputs := map[string][]byte{
		"utf8 bom":     append([]byte("\xef\xbb\xbf"), pdfHeader...),
		"leading junk": append([]byte("garbage from the mail gateway\r\n"), pdfHeader...),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			src := &fakePages{pages: []string{"Page text"}}
			var opened []byte
			extractor := NewPDFExtractor(new(mockOCR), WithOpener(func(b []byte) (PageSource, error) {
				opened = b
				return src, nil
			}))

			result, err := extractor.Extract(context.Background(), data)
			require.NoError(t, err)
			assert.Equal(t, "Page text", result.Text)
			assert.Equal(t, data, opened, "应把原始字节交给MuPDF")
			assert.True(t, src.closed)
		})
	}
}

// TestPDFExtractWithMuPDF 使用gofpdf生成真实PDF，经MuPDF解析
func TestPDFExtractWithMuPDF(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.AddPage()
	pdf.Cell(40, 10, "Hello from page one")
	pdf.AddPage() // 空白页，没有文本层

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))

	ocr := new(mockOCR)
	ocr.On("Recognize", mock.Anything, mock.Anything, DefaultOCRLanguages).Return("blank page text", nil).Once()

	extractor := NewPDFExtractor(ocr, WithDPI(72))
	result, err := extractor.Extract(context.Background(), buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 1, result.OCRPages)
	assert.Contains(t, result.Text, "Hello from page one")
	assert.Contains(t, result.Text, "blank page text")
	ocr.AssertExpectations(t)
}
