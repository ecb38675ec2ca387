package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCREngine 图像文字识别接口
type OCREngine interface {
	// Recognize 识别图像中的文字，languages为tesseract语言串，例如"tha+eng"
	Recognize(ctx context.Context, img image.Image, languages string) (string, error)
}

// TesseractOCR 基于gosseract的OCR实现
// 每次调用创建独立的tesseract客户端，调用结束即释放
type TesseractOCR struct{}

// NewTesseractOCR 创建tesseract OCR引擎
func NewTesseractOCR() *TesseractOCR {
	return &TesseractOCR{}
}

// Recognize 对单页图像执行OCR
func (t *TesseractOCR) Recognize(ctx context.Context, img image.Image, languages string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if langs := SplitLanguages(languages); len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			return "", fmt.Errorf("failed to set OCR languages %q: %w", languages, err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to load page image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return text, nil
}

// SplitLanguages 将"tha+eng"拆分为["tha", "eng"]
func SplitLanguages(languages string) []string {
	var out []string
	for _, l := range strings.Split(languages, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
