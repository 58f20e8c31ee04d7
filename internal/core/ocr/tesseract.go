package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

// TesseractEngine recognizes text in page images through the tesseract
// library. A fresh client per call keeps the cgo handle lifecycle simple;
// workers are recycled anyway to bound native memory growth.
type TesseractEngine struct{}

func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

func (e *TesseractEngine) Recognize(ctx context.Context, imagePath, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("tesseract set language %q: %w", lang, err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("tesseract set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return text, nil
}

var _ core.OCREngine = (*TesseractEngine)(nil)
