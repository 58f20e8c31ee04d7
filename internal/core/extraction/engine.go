package extraction

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

// minTextThreshold is the minimum number of characters a digital PDF
// extraction must yield before it is trusted; below it the document is
// assumed scanned and goes through OCR.
const minTextThreshold = 50

// MIME types the engine accepts.
const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimeJPG  = "image/jpg"
)

// Engine extracts text with a hybrid strategy: direct digital extraction
// for PDFs, falling back to rasterization plus OCR when the digital layer
// is too thin; images are OCRed unconditionally.
type Engine struct {
	ocr        core.OCREngine
	rasterizer core.Rasterizer
	lang       string
	dpi        int
}

func NewEngine(ocr core.OCREngine, rasterizer core.Rasterizer, lang string, dpi int) *Engine {
	if lang == "" {
		lang = "spa"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &Engine{ocr: ocr, rasterizer: rasterizer, lang: lang, dpi: dpi}
}

// Extract returns the raw text of the file at path. An unsupported MIME
// type is a terminal input error, never retried.
func (e *Engine) Extract(ctx context.Context, path, contentType string) (string, error) {
	switch contentType {
	case MimePDF:
		return e.extractPDF(ctx, path)
	case MimeJPEG, MimeJPG:
		return e.ocr.Recognize(ctx, path, e.lang)
	default:
		return "", core.InputError("unsupported content type: %s", contentType)
	}
}

func (e *Engine) extractPDF(ctx context.Context, path string) (string, error) {
	text, err := digitalPDFText(path)
	if err != nil {
		log.Printf("extraction: digital pass failed for %s, falling back to OCR: %v", filepath.Base(path), err)
	} else if len(strings.TrimSpace(text)) >= minTextThreshold {
		return text, nil
	} else {
		log.Printf("extraction: insufficient digital text (%d chars) for %s, applying OCR",
			len(strings.TrimSpace(text)), filepath.Base(path))
	}
	return e.ocrPDF(ctx, path)
}

// digitalPDFText concatenates the text layer of every page.
func digitalPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plain text: %w", err)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(out), nil
}

// ocrPDF rasterizes each page at the configured DPI and recognizes them in
// order.
func (e *Engine) ocrPDF(ctx context.Context, path string) (string, error) {
	pages, err := e.rasterizer.Rasterize(ctx, path, e.dpi)
	if err != nil {
		return "", fmt.Errorf("rasterize pdf: %w", err)
	}
	if len(pages) > 0 {
		defer os.RemoveAll(filepath.Dir(pages[0]))
	}

	var b strings.Builder
	for i, page := range pages {
		pageText, err := e.ocr.Recognize(ctx, page, e.lang)
		if err != nil {
			return "", fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// PageCount reports the PDF page count, or 0 for non-PDF inputs and
// unreadable files.
func (e *Engine) PageCount(path, contentType string) int {
	if contentType != MimePDF {
		return 0
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	return r.NumPage()
}

var _ core.TextExtractor = (*Engine)(nil)
