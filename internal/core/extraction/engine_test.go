package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

// mockOCR implements core.OCREngine.
type mockOCR struct {
	texts map[string]string
	err   error
	calls []string
	langs []string
}

func (m *mockOCR) Recognize(ctx context.Context, imagePath, lang string) (string, error) {
	m.calls = append(m.calls, imagePath)
	m.langs = append(m.langs, lang)
	if m.err != nil {
		return "", m.err
	}
	if t, ok := m.texts[imagePath]; ok {
		return t, nil
	}
	return "texto reconocido", nil
}

// mockRasterizer implements core.Rasterizer.
type mockRasterizer struct {
	pages []string
	err   error
	dpi   int
}

func (m *mockRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]string, error) {
	m.dpi = dpi
	return m.pages, m.err
}

func TestExtract_UnsupportedMimeIsInputError(t *testing.T) {
	e := NewEngine(&mockOCR{}, &mockRasterizer{}, "spa", 300)

	_, err := e.Extract(context.Background(), "/tmp/f.docx", "application/msword")
	require.Error(t, err)
	assert.Equal(t, core.KindInput, core.KindOf(err))
}

func TestExtract_ImageGoesStraightToOCR(t *testing.T) {
	ocr := &mockOCR{}
	e := NewEngine(ocr, &mockRasterizer{}, "spa", 300)

	text, err := e.Extract(context.Background(), "/tmp/escaneo.jpg", MimeJPEG)
	require.NoError(t, err)
	assert.Equal(t, "texto reconocido", text)
	require.Len(t, ocr.calls, 1)
	assert.Equal(t, "spa", ocr.langs[0])
}

func TestExtract_ScannedPDFFallsBackToOCRInPageOrder(t *testing.T) {
	// An unreadable (non-PDF) file forces the digital pass to fail, which
	// must route to the OCR fallback rather than erroring out.
	dir := t.TempDir()
	path := filepath.Join(dir, "escaneado.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a real pdf"), 0o644))

	pageDir := t.TempDir()
	p1 := filepath.Join(pageDir, "page-1.jpg")
	p2 := filepath.Join(pageDir, "page-2.jpg")
	ocr := &mockOCR{texts: map[string]string{p1: "primera página", p2: "segunda página"}}
	ras := &mockRasterizer{pages: []string{p1, p2}}
	e := NewEngine(ocr, ras, "spa", 300)

	text, err := e.Extract(context.Background(), path, MimePDF)
	require.NoError(t, err)
	assert.Equal(t, "primera página\nsegunda página\n", text)
	assert.Equal(t, 300, ras.dpi)
	assert.Equal(t, []string{p1, p2}, ocr.calls)
}

func TestExtract_OCRFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roto.pdf")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))

	ras := &mockRasterizer{err: errors.New("pdftoppm not installed")}
	e := NewEngine(&mockOCR{}, ras, "spa", 300)

	_, err := e.Extract(context.Background(), path, MimePDF)
	require.Error(t, err)
	assert.Equal(t, core.KindTransient, core.KindOf(err))
}

func TestPageCount_NonPDFIsZero(t *testing.T) {
	e := NewEngine(&mockOCR{}, &mockRasterizer{}, "spa", 300)
	assert.Equal(t, 0, e.PageCount("/tmp/escaneo.jpg", MimeJPEG))
	assert.Equal(t, 0, e.PageCount("/tmp/no-existe.pdf", MimePDF))
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(&mockOCR{}, &mockRasterizer{}, "", 0)
	assert.Equal(t, "spa", e.lang)
	assert.Equal(t, 300, e.dpi)
}
