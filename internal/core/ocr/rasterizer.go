package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

// PopplerRasterizer renders PDF pages to images with pdftoppm. Tesseract
// cannot read PDFs directly, so scanned documents go through this first.
type PopplerRasterizer struct{}

func NewPopplerRasterizer() *PopplerRasterizer {
	return &PopplerRasterizer{}
}

// Rasterize converts every page of the PDF at pdfPath into a JPEG at the
// given DPI, returning the image paths in page order. The images live in a
// temp directory owned by the caller's job; the caller removes them.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "sgd-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create raster dir: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-jpeg", "-r", strconv.Itoa(dpi), pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, out)
	}

	pages, err := filepath.Glob(prefix + "*")
	if err != nil || len(pages) == 0 {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("pdftoppm produced no page images for %s", pdfPath)
	}

	sortPageFiles(pages)
	return pages, nil
}

var pageNumRe = regexp.MustCompile(`(\d+)\.jpg$`)

// sortPageFiles orders image paths by the page number pdftoppm embeds in
// the filename, so lexical quirks (page-10 before page-2) cannot reorder
// the document text.
func sortPageFiles(files []string) {
	sort.Slice(files, func(i, j int) bool {
		return pageNum(files[i]) < pageNum(files[j])
	})
}

func pageNum(path string) int {
	m := pageNumRe.FindStringSubmatch(filepath.Base(path))
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

var _ core.Rasterizer = (*PopplerRasterizer)(nil)
