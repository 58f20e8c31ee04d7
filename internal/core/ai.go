package core

import (
	"context"

	"github.com/ugel-ilo/sgd-backend/internal/models"
)

// EmbeddingProvider turns text into fixed-dimension vectors. Document and
// query embeddings carry distinct intent hints to the model and must not be
// treated as interchangeable.
type EmbeddingProvider interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LLMProvider generates text from a prompt.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OCREngine recognizes text in a rasterized page or photo.
type OCREngine interface {
	Recognize(ctx context.Context, imagePath, lang string) (string, error)
}

// Rasterizer renders the pages of a PDF to image files at the given DPI,
// returning the image paths in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([]string, error)
}

// TextExtractor extracts the raw text of a stored file.
type TextExtractor interface {
	Extract(ctx context.Context, path, contentType string) (string, error)
	// PageCount reports the number of pages, or 0 when not applicable.
	PageCount(path, contentType string) int
}

// MetadataExtractor derives structured metadata from document text.
type MetadataExtractor interface {
	Extract(ctx context.Context, text string) (*models.DocumentMetadata, error)
}
