package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ugel-ilo/sgd-backend/internal/core"
)

// EmbedDim is the vector dimension of text-embedding-004.
const EmbedDim = 768

type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	dim       int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dim int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	if dim <= 0 {
		dim = EmbedDim
	}
	return &GeminiEmbedder{client: cl, modelName: modelName, dim: dim}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// EmbedDocument embeds text with the document-indexing task type.
func (g *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, genai.TaskTypeRetrievalDocument)
}

// EmbedQuery embeds text with the query-retrieval task type. The provider
// optimizes the two task types differently, so document and query vectors
// are not interchangeable.
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, genai.TaskTypeRetrievalQuery)
}

func (g *GeminiEmbedder) embed(ctx context.Context, text string, task genai.TaskType) ([]float32, error) {
	em := g.client.EmbeddingModel(g.modelName)
	em.TaskType = task

	var vec []float32
	err := withRetry(ctx, defaultBaseDelay, "gemini embed", func() error {
		resp, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return fmt.Errorf("gemini embed: %w", err)
		}
		if resp.Embedding == nil {
			return fmt.Errorf("gemini embed: empty response")
		}
		vec = resp.Embedding.Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(vec) != g.dim {
		return nil, fmt.Errorf("gemini embed: got %d dimensions, want %d", len(vec), g.dim)
	}
	return vec, nil
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
