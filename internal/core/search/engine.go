// Package search ranks completed documents against a natural-language query
// by cosine distance between the query embedding and fragment embeddings.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

const (
	// minQueryLen and maxQueryLen bound the query in runes.
	minQueryLen = 3
	maxQueryLen = 500

	// candidateLimit caps the nearest-neighbour scan; documents beyond the
	// 50 closest fragments are not considered.
	candidateLimit = 50

	// maxDistance filters out candidates whose best fragment is too far
	// from the query to be relevant (cosine distance, 0..2).
	maxDistance = 1.0

	defaultPageSize = 10
	maxPageSize     = 50
)

type Engine struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
}

func NewEngine(db core.DbClient, embedder core.EmbeddingProvider) *Engine {
	return &Engine{db: db, embedder: embedder}
}

// Search embeds the query, scans for the nearest fragments, keeps each
// document's best distance, filters by relevance threshold and metadata,
// and returns one page sorted by ascending distance.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	if req == nil {
		return nil, core.InputError("nil search request")
	}
	qLen := len([]rune(req.Query))
	if qLen < minQueryLen || qLen > maxQueryLen {
		return nil, core.InputError("query length %d outside [%d, %d]", qLen, minQueryLen, maxQueryLen)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	embedding, err := e.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := e.db.NearestFragments(ctx, embedding, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("nearest fragments: %w", err)
	}

	best := bestDistances(matches)
	if len(best) == 0 {
		return emptyResponse(page), nil
	}

	ids := make([]string, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	docs, err := e.db.GetDocumentsByIDs(ctx, ids, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	results := make([]models.SearchResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, models.SearchResult{
			Document:       doc,
			RelevanceScore: best[doc.ID],
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore < results[j].RelevanceScore
	})

	total := len(results)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &models.SearchResponse{
		Results:    results[start:end],
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// bestDistances collapses fragment matches to the minimum distance per
// document, dropping documents past the relevance threshold.
func bestDistances(matches []core.FragmentMatch) map[string]float64 {
	best := make(map[string]float64, len(matches))
	for _, m := range matches {
		if m.Distance > maxDistance {
			continue
		}
		if d, ok := best[m.DocumentID]; !ok || m.Distance < d {
			best[m.DocumentID] = m.Distance
		}
	}
	return best
}

func emptyResponse(page int) *models.SearchResponse {
	return &models.SearchResponse{
		Results:    []models.SearchResult{},
		Total:      0,
		Page:       page,
		TotalPages: 0,
	}
}
