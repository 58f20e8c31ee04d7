package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

type mockSearchDB struct {
	core.DbClient

	matches    []core.FragmentMatch
	docs       map[string]models.Document
	gotIDs     []string
	gotFilters *models.SearchFilters
}

func (m *mockSearchDB) NearestFragments(ctx context.Context, embedding []float32, limit int) ([]core.FragmentMatch, error) {
	if limit < len(m.matches) {
		return m.matches[:limit], nil
	}
	return m.matches, nil
}

func (m *mockSearchDB) GetDocumentsByIDs(ctx context.Context, ids []string, filters *models.SearchFilters) ([]models.Document, error) {
	m.gotIDs = ids
	m.gotFilters = filters
	var out []models.Document
	for _, id := range ids {
		if d, ok := m.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockQueryEmbedder struct {
	err   error
	calls int
}

func (m *mockQueryEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("document embedding not expected here")
}

func (m *mockQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func docFixture(id string) models.Document {
	return models.Document{ID: id, FileName: id + ".pdf", Status: models.StatusCompleted}
}

func TestSearchRanksByBestFragmentAndAppliesThreshold(t *testing.T) {
	db := &mockSearchDB{
		matches: []core.FragmentMatch{
			{DocumentID: "doc-b", Distance: 0.9},
			{DocumentID: "doc-a", Distance: 0.2},
			{DocumentID: "doc-a", Distance: 0.7},
			{DocumentID: "doc-c", Distance: 1.5}, // beyond threshold
		},
		docs: map[string]models.Document{
			"doc-a": docFixture("doc-a"),
			"doc-b": docFixture("doc-b"),
			"doc-c": docFixture("doc-c"),
		},
	}
	e := NewEngine(db, &mockQueryEmbedder{})

	resp, err := e.Search(context.Background(), &models.SearchRequest{Query: "licencias docentes"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "doc-a", resp.Results[0].Document.ID)
	assert.Equal(t, 0.2, resp.Results[0].RelevanceScore)
	assert.Equal(t, "doc-b", resp.Results[1].Document.ID)
	assert.Equal(t, 0.9, resp.Results[1].RelevanceScore)
	assert.Equal(t, 2, resp.Total)
	assert.NotContains(t, db.gotIDs, "doc-c")
}

func TestSearchQueryLengthValidation(t *testing.T) {
	e := NewEngine(&mockSearchDB{}, &mockQueryEmbedder{})

	for _, q := range []string{"", "ab", strings.Repeat("x", 501)} {
		_, err := e.Search(context.Background(), &models.SearchRequest{Query: q})
		require.Error(t, err)
		assert.Equal(t, core.KindInput, core.KindOf(err))
	}

	// 500 runes exactly is still valid.
	emb := &mockQueryEmbedder{}
	e = NewEngine(&mockSearchDB{}, emb)
	_, err := e.Search(context.Background(), &models.SearchRequest{Query: strings.Repeat("ñ", 500)})
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)
}

func TestSearchPagination(t *testing.T) {
	docs := make(map[string]models.Document)
	var matches []core.FragmentMatch
	for i := 0; i < 23; i++ {
		id := fmt.Sprintf("doc-%02d", i)
		docs[id] = docFixture(id)
		matches = append(matches, core.FragmentMatch{DocumentID: id, Distance: float64(i) / 100})
	}
	e := NewEngine(&mockSearchDB{matches: matches, docs: docs}, &mockQueryEmbedder{})

	resp, err := e.Search(context.Background(), &models.SearchRequest{
		Query: "actas de reunion", Page: 3, PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 23, resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, "doc-20", resp.Results[0].Document.ID)

	// A page past the end is empty, not an error.
	resp, err = e.Search(context.Background(), &models.SearchRequest{
		Query: "actas de reunion", Page: 9, PageSize: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchDefaultsAndClamping(t *testing.T) {
	e := NewEngine(&mockSearchDB{}, &mockQueryEmbedder{})

	resp, err := e.Search(context.Background(), &models.SearchRequest{Query: "memorandos", Page: -2, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)

	resp, err = e.Search(context.Background(), &models.SearchRequest{Query: "memorandos", PageSize: 5000})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchPassesFiltersThrough(t *testing.T) {
	cat := "Informe"
	db := &mockSearchDB{
		matches: []core.FragmentMatch{{DocumentID: "doc-a", Distance: 0.3}},
		docs:    map[string]models.Document{"doc-a": docFixture("doc-a")},
	}
	e := NewEngine(db, &mockQueryEmbedder{})

	_, err := e.Search(context.Background(), &models.SearchRequest{
		Query:   "informes anuales",
		Filters: &models.SearchFilters{Category: &cat},
	})
	require.NoError(t, err)
	require.NotNil(t, db.gotFilters)
	assert.Equal(t, "Informe", *db.gotFilters.Category)
}

func TestSearchEmbeddingFailure(t *testing.T) {
	e := NewEngine(&mockSearchDB{}, &mockQueryEmbedder{err: errors.New("quota exceeded")})

	_, err := e.Search(context.Background(), &models.SearchRequest{Query: "oficios"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed query")
}
