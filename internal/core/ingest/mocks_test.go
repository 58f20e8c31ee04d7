package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

type mockDB struct {
	mu       sync.Mutex
	created  []models.Document
	commits  map[string][]models.Fragment
	entries  []models.AuditEntry
	errored  map[string]string
	createFn func(doc *models.Document) error
	commitFn func(docID string) error
}

func newMockDB() *mockDB {
	return &mockDB{
		commits: map[string][]models.Fragment{},
		errored: map[string]string{},
	}
}

func (m *mockDB) CreateDocument(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFn != nil {
		if err := m.createFn(doc); err != nil {
			return err
		}
	}
	m.created = append(m.created, *doc)
	return nil
}

func (m *mockDB) CommitIngestion(ctx context.Context, docID string, fragments []models.Fragment, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitFn != nil {
		if err := m.commitFn(docID); err != nil {
			return err
		}
	}
	m.commits[docID] = fragments
	if entry != nil {
		m.entries = append(m.entries, *entry)
	}
	return nil
}

func (m *mockDB) MarkDocumentError(ctx context.Context, docID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errored[docID] = message
	return nil
}

func (m *mockDB) GetDocumentByID(context.Context, string) (*models.Document, error) {
	return nil, nil
}

func (m *mockDB) ListDocuments(context.Context, int, int) ([]models.Document, int, error) {
	return nil, 0, nil
}

func (m *mockDB) UpdateDocumentMetadata(context.Context, string, *models.DocumentUpdate, *models.AuditEntry) (*models.Document, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDB) DeleteDocument(context.Context, string, *models.AuditEntry) error {
	return errors.New("not implemented")
}

func (m *mockDB) NearestFragments(context.Context, []float32, int) ([]core.FragmentMatch, error) {
	return nil, nil
}

func (m *mockDB) GetDocumentsByIDs(context.Context, []string, *models.SearchFilters) ([]models.Document, error) {
	return nil, nil
}

func (m *mockDB) DocumentAuditHistory(context.Context, string, int, int) (*models.AuditHistory, error) {
	return nil, nil
}

func (m *mockDB) AuditHistory(context.Context, core.AuditQuery) (*models.AuditHistory, error) {
	return nil, nil
}

func (m *mockDB) Close() error { return nil }

type mockObject struct {
	mu       sync.Mutex
	uploads  []string
	deletes  []string
	uploadFn func(key string) error
}

func (m *mockObject) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadFn != nil {
		if err := m.uploadFn(key); err != nil {
			return "", err
		}
	}
	m.uploads = append(m.uploads, key)
	return "https://" + bucket + ".s3.us-east-2.amazonaws.com/" + key, nil
}

func (m *mockObject) DeleteFile(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	return nil
}

func (m *mockObject) GetObjectReader(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type mockExtractor struct {
	text  string
	pages int
	err   error
}

func (m *mockExtractor) Extract(context.Context, string, string) (string, error) {
	return m.text, m.err
}

func (m *mockExtractor) PageCount(string, string) int { return m.pages }

type mockMetadata struct {
	meta *models.DocumentMetadata
	err  error
}

func (m *mockMetadata) Extract(context.Context, string) (*models.DocumentMetadata, error) {
	return m.meta, m.err
}

type mockEmbedder struct {
	mu     sync.Mutex
	calls  int
	failAt int // 1-based call number that errors; 0 never fails
}

func (m *mockEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAt > 0 && m.calls >= m.failAt {
		return nil, errors.New("embedding backend unavailable")
	}
	v := make([]float32, 4)
	v[0] = float32(m.calls)
	return v, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return m.EmbedDocument(ctx, text)
}

type progressTick struct {
	progress int
	stage    string
}

type mockJobStore struct {
	mu        sync.Mutex
	ticks     []progressTick
	completed []string
	retries   []int
	failed    []string
	claimQ    []*models.Job
}

func (m *mockJobStore) Enqueue(ctx context.Context, job *models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimQ = append(m.claimQ, job)
	return nil
}

func (m *mockJobStore) Claim(ctx context.Context) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.claimQ) == 0 {
		return nil, nil
	}
	job := m.claimQ[0]
	m.claimQ = m.claimQ[1:]
	job.Attempts++
	return job, nil
}

func (m *mockJobStore) Complete(ctx context.Context, jobID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, jobID)
	return nil
}

func (m *mockJobStore) Retry(ctx context.Context, jobID, errMsg string, delaySeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries = append(m.retries, delaySeconds)
	return nil
}

func (m *mockJobStore) Fail(ctx context.Context, jobID, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, errMsg)
	return nil
}

func (m *mockJobStore) UpdateProgress(ctx context.Context, jobID string, progress int, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, progressTick{progress, stage})
}

func (m *mockJobStore) GetJob(context.Context, string) (*models.Job, error) {
	return nil, nil
}
