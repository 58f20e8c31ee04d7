package ingest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

func testPool(orch *Orchestrator, jobs *mockJobStore) *Pool {
	return NewPool(orch, jobs, PoolConfig{
		NumWorkers:       1,
		MaxAttempts:      3,
		RetryBaseSeconds: 60,
	})
}

func TestRetryDelayGrowsFiveFold(t *testing.T) {
	p := testPool(nil, &mockJobStore{})
	assert.Equal(t, 60, p.retryDelay(1))
	assert.Equal(t, 300, p.retryDelay(2))
	assert.Equal(t, 900, p.retryDelay(3))
}

func TestHandleTransientErrorSchedulesRetry(t *testing.T) {
	jobs := &mockJobStore{}
	ext := &mockExtractor{err: assert.AnError}
	o := testOrchestrator(newMockDB(), &mockObject{}, ext, &mockMetadata{}, &mockEmbedder{}, jobs)
	p := testPool(o, jobs)

	tempPath := spoolUpload(t, "x")
	job := &models.Job{
		ID: "job-r", TempPath: tempPath,
		FileName: "doc.pdf", ContentType: "application/pdf",
		Attempts: 1,
	}
	p.handle(context.Background(), job)

	assert.Equal(t, []int{60}, jobs.retries)
	assert.Empty(t, jobs.failed)

	// The temp file is the retry's input and must survive.
	_, err := os.Stat(tempPath)
	assert.NoError(t, err)

	job.Attempts = 2
	p.handle(context.Background(), job)
	assert.Equal(t, []int{60, 300}, jobs.retries)
}

func TestPersistentFailureRunsFullBackoffSequence(t *testing.T) {
	jobs := &mockJobStore{}
	ext := &mockExtractor{err: assert.AnError}
	o := testOrchestrator(newMockDB(), &mockObject{}, ext, &mockMetadata{}, &mockEmbedder{}, jobs)
	p := testPool(o, jobs)

	job := &models.Job{
		ID: "job-seq", TempPath: spoolUpload(t, "x"),
		FileName: "doc.pdf", ContentType: "application/pdf",
	}

	// Each execution bumps Attempts the way a queue claim does. Three
	// retries are scheduled at 60s, 300s, 900s; the fourth execution is
	// terminal.
	for execution := 1; execution <= 4; execution++ {
		job.Attempts = execution
		p.handle(context.Background(), job)
	}

	assert.Equal(t, []int{60, 300, 900}, jobs.retries)
	require.Len(t, jobs.failed, 1)
	assert.Contains(t, jobs.failed[0], "gave up after 3 retries")
}

func TestHandleExhaustedAttemptsFails(t *testing.T) {
	jobs := &mockJobStore{}
	ext := &mockExtractor{err: assert.AnError}
	o := testOrchestrator(newMockDB(), &mockObject{}, ext, &mockMetadata{}, &mockEmbedder{}, jobs)
	p := testPool(o, jobs)

	tempPath := spoolUpload(t, "x")
	job := &models.Job{
		ID: "job-f", TempPath: tempPath,
		FileName: "doc.pdf", ContentType: "application/pdf",
		Attempts: 4,
	}
	p.handle(context.Background(), job)

	assert.Empty(t, jobs.retries)
	require.Len(t, jobs.failed, 1)
	assert.Contains(t, jobs.failed[0], "gave up after 3 retries")

	// Terminal state releases the spooled upload.
	_, err := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err))
}

func TestHandleInputErrorFailsWithoutRetry(t *testing.T) {
	jobs := &mockJobStore{}
	ext := &mockExtractor{err: core.InputError("unsupported content type")}
	o := testOrchestrator(newMockDB(), &mockObject{}, ext, &mockMetadata{}, &mockEmbedder{}, jobs)
	p := testPool(o, jobs)

	job := &models.Job{
		ID: "job-i", TempPath: spoolUpload(t, "x"),
		FileName: "doc.tiff", ContentType: "image/tiff",
		Attempts: 1,
	}
	p.handle(context.Background(), job)

	assert.Empty(t, jobs.retries)
	assert.Len(t, jobs.failed, 1)
}

func TestHandleSuccessCompletesAndCleansUp(t *testing.T) {
	jobs := &mockJobStore{}
	db := newMockDB()
	ext := &mockExtractor{text: strings.Repeat("resolucion directoral ", 10)}
	meta := &mockMetadata{meta: &models.DocumentMetadata{Category: "Resolución Directorial"}}
	o := testOrchestrator(db, &mockObject{}, ext, meta, &mockEmbedder{}, jobs)
	p := testPool(o, jobs)

	tempPath := spoolUpload(t, "x")
	job := &models.Job{
		ID: "job-ok", TempPath: tempPath,
		FileName: "rd.pdf", ContentType: "application/pdf",
		Attempts: 1,
	}
	p.handle(context.Background(), job)

	assert.Equal(t, []string{"job-ok"}, jobs.completed)
	assert.Empty(t, jobs.retries)
	assert.Empty(t, jobs.failed)

	_, err := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err))
}
