// Package ingest runs the document processing pipeline: upload to object
// storage, text extraction, normalization, chunking, LLM metadata, embeddings
// and the final atomic commit that makes the document searchable.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/core/audit"
	"github.com/ugel-ilo/sgd-backend/internal/core/textproc"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

// Pipeline stage labels reported through job progress.
const (
	StageStorage  = "almacenamiento"
	StageExtract  = "extraccion"
	StageClean    = "limpieza"
	StageChunk    = "fragmentacion"
	StageMetadata = "metadatos"
	StageRegister = "registro"
	StageEmbed    = "embeddings"
	StageFinalize = "finalizacion"
)

// minExtractedChars is the floor below which a document is considered to
// have produced no usable text.
const minExtractedChars = 10

type Config struct {
	Bucket       string
	ChunkSize    int
	ChunkOverlap int
}

// Orchestrator drives one ingestion job through every pipeline stage. It is
// stateless between jobs and safe for concurrent use by multiple workers.
type Orchestrator struct {
	db       core.DbClient
	obj      core.ObjectClient
	extract  core.TextExtractor
	meta     core.MetadataExtractor
	embedder core.EmbeddingProvider
	jobs     core.JobStore
	cfg      Config
}

func NewOrchestrator(db core.DbClient, obj core.ObjectClient, extract core.TextExtractor,
	meta core.MetadataExtractor, embedder core.EmbeddingProvider, jobs core.JobStore, cfg Config) *Orchestrator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = textproc.DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = textproc.DefaultChunkOverlap
	}
	return &Orchestrator{
		db: db, obj: obj, extract: extract,
		meta: meta, embedder: embedder, jobs: jobs, cfg: cfg,
	}
}

// Process runs the pipeline for one claimed job and returns the document ID.
// The document ID is the job ID, so a retried job overwrites its own partial
// state instead of leaving orphan rows. The caller decides, from the error
// kind, whether to retry or fail the job.
func (o *Orchestrator) Process(ctx context.Context, job *models.Job) (string, error) {
	docID := job.ID

	docCreated := false
	if _, err := o.process(ctx, job, docID, &docCreated); err != nil {
		if docCreated {
			if dbErr := o.db.MarkDocumentError(ctx, docID, err.Error()); dbErr != nil {
				log.Printf("ingest: mark document %s error: %v", docID, dbErr)
			}
		}
		return docID, err
	}
	return docID, nil
}

func (o *Orchestrator) process(ctx context.Context, job *models.Job, docID string, docCreated *bool) (*models.Document, error) {
	// Stage 1: the original file goes to object storage first so nothing
	// is lost even if every later stage fails.
	o.jobs.UpdateProgress(ctx, job.ID, 10, StageStorage)

	info, err := os.Stat(job.TempPath)
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}

	objectName := docID + strings.ToLower(filepath.Ext(job.FileName))
	storageURL, err := o.uploadOriginal(ctx, job, objectName)
	if err != nil {
		return nil, fmt.Errorf("upload original: %w", err)
	}

	// Stage 2: hybrid text extraction (digital first, OCR fallback).
	o.jobs.UpdateProgress(ctx, job.ID, 20, StageExtract)
	rawText, err := o.extract.Extract(ctx, job.TempPath, job.ContentType)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	numPages := o.extract.PageCount(job.TempPath, job.ContentType)

	// Stage 3: normalization.
	o.jobs.UpdateProgress(ctx, job.ID, 30, StageClean)
	cleaned := textproc.Clean(rawText)
	if len([]rune(cleaned)) < minExtractedChars {
		// Too little text to index. Kept transient: a corrupt partial
		// upload or a flaky OCR run deserves another attempt.
		return nil, fmt.Errorf("document produced %d usable characters, need at least %d",
			len([]rune(cleaned)), minExtractedChars)
	}

	// Stage 4: chunking.
	o.jobs.UpdateProgress(ctx, job.ID, 40, StageChunk)
	chunks, err := textproc.Chunk(cleaned, o.cfg.ChunkSize, o.cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunk text: %w", err)
	}

	// Stage 5: LLM metadata.
	o.jobs.UpdateProgress(ctx, job.ID, 50, StageMetadata)
	meta, err := o.meta.Extract(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("extract metadata: %w", err)
	}

	// Stage 6: document row, visible to pollers as processing.
	o.jobs.UpdateProgress(ctx, job.ID, 60, StageRegister)
	doc := &models.Document{
		ID:            docID,
		FileName:      job.FileName,
		StorageURL:    storageURL,
		ObjectName:    objectName,
		Category:      &meta.Category,
		Topic:         meta.Topic,
		Date:          meta.Date,
		Entities:      meta.Entities,
		Summary:       meta.Summary,
		FileSizeBytes: info.Size(),
		ContentType:   job.ContentType,
	}
	if numPages > 0 {
		doc.NumPages = &numPages
	}
	if err := o.db.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	*docCreated = true

	// Stage 7: embeddings, 60 -> 90 as chunks complete.
	fragments := make([]models.Fragment, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := o.embedder.EmbedDocument(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed fragment %d: %w", i, err)
		}
		fragments = append(fragments, models.Fragment{
			DocumentID: docID,
			Position:   i,
			Text:       chunk,
			Embedding:  embedding,
		})
		o.jobs.UpdateProgress(ctx, job.ID, 60+(30*(i+1))/len(chunks), StageEmbed)
	}

	// Stage 8: atomic commit. Fragments, completed status and the CREATE
	// audit entry land together or not at all.
	o.jobs.UpdateProgress(ctx, job.ID, 95, StageFinalize)
	committed := *doc
	committed.Status = models.StatusCompleted
	entry := audit.NewCreate(docID, audit.Snapshot(&committed), audit.SystemUser)
	if err := o.db.CommitIngestion(ctx, docID, fragments, entry); err != nil {
		return nil, fmt.Errorf("commit ingestion: %w", err)
	}

	return doc, nil
}

func (o *Orchestrator) uploadOriginal(ctx context.Context, job *models.Job, objectName string) (string, error) {
	f, err := os.Open(job.TempPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return o.obj.UploadFile(ctx, o.cfg.Bucket, objectName, f, job.ContentType)
}
