package core

import (
	"context"
	"io"

	"github.com/ugel-ilo/sgd-backend/internal/models"
)

// DbClient defines all persistence operations the services need. It
// abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	// CreateDocument inserts a document row with status=processing.
	CreateDocument(ctx context.Context, doc *models.Document) error
	// CommitIngestion atomically inserts the fragments, flips the document
	// to status=completed and appends the CREATE audit entry. Nothing is
	// visible to search until this commits.
	CommitIngestion(ctx context.Context, docID string, fragments []models.Fragment, entry *models.AuditEntry) error
	// MarkDocumentError records a terminal ingestion failure.
	MarkDocumentError(ctx context.Context, docID, message string) error

	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, page, pageSize int) ([]models.Document, int, error)
	// UpdateDocumentMetadata applies a metadata-only update and appends the
	// UPDATE audit entry in the same transaction.
	UpdateDocumentMetadata(ctx context.Context, id string, update *models.DocumentUpdate, entry *models.AuditEntry) (*models.Document, error)
	// DeleteDocument appends the DELETE audit entry and removes the row in
	// one transaction; fragments and audit history go with it via cascade.
	DeleteDocument(ctx context.Context, id string, entry *models.AuditEntry) error

	// NearestFragments returns up to limit (documentID, cosine distance)
	// pairs over fragments of completed documents, closest first.
	NearestFragments(ctx context.Context, embedding []float32, limit int) ([]FragmentMatch, error)
	// GetDocumentsByIDs fetches completed documents by ID, restricted by the
	// optional metadata filters.
	GetDocumentsByIDs(ctx context.Context, ids []string, filters *models.SearchFilters) ([]models.Document, error)

	DocumentAuditHistory(ctx context.Context, docID string, page, pageSize int) (*models.AuditHistory, error)
	AuditHistory(ctx context.Context, q AuditQuery) (*models.AuditHistory, error)

	Close() error
}

// FragmentMatch is one row of a nearest-neighbour scan.
type FragmentMatch struct {
	DocumentID string
	Distance   float64
}

// AuditQuery filters the global audit history.
type AuditQuery struct {
	Action   string
	UserID   string
	DateFrom string
	DateTo   string
	Page     int
	PageSize int
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// JobStore is the durable ingestion queue. Claimed jobs are leased; a job
// whose lease expires before completion is redelivered to another worker.
type JobStore interface {
	Enqueue(ctx context.Context, job *models.Job) error
	// Claim leases the next runnable job, or returns nil when the queue is
	// empty.
	Claim(ctx context.Context) (*models.Job, error)
	Complete(ctx context.Context, jobID, documentID string) error
	// Retry reschedules a failed attempt after the given delay.
	Retry(ctx context.Context, jobID, errMsg string, delaySeconds int) error
	// Fail marks a job terminally failed.
	Fail(ctx context.Context, jobID, errMsg string) error
	// UpdateProgress is a fire-and-forget side-channel write; staleness or
	// loss does not affect final-state correctness.
	UpdateProgress(ctx context.Context, jobID string, progress int, stage string)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
}
