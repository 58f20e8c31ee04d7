package models

import (
	"time"
)

// Document status values. A document is searchable only once completed.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// AllowedCategories is the closed set of document categories. Anything the
// LLM returns outside this list is coerced to CategoryFallback.
var AllowedCategories = []string{
	"Oficio",
	"Oficio Múltiple",
	"Resolución Directorial",
	"Informe",
	"Solicitud",
	"Memorándum",
	"Acta",
	"Varios",
}

// CategoryFallback is the catch-all category.
const CategoryFallback = "Varios"

// Document represents a processed document with its system and LLM-derived
// metadata. LLM fields are pointers: absence is representable, never a
// partially-written value.
type Document struct {
	ID         string `db:"id" json:"id"`
	FileName   string `db:"filename" json:"filename"`
	StorageURL string `db:"storage_url" json:"storage_url"`
	ObjectName string `db:"object_name" json:"object_name"`

	// Metadata extracted by the LLM.
	Category *string  `db:"category" json:"category"`
	Topic    *string  `db:"topic" json:"topic"`
	Date     *string  `db:"doc_date" json:"doc_date"` // YYYY-MM-DD
	Entities []string `db:"entities" json:"entities"`
	Summary  *string  `db:"summary" json:"summary"`

	// System metadata.
	FileSizeBytes int64  `db:"file_size_bytes" json:"file_size_bytes"`
	ContentType   string `db:"content_type" json:"content_type"`
	NumPages      *int   `db:"num_pages" json:"num_pages"`

	Status       string     `db:"status" json:"status"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	UploadedAt   time.Time  `db:"uploaded_at" json:"uploaded_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at"`
}

// Fragment is one overlap-bounded slice of a document's normalized text,
// stored with its 768-dimension embedding. Fragments are immutable and are
// cascade-deleted with their parent document.
type Fragment struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	Text       string    `db:"text" json:"text"`
	Position   int       `db:"position" json:"position"` // 0-based, contiguous
	Embedding  []float32 `db:"embedding" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Audit actions.
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AuditEntry is an append-only record of one CRUD mutation with before/after
// snapshots. CREATE has no old values, DELETE has no new values.
type AuditEntry struct {
	ID         string                 `db:"id" json:"id"`
	DocumentID string                 `db:"document_id" json:"document_id"`
	Action     string                 `db:"action" json:"action"`
	OldValues  map[string]interface{} `db:"old_values" json:"old_values"`
	NewValues  map[string]interface{} `db:"new_values" json:"new_values"`
	UserID     string                 `db:"user_id" json:"user_id"`
	Timestamp  time.Time              `db:"timestamp" json:"timestamp"`
}

// DocumentMetadata holds the validated output of LLM metadata extraction.
type DocumentMetadata struct {
	Category string   `json:"tipo_documento"`
	Topic    *string  `json:"tema_principal"`
	Date     *string  `json:"fecha_documento"`
	Entities []string `json:"entidades_clave"`
	Summary  *string  `json:"resumen_corto"`
}

// DocumentUpdate carries the editable metadata fields of a document.
// Nil means "leave unchanged".
type DocumentUpdate struct {
	Category *string  `json:"tipo_documento,omitempty"`
	Topic    *string  `json:"tema_principal,omitempty"`
	Date     *string  `json:"fecha_documento,omitempty"`
	Entities []string `json:"entidades_clave,omitempty"`
	Summary  *string  `json:"resumen_corto,omitempty"`
}

// Job status values reported to pollers.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobError      = "error"
)

// Job is one unit of asynchronous ingestion work tracked through the
// durable queue.
type Job struct {
	ID          string     `db:"id" json:"id"`
	TempPath    string     `db:"temp_path" json:"-"`
	FileName    string     `db:"filename" json:"filename"`
	ContentType string     `db:"content_type" json:"content_type"`
	Status      string     `db:"status" json:"status"`
	Progress    int        `db:"progress" json:"progress"`
	Stage       *string    `db:"stage" json:"stage,omitempty"`
	DocumentID  *string    `db:"document_id" json:"document_id,omitempty"`
	Error       *string    `db:"error_message" json:"error,omitempty"`
	Attempts    int        `db:"attempts" json:"attempts"`
	NextRunAt   time.Time  `db:"next_run_at" json:"-"`
	LockedUntil *time.Time `db:"locked_until" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// SearchFilters narrows a semantic search by exact category and an
// inclusive document-date range (YYYY-MM-DD strings).
type SearchFilters struct {
	Category *string `json:"tipo_documento,omitempty"`
	DateFrom *string `json:"fecha_desde,omitempty"`
	DateTo   *string `json:"fecha_hasta,omitempty"`
}

// SearchRequest is a semantic search query with optional filters and
// 1-based pagination.
type SearchRequest struct {
	Query    string         `json:"query"`
	Filters  *SearchFilters `json:"filters,omitempty"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// SearchResult pairs a document with its relevance score: the cosine
// distance of its closest fragment (0 identical, 2 opposite; lower is
// more relevant).
type SearchResult struct {
	Document       Document `json:"documento"`
	RelevanceScore float64  `json:"relevance_score"`
}

// SearchResponse is a ranked, paginated result set.
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// AuditHistory is a paginated slice of audit entries, newest first.
type AuditHistory struct {
	Entries    []AuditEntry `json:"entries"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}
