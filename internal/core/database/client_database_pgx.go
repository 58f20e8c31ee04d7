package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ugel-ilo/sgd-backend/internal/config"
	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Pool sized for an API process plus a handful of ingest workers.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the underlying pool for stores that share the connection
// (job queue).
func (c *DatabaseClient) DB() *sql.DB { return c.db }

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for Document

// CreateDocument inserts the document row with status=processing. A retried
// ingestion reuses its document ID, so the insert doubles as a reset: the
// row is rewritten and any fragments from the aborted attempt are dropped.
func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM fragments WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("reset fragments: %w", err)
	}

	const q = `
		INSERT INTO documents
			(id, filename, storage_url, object_name,
			 category, topic, doc_date, entities, summary,
			 file_size_bytes, content_type, num_pages,
			 status, uploaded_at, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			 COALESCE($14, now()), now(), now())
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			storage_url = EXCLUDED.storage_url,
			object_name = EXCLUDED.object_name,
			category = EXCLUDED.category,
			topic = EXCLUDED.topic,
			doc_date = EXCLUDED.doc_date,
			entities = EXCLUDED.entities,
			summary = EXCLUDED.summary,
			file_size_bytes = EXCLUDED.file_size_bytes,
			content_type = EXCLUDED.content_type,
			num_pages = EXCLUDED.num_pages,
			status = EXCLUDED.status,
			error_message = NULL,
			updated_at = now()
	`
	if _, err := tx.ExecContext(ctx, q,
		doc.ID, doc.FileName, doc.StorageURL, doc.ObjectName,
		doc.Category, doc.Topic, doc.Date, entitiesParam(doc.Entities), doc.Summary,
		doc.FileSizeBytes, doc.ContentType, doc.NumPages,
		models.StatusProcessing, nullTime(doc.UploadedAt)); err != nil {
		return err
	}
	return tx.Commit()
}

// CommitIngestion makes a processed document visible atomically: fragments,
// completed status and the CREATE audit entry either all land or none do.
func (c *DatabaseClient) CommitIngestion(ctx context.Context, docID string, fragments []models.Fragment, entry *models.AuditEntry) error {
	if len(fragments) == 0 {
		return fmt.Errorf("refusing to complete document %s without fragments", docID)
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insFragment = `
		INSERT INTO fragments (id, document_id, position, text, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`
	stmt, err := tx.PrepareContext(ctx, insFragment)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range fragments {
		f := &fragments[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx,
			f.ID, docID, f.Position, f.Text, pgvector.NewVector(f.Embedding),
		); err != nil {
			return fmt.Errorf("insert fragment %d: %w", f.Position, err)
		}
	}

	const updDoc = `
		UPDATE documents
		SET status = $2, processed_at = now(), updated_at = now(), error_message = NULL
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, updDoc, docID, models.StatusCompleted); err != nil {
		return fmt.Errorf("complete document: %w", err)
	}

	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("audit create: %w", err)
	}

	return tx.Commit()
}

func (c *DatabaseClient) MarkDocumentError(ctx context.Context, docID, message string) error {
	const q = `
		UPDATE documents
		SET status = $2, error_message = $3, processed_at = now(), updated_at = now()
		WHERE id = $1
	`
	_, err := c.db.ExecContext(ctx, q, docID, models.StatusError, message)
	return err
}

const documentColumns = `
	id, filename, storage_url, object_name,
	category, topic, doc_date, entities, summary,
	file_size_bytes, content_type, num_pages,
	status, error_message, uploaded_at, created_at, updated_at, processed_at
`

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(c.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (c *DatabaseClient) ListDocuments(ctx context.Context, page, pageSize int) ([]models.Document, int, error) {
	var total int
	if err := c.db.QueryRowContext(ctx,
		`SELECT count(*) FROM documents WHERE status = $1`, models.StatusCompleted,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + documentColumns + `
		FROM documents
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := c.db.QueryContext(ctx, q, models.StatusCompleted, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentMetadata(ctx context.Context, id string, update *models.DocumentUpdate, entry *models.AuditEntry) (*models.Document, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		UPDATE documents
		SET category = COALESCE($2, category),
		    topic = COALESCE($3, topic),
		    doc_date = COALESCE($4, doc_date),
		    entities = COALESCE($5, entities),
		    summary = COALESCE($6, summary),
		    updated_at = now()
		WHERE id = $1 AND status = $7
	`
	res, err := tx.ExecContext(ctx, q, id,
		update.Category, update.Topic, update.Date, entitiesParam(update.Entities), update.Summary,
		models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("document not found: %s", id)
	}

	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("audit update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c.GetDocumentByID(ctx, id)
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string, entry *models.AuditEntry) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The DELETE audit entry is written first and removed by the same
	// cascade; history of deleted documents lives only until the row goes.
	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("audit delete: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return tx.Commit()
}

// NearestFragments scans the vector index with the cosine-distance operator,
// restricted to completed documents.
func (c *DatabaseClient) NearestFragments(ctx context.Context, embedding []float32, limit int) ([]core.FragmentMatch, error) {
	const q = `
		SELECT f.document_id, f.embedding <=> $1 AS distance
		FROM fragments f
		INNER JOIN documents d ON d.id = f.document_id
		WHERE d.status = $2
		ORDER BY distance ASC
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, pgvector.NewVector(embedding), models.StatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.FragmentMatch
	for rows.Next() {
		var m core.FragmentMatch
		if err := rows.Scan(&m.DocumentID, &m.Distance); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) GetDocumentsByIDs(ctx context.Context, ids []string, filters *models.SearchFilters) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := `SELECT ` + documentColumns + `
		FROM documents
		WHERE id = ANY($1) AND status = $2`
	args := []interface{}{ids, models.StatusCompleted}

	if filters != nil {
		if filters.Category != nil {
			args = append(args, *filters.Category)
			q += fmt.Sprintf(" AND category = $%d", len(args))
		}
		if filters.DateFrom != nil {
			args = append(args, *filters.DateFrom)
			q += fmt.Sprintf(" AND doc_date >= $%d", len(args))
		}
		if filters.DateTo != nil {
			args = append(args, *filters.DateTo)
			q += fmt.Sprintf(" AND doc_date <= $%d", len(args))
		}
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

var _ core.DbClient = (*DatabaseClient)(nil)
