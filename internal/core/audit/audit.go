// Package audit builds append-only records of document mutations. Entries
// are persisted inside the same transaction as the mutation they describe,
// so a rolled-back change never leaves an orphan audit row.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/ugel-ilo/sgd-backend/internal/models"
)

// SystemUser is recorded when a mutation originates from the pipeline
// itself rather than an end user.
const SystemUser = "system"

// NewCreate builds a CREATE entry; old values are always absent.
func NewCreate(documentID string, newValues map[string]interface{}, userID string) *models.AuditEntry {
	return newEntry(documentID, models.AuditCreate, nil, newValues, userID)
}

// NewUpdate builds an UPDATE entry carrying both snapshots.
func NewUpdate(documentID string, oldValues, newValues map[string]interface{}, userID string) *models.AuditEntry {
	return newEntry(documentID, models.AuditUpdate, oldValues, newValues, userID)
}

// NewDelete builds a DELETE entry; new values are always absent.
func NewDelete(documentID string, oldValues map[string]interface{}, userID string) *models.AuditEntry {
	return newEntry(documentID, models.AuditDelete, oldValues, nil, userID)
}

func newEntry(documentID, action string, oldValues, newValues map[string]interface{}, userID string) *models.AuditEntry {
	if userID == "" {
		userID = SystemUser
	}
	return &models.AuditEntry{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Action:     action,
		OldValues:  oldValues,
		NewValues:  newValues,
		UserID:     userID,
		Timestamp:  time.Now().UTC(),
	}
}

// Snapshot captures the auditable fields of a document as an opaque
// key-value map for an audit entry.
func Snapshot(doc *models.Document) map[string]interface{} {
	if doc == nil {
		return nil
	}
	return map[string]interface{}{
		"id":              doc.ID,
		"filename":        doc.FileName,
		"tipo_documento":  nullable(doc.Category),
		"tema_principal":  nullable(doc.Topic),
		"fecha_documento": nullable(doc.Date),
		"entidades_clave": doc.Entities,
		"resumen_corto":   nullable(doc.Summary),
		"file_size_bytes": doc.FileSizeBytes,
		"content_type":    doc.ContentType,
		"num_pages":       doc.NumPages,
		"status":          doc.Status,
	}
}

// MetadataSnapshot captures only the editable metadata fields, used for
// UPDATE before/after pairs.
func MetadataSnapshot(doc *models.Document) map[string]interface{} {
	if doc == nil {
		return nil
	}
	return map[string]interface{}{
		"tipo_documento":  nullable(doc.Category),
		"tema_principal":  nullable(doc.Topic),
		"fecha_documento": nullable(doc.Date),
		"entidades_clave": doc.Entities,
		"resumen_corto":   nullable(doc.Summary),
	}
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
