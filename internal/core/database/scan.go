package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ugel-ilo/sgd-backend/internal/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d           models.Document
		entitiesRaw []byte
	)
	err := row.Scan(
		&d.ID, &d.FileName, &d.StorageURL, &d.ObjectName,
		&d.Category, &d.Topic, &d.Date, &entitiesRaw, &d.Summary,
		&d.FileSizeBytes, &d.ContentType, &d.NumPages,
		&d.Status, &d.ErrorMessage, &d.UploadedAt, &d.CreatedAt, &d.UpdatedAt, &d.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(entitiesRaw) > 0 {
		if err := json.Unmarshal(entitiesRaw, &d.Entities); err != nil {
			return nil, fmt.Errorf("decode entities for %s: %w", d.ID, err)
		}
	}
	return &d, nil
}

// entitiesParam renders an entity list as a jsonb parameter. Nil stays NULL
// so COALESCE-style updates leave the column untouched.
func entitiesParam(entities []string) interface{} {
	if entities == nil {
		return nil
	}
	raw, _ := json.Marshal(entities)
	return raw
}

func jsonParam(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	raw, _ := json.Marshal(m)
	return raw
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
