package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertAuditTx(ctx context.Context, tx execer, entry *models.AuditEntry) error {
	if entry == nil {
		return fmt.Errorf("nil audit entry")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO audit_log (id, document_id, action, old_values, new_values, user_id, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, q,
		entry.ID, entry.DocumentID, entry.Action,
		jsonParam(entry.OldValues), jsonParam(entry.NewValues),
		entry.UserID, entry.Timestamp)
	return err
}

const auditColumns = `id, document_id, action, old_values, new_values, user_id, ts`

func (c *DatabaseClient) DocumentAuditHistory(ctx context.Context, docID string, page, pageSize int) (*models.AuditHistory, error) {
	var total int
	if err := c.db.QueryRowContext(ctx,
		`SELECT count(*) FROM audit_log WHERE document_id = $1`, docID,
	).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + auditColumns + `
		FROM audit_log
		WHERE document_id = $1
		ORDER BY ts DESC
		LIMIT $2 OFFSET $3`
	rows, err := c.db.QueryContext(ctx, q, docID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := collectAuditRows(rows)
	if err != nil {
		return nil, err
	}
	return paginatedHistory(entries, total, page, pageSize), nil
}

func (c *DatabaseClient) AuditHistory(ctx context.Context, query core.AuditQuery) (*models.AuditHistory, error) {
	where := " WHERE 1=1"
	var args []interface{}

	if query.Action != "" {
		args = append(args, query.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if query.UserID != "" {
		args = append(args, query.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if query.DateFrom != "" {
		args = append(args, query.DateFrom)
		where += fmt.Sprintf(" AND ts >= $%d::date", len(args))
	}
	if query.DateTo != "" {
		args = append(args, query.DateTo)
		where += fmt.Sprintf(" AND ts < $%d::date + interval '1 day'", len(args))
	}

	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, query.PageSize, (query.Page-1)*query.PageSize)
	q := fmt.Sprintf(`SELECT %s FROM audit_log%s ORDER BY ts DESC LIMIT $%d OFFSET $%d`,
		auditColumns, where, len(args)-1, len(args))
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := collectAuditRows(rows)
	if err != nil {
		return nil, err
	}
	return paginatedHistory(entries, total, query.Page, query.PageSize), nil
}

func collectAuditRows(rows *sql.Rows) ([]models.AuditEntry, error) {
	var out []models.AuditEntry
	for rows.Next() {
		var (
			e      models.AuditEntry
			oldRaw []byte
			newRaw []byte
		)
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Action, &oldRaw, &newRaw, &e.UserID, &e.Timestamp); err != nil {
			return nil, err
		}
		if len(oldRaw) > 0 {
			if err := json.Unmarshal(oldRaw, &e.OldValues); err != nil {
				return nil, fmt.Errorf("decode old_values for %s: %w", e.ID, err)
			}
		}
		if len(newRaw) > 0 {
			if err := json.Unmarshal(newRaw, &e.NewValues); err != nil {
				return nil, fmt.Errorf("decode new_values for %s: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func paginatedHistory(entries []models.AuditEntry, total, page, pageSize int) *models.AuditHistory {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &models.AuditHistory{
		Entries:    entries,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}
}
