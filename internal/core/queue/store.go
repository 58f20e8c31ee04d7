// Package queue implements the durable ingestion queue on Postgres.
// Claims use FOR UPDATE SKIP LOCKED so concurrent workers never take the
// same job, and each claim carries a lease: a worker that dies mid-job
// leaves a row whose lease expires, at which point the job is redelivered.
package queue

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

type Store struct {
	db    *sql.DB
	lease time.Duration
}

func NewStore(db *sql.DB, lease time.Duration) *Store {
	if lease <= 0 {
		lease = time.Hour
	}
	return &Store{db: db, lease: lease}
}

func (s *Store) Enqueue(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO ingest_jobs (id, temp_path, filename, content_type, status, next_run_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`
	if _, err := s.db.ExecContext(ctx, q,
		job.ID, job.TempPath, job.FileName, job.ContentType, models.JobPending,
	); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	job.Status = models.JobPending
	return nil
}

// Claim leases the oldest runnable job. A job is runnable when it is
// pending and due, or when a previous worker's lease has expired.
func (s *Store) Claim(ctx context.Context) (*models.Job, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const pick = `
		SELECT id, temp_path, filename, content_type, attempts
		FROM ingest_jobs
		WHERE (status = $1 AND next_run_at <= now())
		   OR (status = $2 AND locked_until < now())
		ORDER BY next_run_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	var job models.Job
	err = tx.QueryRowContext(ctx, pick, models.JobPending, models.JobProcessing).
		Scan(&job.ID, &job.TempPath, &job.FileName, &job.ContentType, &job.Attempts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lockedUntil := time.Now().Add(s.lease)
	const claim = `
		UPDATE ingest_jobs
		SET status = $2, attempts = attempts + 1, locked_until = $3, updated_at = now()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, claim, job.ID, models.JobProcessing, lockedUntil); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	job.Status = models.JobProcessing
	job.Attempts++
	job.LockedUntil = &lockedUntil
	return &job, nil
}

func (s *Store) Complete(ctx context.Context, jobID, documentID string) error {
	const q = `
		UPDATE ingest_jobs
		SET status = $2, progress = 100, stage = 'done', document_id = $3,
		    error_message = NULL, locked_until = NULL, updated_at = now()
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, q, jobID, models.JobCompleted, documentID)
	return err
}

func (s *Store) Retry(ctx context.Context, jobID, errMsg string, delaySeconds int) error {
	const q = `
		UPDATE ingest_jobs
		SET status = $2, error_message = $3, locked_until = NULL,
		    next_run_at = now() + make_interval(secs => $4), updated_at = now()
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, q, jobID, models.JobPending, errMsg, delaySeconds)
	return err
}

func (s *Store) Fail(ctx context.Context, jobID, errMsg string) error {
	const q = `
		UPDATE ingest_jobs
		SET status = $2, error_message = $3, locked_until = NULL, updated_at = now()
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, q, jobID, models.JobError, errMsg)
	return err
}

// UpdateProgress is best-effort; a lost write only makes the poller's view
// stale, it never affects the job's final state.
func (s *Store) UpdateProgress(ctx context.Context, jobID string, progress int, stage string) {
	const q = `
		UPDATE ingest_jobs
		SET progress = $2, stage = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`
	if _, err := s.db.ExecContext(ctx, q, jobID, progress, stage, models.JobProcessing); err != nil {
		log.Printf("queue: progress update for job %s failed: %v", jobID, err)
	}
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	const q = `
		SELECT id, temp_path, filename, content_type, status, progress, stage,
		       document_id, error_message, attempts, next_run_at, locked_until,
		       created_at, updated_at
		FROM ingest_jobs
		WHERE id = $1
	`
	var job models.Job
	err := s.db.QueryRowContext(ctx, q, jobID).Scan(
		&job.ID, &job.TempPath, &job.FileName, &job.ContentType, &job.Status,
		&job.Progress, &job.Stage, &job.DocumentID, &job.Error, &job.Attempts,
		&job.NextRunAt, &job.LockedUntil, &job.CreatedAt, &job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

var _ core.JobStore = (*Store)(nil)
