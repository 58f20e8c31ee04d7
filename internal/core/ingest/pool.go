package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

type PoolConfig struct {
	NumWorkers       int
	MaxJobsPerWorker int
	PollInterval     time.Duration
	MaxAttempts      int
	RetryBaseSeconds int
}

// Pool runs N workers that claim jobs from the durable queue. Each worker
// goroutine retires after MaxJobsPerWorker jobs and is replaced by a fresh
// one, bounding the damage of slow leaks in the OCR and PDF libraries.
type Pool struct {
	orch *Orchestrator
	jobs core.JobStore
	cfg  PoolConfig
}

func NewPool(orch *Orchestrator, jobs core.JobStore, cfg PoolConfig) *Pool {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	if cfg.MaxJobsPerWorker <= 0 {
		cfg.MaxJobsPerWorker = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBaseSeconds <= 0 {
		cfg.RetryBaseSeconds = 60
	}
	return &Pool{orch: orch, jobs: jobs, cfg: cfg}
}

// Run blocks until ctx is cancelled, keeping NumWorkers workers alive.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.NumWorkers; i++ {
		slot := i
		g.Go(func() error {
			for {
				if err := p.workerLife(gctx, slot); err != nil {
					return err
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// workerLife claims and processes jobs until the per-worker job budget is
// spent, then returns so Run starts a replacement.
func (p *Pool) workerLife(ctx context.Context, slot int) error {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	processed := 0
	for processed < p.cfg.MaxJobsPerWorker {
		job, err := p.jobs.Claim(ctx)
		if err != nil {
			log.Printf("worker %d: claim: %v", slot, err)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			continue
		}

		p.handle(ctx, job)
		processed++

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	log.Printf("worker %d: recycling after %d jobs", slot, processed)
	return nil
}

// handle settles one claimed job: complete on success, otherwise retry with
// exponential backoff or fail terminally depending on the error kind and the
// attempt budget.
func (p *Pool) handle(ctx context.Context, job *models.Job) {
	docID, err := p.orch.Process(ctx, job)
	if err == nil {
		if err := p.jobs.Complete(ctx, job.ID, docID); err != nil {
			log.Printf("job %s: complete: %v", job.ID, err)
			return
		}
		p.removeTemp(job)
		log.Printf("job %s: document %s ingested", job.ID, docID)
		return
	}

	log.Printf("job %s: attempt %d failed: %v", job.ID, job.Attempts, err)

	if core.KindOf(err) == core.KindInput || core.KindOf(err) == core.KindFatal {
		p.fail(ctx, job, err)
		return
	}
	// MaxAttempts is the retry budget, not the execution cap: a job is
	// retried MaxAttempts times after its first execution before it is
	// failed terminally.
	if job.Attempts > p.cfg.MaxAttempts {
		p.fail(ctx, job, fmt.Errorf("gave up after %d retries: %w", job.Attempts-1, err))
		return
	}

	delay := p.retryDelay(job.Attempts)
	if err := p.jobs.Retry(ctx, job.ID, err.Error(), delay); err != nil {
		log.Printf("job %s: retry: %v", job.ID, err)
	}
}

// retryDelay grows the base delay five-fold per completed attempt:
// 60s, 300s, 900s with the default base.
func (p *Pool) retryDelay(attempts int) int {
	delay := p.cfg.RetryBaseSeconds
	for i := 1; i < attempts; i++ {
		delay *= 5
	}
	return delay
}

func (p *Pool) fail(ctx context.Context, job *models.Job, cause error) {
	if err := p.jobs.Fail(ctx, job.ID, cause.Error()); err != nil {
		log.Printf("job %s: fail: %v", job.ID, err)
		return
	}
	p.removeTemp(job)
}

// removeTemp drops the spooled upload once the job reaches a terminal state.
// A job awaiting retry keeps its temp file; it is the retry's input.
func (p *Pool) removeTemp(job *models.Job) {
	if job.TempPath == "" {
		return
	}
	if err := os.Remove(job.TempPath); err != nil && !os.IsNotExist(err) {
		log.Printf("job %s: remove temp file: %v", job.ID, err)
	}
}
