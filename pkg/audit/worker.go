package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/veilai/veil-oss/pkg/domain"
	"github.com/veilai/veil-oss/pkg/telemetry"
)

const (
	defaultQueueSize       = 256
	defaultVerifierTimeout = 30 * time.Second
)

// Job is one leak-audit unit of work: the redacted text of a single redaction
// call and the tokens that call minted. Purging is scoped to exactly these
// tokens so concurrent unrelated requests are never affected.
type Job struct {
	ID           string
	RedactedText string
	Tokens       []string
}

// WorkerConfig controls queue sizing and verifier timeouts.
type WorkerConfig struct {
	// QueueSize bounds the job queue. Submit drops jobs when full.
	QueueSize int
	// VerifierTimeout bounds each verifier call. A timeout is treated the
	// same as a clean (non-leak) verdict.
	VerifierTimeout time.Duration
	// Workers is the number of consumer goroutines.
	Workers int
}

// Worker consumes leak-audit jobs off a bounded queue. It owns the only
// write path into the vault besides Mint: the scoped purge.
type Worker struct {
	verifier domain.Verifier
	vault    domain.TokenVault
	logger   *slog.Logger
	metrics  *telemetry.Metrics

	timeout time.Duration
	jobs    chan Job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorker constructs a Worker and starts its consumer goroutines.
func NewWorker(verifier domain.Verifier, vault domain.TokenVault, cfg WorkerConfig, logger *slog.Logger, metrics *telemetry.Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	timeout := cfg.VerifierTimeout
	if timeout <= 0 {
		timeout = defaultVerifierTimeout
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	w := &Worker{
		verifier: verifier,
		vault:    vault,
		logger:   logger.With("component", "audit.worker"),
		metrics:  metrics,
		timeout:  timeout,
		jobs:     make(chan Job, queueSize),
	}

	w.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go w.run()
	}
	return w
}

// Submit enqueues a job without blocking. It returns false when the queue is
// full or the worker is shut down; the job is dropped in either case because
// the redaction path must never wait on the audit loop.
func (w *Worker) Submit(job Job) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return false
	}

	select {
	case w.jobs <- job:
		return true
	default:
		w.metrics.RecordAuditDropped()
		w.logger.Warn("audit queue full, dropping job", "job_id", job.ID)
		return false
	}
}

// Close stops accepting jobs and waits for queued work to drain, up to the
// context deadline.
func (w *Worker) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer w.wg.Done()
	for job := range w.jobs {
		w.process(job)
	}
}

// process runs exactly one audit attempt. Any failure downgrades to a
// non-leak verdict: re-auditing could double-purge tokens that already
// expired naturally, so there is no retry path.
func (w *Worker) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	payload, err := w.verifier.Check(ctx, job.RedactedText)
	if err != nil {
		w.metrics.RecordAuditResult(telemetry.AuditResultError)
		telemetry.RecordAuditVerdict(ctx, telemetry.AuditResultError)
		w.logger.Error("verifier call failed, assuming no leak", "job_id", job.ID, "error", err)
		return
	}

	outcome, err := ParseOutcome(payload)
	if err != nil {
		w.metrics.RecordAuditResult(telemetry.AuditResultError)
		telemetry.RecordAuditVerdict(ctx, telemetry.AuditResultError)
		w.logger.Error("unparseable verifier payload, assuming no leak", "job_id", job.ID, "error", err)
		return
	}

	if !outcome.Leaked {
		w.metrics.RecordAuditResult(telemetry.AuditResultClean)
		telemetry.RecordAuditVerdict(ctx, telemetry.AuditResultClean)
		return
	}

	// Purge exactly this call's tokens, nothing else.
	purged := make([]string, 0, len(job.Tokens))
	for _, token := range job.Tokens {
		if err := w.vault.Delete(ctx, token); err != nil {
			w.logger.Error("failed to purge token", "job_id", job.ID, "error", err)
			continue
		}
		purged = append(purged, token)
	}

	w.metrics.RecordAuditResult(telemetry.AuditResultLeak)
	telemetry.RecordAuditVerdict(ctx, telemetry.AuditResultLeak)
	w.logger.Warn("leak detected, vault entries purged",
		"job_id", job.ID,
		"reason", outcome.Reason,
		"purged", len(purged),
	)
}
