// Package batch runs retrieval over a collection of input names, writes one
// FASTA artifact per fetched identifier and an audit row per name.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/seqfetch/internal/core/domain"
	"github.com/vietddude/seqfetch/internal/infra/source/routing"
	"github.com/vietddude/seqfetch/internal/infra/storage"
	"github.com/vietddude/seqfetch/internal/metrics"
)

// Skip notes written to the audit log.
const (
	NoteNoID   = "no id found"
	NoteExists = "exists"
)

// DefaultItemDelay bounds the request rate across items.
const DefaultItemDelay = 150 * time.Millisecond

// Retriever fetches the record of one identifier.
type Retriever interface {
	Retrieve(ctx context.Context, id domain.ItemID) domain.Outcome
}

// Config holds runner settings.
type Config struct {
	OutputDir string
	Overwrite bool
	ItemDelay time.Duration
}

// Summary counts outcomes of a run.
type Summary struct {
	RunID   string
	OK      int
	Failed  int
	Skipped int
	LogPath string
}

// Total returns the number of processed names.
func (s Summary) Total() int { return s.OK + s.Failed + s.Skipped }

// Runner processes names sequentially.
type Runner struct {
	cfg       Config
	extractor *domain.Extractor
	retriever Retriever
	failures  storage.FailedItemRepository
	sleep     routing.SleepFunc
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithFailureRegistry records failed identifiers in repo.
func WithFailureRegistry(repo storage.FailedItemRepository) Option {
	return func(r *Runner) { r.failures = repo }
}

// WithSleep replaces the inter-item wait.
func WithSleep(fn routing.SleepFunc) Option {
	return func(r *Runner) { r.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, extractor *domain.Extractor, retriever Retriever, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		extractor: extractor,
		retriever: retriever,
		sleep:     routing.Sleep,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ArtifactPath returns the output file for id.
func (r *Runner) ArtifactPath(id domain.ItemID) string {
	return filepath.Join(r.cfg.OutputDir, string(id)+".fasta")
}

// Run processes names in sorted order. Setup problems (output directory,
// audit log) are returned before any item is touched; per-item problems only
// ever become audit rows. When ctx is cancelled the current item finishes,
// the log is closed and ctx.Err() is returned with the partial summary.
func (r *Runner) Run(ctx context.Context, names []string) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("create output directory: %w", err)
	}
	audit, err := CreateAuditLog(filepath.Join(r.cfg.OutputDir, AuditLogName))
	if err != nil {
		return sum, err
	}
	sum.LogPath = audit.Path()

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	logger := r.logger.With("run_id", sum.RunID)
	logger.Info("Batch started", "items", len(sorted), "output", r.cfg.OutputDir)

	var runErr error
	for _, name := range sorted {
		if err := ctx.Err(); err != nil {
			runErr = err
			logger.Warn("Batch interrupted", "processed", sum.Total(), "remaining", len(sorted)-sum.Total())
			break
		}

		rec, fetched := r.processItem(ctx, logger, sum.RunID, name)
		if err := audit.Append(rec); err != nil {
			runErr = err
			break
		}
		metrics.ItemsTotal.WithLabelValues(string(rec.Status)).Inc()

		switch rec.Status {
		case domain.StatusOK:
			sum.OK++
		case domain.StatusFail:
			sum.Failed++
		default:
			sum.Skipped++
		}

		if fetched {
			_ = r.sleep(ctx, r.cfg.ItemDelay)
		}
	}

	rows := audit.Rows()
	if err := audit.Close(); err != nil && runErr == nil {
		runErr = err
	}

	logger.Info("Batch finished",
		"rows", rows,
		"ok", sum.OK,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"log", sum.LogPath,
	)
	return sum, runErr
}

// processItem resolves one name to exactly one audit record. fetched reports
// whether the network was used.
func (r *Runner) processItem(ctx context.Context, logger *slog.Logger, runID, name string) (domain.AuditRecord, bool) {
	id, ok := r.extractor.Extract(stem(name))
	if !ok {
		logger.Info("[SKIP] no id found", "name", name)
		return domain.AuditRecord{SourceFile: name, Status: domain.StatusSkip, Note: NoteNoID}, false
	}

	out := r.ArtifactPath(id)
	if !r.cfg.Overwrite && fileExists(out) {
		logger.Info("[SKIP] exists", "id", id, "path", out)
		return domain.AuditRecord{ID: id, SourceFile: name, Status: domain.StatusSkip, Note: NoteExists}, false
	}

	// The item in flight runs to completion; cancellation is observed by Run
	// between items. Per-request timeouts bound the call.
	outcome := r.retriever.Retrieve(context.WithoutCancel(ctx), id)
	rec := domain.AuditRecord{ID: id, SourceFile: name}

	switch outcome.Kind {
	case domain.OutcomeSuccess:
		if err := os.WriteFile(out, []byte(outcome.Content), 0o644); err != nil {
			rec.Status = domain.StatusFail
			rec.Note = fmt.Sprintf("write %s: %v", out, err)
			logger.Error("[FAIL] write artifact", "id", id, "error", err)
			r.recordFailure(ctx, logger, runID, rec)
			return rec, true
		}
		rec.Source = outcome.Source
		rec.Status = domain.StatusOK
		logger.Info("[OK] fetched",
			"id", id,
			"source", outcome.Source,
			"resolved_id", outcome.ResolvedID,
			"path", out,
		)
		r.resolveFailure(ctx, logger, id)
	default:
		rec.Status = domain.StatusFail
		rec.Note = outcome.Reason
		logger.Warn("[FAIL] "+outcome.Reason, "id", id)
		r.recordFailure(ctx, logger, runID, rec)
	}
	return rec, true
}

func (r *Runner) recordFailure(ctx context.Context, logger *slog.Logger, runID string, rec domain.AuditRecord) {
	if r.failures == nil {
		return
	}
	err := r.failures.Record(context.WithoutCancel(ctx), &domain.FailedItem{
		ID:          uuid.NewString(),
		RunID:       runID,
		ItemID:      rec.ID,
		SourceFile:  rec.SourceFile,
		Error:       rec.Note,
		LastAttempt: time.Now().Unix(),
	})
	if err != nil {
		logger.Warn("Failed to record failure", "id", rec.ID, "error", err)
	}
}

func (r *Runner) resolveFailure(ctx context.Context, logger *slog.Logger, id domain.ItemID) {
	if r.failures == nil {
		return
	}
	if err := r.failures.MarkResolved(context.WithoutCancel(ctx), id); err != nil {
		logger.Warn("Failed to clear failure record", "id", id, "error", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
