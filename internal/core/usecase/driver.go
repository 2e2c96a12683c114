package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
	"github.com/retrodocs/digitizer/internal/observability/metrics"
)

// Driver runs one stage over a document set and aggregates the terminal
// details into a RunSummary. Stage runners never return errors, so a bad
// document degrades to one failed detail record and the batch always
// completes. With workers > 1 documents run concurrently; the summary is a
// single-writer reduction behind a mutex either way.
type Driver struct {
	runner  ports.StageRunner
	store   ports.ArtifactStore
	workers int
	service string
	log     *slog.Logger
	metrics *metrics.PipelineMetrics
}

func NewDriver(
	runner ports.StageRunner,
	store ports.ArtifactStore,
	workers int,
	service string,
	log *slog.Logger,
	m *metrics.PipelineMetrics,
) *Driver {
	if workers <= 0 {
		workers = 1
	}
	return &Driver{
		runner:  runner,
		store:   store,
		workers: workers,
		service: service,
		log:     log,
		metrics: m,
	}
}

func (d *Driver) Run(ctx context.Context, docs []domain.Document) domain.RunSummary {
	summary := domain.RunSummary{
		RunID:     uuid.NewString(),
		Stage:     d.runner.Stage(),
		StartTime: time.Now().UTC(),
	}

	d.log.Info("run_started",
		"run_id", summary.RunID,
		"stage", summary.Stage,
		"documents", len(docs),
		"workers", d.workers,
	)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for _, doc := range docs {
		doc := doc
		// Cancellation stops new documents from starting; in-flight ones
		// run to their own terminal state.
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			start := time.Now()
			if d.metrics != nil {
				d.metrics.StartDocument()
			}

			detail := d.runner.Run(ctx, doc)

			if d.metrics != nil {
				d.metrics.FinishDocument(d.service, summary.Stage, detail, time.Since(start))
			}
			mu.Lock()
			summary.Absorb(detail)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// On a cancelled run only the started documents have terminal records;
	// the counts always reconcile against what was actually attempted.
	summary.TotalFiles = len(summary.ProcessingDetails)
	summary.EndTime = time.Now().UTC()

	if err := d.store.WriteSummary(summary.Stage, summary); err != nil {
		d.log.Error("summary_write_failed", "run_id", summary.RunID, "stage", summary.Stage, "error", err)
	}

	d.log.Info("run_finished",
		"run_id", summary.RunID,
		"stage", summary.Stage,
		"total", summary.TotalFiles,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary
}
