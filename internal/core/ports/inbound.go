package ports

import (
	"context"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

// StageRunner executes one pipeline stage for one document. The returned
// detail is always terminal (success, failed or skipped); transform errors
// are folded into it and never escape as Go errors.
type StageRunner interface {
	Stage() domain.Stage
	Run(ctx context.Context, doc domain.Document) domain.DocumentDetail
}

// DocumentProcessor runs the stage sequence selected by a job for a single
// document. Inbound contract of the queue worker.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, job domain.Job) error
}
