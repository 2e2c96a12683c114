package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
)

// SynthesizeRunner is stage 3: final LLM synthesis of the enhanced Markdown
// into a publication-ready document, plus a quantitative quality report.
type SynthesizeRunner struct {
	store       ports.ArtifactStore
	synthesizer ports.Synthesizer
	log         *slog.Logger
}

func NewSynthesizeRunner(store ports.ArtifactStore, synthesizer ports.Synthesizer, log *slog.Logger) *SynthesizeRunner {
	return &SynthesizeRunner{
		store:       store,
		synthesizer: synthesizer,
		log:         log,
	}
}

func (r *SynthesizeRunner) Stage() domain.Stage { return domain.StageSynthesize }

func (r *SynthesizeRunner) Run(ctx context.Context, doc domain.Document) domain.DocumentDetail {
	detail := domain.DocumentDetail{Document: doc.ID, Status: domain.StatusSkipped}

	if r.store.StageComplete(doc.ID, domain.StageSynthesize) {
		r.log.Info("stage_skipped", "stage", r.Stage(), "document", doc.ID)
		return detail
	}

	source, err := r.store.ReadStageOutput(doc.ID, domain.StageEnhance)
	if err != nil {
		return r.failed(detail, "read enhance output", err)
	}

	r.log.Info("stage_processing", "stage", r.Stage(), "document", doc.ID)

	final, err := r.synthesizer.Synthesize(ctx, string(source))
	if err != nil {
		return r.failed(detail, "synthesize", err)
	}

	if err := r.store.WriteStageOutput(doc.ID, domain.StageSynthesize, []byte(final)); err != nil {
		return r.failed(detail, "write output", err)
	}

	metrics := AnalyzeMarkdownQuality(final)
	if err := r.store.WriteQualityReport(doc.ID, metrics); err != nil {
		return r.failed(detail, "write quality report", err)
	}

	detail.Status = domain.StatusSuccess
	detail.FinalSizeKB = math.Round(float64(len(final))/1024*100) / 100
	detail.QualityMetrics = &metrics
	r.log.Info("stage_success",
		"stage", r.Stage(),
		"document", doc.ID,
		"final_size_kb", detail.FinalSizeKB,
	)
	return detail
}

func (r *SynthesizeRunner) failed(detail domain.DocumentDetail, operation string, err error) domain.DocumentDetail {
	detail.Status = domain.StatusFailed
	detail.Error = fmt.Sprintf("%s: %v", operation, err)
	r.log.Error("stage_failed", "stage", r.Stage(), "document", detail.Document, "error", detail.Error)
	return detail
}
