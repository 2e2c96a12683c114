package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
)

// Processor runs the stage sequence for a single queued document. It backs
// the queue worker, where documents arrive one at a time instead of as a
// batch.
type Processor struct {
	store      ports.ArtifactStore
	extract    ports.StageRunner
	enhance    ports.StageRunner
	synthesize ports.StageRunner
	log        *slog.Logger
}

func NewProcessor(
	store ports.ArtifactStore,
	extract ports.StageRunner,
	enhance ports.StageRunner,
	synthesize ports.StageRunner,
	log *slog.Logger,
) *Processor {
	return &Processor{
		store:      store,
		extract:    extract,
		enhance:    enhance,
		synthesize: synthesize,
		log:        log,
	}
}

func (p *Processor) ProcessDocument(ctx context.Context, job domain.Job) error {
	doc := domain.Document{ID: job.Document, SourcePath: job.SourcePath}

	var runners []ports.StageRunner
	switch job.Flow {
	case domain.FlowSynthesis:
		// Text inputs bypass extraction and enhancement: the uploaded
		// content is seeded as the enhance-stage output so the synthesis
		// runner finds its input where it always does.
		if err := p.seedSynthesisInput(doc); err != nil {
			return err
		}
		runners = []ports.StageRunner{p.synthesize}
	default:
		runners = []ports.StageRunner{p.extract, p.enhance, p.synthesize}
	}

	for _, runner := range runners {
		detail := runner.Run(ctx, doc)
		if detail.Status == domain.StatusFailed {
			return fmt.Errorf("stage %s failed for %s: %s", runner.Stage(), doc.ID, detail.Error)
		}
	}

	p.log.Info("document_complete", "document", doc.ID, "flow", job.Flow)
	return nil
}

func (p *Processor) seedSynthesisInput(doc domain.Document) error {
	if p.store.StageComplete(doc.ID, domain.StageEnhance) {
		return nil
	}
	content, err := os.ReadFile(doc.SourcePath)
	if err != nil {
		return fmt.Errorf("read source for synthesis: %w", err)
	}
	if err := p.store.WriteStageOutput(doc.ID, domain.StageEnhance, content); err != nil {
		return fmt.Errorf("seed synthesis input: %w", err)
	}
	return nil
}
