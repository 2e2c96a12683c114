package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/retrodocs/digitizer/internal/core/domain"
	"github.com/retrodocs/digitizer/internal/core/ports"
)

var analyzableImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// EnhanceRunner is stage 2: vision analysis of every extracted image plus
// LLM cleanup of the OCR Markdown. Image analyses live in the per-document
// manifest, which is flushed after each addition, so a rerun after a crash
// only pays for the images that were still in flight.
type EnhanceRunner struct {
	store     ports.ArtifactStore
	manifests ports.ManifestStore
	analyzer  ports.ImageAnalyzer
	refiner   ports.TextRefiner
	chunker   ports.SectionChunker
	log       *slog.Logger
}

func NewEnhanceRunner(
	store ports.ArtifactStore,
	manifests ports.ManifestStore,
	analyzer ports.ImageAnalyzer,
	refiner ports.TextRefiner,
	chunker ports.SectionChunker,
	log *slog.Logger,
) *EnhanceRunner {
	return &EnhanceRunner{
		store:     store,
		manifests: manifests,
		analyzer:  analyzer,
		refiner:   refiner,
		chunker:   chunker,
		log:       log,
	}
}

func (r *EnhanceRunner) Stage() domain.Stage { return domain.StageEnhance }

func (r *EnhanceRunner) Run(ctx context.Context, doc domain.Document) domain.DocumentDetail {
	detail := domain.DocumentDetail{Document: doc.ID, Status: domain.StatusSkipped}

	if r.store.StageComplete(doc.ID, domain.StageEnhance) {
		r.log.Info("stage_skipped", "stage", r.Stage(), "document", doc.ID)
		return detail
	}

	source, err := r.store.ReadStageOutput(doc.ID, domain.StageExtract)
	if err != nil {
		return r.failed(detail, "read extract output", err)
	}

	r.log.Info("stage_processing", "stage", r.Stage(), "document", doc.ID)

	manifest, err := r.manifests.Load(doc.ID)
	if err != nil {
		return r.failed(detail, "load manifest", err)
	}

	if err := r.analyzeImages(ctx, doc, manifest, &detail); err != nil {
		return r.failed(detail, "analyze images", err)
	}

	cleaned, err := r.refineText(ctx, doc, string(source), &detail)
	if err != nil {
		return r.failed(detail, "refine text", err)
	}

	final := cleaned + renderAnalysisAppendix(manifest.Snapshot())
	if err := r.store.WriteStageOutput(doc.ID, domain.StageEnhance, []byte(final)); err != nil {
		return r.failed(detail, "write output", err)
	}

	detail.Status = domain.StatusSuccess
	r.log.Info("stage_success",
		"stage", r.Stage(),
		"document", doc.ID,
		"images_analyzed", detail.ImagesAnalyzed,
		"api_calls", detail.APICalls,
	)
	return detail
}

// analyzeImages sends every not-yet-analyzed image through the vision model.
// A single image's failure (bad response, malformed JSON) skips that image
// only; its manifest entry stays absent and a later run picks it up again.
func (r *EnhanceRunner) analyzeImages(
	ctx context.Context,
	doc domain.Document,
	manifest ports.ImageManifest,
	detail *domain.DocumentDetail,
) error {
	assetDir := r.store.AssetDir(doc.ID)
	entries, err := os.ReadDir(assetDir)
	if err != nil {
		if os.IsNotExist(err) {
			// No asset dir means a zero-image document; nothing to do.
			return nil
		}
		return fmt.Errorf("list assets: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !analyzableImageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		if manifest.Has(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		analysis, err := r.analyzer.AnalyzeImage(ctx, filepath.Join(assetDir, entry.Name()))
		if err != nil {
			r.log.Warn("image_analysis_failed", "document", doc.ID, "image", entry.Name(), "error", err)
			continue
		}
		if err := manifest.Put(entry.Name(), analysis); err != nil {
			return fmt.Errorf("flush manifest: %w", err)
		}
		detail.ImagesAnalyzed++
		detail.APICalls++
	}
	return nil
}

// refineText cleans each section independently. A section whose cleanup call
// fails is carried through unchanged, matching the per-item failure
// granularity of the image pass.
func (r *EnhanceRunner) refineText(
	ctx context.Context,
	doc domain.Document,
	source string,
	detail *domain.DocumentDetail,
) (string, error) {
	sections := r.chunker.Split(source)
	refined := make([]string, 0, len(sections))

	for i, section := range sections {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		cleaned, err := r.refiner.RefineSection(ctx, section)
		if err != nil {
			r.log.Warn("section_cleanup_failed", "document", doc.ID, "section", i+1, "error", err)
			cleaned = section
		} else {
			detail.APICalls++
		}
		refined = append(refined, cleaned)
	}
	return strings.Join(refined, "\n\n"), nil
}

func (r *EnhanceRunner) failed(detail domain.DocumentDetail, operation string, err error) domain.DocumentDetail {
	detail.Status = domain.StatusFailed
	detail.Error = fmt.Sprintf("%s: %v", operation, err)
	r.log.Error("stage_failed", "stage", r.Stage(), "document", detail.Document, "error", detail.Error)
	return detail
}

// renderAnalysisAppendix formats the manifest as the trailing
// "Extracted Image Analysis" section consumed by the synthesis stage.
// Entries are ordered by filename so output bytes are stable across runs.
func renderAnalysisAppendix(entries map[string]domain.ImageAnalysis) string {
	if len(entries) == 0 {
		return ""
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("\n\n---\n\n## Extracted Image Analysis\n\n")
	for _, name := range names {
		analysis := entries[name]
		fmt.Fprintf(&b, "### Image: `%s`\n", name)
		fmt.Fprintf(&b, "- **Category:** %s\n", analysis.Category)
		fmt.Fprintf(&b, "- **Key Entities:** %s\n", strings.Join(analysis.Entities, ", "))
		fmt.Fprintf(&b, "> %s\n\n", analysis.Description)
	}
	return b.String()
}
