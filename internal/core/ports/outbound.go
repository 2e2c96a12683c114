package ports

import (
	"context"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

// ArtifactStore owns the on-disk layout of per-stage outputs. Presence of a
// completed stage output is the sole idempotency signal for reruns; there is
// no separate completion database.
type ArtifactStore interface {
	StageComplete(docID string, stage domain.Stage) bool
	WriteStageOutput(docID string, stage domain.Stage, content []byte) error
	ReadStageOutput(docID string, stage domain.Stage) ([]byte, error)
	AssetDir(docID string) string
	WriteSummary(stage domain.Stage, summary domain.RunSummary) error
	WriteQualityReport(docID string, metrics domain.QualityMetrics) error
}

// ImageManifest is a per-document mapping from image filename to its vision
// analysis. Put flushes the whole mapping to disk before returning, so a
// crash loses at most the one in-flight image.
type ImageManifest interface {
	Has(filename string) bool
	Put(filename string, analysis domain.ImageAnalysis) error
	Snapshot() map[string]domain.ImageAnalysis
	Len() int
}

// ManifestStore loads a document's image manifest, empty if none exists yet.
type ManifestStore interface {
	Load(docID string) (ImageManifest, error)
}

// TextExtractor pulls the embedded text layer out of a source document.
type TextExtractor interface {
	ExtractText(ctx context.Context, sourcePath string) (string, error)
}

// ImageExtractor writes every embedded image of the source document into
// assetDir and returns the written filenames.
type ImageExtractor interface {
	ExtractImages(ctx context.Context, sourcePath, assetDir string) ([]string, error)
}

// OCREngine recognizes text in a single page image. Used as the fallback
// when the source carries no text layer at all.
type OCREngine interface {
	RecognizeImage(ctx context.Context, imagePath string) (string, error)
}

// ImageAnalyzer produces a structured description of one extracted image.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, imagePath string) (domain.ImageAnalysis, error)
}

// TextRefiner cleans up one Markdown section of OCR output.
type TextRefiner interface {
	RefineSection(ctx context.Context, section string) (string, error)
}

// Synthesizer turns the enhanced Markdown into the final publication-ready
// document.
type Synthesizer interface {
	Synthesize(ctx context.Context, markdown string) (string, error)
}

// SectionChunker splits a Markdown document into independently processable
// sections.
type SectionChunker interface {
	Split(markdown string) []string
}

// MessageQueue hands accepted uploads off to the pipeline worker.
type MessageQueue interface {
	PublishDocumentQueued(ctx context.Context, job domain.Job) error
	SubscribeDocumentQueued(ctx context.Context, handler func(context.Context, domain.Job) error) error
}
